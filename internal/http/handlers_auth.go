package http

import (
	"errors"
	"net/http"

	"propledger/internal/core"
	"propledger/internal/services"
)

type credentialsRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type passwordChangeRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type authResponse struct {
	User  core.User `json:"user"`
	Token string    `json:"token"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	u, token, err := s.svc.Users.Register(r.Context(), sanitizeInput(req.Name), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err, "User")
		return
	}
	writeJSON(w, http.StatusCreated, authResponse{User: u, Token: token})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	u, token, err := s.svc.Users.Login(r.Context(), req.Email, req.Password)
	if errors.Is(err, services.ErrInvalidCredentials) {
		writeMessage(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if err != nil {
		writeServiceError(w, r, err, "User")
		return
	}
	writeJSON(w, http.StatusOK, authResponse{User: u, Token: token})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	u, err := s.svc.Users.Profile(r.Context(), principal(r).UserID)
	if err != nil {
		writeServiceError(w, r, err, "User")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// handleUpdateProfile applies the fields present in the body.
func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var upd services.ProfileUpdate
	if err := decodeJSON(w, r, &upd); err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	u, err := s.svc.Users.UpdateProfile(r.Context(), principal(r).UserID, upd)
	if err != nil {
		writeServiceError(w, r, err, "User")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req passwordChangeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	if err := s.svc.Users.ChangePassword(r.Context(), principal(r).UserID, req.CurrentPassword, req.NewPassword); err != nil {
		writeServiceError(w, r, err, "User")
		return
	}
	writeMessage(w, http.StatusOK, "Password updated")
}

// handleForgotPassword answers the same way whether or not the email is
// registered.
func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	if err := s.svc.Users.ForgotPassword(r.Context(), req.Email); err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	writeMessage(w, http.StatusOK, "If that email is registered, reset instructions have been sent")
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	u, token, err := s.svc.Users.ResetPassword(r.Context(), r.PathValue("token"), req.Password)
	if err != nil {
		writeServiceError(w, r, err, "User")
		return
	}
	writeJSON(w, http.StatusOK, authResponse{User: u, Token: token})
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.svc.Users.ListUsers(r.Context(), principal(r))
	if err != nil {
		writeServiceError(w, r, err, "User")
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	u, err := s.svc.Users.GetUser(r.Context(), principal(r), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err, "User")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var upd services.AccountUpdate
	if err := decodeJSON(w, r, &upd); err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	u, err := s.svc.Users.UpdateUser(r.Context(), principal(r), r.PathValue("id"), upd)
	if err != nil {
		writeServiceError(w, r, err, "User")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Users.DeleteUser(r.Context(), principal(r), r.PathValue("id")); err != nil {
		writeServiceError(w, r, err, "User")
		return
	}
	writeMessage(w, http.StatusOK, "User removed")
}
