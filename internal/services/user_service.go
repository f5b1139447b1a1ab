package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"propledger/internal/auth"
	"propledger/internal/core"
	applog "propledger/internal/log"
	"propledger/internal/ports"
)

// ErrInvalidCredentials is returned by Login for an unknown email or a
// wrong password alike.
var ErrInvalidCredentials = fmt.Errorf("invalid email or password: %w", core.ErrUnauthorized)

var (
	ErrWrongPassword     = core.Invalid(errors.New("current password is incorrect"))
	ErrInvalidResetToken = core.Invalid(errors.New("reset token is invalid or has expired"))
	ErrDeleteSelf        = core.Invalid(errors.New("admins cannot delete their own account"))
)

// ResetNotifier delivers a password reset token to the account holder.
type ResetNotifier interface {
	NotifyPasswordReset(ctx context.Context, u core.User, token string) error
}

// logResetNotifier stands in for a mail transport. The token itself is
// only logged at debug level.
type logResetNotifier struct {
	logger *applog.Logger
}

func (n logResetNotifier) NotifyPasswordReset(ctx context.Context, u core.User, token string) error {
	n.logger.InfoContext(ctx, "Password reset requested", applog.FieldUserID, u.ID)
	n.logger.DebugContext(ctx, "Password reset link", applog.FieldUserID, u.ID,
		"path", "/api/users/reset-password/"+token)
	return nil
}

// AccountUpdate carries the fields an admin may change on any account.
// Nil fields are left untouched.
type AccountUpdate struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Role  *string `json:"role"`
}

// ProfileUpdate carries the fields a user may change on their profile.
// Nil fields are left untouched.
type ProfileUpdate struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

type UserService struct {
	users    ports.UserStore
	issuer   *auth.Issuer
	admins   map[string]bool
	notifier ResetNotifier
	logger   *applog.Logger
}

// NewUserService wires the service. Users registering with one of
// adminEmails get the admin role. A nil notifier logs reset requests.
func NewUserService(users ports.UserStore, issuer *auth.Issuer, adminEmails []string, notifier ResetNotifier, logger *applog.Logger) *UserService {
	admins := make(map[string]bool, len(adminEmails))
	for _, e := range adminEmails {
		admins[core.NormalizeEmail(e)] = true
	}
	logger = componentLogger(logger, applog.ComponentAuth)
	if notifier == nil {
		notifier = logResetNotifier{logger: logger}
	}
	return &UserService{
		users:    users,
		issuer:   issuer,
		admins:   admins,
		notifier: notifier,
		logger:   logger,
	}
}

// Register creates the account and returns it with a fresh token.
func (s *UserService) Register(ctx context.Context, name, email, password string) (core.User, string, error) {
	u := core.User{
		Name:  strings.TrimSpace(name),
		Email: core.NormalizeEmail(email),
		Role:  core.RoleUser,
	}
	if s.admins[u.Email] {
		u.Role = core.RoleAdmin
	}
	if err := validate(u.Validate()); err != nil {
		return core.User{}, "", err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return core.User{}, "", validate(err)
	}
	u.PasswordHash = hash

	created, err := s.users.CreateUser(ctx, u)
	if err != nil {
		if errors.Is(err, core.ErrConflict) {
			return core.User{}, "", fmt.Errorf("user already exists: %w", core.ErrConflict)
		}
		return core.User{}, "", fmt.Errorf("create user: %w", err)
	}

	token, err := s.issuer.Issue(created)
	if err != nil {
		return core.User{}, "", fmt.Errorf("issue token: %w", err)
	}
	s.logger.InfoContext(ctx, "User registered", applog.FieldUserID, created.ID)
	return created, token, nil
}

// Login checks the credentials and returns the user with a fresh token.
func (s *UserService) Login(ctx context.Context, email, password string) (core.User, string, error) {
	u, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.User{}, "", ErrInvalidCredentials
		}
		return core.User{}, "", fmt.Errorf("load user: %w", err)
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		s.logger.WarnContext(ctx, "Failed login", applog.FieldUserID, u.ID)
		return core.User{}, "", ErrInvalidCredentials
	}

	token, err := s.issuer.Issue(u)
	if err != nil {
		return core.User{}, "", fmt.Errorf("issue token: %w", err)
	}
	return u, token, nil
}

func (s *UserService) Profile(ctx context.Context, userID string) (core.User, error) {
	return s.users.GetUser(ctx, userID)
}

// UpdateProfile applies the present fields, re-hashing the password when
// one is given.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (core.User, error) {
	u, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return core.User{}, err
	}
	if upd.Name != nil {
		u.Name = strings.TrimSpace(*upd.Name)
	}
	if upd.Email != nil {
		u.Email = core.NormalizeEmail(*upd.Email)
	}
	if err := validate(u.Validate()); err != nil {
		return core.User{}, err
	}
	if upd.Password != nil {
		hash, err := auth.HashPassword(*upd.Password)
		if err != nil {
			return core.User{}, validate(err)
		}
		u.PasswordHash = hash
	}

	updated, err := s.users.UpdateUser(ctx, u)
	if err != nil {
		if errors.Is(err, core.ErrConflict) {
			return core.User{}, fmt.Errorf("email already in use: %w", core.ErrConflict)
		}
		return core.User{}, err
	}
	s.logger.InfoContext(ctx, "Profile updated", applog.FieldUserID, userID)
	return updated, nil
}

// ChangePassword replaces the password after checking the current one.
func (s *UserService) ChangePassword(ctx context.Context, userID, current, next string) error {
	u, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(u.PasswordHash, current) {
		s.logger.WarnContext(ctx, "Password change with wrong current password", applog.FieldUserID, userID)
		return ErrWrongPassword
	}
	hash, err := auth.HashPassword(next)
	if err != nil {
		return validate(err)
	}
	u.PasswordHash = hash
	if _, err := s.users.UpdateUser(ctx, u); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	s.logger.InfoContext(ctx, "Password changed", applog.FieldUserID, userID)
	return nil
}

// ForgotPassword issues a reset token for the account behind email and
// hands it to the notifier. Unknown emails and delivery failures are only
// logged; the caller sees success either way.
func (s *UserService) ForgotPassword(ctx context.Context, email string) error {
	email = core.NormalizeEmail(email)
	if !strings.Contains(email, "@") {
		return validate(core.ErrInvalidEmail)
	}
	u, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, core.ErrNotFound) {
		s.logger.DebugContext(ctx, "Password reset for unknown email")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	token, err := s.issuer.IssueReset(u)
	if err != nil {
		return fmt.Errorf("issue reset token: %w", err)
	}
	if err := s.notifier.NotifyPasswordReset(ctx, u, token); err != nil {
		s.logger.ErrorContext(ctx, "Failed to deliver password reset",
			applog.FieldUserID, u.ID,
			applog.FieldError, err)
	}
	return nil
}

// ResetPassword sets a new password from a reset token and signs the user
// in. A token works once: changing the password invalidates it.
func (s *UserService) ResetPassword(ctx context.Context, token, password string) (core.User, string, error) {
	userID, binding, err := s.issuer.ParseReset(token)
	if err != nil {
		return core.User{}, "", ErrInvalidResetToken
	}
	u, err := s.users.GetUser(ctx, userID)
	if errors.Is(err, core.ErrNotFound) {
		return core.User{}, "", ErrInvalidResetToken
	}
	if err != nil {
		return core.User{}, "", fmt.Errorf("load user: %w", err)
	}
	if auth.ResetBinding(u.PasswordHash) != binding {
		return core.User{}, "", ErrInvalidResetToken
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return core.User{}, "", validate(err)
	}
	u.PasswordHash = hash
	updated, err := s.users.UpdateUser(ctx, u)
	if err != nil {
		return core.User{}, "", fmt.Errorf("update password: %w", err)
	}
	access, err := s.issuer.Issue(updated)
	if err != nil {
		return core.User{}, "", fmt.Errorf("issue token: %w", err)
	}
	s.logger.InfoContext(ctx, "Password reset", applog.FieldUserID, userID)
	return updated, access, nil
}

func requireAdmin(p auth.Principal) error {
	if !p.IsAdmin() {
		return fmt.Errorf("not authorized as an admin: %w", core.ErrForbidden)
	}
	return nil
}

// ListUsers is restricted to admins.
func (s *UserService) ListUsers(ctx context.Context, p auth.Principal) ([]core.User, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	return s.users.ListUsers(ctx)
}

// GetUser is restricted to admins.
func (s *UserService) GetUser(ctx context.Context, p auth.Principal, id string) (core.User, error) {
	if err := requireAdmin(p); err != nil {
		return core.User{}, err
	}
	return s.users.GetUser(ctx, id)
}

// UpdateUser lets an admin rename an account, move its email or change its
// role.
func (s *UserService) UpdateUser(ctx context.Context, p auth.Principal, id string, upd AccountUpdate) (core.User, error) {
	if err := requireAdmin(p); err != nil {
		return core.User{}, err
	}
	u, err := s.users.GetUser(ctx, id)
	if err != nil {
		return core.User{}, err
	}
	if upd.Name != nil {
		u.Name = strings.TrimSpace(*upd.Name)
	}
	if upd.Email != nil {
		u.Email = core.NormalizeEmail(*upd.Email)
	}
	if upd.Role != nil {
		u.Role = strings.ToLower(strings.TrimSpace(*upd.Role))
	}
	if err := validate(u.Validate()); err != nil {
		return core.User{}, err
	}
	updated, err := s.users.UpdateUser(ctx, u)
	if err != nil {
		if errors.Is(err, core.ErrConflict) {
			return core.User{}, fmt.Errorf("email already in use: %w", core.ErrConflict)
		}
		return core.User{}, err
	}
	s.logger.InfoContext(ctx, "User updated by admin",
		applog.FieldUserID, id,
		"admin_id", p.UserID)
	return updated, nil
}

// DeleteUser removes an account and everything it owns. Admins cannot
// delete themselves.
func (s *UserService) DeleteUser(ctx context.Context, p auth.Principal, id string) error {
	if err := requireAdmin(p); err != nil {
		return err
	}
	if id == p.UserID {
		return ErrDeleteSelf
	}
	if err := s.users.DeleteUser(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "User deleted by admin",
		applog.FieldUserID, id,
		"admin_id", p.UserID)
	return nil
}
