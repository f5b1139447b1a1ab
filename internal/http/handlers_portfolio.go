package http

import (
	"net/http"
	"strings"

	"propledger/internal/core"
	"propledger/internal/ports"
)

// Properties

func (s *Server) handleListProperties(w http.ResponseWriter, r *http.Request) {
	props, err := s.svc.Portfolio.ListProperties(r.Context(), ownerID(r))
	if err != nil {
		writeServiceError(w, r, err, "Property")
		return
	}
	writeJSON(w, http.StatusOK, list(props))
}

func (s *Server) handleCreateProperty(w http.ResponseWriter, r *http.Request) {
	var p core.Property
	if err := decodeJSON(w, r, &p); err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	created, err := s.svc.Portfolio.CreateProperty(r.Context(), ownerID(r), p)
	if err != nil {
		writeServiceError(w, r, err, "Property")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetProperty(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.Portfolio.GetProperty(r.Context(), ownerID(r), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err, "Property")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleUpdateProperty(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	updated, err := s.svc.Portfolio.UpdateProperty(r.Context(), ownerID(r), r.PathValue("id"), patch[core.Property](body))
	if err != nil {
		writeServiceError(w, r, err, "Property")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteProperty(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Portfolio.DeleteProperty(r.Context(), ownerID(r), r.PathValue("id")); err != nil {
		writeServiceError(w, r, err, "Property")
		return
	}
	writeMessage(w, http.StatusOK, "Property removed")
}

// Tenants

func (s *Server) handleListTenants(w http.ResponseWriter, r *http.Request) {
	tenants, err := s.svc.Portfolio.ListTenants(r.Context(), ownerID(r))
	if err != nil {
		writeServiceError(w, r, err, "Tenant")
		return
	}
	writeJSON(w, http.StatusOK, list(tenants))
}

func (s *Server) handleCreateTenant(w http.ResponseWriter, r *http.Request) {
	var t core.Tenant
	if err := decodeJSON(w, r, &t); err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	created, err := s.svc.Portfolio.CreateTenant(r.Context(), ownerID(r), t)
	if err != nil {
		writeServiceError(w, r, err, "Tenant")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetTenant(w http.ResponseWriter, r *http.Request) {
	t, err := s.svc.Portfolio.GetTenant(r.Context(), ownerID(r), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err, "Tenant")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleUpdateTenant(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	updated, err := s.svc.Portfolio.UpdateTenant(r.Context(), ownerID(r), r.PathValue("id"), patch[core.Tenant](body))
	if err != nil {
		writeServiceError(w, r, err, "Tenant")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteTenant(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Portfolio.DeleteTenant(r.Context(), ownerID(r), r.PathValue("id")); err != nil {
		writeServiceError(w, r, err, "Tenant")
		return
	}
	writeMessage(w, http.StatusOK, "Tenant removed")
}

// Leases

func (s *Server) handleListLeases(w http.ResponseWriter, r *http.Request) {
	s.listLeases(w, r, "")
}

func (s *Server) handleListPropertyLeases(w http.ResponseWriter, r *http.Request) {
	s.listLeases(w, r, r.PathValue("id"))
}

func (s *Server) listLeases(w http.ResponseWriter, r *http.Request, propertyID string) {
	leases, err := s.svc.Portfolio.ListLeases(r.Context(), ownerID(r), propertyID)
	if err != nil {
		writeServiceError(w, r, err, "Property")
		return
	}
	writeJSON(w, http.StatusOK, list(leases))
}

func (s *Server) handleCreateLease(w http.ResponseWriter, r *http.Request) {
	var l core.Lease
	if err := decodeJSON(w, r, &l); err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	created, err := s.svc.Portfolio.CreateLease(r.Context(), ownerID(r), l)
	if err != nil {
		writeServiceError(w, r, err, "Lease")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetLease(w http.ResponseWriter, r *http.Request) {
	l, err := s.svc.Portfolio.GetLease(r.Context(), ownerID(r), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err, "Lease")
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (s *Server) handleUpdateLease(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	updated, err := s.svc.Portfolio.UpdateLease(r.Context(), ownerID(r), r.PathValue("id"), patch[core.Lease](body))
	if err != nil {
		writeServiceError(w, r, err, "Lease")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteLease(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Portfolio.DeleteLease(r.Context(), ownerID(r), r.PathValue("id")); err != nil {
		writeServiceError(w, r, err, "Lease")
		return
	}
	writeMessage(w, http.StatusOK, "Lease removed")
}

// Maintenance requests

func (s *Server) handleListMaintenance(w http.ResponseWriter, r *http.Request) {
	s.listMaintenance(w, r, ports.MaintenanceQuery{})
}

func (s *Server) handleListPropertyMaintenance(w http.ResponseWriter, r *http.Request) {
	s.listMaintenance(w, r, ports.MaintenanceQuery{PropertyID: r.PathValue("id")})
}

func (s *Server) handleListMaintenanceByStatus(w http.ResponseWriter, r *http.Request) {
	s.listMaintenance(w, r, ports.MaintenanceQuery{Status: r.PathValue("status")})
}

func (s *Server) listMaintenance(w http.ResponseWriter, r *http.Request, q ports.MaintenanceQuery) {
	reqs, err := s.svc.Portfolio.ListMaintenance(r.Context(), ownerID(r), q)
	if err != nil {
		writeServiceError(w, r, err, "Maintenance request")
		return
	}
	writeJSON(w, http.StatusOK, list(reqs))
}

func (s *Server) handleCreateMaintenance(w http.ResponseWriter, r *http.Request) {
	var m core.MaintenanceRequest
	if err := decodeJSON(w, r, &m); err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	created, err := s.svc.Portfolio.CreateMaintenance(r.Context(), ownerID(r), m)
	if err != nil {
		writeServiceError(w, r, err, "Maintenance request")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetMaintenance(w http.ResponseWriter, r *http.Request) {
	m, err := s.svc.Portfolio.GetMaintenance(r.Context(), ownerID(r), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err, "Maintenance request")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleUpdateMaintenance(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	updated, err := s.svc.Portfolio.UpdateMaintenance(r.Context(), ownerID(r), r.PathValue("id"), patch[core.MaintenanceRequest](body))
	if err != nil {
		writeServiceError(w, r, err, "Maintenance request")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteMaintenance(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Portfolio.DeleteMaintenance(r.Context(), ownerID(r), r.PathValue("id")); err != nil {
		writeServiceError(w, r, err, "Maintenance request")
		return
	}
	writeMessage(w, http.StatusOK, "Maintenance request removed")
}

// Mortgages

func (s *Server) handleListMortgages(w http.ResponseWriter, r *http.Request) {
	mortgages, err := s.svc.Portfolio.ListMortgages(r.Context(), ownerID(r), strings.TrimSpace(r.URL.Query().Get("propertyId")))
	if err != nil {
		writeServiceError(w, r, err, "Property")
		return
	}
	writeJSON(w, http.StatusOK, list(mortgages))
}

func (s *Server) handleCreateMortgage(w http.ResponseWriter, r *http.Request) {
	var m core.Mortgage
	if err := decodeJSON(w, r, &m); err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	created, err := s.svc.Portfolio.CreateMortgage(r.Context(), ownerID(r), m)
	if err != nil {
		writeServiceError(w, r, err, "Mortgage")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetMortgage(w http.ResponseWriter, r *http.Request) {
	m, err := s.svc.Portfolio.GetMortgage(r.Context(), ownerID(r), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err, "Mortgage")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleUpdateMortgage(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	updated, err := s.svc.Portfolio.UpdateMortgage(r.Context(), ownerID(r), r.PathValue("id"), patch[core.Mortgage](body))
	if err != nil {
		writeServiceError(w, r, err, "Mortgage")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteMortgage(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Portfolio.DeleteMortgage(r.Context(), ownerID(r), r.PathValue("id")); err != nil {
		writeServiceError(w, r, err, "Mortgage")
		return
	}
	writeMessage(w, http.StatusOK, "Mortgage removed")
}
