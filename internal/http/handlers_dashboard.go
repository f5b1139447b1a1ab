package http

import (
	"net/http"
	"time"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.svc.Dashboard.Load(r.Context(), ownerID(r))
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// Reports

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	reports, err := s.svc.Reports.List(r.Context(), ownerID(r))
	if err != nil {
		writeServiceError(w, r, err, "Report")
		return
	}
	writeJSON(w, http.StatusOK, list(reports))
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	rep, err := s.svc.Reports.Get(r.Context(), ownerID(r), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err, "Report")
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// handleGenerateMonthlyCashFlow builds the report for the posted month, or
// for last month when the body names none.
func (s *Server) handleGenerateMonthlyCashFlow(w http.ResponseWriter, r *http.Request) {
	var req ReportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	year, month := req.Period(time.Now())
	rep, err := s.svc.Reports.GenerateMonthlyCashFlow(r.Context(), ownerID(r), year, month)
	if err != nil {
		writeServiceError(w, r, err, "Report")
		return
	}
	writeJSON(w, http.StatusCreated, rep)
}
