package http

import (
	"net/http"
	"time"

	"propledger/internal/core"
	"propledger/internal/ports"
	"propledger/internal/services"
	"propledger/internal/summary"
)

// Transactions

// handleListTransactions lists the owner's transactions, narrowed by the
// search, type, propertyId and dateRange query parameters.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	filter, err := FilterParamsFromQuery(r.URL.Query()).Filter()
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	s.listTransactions(w, r, ports.TransactionQuery{}, filter)
}

func (s *Server) handleListPropertyTransactions(w http.ResponseWriter, r *http.Request) {
	s.listTransactions(w, r, ports.TransactionQuery{PropertyID: r.PathValue("id")}, summary.Filter{})
}

func (s *Server) handleListCategoryTransactions(w http.ResponseWriter, r *http.Request) {
	s.listTransactions(w, r, ports.TransactionQuery{Category: r.PathValue("category")}, summary.Filter{})
}

func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request, q ports.TransactionQuery, filter summary.Filter) {
	txs, err := s.svc.Transactions.List(r.Context(), ownerID(r), q, filter)
	if err != nil {
		writeServiceError(w, r, err, "Transaction")
		return
	}
	writeJSON(w, http.StatusOK, list(txs))
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var tx core.Transaction
	if err := decodeJSON(w, r, &tx); err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	tx.Type = normalizeType(tx.Type)
	created, err := s.svc.Transactions.Create(r.Context(), ownerID(r), tx)
	if err != nil {
		writeServiceError(w, r, err, "Transaction")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := s.svc.Transactions.Get(r.Context(), ownerID(r), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err, "Transaction")
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	apply := func(tx *core.Transaction) error {
		if err := unmarshal(body, tx); err != nil {
			return err
		}
		tx.Type = normalizeType(tx.Type)
		return nil
	}
	updated, err := s.svc.Transactions.Update(r.Context(), ownerID(r), r.PathValue("id"), apply)
	if err != nil {
		writeServiceError(w, r, err, "Transaction")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Transactions.Delete(r.Context(), ownerID(r), r.PathValue("id")); err != nil {
		writeServiceError(w, r, err, "Transaction")
		return
	}
	writeMessage(w, http.StatusOK, "Transaction removed")
}

// Summaries

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter, err := FilterParamsFromQuery(q).Filter()
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	months, err := ParseMonths(q)
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	sum, err := s.svc.Financial.Summary(r.Context(), ownerID(r), services.SummaryQuery{Filter: filter, Months: months})
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handlePropertySummary(w http.ResponseWriter, r *http.Request) {
	months, err := ParseMonths(r.URL.Query())
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	sum, err := s.svc.Financial.PropertySummary(r.Context(), ownerID(r), r.PathValue("id"), months)
	if err != nil {
		writeServiceError(w, r, err, "Property")
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// handleSummarize aggregates the posted transactions without storing them.
func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	var req SummarizeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	now, err := ParseNow(req.Now)
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	filter, err := req.Filter.Filter()
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	for i := range req.Transactions {
		req.Transactions[i].Type = normalizeType(req.Transactions[i].Type)
	}

	sum, err := s.svc.Financial.Summarize(r.Context(), ownerID(r), req.Transactions, now, summary.Options{
		Filter: filter,
		Months: req.Months,
	})
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	year, err := ParseYear(r.URL.Query(), time.Now())
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	buckets, err := s.svc.Financial.Chart(r.Context(), ownerID(r), year)
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, buckets)
}
