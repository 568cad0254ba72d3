package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) reportRoutes(r chi.Router) {
	r.Get("/monthly", s.handleMonthlyReport)
	r.Get("/overall", s.handleOverallReport)
	r.Get("/spending", s.handleSpendingReport)
	r.Get("/income", s.handleIncomeReport)
	r.Get("/trends", s.handleTrends)
}

func (s *Server) handleMonthlyReport(w http.ResponseWriter, r *http.Request) {
	summary, err := s.reports.Monthly(r.Context(), callerID(r), r.URL.Query().Get("month"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, summary)
}

func (s *Server) handleOverallReport(w http.ResponseWriter, r *http.Request) {
	summary, err := s.reports.Overall(r.Context(), callerID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, summary)
}

func (s *Server) handleSpendingReport(w http.ResponseWriter, r *http.Request) {
	rep, err := s.reports.Spending(r.Context(), callerID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, rep)
}

func (s *Server) handleIncomeReport(w http.ResponseWriter, r *http.Request) {
	rep, err := s.reports.Income(r.Context(), callerID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, rep)
}

func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	rows, err := s.reports.Trends(r.Context(), callerID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, rows)
}
