package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"fintrack/internal/services"
)

func (s *Server) budgetRoutes(r chi.Router) {
	r.Post("/create", s.handleCreateBudget)
	r.Get("/", s.handleListBudgets)
	r.Get("/report", s.handleBudgetReport)
	r.Post("/allocate-budget", s.handleAllocateBudget)
	r.Put("/{id}", s.handleUpdateBudget)
	r.Delete("/{id}", s.handleDeleteBudget)
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var in services.CreateBudgetInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	b, err := s.budgets.Create(r.Context(), callerID(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{Success: true, Message: "Budget created successfully", Data: b})
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	budgets, err := s.budgets.List(r.Context(), callerID(r), q.Get("month"), q.Get("category"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, budgets)
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	var in services.UpdateBudgetInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	b, err := s.budgets.Update(r.Context(), callerID(r), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, b)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	if err := s.budgets.Delete(r.Context(), callerID(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Budget deleted")
}

func (s *Server) handleBudgetReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.budgets.Report(r.Context(), callerID(r), r.URL.Query().Get("month"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, report)
}

func (s *Server) handleAllocateBudget(w http.ResponseWriter, r *http.Request) {
	res, err := s.budgets.AllocateToGoals(r.Context(), callerID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: "Remaining budget allocated to goals successfully", Data: res})
}
