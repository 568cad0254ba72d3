package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"fintrack/internal/services"
)

type goalRequest struct {
	Name                     *string  `json:"name"`
	TargetAmount             *float64 `json:"targetAmount"`
	TargetDate               *string  `json:"targetDate"`
	AutoAllocationPercentage *float64 `json:"autoAllocationPercentage"`
}

type contributeRequest struct {
	Amount float64 `json:"amount"`
}

func (s *Server) goalRoutes(r chi.Router) {
	r.Post("/create", s.handleCreateGoal)
	r.Get("/", s.handleListGoals)
	r.Put("/{id}", s.handleUpdateGoal)
	r.Delete("/{id}", s.handleDeleteGoal)
	r.Post("/{id}/contribute", s.handleContributeGoal)
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	date, err := optionalDate(req.TargetDate)
	if err != nil {
		writeError(w, r, err)
		return
	}
	g, err := s.goals.Create(r.Context(), callerID(r), services.CreateGoalInput{
		Name:                     deref(req.Name),
		TargetAmount:             deref(req.TargetAmount),
		TargetDate:               date,
		AutoAllocationPercentage: req.AutoAllocationPercentage,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, g)
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := s.goals.List(r.Context(), callerID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, goals)
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	date, err := optionalDate(req.TargetDate)
	if err != nil {
		writeError(w, r, err)
		return
	}
	g, err := s.goals.Update(r.Context(), callerID(r), chi.URLParam(r, "id"), services.UpdateGoalInput{
		Name:                     req.Name,
		TargetAmount:             req.TargetAmount,
		TargetDate:               date,
		AutoAllocationPercentage: req.AutoAllocationPercentage,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, g)
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	if err := s.goals.Delete(r.Context(), callerID(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Goal deleted successfully")
}

func (s *Server) handleContributeGoal(w http.ResponseWriter, r *http.Request) {
	var req contributeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	g, err := s.goals.Contribute(r.Context(), callerID(r), chi.URLParam(r, "id"), req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, g)
}
