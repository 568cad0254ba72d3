package http

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fintrack/internal/core"
	"fintrack/internal/services"
)

type (
	roleRequest struct {
		Role string `json:"role"`
	}

	limitRequest struct {
		TransactionLimit *int64 `json:"transactionLimit"`
	}
)

func (s *Server) authRoutes(r chi.Router) {
	r.Post("/register", s.handleRegister)
	r.Post("/login", s.handleLogin)
}

func (s *Server) profileRoutes(r chi.Router) {
	r.Get("/me", s.handleProfile)
	r.Put("/me", s.handleUpdateProfile)
	r.Put("/me/password", s.handleChangePassword)
}

func (s *Server) adminRoutes(r chi.Router) {
	r.Get("/", s.handleListUsers)
	r.Delete("/{id}", s.handleDeleteUser)
	r.Put("/{id}/role", s.handleSetRole)
	r.Put("/{id}/transaction-limit", s.handleSetLimit)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in services.RegisterInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := s.users.Register(r.Context(), in); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusCreated, "User registered successfully!")
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in services.LoginInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.users.Login(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: "User logged in successfully!", Data: res})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	u, err := s.users.Profile(r.Context(), callerID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, u)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var in services.UpdateProfileInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	u, err := s.users.UpdateProfile(r.Context(), callerID(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, u)
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var in services.ChangePasswordInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.users.ChangePassword(r.Context(), callerID(r), in); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Password updated successfully")
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.users.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, users)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := s.users.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "User deleted successfully")
}

func (s *Server) handleSetRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	u, err := s.users.SetRole(r.Context(), chi.URLParam(r, "id"), core.Role(req.Role))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: fmt.Sprintf("User role updated to %s", u.Role), Data: u})
}

func (s *Server) handleSetLimit(w http.ResponseWriter, r *http.Request) {
	var req limitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.TransactionLimit == nil {
		writeError(w, r, core.Validation("Transaction limit is required"))
		return
	}
	u, err := s.users.SetTransactionLimit(r.Context(), chi.URLParam(r, "id"), *req.TransactionLimit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, u)
}
