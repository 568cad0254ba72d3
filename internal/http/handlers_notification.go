package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) notificationRoutes(r chi.Router) {
	r.Get("/", s.handleListNotifications)
	r.Patch("/{id}/read", s.handleMarkRead)
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	notes, err := s.notifier.List(r.Context(), callerID(r), r.URL.Query().Get("unread") == "true")
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, notes)
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	n, err := s.notifier.MarkRead(r.Context(), callerID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, n)
}
