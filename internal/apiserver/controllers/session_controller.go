package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/obinexus/blueshare/internal/apiserver/services"
)

// SessionController exposes read-only session status over HTTP.
type SessionController struct {
	svc *services.SessionService
}

// NewSessionController builds a SessionController backed by svc.
func NewSessionController(svc *services.SessionService) *SessionController {
	return &SessionController{svc: svc}
}

// List responds with every tracked session.
func (sc *SessionController) List(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sc.svc.List())
}

// Status responds with one session's current state, 404 if unknown.
func (sc *SessionController) Status(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, ok := sc.svc.Get(id)
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sess)
}
