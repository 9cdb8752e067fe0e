package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hongminglow/horoscope-be/internal/gate"
	"github.com/hongminglow/horoscope-be/internal/http/respond"
	"github.com/hongminglow/horoscope-be/internal/session"
)

// FeaturesHandler lists which premium features the caller can use.
type FeaturesHandler struct {
	sessions *session.Manager
	gate     *gate.Gate
}

func NewFeaturesHandler(sessions *session.Manager, g *gate.Gate) *FeaturesHandler {
	return &FeaturesHandler{sessions: sessions, gate: g}
}

func (h *FeaturesHandler) Register(r chi.Router) {
	r.Get("/features", h.handle)
}

func (h *FeaturesHandler) handle(w http.ResponseWriter, r *http.Request) {
	p, err := SessionProfile(h.sessions)(r)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "Failed to load profile")
		return
	}
	respond.JSON(w, http.StatusOK, "features loaded", h.gate.Status(p))
}
