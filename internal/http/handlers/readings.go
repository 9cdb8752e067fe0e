package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hongminglow/horoscope-be/internal/entitlement"
	"github.com/hongminglow/horoscope-be/internal/gate"
	"github.com/hongminglow/horoscope-be/internal/http/respond"
	"github.com/hongminglow/horoscope-be/internal/models"
	"github.com/hongminglow/horoscope-be/internal/models/dto"
	"github.com/hongminglow/horoscope-be/internal/reading"
	"github.com/hongminglow/horoscope-be/internal/session"
)

// ReadingsHandler runs the reading pipeline for the caller's profile.
type ReadingsHandler struct {
	sessions *session.Manager
	readings *reading.Service
	gate     *gate.Gate
}

func NewReadingsHandler(sessions *session.Manager, readings *reading.Service, g *gate.Gate) *ReadingsHandler {
	return &ReadingsHandler{sessions: sessions, readings: readings, gate: g}
}

// Register attaches reading routes; r must already authenticate. Premium
// routes answer 402 with a locked body before any work is done.
func (h *ReadingsHandler) Register(r chi.Router) {
	r.Post("/readings/daily", h.horoscope(models.Daily))
	r.Method(http.MethodPost, "/readings/weekly", h.gate.Wrap(entitlement.WeeklyReading, h.horoscope(models.Weekly)))
	r.Method(http.MethodPost, "/readings/monthly", h.gate.Wrap(entitlement.MonthlyReading, h.horoscope(models.Monthly)))
	r.Method(http.MethodPost, "/readings/dream", h.gate.Wrap(entitlement.DreamReading, http.HandlerFunc(h.handleDream)))
	r.Method(http.MethodPost, "/readings/palm", h.gate.Wrap(entitlement.PalmReading, http.HandlerFunc(h.handlePalm)))
	r.Get("/readings/status", h.handleStatus)
}

func (h *ReadingsHandler) horoscope(horizon models.Horizon) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req dto.HoroscopeRequest
		if err := decodeJSON(w, r, &req, true); err != nil {
			respond.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		p, ok := h.profile(w, r)
		if !ok {
			return
		}
		sign := reading.ResolveSign(req.Sign, p)
		out, err := h.readings.Horoscope(r.Context(), p, sign, horizon)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		respond.JSON(w, http.StatusOK, "reading generated", out)
	}
}

func (h *ReadingsHandler) handleDream(w http.ResponseWriter, r *http.Request) {
	var req dto.DreamRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	p, ok := h.profile(w, r)
	if !ok {
		return
	}
	out, err := h.readings.Dream(r.Context(), p, req.Description)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "reading generated", out)
}

func (h *ReadingsHandler) handlePalm(w http.ResponseWriter, r *http.Request) {
	var req dto.PalmRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	p, ok := h.profile(w, r)
	if !ok {
		return
	}
	out, err := h.readings.Palm(r.Context(), p, req.Notes)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, "reading generated", out)
}

func (h *ReadingsHandler) handleStatus(w http.ResponseWriter, r *http.Request) {
	p, ok := h.profile(w, r)
	if !ok {
		return
	}
	respond.JSON(w, http.StatusOK, "reading status", h.readings.Status(p.UserID))
}

func (h *ReadingsHandler) profile(w http.ResponseWriter, r *http.Request) (*models.UserProfile, bool) {
	p, err := SessionProfile(h.sessions)(r)
	if err != nil {
		if errors.Is(err, errUnauthenticated) {
			respond.Error(w, http.StatusUnauthorized, "missing bearer token")
			return nil, false
		}
		respond.Error(w, http.StatusInternalServerError, "Failed to load profile")
		return nil, false
	}
	return p, true
}

func (h *ReadingsHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var denied *entitlement.Denied
	if errors.As(err, &denied) {
		h.gate.Deny(w, denied)
		return
	}
	respond.Failure(w, r, err)
}
