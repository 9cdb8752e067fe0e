package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hongminglow/horoscope-be/internal/http/respond"
	"github.com/hongminglow/horoscope-be/internal/logging"
	"github.com/hongminglow/horoscope-be/internal/models"
	"github.com/hongminglow/horoscope-be/internal/models/dto"
	"github.com/hongminglow/horoscope-be/internal/session"
)

// ProfileUpdater writes profile changes straight to storage.
type ProfileUpdater interface {
	Update(ctx context.Context, userID string, upd models.ProfileUpdate) (*models.UserProfile, error)
}

// AdminHandler changes subscriptions, e.g. from a billing webhook relay.
type AdminHandler struct {
	profiles ProfileUpdater
	sessions *session.Manager
}

func NewAdminHandler(profiles ProfileUpdater, sessions *session.Manager) *AdminHandler {
	return &AdminHandler{profiles: profiles, sessions: sessions}
}

// Register attaches admin routes; r must already check the admin key.
func (h *AdminHandler) Register(r chi.Router) {
	r.Put("/admin/subscriptions/{userID}", h.handleSubscription)
}

func (h *AdminHandler) handleSubscription(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(chi.URLParam(r, "userID"))
	if userID == "" || strings.HasPrefix(userID, GuestPrefix) {
		respond.Error(w, http.StatusBadRequest, "a registered user id is required")
		return
	}
	var req dto.SubscriptionRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.profiles.Update(r.Context(), userID, req.ToUpdate())
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("user_id", userID).Msg("update subscription failed")
		respond.Error(w, http.StatusInternalServerError, "Failed to update profile")
		return
	}
	if s, ok := h.sessions.Get(userID); ok {
		s.Replace(updated)
	}
	logging.Ctx(r.Context()).Info().Str("user_id", userID).Str("tier", string(updated.Subscription.Tier)).Msg("subscription updated")
	respond.JSON(w, http.StatusOK, "subscription updated", updated)
}
