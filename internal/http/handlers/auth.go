package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hongminglow/horoscope-be/internal/auth"
	"github.com/hongminglow/horoscope-be/internal/http/respond"
	"github.com/hongminglow/horoscope-be/internal/logging"
	"github.com/hongminglow/horoscope-be/internal/models"
	"github.com/hongminglow/horoscope-be/internal/models/dto"
	"github.com/hongminglow/horoscope-be/internal/session"
)

// GuestPrefix marks the subject of guest tokens.
const GuestPrefix = "guest:"

// IdentityFetcher resolves an OAuth access token to a user.
type IdentityFetcher interface {
	FetchUser(ctx context.Context, accessToken string) (models.User, error)
}

// SessionForgetter drops per-user request state on sign-out.
type SessionForgetter interface {
	Forget(userID string)
}

// AuthHandler owns the sign-in and sign-out endpoints.
type AuthHandler struct {
	identity IdentityFetcher
	tokens   *auth.TokenManager
	sessions *session.Manager
	forget   SessionForgetter
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(identity IdentityFetcher, tokens *auth.TokenManager, sessions *session.Manager, forget SessionForgetter) *AuthHandler {
	return &AuthHandler{identity: identity, tokens: tokens, sessions: sessions, forget: forget}
}

// Register attaches auth routes. authn guards logout.
func (h *AuthHandler) Register(r chi.Router, authn func(http.Handler) http.Handler) {
	r.Post("/auth/google", h.handleGoogle)
	r.Post("/auth/guest", h.handleGuest)
	r.With(authn).Post("/auth/logout", h.handleLogout)
}

func (h *AuthHandler) handleGoogle(w http.ResponseWriter, r *http.Request) {
	var req dto.GoogleLoginRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	user, err := h.identity.FetchUser(r.Context(), req.AccessToken)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidAccessToken) {
			respond.Error(w, http.StatusUnauthorized, "invalid access token")
			return
		}
		logging.Ctx(r.Context()).Error().Err(err).Msg("identity lookup failed")
		respond.Error(w, http.StatusBadGateway, "failed to reach identity provider")
		return
	}
	h.login(w, r, user)
}

func (h *AuthHandler) handleGuest(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, models.User{
		ID:    GuestPrefix + uuid.NewString(),
		Name:  "Guest",
		Guest: true,
	})
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request, user models.User) {
	s, err := h.sessions.Open(r.Context(), user)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("user_id", user.ID).Msg("open session failed")
		respond.Error(w, http.StatusInternalServerError, "Failed to load profile")
		return
	}
	token, err := h.tokens.Generate(user)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to generate token")
		return
	}
	logging.Ctx(r.Context()).Info().Str("user_id", user.ID).Bool("guest", user.Guest).Msg("signed in")
	respond.JSON(w, http.StatusOK, "login successful", dto.LoginResponse{
		Token:   token,
		User:    user,
		Profile: s.Snapshot(),
	})
}

func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "missing bearer token")
		return
	}
	h.tokens.Revoke(claims)
	h.sessions.Close(claims.Subject)
	if h.forget != nil {
		h.forget.Forget(claims.Subject)
	}
	respond.JSON(w, http.StatusOK, "logged out", nil)
}
