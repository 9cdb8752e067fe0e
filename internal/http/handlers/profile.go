package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/hongminglow/horoscope-be/internal/http/respond"
	"github.com/hongminglow/horoscope-be/internal/logging"
	"github.com/hongminglow/horoscope-be/internal/models"
	"github.com/hongminglow/horoscope-be/internal/models/dto"
	"github.com/hongminglow/horoscope-be/internal/session"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// ProfileHandler serves the caller's profile and its change stream.
type ProfileHandler struct {
	sessions *session.Manager
	upgrader websocket.Upgrader
}

// NewProfileHandler constructs the handler. allowedOrigins applies to
// browser websocket upgrades; native clients send no Origin.
func NewProfileHandler(sessions *session.Manager, allowedOrigins []string) *ProfileHandler {
	return &ProfileHandler{
		sessions: sessions,
		upgrader: websocket.Upgrader{
			ReadBufferSize:   1024,
			WriteBufferSize:  1024,
			HandshakeTimeout: 10 * time.Second,
			CheckOrigin:      originChecker(allowedOrigins),
		},
	}
}

// Register attaches profile routes; r must already authenticate.
func (h *ProfileHandler) Register(r chi.Router) {
	r.Get("/profile", h.handleGet)
	r.Patch("/profile", h.handlePatch)
	r.Delete("/profile", h.handleDelete)
	r.Get("/profile/events", h.handleEvents)
}

func (h *ProfileHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	respond.JSON(w, http.StatusOK, "profile loaded", s.Snapshot())
}

func (h *ProfileHandler) handlePatch(w http.ResponseWriter, r *http.Request) {
	var req dto.ProfileUpdateRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	updated, err := s.Update(r.Context(), req.ToUpdate())
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("user_id", s.User().ID).Msg("update profile failed")
		respond.Error(w, http.StatusInternalServerError, "Failed to update profile")
		return
	}
	respond.JSON(w, http.StatusOK, "profile updated", updated)
}

func (h *ProfileHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	fresh, err := s.Reset(r.Context())
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("user_id", s.User().ID).Msg("delete profile failed")
		respond.Error(w, http.StatusInternalServerError, "Failed to delete profile")
		return
	}
	respond.JSON(w, http.StatusOK, "profile deleted", fresh)
}

// handleEvents streams a profile snapshot on connect and after every change.
func (h *ProfileHandler) handleEvents(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		logging.Ctx(r.Context()).Debug().Err(err).Msg("websocket upgrade failed")
		return
	}
	updates, unsubscribe := s.Subscribe()
	defer unsubscribe()
	defer func() { _ = conn.Close() }()

	done := make(chan struct{})
	go readUntilClosed(conn, done)

	if err := writeProfile(conn, s.Snapshot()); err != nil {
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case p, open := <-updates:
			if !open {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"),
					time.Now().Add(writeWait))
				return
			}
			if err := writeProfile(conn, p); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

type profileEvent struct {
	Type    string              `json:"type"`
	Profile *models.UserProfile `json:"profile"`
}

func writeProfile(conn *websocket.Conn, p *models.UserProfile) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(profileEvent{Type: "profile", Profile: p})
}

// readUntilClosed drains client frames so control messages are processed,
// and closes done once the peer goes away.
func readUntilClosed(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.Debug().Err(err).Msg("profile stream closed")
			}
			return
		}
	}
}

func (h *ProfileHandler) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, err := openSession(r, h.sessions)
	if err != nil {
		if errors.Is(err, errUnauthenticated) {
			respond.Error(w, http.StatusUnauthorized, "missing bearer token")
			return nil, false
		}
		logging.Ctx(r.Context()).Error().Err(err).Msg("load profile failed")
		respond.Error(w, http.StatusInternalServerError, "Failed to load profile")
		return nil, false
	}
	return s, true
}

func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		logging.Warn().Str("origin", origin).Msg("websocket origin rejected")
		return false
	}
}
