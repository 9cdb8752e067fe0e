package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/hongminglow/horoscope-be/internal/auth"
	"github.com/hongminglow/horoscope-be/internal/gate"
	"github.com/hongminglow/horoscope-be/internal/models"
	"github.com/hongminglow/horoscope-be/internal/session"
	"github.com/hongminglow/horoscope-be/internal/validation"
)

const maxBodyBytes = 64 << 10

var (
	errUnauthenticated = errors.New("request is not authenticated")
	errInvalidJSON     = errors.New("invalid JSON payload")
)

// decodeJSON reads a JSON body into dst and validates it. An empty body
// is accepted when allowEmpty is set, leaving dst at its zero value.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, allowEmpty bool) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if !(allowEmpty && errors.Is(err, io.EOF)) {
			return errInvalidJSON
		}
	}
	return validation.Struct(dst)
}

// openSession returns the caller's session, opening it if the process has
// not seen this user since start-up.
func openSession(r *http.Request, sessions *session.Manager) (*session.Session, error) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		return nil, errUnauthenticated
	}
	return sessions.Open(r.Context(), claims.User())
}

// SessionProfile resolves the caller's profile snapshot for the premium gate.
func SessionProfile(sessions *session.Manager) gate.ProfileFunc {
	return func(r *http.Request) (*models.UserProfile, error) {
		s, err := openSession(r, sessions)
		if err != nil {
			return nil, err
		}
		return s.Snapshot(), nil
	}
}
