package respond

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/hongminglow/horoscope-be/internal/completion"
	"github.com/hongminglow/horoscope-be/internal/entitlement"
	"github.com/hongminglow/horoscope-be/internal/logging"
	"github.com/hongminglow/horoscope-be/internal/reading"
)

// Envelope is the standard API response wrapper used across handlers.
type Envelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// JSON writes a success or informational response using the common envelope.
func JSON(w http.ResponseWriter, status int, message string, data any) {
	write(w, status, Envelope{Code: status, Message: message, Data: data})
}

// Error writes an error response with the shared envelope structure.
func Error(w http.ResponseWriter, status int, message string) {
	write(w, status, Envelope{Code: status, Message: message})
}

// ErrorData writes an error response that also carries a data payload.
func ErrorData(w http.ResponseWriter, status int, message string, data any) {
	write(w, status, Envelope{Code: status, Message: message, Data: data})
}

// Failure maps a pipeline error to its status and user-facing message,
// logging anything that is not the caller's fault.
func Failure(w http.ResponseWriter, r *http.Request, err error) {
	status, message := Classify(err)
	if status >= http.StatusInternalServerError {
		logging.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Int("status", status).Msg("request failed")
	}
	Error(w, status, message)
}

// Classify returns the HTTP status and message surfaced for err.
func Classify(err error) (int, string) {
	var ce *completion.Error
	var denied *entitlement.Denied
	switch {
	case errors.As(err, &denied):
		return http.StatusPaymentRequired, denied.Error()
	case errors.Is(err, reading.ErrInFlight):
		return http.StatusConflict, "A reading is already being generated."
	case errors.Is(err, reading.ErrMalformedResponse):
		return http.StatusBadGateway, "Failed to parse reading."
	case errors.As(err, &ce):
		switch ce.Kind {
		case completion.KindConfiguration:
			return http.StatusServiceUnavailable, "Reading service is not configured."
		case completion.KindAuth:
			return http.StatusBadGateway, "Invalid API key. Please check your completion provider key."
		case completion.KindRequest:
			msg := ce.Message
			if msg == "" {
				msg = "Please check your request format"
			}
			return http.StatusBadGateway, "Invalid request: " + msg
		case completion.KindEmptyResponse:
			return http.StatusBadGateway, "Failed to generate reading."
		default:
			return http.StatusBadGateway, "Failed to connect to the reading provider."
		}
	default:
		return http.StatusInternalServerError, "Failed to generate reading."
	}
}

func write(w http.ResponseWriter, status int, payload Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.Error().Err(err).Msg("respond: encode payload failed")
	}
}
