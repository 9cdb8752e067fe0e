// Package reading runs the reading pipeline: entitlement, prompt,
// completion, and parsing.
package reading

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hongminglow/horoscope-be/internal/completion"
	"github.com/hongminglow/horoscope-be/internal/entitlement"
	"github.com/hongminglow/horoscope-be/internal/logging"
	"github.com/hongminglow/horoscope-be/internal/metrics"
	"github.com/hongminglow/horoscope-be/internal/models"
	"github.com/hongminglow/horoscope-be/internal/prompt"
)

// Kind names a reading endpoint; one request per user and kind may be in flight.
type Kind string

const (
	KindDaily   Kind = "daily"
	KindWeekly  Kind = "weekly"
	KindMonthly Kind = "monthly"
	KindDream   Kind = "dream"
	KindPalm    Kind = "palm"
)

// Kinds lists every reading kind.
var Kinds = []Kind{KindDaily, KindWeekly, KindMonthly, KindDream, KindPalm}

// ErrNoProfile is returned when a reading is requested without a profile.
var ErrNoProfile = errors.New("a profile is required to generate a reading")

// DefaultSign is used when neither the request nor the profile names a sign.
const DefaultSign = models.Aries

type Service struct {
	completer completion.Completer
	builder   prompt.Builder
	checker   entitlement.Checker
	tracker   *Tracker
	now       func() time.Time
}

func NewService(c completion.Completer, b prompt.Builder, checker entitlement.Checker, tracker *Tracker) *Service {
	if tracker == nil {
		tracker = NewTracker()
	}
	now := checker.Now
	if now == nil {
		now = time.Now
	}
	return &Service{completer: c, builder: b, checker: checker, tracker: tracker, now: now}
}

// ResolveSign picks the requested sign, then the profile's, then DefaultSign.
func ResolveSign(requested string, p *models.UserProfile) models.ZodiacSign {
	if sign, ok := models.ParseSign(requested); ok {
		return sign
	}
	if sign, ok := models.ParseSign(p.Sign()); ok {
		return sign
	}
	return DefaultSign
}

// Horoscope generates a horoscope for the horizon. Daily readings are open
// to every tier with enrichment reserved for premium; weekly and monthly
// readings fail with *entitlement.Denied for non-premium profiles before
// any provider call.
func (s *Service) Horoscope(ctx context.Context, p *models.UserProfile, sign models.ZodiacSign, horizon models.Horizon) (models.HoroscopeReading, error) {
	kind, feature := KindDaily, entitlement.Feature("")
	switch horizon {
	case models.Weekly:
		kind, feature = KindWeekly, entitlement.WeeklyReading
	case models.Monthly:
		kind, feature = KindMonthly, entitlement.MonthlyReading
	default:
		horizon = models.Daily
	}

	premium := s.checker.CheckAccess(p)
	if feature != "" {
		if err := s.require(p, feature, kind); err != nil {
			return models.HoroscopeReading{}, err
		}
	}

	var out models.HoroscopeReading
	err := s.run(ctx, p, kind, func() error {
		raw, err := s.completer.Complete(ctx, s.builder.Horoscope(sign, horizon, premium))
		if err != nil {
			return err
		}
		out, err = Parse(raw, sign, horizon, premium, s.now())
		return err
	})
	return out, err
}

// Dream analyses a dream description. Premium only.
func (s *Service) Dream(ctx context.Context, p *models.UserProfile, description string) (models.DreamReading, error) {
	if err := s.require(p, entitlement.DreamReading, KindDream); err != nil {
		return models.DreamReading{}, err
	}
	var sign models.ZodiacSign
	if parsed, ok := models.ParseSign(p.Sign()); ok {
		sign = parsed
	}

	var out models.DreamReading
	err := s.run(ctx, p, KindDream, func() error {
		raw, err := s.completer.Complete(ctx, s.builder.Dream(description, sign))
		if err != nil {
			return err
		}
		out, err = ParseDream(raw, description, s.now())
		return err
	})
	return out, err
}

// Palm produces a palm reading from optional notes. Premium only.
func (s *Service) Palm(ctx context.Context, p *models.UserProfile, notes string) (models.PalmReading, error) {
	if err := s.require(p, entitlement.PalmReading, KindPalm); err != nil {
		return models.PalmReading{}, err
	}

	var out models.PalmReading
	err := s.run(ctx, p, KindPalm, func() error {
		raw, err := s.completer.Complete(ctx, s.builder.Palm(notes))
		if err != nil {
			return err
		}
		out, err = ParsePalm(raw, s.now())
		return err
	})
	return out, err
}

// Status reports the tracker state of every reading kind for userID.
func (s *Service) Status(userID string) map[Kind]Status {
	out := make(map[Kind]Status, len(Kinds))
	for _, k := range Kinds {
		out[k] = s.tracker.State(trackerKey(userID, k))
	}
	return out
}

// Forget resets the tracker state of userID, e.g. on sign-out.
func (s *Service) Forget(userID string) {
	for _, k := range Kinds {
		s.tracker.Forget(trackerKey(userID, k))
	}
}

func (s *Service) require(p *models.UserProfile, feature entitlement.Feature, kind Kind) error {
	if err := s.checker.Require(p, feature); err != nil {
		metrics.EntitlementDenials.WithLabelValues(string(feature)).Inc()
		metrics.ReadingRequests.WithLabelValues(string(kind), "denied").Inc()
		return err
	}
	return nil
}

func (s *Service) run(ctx context.Context, p *models.UserProfile, kind Kind, fn func() error) error {
	if p == nil {
		return fmt.Errorf("%s reading: %w", kind, ErrNoProfile)
	}
	key := trackerKey(p.UserID, kind)
	if err := s.tracker.Begin(key); err != nil {
		metrics.ReadingRequests.WithLabelValues(string(kind), "in_flight").Inc()
		return err
	}

	err := fn()
	s.tracker.Finish(key, err)

	outcome := "success"
	if err != nil {
		outcome = "failed"
		logging.Ctx(ctx).Warn().Err(err).Str("user_id", p.UserID).Str("kind", string(kind)).Msg("reading failed")
	}
	metrics.ReadingRequests.WithLabelValues(string(kind), outcome).Inc()
	if err != nil {
		return fmt.Errorf("%s reading: %w", kind, err)
	}
	return nil
}

func trackerKey(userID string, kind Kind) string {
	return userID + ":" + string(kind)
}
