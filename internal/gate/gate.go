// Package gate locks premium HTTP routes behind an entitlement check.
package gate

import (
	"errors"
	"net/http"
	"time"

	"github.com/hongminglow/horoscope-be/internal/entitlement"
	"github.com/hongminglow/horoscope-be/internal/http/respond"
	"github.com/hongminglow/horoscope-be/internal/logging"
	"github.com/hongminglow/horoscope-be/internal/metrics"
	"github.com/hongminglow/horoscope-be/internal/models"
)

const (
	lockedMessage  = "Upgrade to Premium to unlock this feature."
	expiredMessage = "Your Premium subscription has expired. Renew to unlock this feature."
)

// ProfileFunc resolves the requesting user's current profile.
type ProfileFunc func(r *http.Request) (*models.UserProfile, error)

// Locked is the placeholder body served instead of a premium resource.
type Locked struct {
	Locked     bool                `json:"locked"`
	Feature    entitlement.Feature `json:"feature"`
	Message    string              `json:"message"`
	UpgradeURL string              `json:"upgradeUrl"`
}

// FeatureState is one entry of the features listing.
type FeatureState struct {
	Feature entitlement.Feature `json:"feature"`
	Locked  bool                `json:"locked"`
}

// Status summarises a profile's access for GET /features.
type Status struct {
	Tier       models.Tier    `json:"tier"`
	Premium    bool           `json:"premium"`
	ExpiresAt  *time.Time     `json:"expiresAt,omitempty"`
	UpgradeURL string         `json:"upgradeUrl"`
	Features   []FeatureState `json:"features"`
}

type Gate struct {
	checker    entitlement.Checker
	upgradeURL string
	profile    ProfileFunc
}

func New(checker entitlement.Checker, upgradeURL string, profile ProfileFunc) *Gate {
	return &Gate{checker: checker, upgradeURL: upgradeURL, profile: profile}
}

// Wrap serves next only when the requesting profile is entitled to
// feature; otherwise it answers 402 with a Locked body.
func (g *Gate) Wrap(feature entitlement.Feature, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := g.profile(r)
		if err != nil {
			logging.Ctx(r.Context()).Error().Err(err).Msg("gate: load profile")
			respond.Error(w, http.StatusInternalServerError, "Failed to load profile")
			return
		}
		if err := g.checker.Require(p, feature); err != nil {
			var denied *entitlement.Denied
			if errors.As(err, &denied) {
				metrics.EntitlementDenials.WithLabelValues(string(feature)).Inc()
				g.Deny(w, denied)
				return
			}
			respond.Failure(w, r, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Deny writes the locked placeholder for a denial.
func (g *Gate) Deny(w http.ResponseWriter, denied *entitlement.Denied) {
	body := g.locked(denied.Feature, denied.Expired)
	respond.ErrorData(w, http.StatusPaymentRequired, body.Message, body)
}

// Status reports which features p can use.
func (g *Gate) Status(p *models.UserProfile) Status {
	premium := g.checker.CheckAccess(p)
	st := Status{
		Tier:       models.TierFree,
		Premium:    premium,
		UpgradeURL: g.upgradeURL,
		Features:   make([]FeatureState, 0, len(entitlement.PremiumFeatures)),
	}
	if p != nil && p.Subscription != nil {
		st.Tier = p.Subscription.Tier
		st.ExpiresAt = p.Subscription.ExpiresAt
	}
	for _, f := range entitlement.PremiumFeatures {
		st.Features = append(st.Features, FeatureState{Feature: f, Locked: !premium})
	}
	return st
}

func (g *Gate) locked(feature entitlement.Feature, expired bool) Locked {
	msg := lockedMessage
	if expired {
		msg = expiredMessage
	}
	return Locked{Locked: true, Feature: feature, Message: msg, UpgradeURL: g.upgradeURL}
}
