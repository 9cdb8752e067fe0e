// Package entitlement derives premium access from a profile snapshot.
package entitlement

import (
	"errors"
	"fmt"
	"time"

	"github.com/hongminglow/horoscope-be/internal/models"
)

// Feature names a premium-gated capability.
type Feature string

const (
	DailyEnrichment Feature = "daily-enrichment"
	WeeklyReading   Feature = "weekly"
	MonthlyReading  Feature = "monthly"
	DreamReading    Feature = "dream"
	PalmReading     Feature = "palm"
)

// PremiumFeatures lists every feature reserved for premium profiles.
var PremiumFeatures = []Feature{DailyEnrichment, WeeklyReading, MonthlyReading, DreamReading, PalmReading}

// Denied reports that a profile is not entitled to a premium feature.
type Denied struct {
	Feature Feature
	Tier    models.Tier
	Expired bool
}

func (e *Denied) Error() string {
	if e.Expired {
		return fmt.Sprintf("premium subscription expired: %s requires premium", e.Feature)
	}
	return fmt.Sprintf("%s requires a premium subscription", e.Feature)
}

// IsDenied reports whether err is an entitlement denial.
func IsDenied(err error) bool {
	var d *Denied
	return errors.As(err, &d)
}

// Checker evaluates entitlement against a clock.
type Checker struct {
	Now func() time.Time
}

// CheckAccess reports whether p currently has premium access. Premium
// without expiry never lapses; premium with an expiry is valid only while
// the expiry is strictly in the future.
func (c Checker) CheckAccess(p *models.UserProfile) bool {
	if p == nil || p.Subscription == nil || p.Subscription.Tier != models.TierPremium {
		return false
	}
	if p.Subscription.ExpiresAt == nil {
		return true
	}
	return p.Subscription.ExpiresAt.After(c.now())
}

// Require returns a *Denied when p may not use feature.
func (c Checker) Require(p *models.UserProfile, feature Feature) error {
	if c.CheckAccess(p) {
		return nil
	}
	d := &Denied{Feature: feature, Tier: models.TierFree}
	if p != nil && p.Subscription != nil && p.Subscription.Tier == models.TierPremium {
		d.Tier = models.TierPremium
		d.Expired = true
	}
	return d
}

func (c Checker) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

// CheckAccess evaluates p against the wall clock.
func CheckAccess(p *models.UserProfile) bool {
	return Checker{}.CheckAccess(p)
}
