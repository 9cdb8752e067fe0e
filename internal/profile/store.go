// Package profile persists user profiles in a key-value storage.Store.
package profile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/hongminglow/horoscope-be/internal/logging"
	"github.com/hongminglow/horoscope-be/internal/models"
	"github.com/hongminglow/horoscope-be/internal/storage"
)

// KeyPrefix is prepended to the user id to form the storage key.
const KeyPrefix = "user_profile_"

// ErrMissingUserID is returned when a profile has no user id.
var ErrMissingUserID = errors.New("profile user id is required")

// Key returns the storage key for userID.
func Key(userID string) string {
	return KeyPrefix + userID
}

// Store reads and writes profiles. Concurrent updates for the same user
// are not coordinated; the last write wins.
type Store struct {
	kv  storage.Store
	now func() time.Time
}

func NewStore(kv storage.Store) *Store {
	return &Store{kv: kv, now: time.Now}
}

// Get returns the stored profile, or nil when none exists.
func (s *Store) Get(ctx context.Context, userID string) (*models.UserProfile, error) {
	data, err := s.kv.Get(ctx, Key(userID))
	if errors.Is(err, storage.ErrNotFound) {
		logging.Ctx(ctx).Debug().Str("user_id", userID).Msg("no profile stored")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load profile %s: %w", userID, err)
	}
	var p models.UserProfile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode profile %s: %w", userID, err)
	}
	p.Normalize()
	return &p, nil
}

// LoadOrDefault returns the stored profile or an unsaved free-tier default.
func (s *Store) LoadOrDefault(ctx context.Context, userID string) (*models.UserProfile, error) {
	p, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return models.NewDefaultProfile(userID, s.now()), nil
	}
	return p, nil
}

// Save persists p, stamping LastUpdated.
func (s *Store) Save(ctx context.Context, p *models.UserProfile) error {
	if p == nil || p.UserID == "" {
		return ErrMissingUserID
	}
	p.Normalize()
	p.LastUpdated = s.now().UTC()
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode profile %s: %w", p.UserID, err)
	}
	if err := s.kv.Set(ctx, Key(p.UserID), data); err != nil {
		return fmt.Errorf("save profile %s: %w", p.UserID, err)
	}
	logging.Ctx(ctx).Debug().Str("user_id", p.UserID).Msg("profile saved")
	return nil
}

// Update applies upd on top of the stored profile (or a fresh default) and persists it.
func (s *Store) Update(ctx context.Context, userID string, upd models.ProfileUpdate) (*models.UserProfile, error) {
	if userID == "" {
		return nil, ErrMissingUserID
	}
	current, err := s.LoadOrDefault(ctx, userID)
	if err != nil {
		return nil, err
	}
	Merge(current, upd)
	if err := s.Save(ctx, current); err != nil {
		return nil, err
	}
	return current, nil
}

// Delete removes the stored profile.
func (s *Store) Delete(ctx context.Context, userID string) error {
	if err := s.kv.Delete(ctx, Key(userID)); err != nil {
		return fmt.Errorf("delete profile %s: %w", userID, err)
	}
	logging.Ctx(ctx).Info().Str("user_id", userID).Msg("profile deleted")
	return nil
}

// Merge applies the set fields of upd to p. Subscription fields merge one
// by one so a tier-only or expiry-only change keeps the other field.
func Merge(p *models.UserProfile, upd models.ProfileUpdate) {
	setIf(&p.ZodiacSign, upd.ZodiacSign)
	setIf(&p.BirthDate, upd.BirthDate)
	setIf(&p.BirthTime, upd.BirthTime)
	setIf(&p.PlaceOfBirth, upd.PlaceOfBirth)
	setIf(&p.Heritage, upd.Heritage)
	setIf(&p.RelationshipStatus, upd.RelationshipStatus)
	setIf(&p.LifeGoals, upd.LifeGoals)
	if upd.Preferences != nil {
		prefs := *upd.Preferences
		p.Preferences = &prefs
	}

	p.Normalize()
	if sub := upd.Subscription; sub != nil {
		if sub.Tier != nil && sub.Tier.Valid() {
			p.Subscription.Tier = *sub.Tier
		}
		switch {
		case sub.ClearExpiry:
			p.Subscription.ExpiresAt = nil
		case sub.ExpiresAt != nil:
			exp := sub.ExpiresAt.UTC()
			p.Subscription.ExpiresAt = &exp
		}
	}
}

func setIf(dst **string, src *string) {
	if src == nil {
		return
	}
	v := *src
	*dst = &v
}
