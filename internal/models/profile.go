package models

import "time"

// Preferences are client-facing settings stored with the profile.
type Preferences struct {
	Notifications bool  `json:"notifications"`
	Theme         Theme `json:"theme"`
}

// Subscription describes the tier a user is on and when it lapses.
// A nil ExpiresAt means the tier does not expire.
type Subscription struct {
	Tier      Tier       `json:"tier"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// UserProfile is the per-user record persisted under "user_profile_<userId>".
type UserProfile struct {
	UserID             string        `json:"userId"`
	ZodiacSign         *string       `json:"zodiacSign,omitempty"`
	BirthDate          *string       `json:"birthDate,omitempty"`
	BirthTime          *string       `json:"birthTime,omitempty"`
	PlaceOfBirth       *string       `json:"placeOfBirth,omitempty"`
	Heritage           *string       `json:"heritage,omitempty"`
	RelationshipStatus *string       `json:"relationshipStatus,omitempty"`
	LifeGoals          *string       `json:"lifeGoals,omitempty"`
	Preferences        *Preferences  `json:"preferences,omitempty"`
	Subscription       *Subscription `json:"subscription"`
	LastUpdated        time.Time     `json:"lastUpdated"`
}

// NewDefaultProfile seeds a free-tier profile for a user seen for the first time.
func NewDefaultProfile(userID string, now time.Time) *UserProfile {
	return &UserProfile{
		UserID:       userID,
		Subscription: &Subscription{Tier: TierFree},
		LastUpdated:  now,
	}
}

// Normalize fills in fields older stored records may lack.
func (p *UserProfile) Normalize() {
	if p.Subscription == nil {
		p.Subscription = &Subscription{Tier: TierFree}
	}
	if !p.Subscription.Tier.Valid() {
		p.Subscription.Tier = TierFree
	}
}

// Clone returns a deep copy so snapshots handed to readers cannot be mutated.
func (p *UserProfile) Clone() *UserProfile {
	if p == nil {
		return nil
	}
	out := *p
	out.ZodiacSign = cloneString(p.ZodiacSign)
	out.BirthDate = cloneString(p.BirthDate)
	out.BirthTime = cloneString(p.BirthTime)
	out.PlaceOfBirth = cloneString(p.PlaceOfBirth)
	out.Heritage = cloneString(p.Heritage)
	out.RelationshipStatus = cloneString(p.RelationshipStatus)
	out.LifeGoals = cloneString(p.LifeGoals)
	if p.Preferences != nil {
		prefs := *p.Preferences
		out.Preferences = &prefs
	}
	if p.Subscription != nil {
		sub := *p.Subscription
		if p.Subscription.ExpiresAt != nil {
			exp := *p.Subscription.ExpiresAt
			sub.ExpiresAt = &exp
		}
		out.Subscription = &sub
	}
	return &out
}

// Sign returns the stored zodiac sign or "" when unset.
func (p *UserProfile) Sign() string {
	if p == nil || p.ZodiacSign == nil {
		return ""
	}
	return *p.ZodiacSign
}

// SubscriptionUpdate is a partial subscription change; nil fields are left as-is.
type SubscriptionUpdate struct {
	Tier        *Tier      `json:"tier,omitempty"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
	ClearExpiry bool       `json:"clearExpiry,omitempty"`
}

// ProfileUpdate carries the fields a caller wants to change. userId and
// lastUpdated are not updatable.
type ProfileUpdate struct {
	ZodiacSign         *string             `json:"zodiacSign,omitempty"`
	BirthDate          *string             `json:"birthDate,omitempty"`
	BirthTime          *string             `json:"birthTime,omitempty"`
	PlaceOfBirth       *string             `json:"placeOfBirth,omitempty"`
	Heritage           *string             `json:"heritage,omitempty"`
	RelationshipStatus *string             `json:"relationshipStatus,omitempty"`
	LifeGoals          *string             `json:"lifeGoals,omitempty"`
	Preferences        *Preferences        `json:"preferences,omitempty"`
	Subscription       *SubscriptionUpdate `json:"subscription,omitempty"`
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
