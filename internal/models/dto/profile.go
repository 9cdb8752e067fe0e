package dto

import (
	"time"

	"github.com/hongminglow/horoscope-be/internal/models"
)

// ProfileUpdateRequest is the PATCH /profile body. Subscription changes go
// through the admin endpoint instead.
type ProfileUpdateRequest struct {
	ZodiacSign         *string             `json:"zodiacSign" validate:"omitnil,zodiac"`
	BirthDate          *string             `json:"birthDate" validate:"omitempty,datetime=2006-01-02"`
	BirthTime          *string             `json:"birthTime" validate:"omitempty,datetime=15:04"`
	PlaceOfBirth       *string             `json:"placeOfBirth" validate:"omitempty,max=200"`
	Heritage           *string             `json:"heritage" validate:"omitempty,max=200"`
	RelationshipStatus *string             `json:"relationshipStatus" validate:"omitempty,max=100"`
	LifeGoals          *string             `json:"lifeGoals" validate:"omitempty,max=1000"`
	Preferences        *PreferencesRequest `json:"preferences"`
}

type PreferencesRequest struct {
	Notifications bool   `json:"notifications"`
	Theme         string `json:"theme" validate:"required,oneof=light dark system"`
}

// ToUpdate converts the request into a store-level partial update.
func (r ProfileUpdateRequest) ToUpdate() models.ProfileUpdate {
	upd := models.ProfileUpdate{
		BirthDate:          r.BirthDate,
		BirthTime:          r.BirthTime,
		PlaceOfBirth:       r.PlaceOfBirth,
		Heritage:           r.Heritage,
		RelationshipStatus: r.RelationshipStatus,
		LifeGoals:          r.LifeGoals,
	}
	if r.ZodiacSign != nil {
		if sign, ok := models.ParseSign(*r.ZodiacSign); ok {
			canonical := string(sign)
			upd.ZodiacSign = &canonical
		}
	}
	if r.Preferences != nil {
		upd.Preferences = &models.Preferences{
			Notifications: r.Preferences.Notifications,
			Theme:         models.Theme(r.Preferences.Theme),
		}
	}
	return upd
}

type SubscriptionRequest struct {
	Tier        *string    `json:"tier" validate:"omitempty,oneof=free premium"`
	ExpiresAt   *time.Time `json:"expiresAt"`
	ClearExpiry bool       `json:"clearExpiry"`
}

func (r SubscriptionRequest) ToUpdate() models.ProfileUpdate {
	sub := &models.SubscriptionUpdate{
		ExpiresAt:   r.ExpiresAt,
		ClearExpiry: r.ClearExpiry,
	}
	if r.Tier != nil {
		tier := models.Tier(*r.Tier)
		sub.Tier = &tier
	}
	return models.ProfileUpdate{Subscription: sub}
}
