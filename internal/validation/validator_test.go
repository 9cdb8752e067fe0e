package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/horoscope-be/internal/models/dto"
)

func strPtr(s string) *string { return &s }

func TestStructAcceptsValidProfileUpdate(t *testing.T) {
	req := dto.ProfileUpdateRequest{
		ZodiacSign: strPtr("leo"),
		BirthDate:  strPtr("1990-08-12"),
		BirthTime:  strPtr("14:30"),
		Preferences: &dto.PreferencesRequest{
			Notifications: true,
			Theme:         "dark",
		},
	}
	require.NoError(t, Struct(req))
}

func TestStructRejectsUnknownSign(t *testing.T) {
	err := Struct(dto.HoroscopeRequest{Sign: "Ophiuchus"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sign must be a zodiac sign")
}

func TestStructRejectsEmptyProfileSign(t *testing.T) {
	err := Struct(dto.ProfileUpdateRequest{ZodiacSign: strPtr("")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "zodiacSign must be a zodiac sign")

	require.NoError(t, Struct(dto.ProfileUpdateRequest{BirthTime: strPtr("09:15")}))
}

func TestStructReportsEveryField(t *testing.T) {
	req := dto.ProfileUpdateRequest{
		BirthTime:   strPtr("2pm"),
		Preferences: &dto.PreferencesRequest{Theme: "neon"},
	}
	err := Struct(req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "birthTime must match the format 15:04")
	assert.Contains(t, err.Error(), "theme must be one of [light dark system]")
}

func TestStructDreamLength(t *testing.T) {
	err := Struct(dto.DreamRequest{Description: "short"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "description must be at least 10 characters")
}
