package reading

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/horoscope-be/internal/models"
)

var parseNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

const premiumRaw = `{
  "reading": "Venus warms your sector of partnerships today.",
  "luckyNumbers": [7, "14", 21],
  "planetaryPositions": [
    {"planet": "Venus", "position": "in Libra"},
    {"planet": "Mars", "position": "square Saturn"},
    {"planet": "Mercury", "position": "retrograde in Pisces"}
  ],
  "compatibleSigns": ["Gemini", "libra", "Sagittarius"],
  "luckyColor": "Gold",
  "bestTimeForDecisions": "2 PM - 4 PM"
}`

func TestParsePremium(t *testing.T) {
	got, err := Parse(premiumRaw, models.Leo, models.Daily, true, parseNow)
	require.NoError(t, err)

	assert.Equal(t, models.Leo, got.Sign)
	assert.Equal(t, models.Daily, got.Horizon)
	assert.Equal(t, "2026-03-14", got.Date)
	assert.Equal(t, "Venus warms your sector of partnerships today.", got.Reading)
	assert.Equal(t, []string{"7", "14", "21"}, got.LuckyNumbers)
	require.Len(t, got.PlanetaryPositions, 3)
	assert.Equal(t, models.PlanetaryPosition{Planet: "Mars", Position: "square Saturn"}, got.PlanetaryPositions[1])
	assert.Equal(t, []models.ZodiacSign{models.Gemini, models.Libra, models.Sagittarius}, got.CompatibleSigns)
	assert.Equal(t, "Gold", got.LuckyColor)
	assert.Equal(t, "2 PM - 4 PM", got.BestTimeForDecisions)
	assert.NotContains(t, got.Reading, strings.TrimSpace(UpsellSuffix))
}

func TestParseFreeDropsEnrichment(t *testing.T) {
	got, err := Parse(premiumRaw, models.Leo, models.Daily, false, parseNow)
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(got.Reading, UpsellSuffix))
	assert.Equal(t, []string{"7"}, got.LuckyNumbers)
	assert.Empty(t, got.PlanetaryPositions)
	assert.Empty(t, got.CompatibleSigns)
	assert.Empty(t, got.LuckyColor)
	assert.Empty(t, got.BestTimeForDecisions)
	assert.NotNil(t, got.PlanetaryPositions)
}

func TestParseFreeSingleNumber(t *testing.T) {
	got, err := Parse(`{"reading":"Quiet day.","lucky_numbers":[42]}`, models.Pisces, "", false, parseNow)
	require.NoError(t, err)
	assert.Equal(t, []string{"42"}, got.LuckyNumbers)
	assert.Equal(t, models.Daily, got.Horizon)
	assert.Equal(t, "Quiet day."+UpsellSuffix, got.Reading)
}

func TestParsePremiumMissingFieldsDefaultEmpty(t *testing.T) {
	got, err := Parse(`{"reading":"Short."}`, models.Aries, models.Weekly, true, parseNow)
	require.NoError(t, err)
	assert.Equal(t, models.Weekly, got.Horizon)
	assert.Empty(t, got.LuckyNumbers)
	assert.Empty(t, got.PlanetaryPositions)
	assert.Empty(t, got.LuckyColor)
}

func TestParseStripsCodeFence(t *testing.T) {
	raw := "```json\n{\"reading\": \"Fenced.\", \"luckyNumbers\": [3]}\n```"
	got, err := Parse(raw, models.Virgo, models.Daily, true, parseNow)
	require.NoError(t, err)
	assert.Equal(t, "Fenced.", got.Reading)
	assert.Equal(t, []string{"3"}, got.LuckyNumbers)

	got, err = Parse("```\n{\"reading\": \"Bare fence.\"}\n```", models.Virgo, models.Daily, true, parseNow)
	require.NoError(t, err)
	assert.Equal(t, "Bare fence.", got.Reading)
}

func TestParseMalformed(t *testing.T) {
	cases := map[string]string{
		"prose":       "The stars are kind to you today.",
		"empty":       "   ",
		"array":       `[{"reading":"x"}]`,
		"truncated":   `{"reading": "cut off`,
		"no reading":  `{"luckyNumbers":[1]}`,
		"blank":       `{"reading":"   "}`,
		"non-string":  `{"reading": 12}`,
		"empty fence": "```json\n```",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(raw, models.Leo, models.Daily, true, parseNow)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedResponse)
		})
	}
}

func TestParseDream(t *testing.T) {
	got, err := ParseDream(`{"analysis":"Flight suggests freedom.","symbols":["flight"," ocean ",""]}`, "  I was flying  ", parseNow)
	require.NoError(t, err)
	assert.Equal(t, "I was flying", got.Dream)
	assert.Equal(t, "Flight suggests freedom.", got.Analysis)
	assert.Equal(t, []string{"flight", "ocean"}, got.Symbols)
	assert.Equal(t, "2026-03-14", got.Date)

	_, err = ParseDream(`{"symbols":[]}`, "x", parseNow)
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestParsePalm(t *testing.T) {
	got, err := ParsePalm(`{"lifeLine":"Long.","heartLine":"Deep.","headLine":"Clear.","fateDestinyLine":"Strong.","generalReading":"Balanced."}`, parseNow)
	require.NoError(t, err)
	assert.Equal(t, "Strong.", got.FateLine)
	assert.Equal(t, "Balanced.", got.GeneralReading)

	_, err = ParsePalm(`not json`, parseNow)
	assert.ErrorIs(t, err, ErrMalformedResponse)
}
