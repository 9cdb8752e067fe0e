// Package prompt builds the chat-completion payloads for each reading kind.
package prompt

import (
	"fmt"
	"strings"

	"github.com/hongminglow/horoscope-be/internal/completion"
	"github.com/hongminglow/horoscope-be/internal/models"
)

const (
	DefaultModel       = "mistralai/mistral-7b-instruct"
	DefaultTemperature = 0.7

	FreeMaxTokens    = 200
	PremiumMaxTokens = 800
	DreamMaxTokens   = 700
	PalmMaxTokens    = 700
)

const astrologerSystem = "You are a professional astrologer who writes horoscope readings. " +
	"Respond only with valid JSON matching the requested schema, with no markdown fences or commentary."

const premiumSchema = `{
  "reading": string,
  "luckyNumbers": [three integers between 1 and 99],
  "planetaryPositions": [at least three objects of the form {"planet": string, "position": string}, e.g. {"planet": "Venus", "position": "in Libra, trine Jupiter"}],
  "compatibleSigns": [three zodiac sign names],
  "luckyColor": string,
  "bestTimeForDecisions": string describing a time window such as "2 PM - 4 PM"
}`

const freeSchema = `{
  "reading": string,
  "luckyNumbers": [one integer between 1 and 99]
}`

// Builder holds the model settings shared by every prompt.
type Builder struct {
	Model       string
	Temperature float64
}

// New returns a Builder, falling back to the default model and temperature.
func New(model string, temperature float64) Builder {
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	if temperature <= 0 {
		temperature = DefaultTemperature
	}
	return Builder{Model: model, Temperature: temperature}
}

// BuildPrompt builds the daily horoscope payload for sign.
func BuildPrompt(sign models.ZodiacSign, isPremium bool) completion.Payload {
	return New("", 0).Horoscope(sign, models.Daily, isPremium)
}

// BuildHorizonPrompt builds a weekly or monthly horoscope payload with default settings.
func BuildHorizonPrompt(sign models.ZodiacSign, horizon models.Horizon, isPremium bool) completion.Payload {
	return New("", 0).Horoscope(sign, horizon, isPremium)
}

// BuildDreamPrompt builds a dream-analysis payload with default settings.
func BuildDreamPrompt(description string) completion.Payload {
	return New("", 0).Dream(description, "")
}

// BuildPalmPrompt builds a palm-reading payload with default settings.
func BuildPalmPrompt(notes string) completion.Payload {
	return New("", 0).Palm(notes)
}

// Horoscope builds a horoscope payload for the given horizon. Premium
// requests ask for the enriched schema and get a larger token budget.
func (b Builder) Horoscope(sign models.ZodiacSign, horizon models.Horizon, isPremium bool) completion.Payload {
	span := spanFor(horizon)
	var user string
	maxTokens := FreeMaxTokens
	if isPremium {
		maxTokens = PremiumMaxTokens
		user = fmt.Sprintf(
			"Generate a detailed %s horoscope reading for %s. The reading should be personal and insightful, "+
				"cover love, career, and personal growth, and be between 150 and 200 words.\n\n"+
				"Respond with a JSON object with exactly these fields:\n%s",
			span, sign, premiumSchema)
	} else {
		user = fmt.Sprintf(
			"Generate a short %s horoscope reading for %s of about 50 words.\n\n"+
				"Respond with a JSON object with exactly these fields:\n%s",
			span, sign, freeSchema)
	}
	return b.payload(astrologerSystem, user, maxTokens)
}

// Dream builds a dream-analysis payload. sign personalizes the analysis when set.
func (b Builder) Dream(description string, sign models.ZodiacSign) completion.Payload {
	system := "You are an experienced dream analyst who draws on astrology and symbolism. " +
		"Respond only with valid JSON, with no markdown fences or commentary."
	var who string
	if sign != "" {
		who = fmt.Sprintf(" The dreamer's zodiac sign is %s.", sign)
	}
	user := fmt.Sprintf(
		"Analyze the following dream in 150 to 250 words.%s\n\nDream: %q\n\n"+
			"Respond with a JSON object with exactly these fields:\n"+
			`{"analysis": string, "symbols": [the key symbols in the dream as short strings]}`,
		who, strings.TrimSpace(description))
	return b.payload(system, user, DreamMaxTokens)
}

// Palm builds a palm-reading payload from the user's description of their hand.
func (b Builder) Palm(notes string) completion.Payload {
	system := "You are an experienced palm reader. " +
		"Respond only with valid JSON, with no markdown fences or commentary."
	var desc string
	if n := strings.TrimSpace(notes); n != "" {
		desc = fmt.Sprintf("\n\nThe person describes their palm as: %q", n)
	}
	user := "Give a palm reading covering the life line, heart line, head line, and fate line, " +
		"with two or three sentences for each and a short overall reading." + desc + "\n\n" +
		"Respond with a JSON object with exactly these fields:\n" +
		`{"lifeLine": string, "heartLine": string, "headLine": string, "fateLine": string, "generalReading": string}`
	return b.payload(system, user, PalmMaxTokens)
}

func (b Builder) payload(system, user string, maxTokens int) completion.Payload {
	return completion.Payload{
		Model: b.Model,
		Messages: []completion.Message{
			{Role: completion.RoleSystem, Content: system},
			{Role: completion.RoleUser, Content: user},
		},
		Temperature: b.Temperature,
		MaxTokens:   maxTokens,
	}
}

func spanFor(h models.Horizon) string {
	switch h {
	case models.Weekly:
		return "weekly"
	case models.Monthly:
		return "monthly"
	default:
		return "daily"
	}
}
