package reading

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/hongminglow/horoscope-be/internal/models"
)

// ErrMalformedResponse is wrapped by every parse failure.
var ErrMalformedResponse = errors.New("malformed reading response")

// UpsellSuffix is appended to every free-tier horoscope reading.
const UpsellSuffix = "\n\nUpgrade to Premium to unlock your planetary positions and compatible signs."

const dateLayout = "2006-01-02"

// Parse turns the provider's raw text into a horoscope reading. Enrichment
// fields are only filled for premium requests.
func Parse(raw string, sign models.ZodiacSign, horizon models.Horizon, isPremium bool, now time.Time) (models.HoroscopeReading, error) {
	obj, err := parseObject(raw)
	if err != nil {
		return models.HoroscopeReading{}, err
	}

	text := firstString(obj, "reading", "horoscope")
	if text == "" {
		return models.HoroscopeReading{}, fmt.Errorf("%w: missing reading text", ErrMalformedResponse)
	}
	if horizon == "" {
		horizon = models.Daily
	}

	out := models.HoroscopeReading{
		Sign:               sign,
		Horizon:            horizon,
		Reading:            text,
		Date:               now.Format(dateLayout),
		LuckyNumbers:       luckyNumbers(obj),
		PlanetaryPositions: []models.PlanetaryPosition{},
		CompatibleSigns:    []models.ZodiacSign{},
	}

	if !isPremium {
		if len(out.LuckyNumbers) > 1 {
			out.LuckyNumbers = out.LuckyNumbers[:1]
		}
		out.Reading += UpsellSuffix
		return out, nil
	}

	out.PlanetaryPositions = planetaryPositions(obj)
	out.CompatibleSigns = compatibleSigns(obj)
	out.LuckyColor = firstString(obj, "luckyColor", "lucky_color")
	out.BestTimeForDecisions = firstString(obj, "bestTimeForDecisions", "best_time_for_decisions")
	return out, nil
}

// ParseDream parses a dream analysis for the given dream description.
func ParseDream(raw, dream string, now time.Time) (models.DreamReading, error) {
	obj, err := parseObject(raw)
	if err != nil {
		return models.DreamReading{}, err
	}
	analysis := firstString(obj, "analysis", "interpretation")
	if analysis == "" {
		return models.DreamReading{}, fmt.Errorf("%w: missing dream analysis", ErrMalformedResponse)
	}

	symbols := []string{}
	for _, s := range obj.Get("symbols").Array() {
		if v := strings.TrimSpace(s.String()); v != "" {
			symbols = append(symbols, v)
		}
	}
	return models.DreamReading{
		Dream:    strings.TrimSpace(dream),
		Analysis: analysis,
		Symbols:  symbols,
		Date:     now.Format(dateLayout),
	}, nil
}

// ParsePalm parses a palm reading.
func ParsePalm(raw string, now time.Time) (models.PalmReading, error) {
	obj, err := parseObject(raw)
	if err != nil {
		return models.PalmReading{}, err
	}
	general := firstString(obj, "generalReading", "general_reading")
	if general == "" {
		return models.PalmReading{}, fmt.Errorf("%w: missing general reading", ErrMalformedResponse)
	}
	return models.PalmReading{
		LifeLine:       firstString(obj, "lifeLine", "life_line"),
		HeartLine:      firstString(obj, "heartLine", "heart_line"),
		HeadLine:       firstString(obj, "headLine", "head_line"),
		FateLine:       firstString(obj, "fateLine", "fateDestinyLine", "fate_line"),
		GeneralReading: general,
		Date:           now.Format(dateLayout),
	}, nil
}

// parseObject strips an optional markdown code fence and requires the
// remainder to be a single JSON object.
func parseObject(raw string) (gjson.Result, error) {
	body := stripFence(raw)
	if body == "" {
		return gjson.Result{}, fmt.Errorf("%w: empty body", ErrMalformedResponse)
	}
	if !gjson.Valid(body) {
		return gjson.Result{}, fmt.Errorf("%w: invalid JSON", ErrMalformedResponse)
	}
	obj := gjson.Parse(body)
	if !obj.IsObject() {
		return gjson.Result{}, fmt.Errorf("%w: expected a JSON object, got %s", ErrMalformedResponse, obj.Type)
	}
	return obj, nil
}

func stripFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// drop the info string, e.g. ```json
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = ""
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func firstString(obj gjson.Result, paths ...string) string {
	for _, p := range paths {
		if v := obj.Get(p); v.Exists() && v.Type == gjson.String {
			if s := strings.TrimSpace(v.String()); s != "" {
				return s
			}
		}
	}
	return ""
}

func firstValue(obj gjson.Result, paths ...string) gjson.Result {
	for _, p := range paths {
		if v := obj.Get(p); v.Exists() {
			return v
		}
	}
	return gjson.Result{}
}

func luckyNumbers(obj gjson.Result) []string {
	v := firstValue(obj, "luckyNumbers", "lucky_numbers", "luckyNumber", "lucky_number")
	items := []gjson.Result{v}
	if v.IsArray() {
		items = v.Array()
	}
	out := []string{}
	for _, item := range items {
		switch item.Type {
		case gjson.Number:
			if item.Num == float64(int64(item.Num)) {
				out = append(out, strconv.FormatInt(int64(item.Num), 10))
			} else {
				out = append(out, item.Raw)
			}
		case gjson.String:
			if s := strings.TrimSpace(item.String()); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func planetaryPositions(obj gjson.Result) []models.PlanetaryPosition {
	out := []models.PlanetaryPosition{}
	for _, item := range firstValue(obj, "planetaryPositions", "planetary_positions").Array() {
		if !item.IsObject() {
			continue
		}
		planet := strings.TrimSpace(item.Get("planet").String())
		position := strings.TrimSpace(item.Get("position").String())
		if planet == "" {
			continue
		}
		out = append(out, models.PlanetaryPosition{Planet: planet, Position: position})
	}
	return out
}

func compatibleSigns(obj gjson.Result) []models.ZodiacSign {
	out := []models.ZodiacSign{}
	for _, item := range firstValue(obj, "compatibleSigns", "compatible_signs").Array() {
		if sign, ok := models.ParseSign(item.String()); ok {
			out = append(out, sign)
		}
	}
	return out
}
