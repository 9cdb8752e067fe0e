package models

import "strings"

// ZodiacSign is one of the twelve western zodiac signs.
type ZodiacSign string

const (
	Aries       ZodiacSign = "Aries"
	Taurus      ZodiacSign = "Taurus"
	Gemini      ZodiacSign = "Gemini"
	Cancer      ZodiacSign = "Cancer"
	Leo         ZodiacSign = "Leo"
	Virgo       ZodiacSign = "Virgo"
	Libra       ZodiacSign = "Libra"
	Scorpio     ZodiacSign = "Scorpio"
	Sagittarius ZodiacSign = "Sagittarius"
	Capricorn   ZodiacSign = "Capricorn"
	Aquarius    ZodiacSign = "Aquarius"
	Pisces      ZodiacSign = "Pisces"
)

// Signs lists the zodiac in calendar order starting from Aries.
var Signs = []ZodiacSign{
	Aries, Taurus, Gemini, Cancer, Leo, Virgo,
	Libra, Scorpio, Sagittarius, Capricorn, Aquarius, Pisces,
}

// ParseSign matches s against the zodiac case-insensitively.
func ParseSign(s string) (ZodiacSign, bool) {
	s = strings.TrimSpace(s)
	for _, sign := range Signs {
		if strings.EqualFold(string(sign), s) {
			return sign, true
		}
	}
	return "", false
}

// Horizon is the time span a horoscope reading covers.
type Horizon string

const (
	Daily   Horizon = "daily"
	Weekly  Horizon = "weekly"
	Monthly Horizon = "monthly"
)

type PlanetaryPosition struct {
	Planet   string `json:"planet"`
	Position string `json:"position"`
}

// HoroscopeReading is generated per request and never persisted.
type HoroscopeReading struct {
	Sign                 ZodiacSign          `json:"sign"`
	Horizon              Horizon             `json:"horizon"`
	Reading              string              `json:"reading"`
	Date                 string              `json:"date"`
	LuckyNumbers         []string            `json:"luckyNumbers"`
	PlanetaryPositions   []PlanetaryPosition `json:"planetaryPositions"`
	CompatibleSigns      []ZodiacSign        `json:"compatibleSigns"`
	LuckyColor           string              `json:"luckyColor"`
	BestTimeForDecisions string              `json:"bestTimeForDecisions"`
}

type DreamReading struct {
	Dream    string   `json:"dream"`
	Analysis string   `json:"analysis"`
	Symbols  []string `json:"symbols"`
	Date     string   `json:"date"`
}

type PalmReading struct {
	LifeLine       string `json:"lifeLine"`
	HeartLine      string `json:"heartLine"`
	HeadLine       string `json:"headLine"`
	FateLine       string `json:"fateLine"`
	GeneralReading string `json:"generalReading"`
	Date           string `json:"date"`
}
