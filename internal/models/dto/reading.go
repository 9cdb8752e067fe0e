package dto

type HoroscopeRequest struct {
	Sign string `json:"sign" validate:"omitempty,zodiac"`
}

type DreamRequest struct {
	Description string `json:"description" validate:"required,min=10,max=4000"`
}

type PalmRequest struct {
	Notes string `json:"notes" validate:"max=2000"`
}
