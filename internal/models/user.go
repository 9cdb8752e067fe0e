package models

// User captures the identity returned by the sign-in provider's user-info endpoint.
type User struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture,omitempty"`
	Guest   bool   `json:"guest,omitempty"`
}
