package dto

import "github.com/hongminglow/horoscope-be/internal/models"

type GoogleLoginRequest struct {
	AccessToken string `json:"accessToken" validate:"required"`
}

type LoginResponse struct {
	Token   string              `json:"token"`
	User    models.User         `json:"user"`
	Profile *models.UserProfile `json:"profile"`
}
