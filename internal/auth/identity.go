package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/hongminglow/horoscope-be/internal/models"
)

// DefaultUserInfoURL is Google's OAuth2 user-info endpoint.
const DefaultUserInfoURL = "https://www.googleapis.com/userinfo/v2/me"

// ErrInvalidAccessToken means the identity provider rejected the access token.
var ErrInvalidAccessToken = errors.New("identity provider rejected the access token")

// IdentityClient resolves an OAuth access token to the user it belongs to.
type IdentityClient struct {
	url        string
	httpClient *http.Client
}

func NewIdentityClient(url string) *IdentityClient {
	if strings.TrimSpace(url) == "" {
		url = DefaultUserInfoURL
	}
	return &IdentityClient{url: url, httpClient: &http.Client{Timeout: 10 * time.Second}}
}

type userInfo struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// FetchUser calls the user-info endpoint with accessToken as bearer.
func (c *IdentityClient) FetchUser(ctx context.Context, accessToken string) (models.User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return models.User{}, fmt.Errorf("build user-info request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.User{}, fmt.Errorf("user-info request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return models.User{}, ErrInvalidAccessToken
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return models.User{}, fmt.Errorf("user-info returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var info userInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return models.User{}, fmt.Errorf("decode user-info: %w", err)
	}
	if info.ID == "" {
		return models.User{}, errors.New("user-info response missing id")
	}
	return models.User{ID: info.ID, Email: info.Email, Name: info.Name, Picture: info.Picture}, nil
}
