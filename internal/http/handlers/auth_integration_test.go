package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/hongminglow/horoscope-be/internal/auth"
	"github.com/hongminglow/horoscope-be/internal/middleware"
	"github.com/hongminglow/horoscope-be/internal/models"
	"github.com/hongminglow/horoscope-be/internal/profile"
	"github.com/hongminglow/horoscope-be/internal/session"
	"github.com/hongminglow/horoscope-be/internal/storage/postgres"
)

// TestAuthIntegration signs in, edits the profile, and reloads it from the live database.
func TestAuthIntegration(t *testing.T) {
	if os.Getenv("RUN_AUTH_INTEGRATION") != "true" {
		t.Skip("set RUN_AUTH_INTEGRATION=true to run this integration test")
	}

	loadDotEnv()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Fatal("DATABASE_URL is required")
	}

	ctx := context.Background()
	kv, err := postgres.NewStore(ctx, dbURL)
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	defer kv.Close()

	profiles := profile.NewStore(kv)
	secret := mustGetEnv(t, "JWT_SECRET")
	issuer := os.Getenv("JWT_ISSUER")
	tokens := auth.NewTokenManager(secret, issuer, mustGetTTL(t))

	userID := fmt.Sprintf("itest_%d", time.Now().UnixNano())
	defer profiles.Delete(ctx, userID)
	identity := stubIdentity{
		"itest-token": {ID: userID, Email: userID + "@example.com", Name: "Integration"},
	}

	newRouter := func(sessions *session.Manager) http.Handler {
		r := chi.NewRouter()
		authn := middleware.Authenticate(tokens)
		NewAuthHandler(identity, tokens, sessions, nil).Register(r, authn)
		r.Group(func(r chi.Router) {
			r.Use(authn)
			NewProfileHandler(sessions, []string{"*"}).Register(r)
		})
		return r
	}

	sessions := session.NewManager(profiles)
	ts := httptest.NewServer(newRouter(sessions))
	defer ts.Close()

	loginResp := postJSON(t, ts.URL+"/auth/google", "", map[string]string{"accessToken": "itest-token"})
	if loginResp.Code != http.StatusOK {
		t.Fatalf("login failed: status=%d body=%v", loginResp.Code, loginResp)
	}
	var login struct {
		Token   string             `json:"token"`
		Profile models.UserProfile `json:"profile"`
	}
	decodeData(t, loginResp.Data, &login)
	if login.Token == "" {
		t.Fatal("login response missing token")
	}
	if login.Profile.Subscription == nil || login.Profile.Subscription.Tier != models.TierFree {
		t.Fatalf("new user should start on the free tier, got %+v", login.Profile.Subscription)
	}

	patchResp := doJSON(t, http.MethodPatch, ts.URL+"/profile", login.Token, map[string]string{
		"zodiacSign": "pisces",
		"birthDate":  "1992-03-05",
	})
	if patchResp.Code != http.StatusOK {
		t.Fatalf("patch failed: status=%d body=%v", patchResp.Code, patchResp)
	}

	// A fresh manager has to read the profile back from Postgres.
	sessions.CloseAll()
	restarted := httptest.NewServer(newRouter(session.NewManager(profiles)))
	defer restarted.Close()

	getResp := doJSON(t, http.MethodGet, restarted.URL+"/profile", login.Token, nil)
	if getResp.Code != http.StatusOK {
		t.Fatalf("get failed: status=%d body=%v", getResp.Code, getResp)
	}
	var reloaded models.UserProfile
	decodeData(t, getResp.Data, &reloaded)
	if reloaded.Sign() != "Pisces" {
		t.Fatalf("zodiac sign not persisted, got %q", reloaded.Sign())
	}
	if reloaded.BirthDate == nil || *reloaded.BirthDate != "1992-03-05" {
		t.Fatalf("birth date not persisted, got %v", reloaded.BirthDate)
	}
}

type apiResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func postJSON(t *testing.T, url, token string, payload any) apiResponse {
	return doJSON(t, http.MethodPost, url, token, payload)
}

func doJSON(t *testing.T, method, url, token string, payload any) apiResponse {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			t.Fatalf("encode payload: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &body)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var out apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func decodeData(t *testing.T, raw json.RawMessage, dst any) {
	t.Helper()
	if err := json.Unmarshal(raw, dst); err != nil {
		t.Fatalf("decode data: %v", err)
	}
}

func mustGetEnv(t *testing.T, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Fatalf("%s is required", key)
	}
	return value
}

func mustGetTTL(t *testing.T) time.Duration {
	t.Helper()
	raw := os.Getenv("JWT_TTL_MINUTES")
	if raw == "" {
		return time.Hour
	}
	minutes, err := strconv.Atoi(raw)
	if err != nil || minutes <= 0 {
		t.Fatalf("invalid JWT_TTL_MINUTES: %q", raw)
	}
	return time.Duration(minutes) * time.Minute
}

func loadDotEnv() {
	paths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}
	for _, path := range paths {
		_ = godotenv.Overload(path)
	}
}
