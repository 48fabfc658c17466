package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"pms/internal/app/server"
	"pms/internal/domain/access"
	"pms/internal/domain/goals"
	"pms/internal/platform/config"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	return config.Config{
		DatabaseURL:        dbURL,
		JWTSecret:          "test-secret",
		AccessTokenTTL:     15 * time.Minute,
		RefreshTokenTTL:    24 * time.Hour,
		FrontendDir:        "frontend/dist",
		FrontendURL:        "http://localhost:5173",
		Environment:        "test",
		SeedAdminEmail:     "admin@test.local",
		SeedAdminPassword:  "ChangeMe123!",
		EmailFrom:          "no-reply@test.local",
		UploadDir:          t.TempDir(),
		RunMigrations:      true,
		RunSeed:            true,
		MaxBodyBytes:       1048576,
		MaxUploadBytes:     10 << 20,
		RateLimitPerMinute: 1000,
		NotifyWorkers:      1,
		NotifyQueueSize:    16,
		ReviewPeerCount:    2,
	}
}

func startApp(t *testing.T) (*httptest.Server, config.Config) {
	t.Helper()
	cfg := testConfig(t)
	app, err := server.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to start app: %v", err)
	}
	ts := httptest.NewServer(app.Router)
	t.Cleanup(func() {
		ts.Close()
		app.Close()
	})
	return ts, cfg
}

func TestGoalJourney(t *testing.T) {
	ts, cfg := startApp(t)
	client := ts.Client()
	token := login(t, client, ts.URL, cfg.SeedAdminEmail, cfg.SeedAdminPassword)

	var session struct {
		User struct {
			ID             string `json:"id"`
			Email          string `json:"email"`
			OrganizationID string `json:"organization_id"`
		} `json:"user"`
		Scope string `json:"scope"`
	}
	doJSON(t, client, http.MethodGet, ts.URL+"/api/auth/me", token, nil, http.StatusOK, &session)
	me := session.User
	if me.Email != cfg.SeedAdminEmail {
		t.Fatalf("expected %s, got %s", cfg.SeedAdminEmail, me.Email)
	}
	if session.Scope != access.ScopeGlobal {
		t.Fatalf("expected global scope, got %s", session.Scope)
	}

	var org struct {
		ID    string `json:"id"`
		Level string `json:"level"`
	}
	doJSON(t, client, http.MethodPost, ts.URL+"/api/organization", token, map[string]any{
		"name":      fmt.Sprintf("Journey Directorate %d", time.Now().UnixNano()),
		"level":     access.LevelDirectorate,
		"parent_id": me.OrganizationID,
	}, http.StatusCreated, &org)
	if org.ID == "" || org.Level != access.LevelDirectorate {
		t.Fatalf("unexpected organization: %+v", org)
	}

	var user struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	doJSON(t, client, http.MethodPost, ts.URL+"/api/users", token, map[string]any{
		"email":           fmt.Sprintf("journey-%d@example.com", time.Now().UnixNano()),
		"first_name":      "Journey",
		"last_name":       "User",
		"organization_id": org.ID,
		"supervisor_id":   me.ID,
	}, http.StatusCreated, &user)
	if user.ID == "" {
		t.Fatal("expected user id")
	}

	var goal struct {
		ID       string `json:"id"`
		Status   string `json:"status"`
		Progress int    `json:"progress_percentage"`
	}
	doJSON(t, client, http.MethodPost, ts.URL+"/api/goals", token, map[string]any{
		"title":   "Ship the journey test",
		"scope":   goals.ScopeIndividual,
		"type":    goals.TypeQuarterly,
		"quarter": "Q1",
		"year":    2099,
	}, http.StatusCreated, &goal)
	if goal.ID == "" {
		t.Fatal("expected goal id")
	}

	doJSON(t, client, http.MethodPut, ts.URL+"/api/goals/"+goal.ID+"/progress", token, map[string]any{
		"progress_percentage": 40,
		"report":   "halfway there",
	}, http.StatusOK, nil)

	var fetched struct {
		Progress int `json:"progress_percentage"`
	}
	doJSON(t, client, http.MethodGet, ts.URL+"/api/goals/"+goal.ID, token, nil, http.StatusOK, &fetched)
	if fetched.Progress != 40 {
		t.Fatalf("expected progress 40, got %d", fetched.Progress)
	}

	var dashboard struct {
		Goals   map[string]int `json:"goals_by_status"`
		Average float64        `json:"average_goal_progress"`
	}
	doJSON(t, client, http.MethodGet, ts.URL+"/api/reports/dashboard/me", token, nil, http.StatusOK, &dashboard)
	if dashboard.Goals["ACTIVE"] < 1 || dashboard.Average <= 0 {
		t.Fatalf("expected the new goal on the dashboard, got %+v", dashboard)
	}

	doJSON(t, client, http.MethodPost, ts.URL+"/api/reports/jobs/run", token, map[string]any{
		"job_type": "initiative_overdue",
	}, http.StatusAccepted, nil)
	doJSON(t, client, http.MethodGet, ts.URL+"/api/reports/jobs?job_type=bogus", token, nil, http.StatusBadRequest, nil)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	ts, _ := startApp(t)
	client := ts.Client()
	for _, path := range []string{"/api/goals", "/api/initiatives", "/api/reviews/cycles", "/api/notifications"} {
		resp, err := client.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("get %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", path, resp.StatusCode)
		}
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	ts, cfg := startApp(t)
	body, _ := json.Marshal(map[string]string{"email": cfg.SeedAdminEmail, "password": "wrong-password"})
	resp, err := ts.Client().Post(ts.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	var apiErr struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if apiErr.Code != "invalid_credentials" {
		t.Fatalf("expected invalid_credentials, got %s", apiErr.Code)
	}
}

func login(t *testing.T, client *http.Client, baseURL, email, password string) string {
	t.Helper()
	var out struct {
		AccessToken string `json:"access_token"`
	}
	doJSON(t, client, http.MethodPost, baseURL+"/api/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	}, http.StatusOK, &out)
	if out.AccessToken == "" {
		t.Fatal("expected access token")
	}
	return out.AccessToken
}

func doJSON(t *testing.T, client *http.Client, method, url, token string, payload any, want int, out any) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != want {
		t.Fatalf("%s %s: expected %d, got %d: %s", method, url, want, resp.StatusCode, raw)
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			t.Fatalf("decode %s %s: %v", method, url, err)
		}
	}
}
