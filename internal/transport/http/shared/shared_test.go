package shared

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"pms/internal/domain/apperr"
	"pms/internal/transport/http/api"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) api.Error {
	t.Helper()
	var body api.Error
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v (%s)", err, rec.Body.String())
	}
	return body
}

func TestFailErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
		detail string
	}{
		{"not found", apperr.NotFound("Goal not found"), http.StatusNotFound, "not_found", "Goal not found"},
		{"forbidden", apperr.Forbidden("Missing permission: goal_edit"), http.StatusForbidden, "forbidden", "Missing permission: goal_edit"},
		{"validation", fmt.Errorf("wrapped: %w", apperr.Validation("bad score")), http.StatusBadRequest, "validation_error", "bad score"},
		{"conflict", apperr.Conflict("already submitted"), http.StatusConflict, "conflict", "already submitted"},
		{"unique", &pgconn.PgError{Code: "23505"}, http.StatusConflict, "conflict", "resource already exists"},
		{"foreign key", &pgconn.PgError{Code: "23503"}, http.StatusBadRequest, "validation_error", "referenced record does not exist"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "goal_failed", "failed to load goal"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			FailError(rec, httptest.NewRequest(http.MethodGet, "/", nil), tc.err, "goal_failed", "failed to load goal")
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rec.Code)
			}
			body := decodeError(t, rec)
			if body.Code != tc.code || body.Detail != tc.detail {
				t.Fatalf("unexpected body: %+v", body)
			}
		})
	}
}

func TestDecode(t *testing.T) {
	var dst struct {
		Name string `json:"name"`
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"ada"}`))
	if !Decode(rec, req, &dst) || dst.Name != "ada" {
		t.Fatalf("expected decode to succeed, got %+v", dst)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":`))
	if Decode(rec, req, &dst) || rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"`+strings.Repeat("x", 64)+`"}`))
	req.Body = http.MaxBytesReader(rec, req.Body, 16)
	if Decode(rec, req, &dst) || rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	if !DecodeOptional(rec, req, &dst) {
		t.Fatal("expected empty body to be accepted")
	}
	if Decode(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader("")), &dst) {
		t.Fatal("expected empty body to be rejected")
	}
}

func TestIDParam(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/goals/{goalID}", func(w http.ResponseWriter, r *http.Request) {
		id, ok := IDParam(w, r, "goalID")
		if !ok {
			return
		}
		_, _ = w.Write([]byte(id))
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/goals/not-a-uuid", nil))
	if rec.Code != http.StatusBadRequest || decodeError(t, rec).Code != "invalid_id" {
		t.Fatalf("expected invalid_id, got %d %s", rec.Code, rec.Body.String())
	}

	id := "7f1c3a52-8f0e-4a8e-9a53-3d2a8f0b6c11"
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/goals/"+id, nil))
	if rec.Code != http.StatusOK || rec.Body.String() != id {
		t.Fatalf("expected id echoed, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestValidatorReject(t *testing.T) {
	v := NewValidator()
	v.Required("title", " ", "title is required")
	v.Enum("scope", "TEAM", []string{"INDIVIDUAL", "DEPARTMENTAL"}, "unknown goal scope")
	v.Enum("type", "", []string{"YEARLY"}, "unknown goal type")
	v.UUID("owner_id", "x")
	v.UUIDs("assignee_ids", []string{"7f1c3a52-8f0e-4a8e-9a53-3d2a8f0b6c11", "nope"})
	start := v.OptionalDate("start_date", "2026-03-01")
	end := v.OptionalDate("end_date", "2026-02-01")
	v.DateOrder("start_date", *start, "end_date", *end)

	rec := httptest.NewRecorder()
	if !v.Reject(rec, httptest.NewRequest(http.MethodPost, "/", nil)) {
		t.Fatal("expected rejection")
	}
	body := decodeError(t, rec)
	if rec.Code != http.StatusBadRequest || body.Code != "validation_error" {
		t.Fatalf("unexpected response: %d %+v", rec.Code, body)
	}
	fields := map[string]bool{}
	for _, issue := range body.Fields {
		fields[issue.Field] = true
	}
	for _, want := range []string{"title", "scope", "owner_id", "assignee_ids", "start_date", "end_date"} {
		if !fields[want] {
			t.Fatalf("expected issue for %s, got %+v", want, body.Fields)
		}
	}
	if fields["type"] {
		t.Fatal("empty enum value should be accepted")
	}

	if NewValidator().Reject(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", nil)) {
		t.Fatal("empty validator should not reject")
	}
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2026-05-04")
	if err != nil || !got.Equal(time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected date %v (%v)", got, err)
	}
	if _, err := ParseDate("2026-05-04T10:00:00Z"); err != nil {
		t.Fatalf("expected RFC3339 to parse: %v", err)
	}
	if _, err := ParseDate("04/05/2026"); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestParsePagination(t *testing.T) {
	cases := []struct {
		query  string
		limit  int
		offset int
	}{
		{"", DefaultLimit, 0},
		{"limit=10&offset=30", 10, 30},
		{"limit=1000", MaxLimit, 0},
		{"limit=-4&offset=-1", DefaultLimit, 0},
		{"page=3&page_size=20", 20, 40},
		{"page=1", DefaultLimit, 0},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/?"+tc.query, nil)
		got := ParsePagination(req, DefaultLimit, MaxLimit)
		if got.Limit != tc.limit || got.Offset != tc.offset {
			t.Fatalf("%q: expected %d/%d, got %+v", tc.query, tc.limit, tc.offset, got)
		}
	}
}

func TestPrincipalWritesUnauthorized(t *testing.T) {
	rec := httptest.NewRecorder()
	if _, ok := Principal(rec, httptest.NewRequest(http.MethodGet, "/", nil)); ok {
		t.Fatal("expected no principal")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
