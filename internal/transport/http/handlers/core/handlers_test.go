package corehandler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"pms/internal/domain/access"
	"pms/internal/domain/auth"
	"pms/internal/transport/http/api"
	"pms/internal/transport/http/middleware"
)

const userID = "5d6e7f80-9a1b-4c2d-8e3f-4a5b6c7d8e9f"

func routerFor(perms ...string) http.Handler {
	p := access.NewPrincipal("u1", "r1", auth.RoleHR, "o1", access.ScopeGlobal, perms)
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithPrincipal(req.Context(), p)))
		})
	})
	NewHandler(nil, nil).RegisterRoutes(r)
	return r
}

func TestCoreRoutesRejectBeforeService(t *testing.T) {
	admin := routerFor(auth.DefaultPermissions...)
	cases := []struct {
		name   string
		router http.Handler
		method string
		path   string
		body   string
		status int
		code   string
		field  string
	}{
		{"create user missing names", admin, http.MethodPost, "/users", `{"email":"a@example.com"}`, http.StatusBadRequest, "validation_error", "first_name"},
		{"create user bad org", admin, http.MethodPost, "/users", `{"email":"a@example.com","first_name":"A","last_name":"B","organization_id":"hq"}`, http.StatusBadRequest, "validation_error", "organization_id"},
		{"create user without permission", routerFor(), http.MethodPost, "/users", `{}`, http.StatusForbidden, "forbidden", ""},
		{"list users bad status", admin, http.MethodGet, "/users?status=sleeping", "", http.StatusBadRequest, "validation_error", "status"},
		{"user bad id", admin, http.MethodGet, "/users/42", "", http.StatusBadRequest, "invalid_id", ""},
		{"user status unknown", admin, http.MethodPut, "/users/" + userID + "/status", `{"status":"retired"}`, http.StatusBadRequest, "validation_error", "status"},
		{"org bad level", admin, http.MethodPost, "/organization", `{"name":"Ops","level":"team"}`, http.StatusBadRequest, "validation_error", "level"},
		{"org missing name", admin, http.MethodPost, "/organization", `{"level":"unit"}`, http.StatusBadRequest, "validation_error", "name"},
		{"role bad override", admin, http.MethodPost, "/roles", `{"name":"auditor","scope_override":"galaxy"}`, http.StatusBadRequest, "validation_error", "scope_override"},
		{"roles hidden without permission", routerFor(auth.PermGoalEdit), http.MethodGet, "/roles", "", http.StatusForbidden, "forbidden", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			tc.router.ServeHTTP(rec, req)
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, rec.Code, rec.Body.String())
			}
			var apiErr api.Error
			if err := json.Unmarshal(rec.Body.Bytes(), &apiErr); err != nil {
				t.Fatalf("decode error body: %v", err)
			}
			if apiErr.Code != tc.code {
				t.Fatalf("expected code %s, got %s", tc.code, apiErr.Code)
			}
			if tc.field == "" {
				return
			}
			for _, issue := range apiErr.Fields {
				if issue.Field == tc.field {
					return
				}
			}
			t.Fatalf("expected issue for %s, got %+v", tc.field, apiErr.Fields)
		})
	}
}
