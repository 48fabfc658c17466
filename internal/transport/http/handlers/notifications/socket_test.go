package notificationshandler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"pms/internal/domain/access"
	"pms/internal/domain/auth"
	"pms/internal/domain/notifications"
)

type tokenAuthn map[string]string

func (t tokenAuthn) Authenticate(_ context.Context, token string) (*auth.Claims, error) {
	userID, ok := t[token]
	if !ok {
		return nil, auth.ErrSessionExpired
	}
	return &auth.Claims{UserID: userID}, nil
}

type staticPrincipals struct{}

func (staticPrincipals) Principal(_ context.Context, userID string) (access.Principal, error) {
	return access.NewPrincipal(userID, "r1", auth.RoleEmployee, "o1", access.ScopeOwnSubtree, nil), nil
}

func startSocketServer(t *testing.T) string {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	hub := notifications.NewHub()
	go hub.Run(ctx)

	h := NewHandler(nil, hub, nil, tokenAuthn{"good": "u1"}, staticPrincipals{}, nil)
	r := chi.NewRouter()
	h.RegisterSocket(r)
	ts := httptest.NewServer(r)
	t.Cleanup(func() {
		ts.Close()
		cancel()
	})
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/notifications/ws"
}

func readMessage(t *testing.T, conn *websocket.Conn) serverMessage {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg serverMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return msg
}

func TestSocketRejectsBadToken(t *testing.T) {
	url := startSocketServer(t)
	for _, query := range []string{"", "?token=stale"} {
		conn, _, err := websocket.DefaultDialer.Dial(url+query, nil)
		if err != nil {
			t.Fatalf("dial: %v", err)
		}
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, _, err = conn.ReadMessage()
		var closeErr *websocket.CloseError
		if !errors.As(err, &closeErr) || closeErr.Code != websocket.ClosePolicyViolation {
			t.Fatalf("query %q: expected policy violation close, got %v", query, err)
		}
		_ = conn.Close()
	}
}

func TestSocketProtocol(t *testing.T) {
	url := startSocketServer(t)
	conn, _, err := websocket.DefaultDialer.Dial(url+"?token=good", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	hello := readMessage(t, conn)
	if hello.Type != "connection_established" || hello.UserID != "u1" {
		t.Fatalf("unexpected greeting %+v", hello)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte("ping")); err != nil {
		t.Fatalf("write ping: %v", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	kind, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read pong: %v", err)
	}
	if kind != websocket.TextMessage || string(data) != "pong" {
		t.Fatalf("expected bare pong text frame, got %d %q", kind, data)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte("mark_read:not-an-id")); err != nil {
		t.Fatalf("write mark_read: %v", err)
	}
	if msg := readMessage(t, conn); msg.Type != "error" || msg.Message != "invalid notification id" {
		t.Fatalf("expected invalid id error, got %+v", msg)
	}
}

func TestCheckOrigin(t *testing.T) {
	h := &Handler{AllowedOrigins: []string{"https://app.example.com"}}
	cases := []struct {
		origin string
		host   string
		want   bool
	}{
		{"", "api.example.com", true},
		{"https://app.example.com", "api.example.com", true},
		{"https://evil.example.com", "api.example.com", false},
		{"https://api.example.com", "api.example.com", true},
	}
	for _, tc := range cases {
		req := httptest.NewRequest("GET", "/notifications/ws", nil)
		req.Host = tc.host
		if tc.origin != "" {
			req.Header.Set("Origin", tc.origin)
		}
		if got := h.checkOrigin(req); got != tc.want {
			t.Fatalf("origin %q: expected %v, got %v", tc.origin, tc.want, got)
		}
	}
}
