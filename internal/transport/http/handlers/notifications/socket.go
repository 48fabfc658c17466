package notificationshandler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"pms/internal/domain/notifications"
	"pms/internal/transport/http/middleware"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	readLimit  = 4096
)

type serverMessage struct {
	Type      string    `json:"type"`
	Message   string    `json:"message,omitempty"`
	ID        string    `json:"notification_id,omitempty"`
	UserID    string    `json:"user_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func encode(msg serverMessage) []byte {
	msg.Timestamp = time.Now().UTC()
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil
	}
	return payload
}

func (h *Handler) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.AllowedOrigins) == 0 || slices.Contains(h.AllowedOrigins, "*") {
		return true
	}
	if slices.Contains(h.AllowedOrigins, origin) {
		return true
	}
	u, err := url.Parse(origin)
	return err == nil && u.Host == r.Host
}

// handleSocket upgrades first and then authenticates, so a bad token is
// reported with a policy-violation close frame the browser can see.
func (h *Handler) handleSocket(w http.ResponseWriter, r *http.Request) {
	up := h.upgrader()
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		slog.Debug("websocket upgrade failed", "err", err)
		return
	}

	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if token == "" {
		token = middleware.BearerToken(r)
	}
	var userID string
	if token != "" {
		ctx, authErr := middleware.Authenticate(r.Context(), h.Authn, h.Principals, token)
		if authErr == nil {
			if p, ok := middleware.GetPrincipal(ctx); ok {
				userID = p.UserID
			}
		}
	}
	if userID == "" {
		closeWith(conn, websocket.ClosePolicyViolation, "authentication failed")
		return
	}

	client := notifications.NewClient(userID)
	if !h.Hub.Register(client) {
		closeWith(conn, websocket.CloseGoingAway, "server shutting down")
		return
	}
	slog.Info("websocket connected", "userId", userID)

	go h.writePump(conn, client)
	h.Hub.SendToClient(client, encode(serverMessage{
		Type:    "connection_established",
		Message: "Connected to notification service",
		UserID:  userID,
	}))
	h.readPump(r, conn, client)
}

func closeWith(conn *websocket.Conn, code int, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(writeWait))
	_ = conn.Close()
}

// readPump handles client frames until the connection drops.
func (h *Handler) readPump(r *http.Request, conn *websocket.Conn, client *notifications.Client) {
	defer func() {
		h.Hub.Unregister(client)
		_ = conn.Close()
		slog.Info("websocket disconnected", "userId", client.UserID)
	}()
	conn.SetReadLimit(readLimit)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("websocket read failed", "userId", client.UserID, "err", err)
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		if reply := h.handleFrame(r, client, strings.TrimSpace(string(data))); reply != nil {
			h.Hub.SendToClient(client, reply)
		}
	}
}

// handleFrame answers the text protocol: "ping" and "mark_read:<id>".
func (h *Handler) handleFrame(r *http.Request, client *notifications.Client, frame string) []byte {
	switch {
	case frame == "ping":
		return []byte("pong")
	case strings.HasPrefix(frame, "mark_read:"):
		id := strings.TrimSpace(strings.TrimPrefix(frame, "mark_read:"))
		if _, err := uuid.Parse(id); err != nil {
			return encode(serverMessage{Type: "error", Message: "invalid notification id"})
		}
		if err := h.Service.MarkRead(r.Context(), client.UserID, id); err != nil {
			return encode(serverMessage{Type: "error", Message: "could not mark notification read", ID: id})
		}
		return encode(serverMessage{Type: "marked_read", ID: id})
	default:
		return nil
	}
}

// writePump is the only writer on conn. It exits when the hub closes the
// client's channel.
func (h *Handler) writePump(conn *websocket.Conn, client *notifications.Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()
	for {
		select {
		case payload, ok := <-client.Send():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
