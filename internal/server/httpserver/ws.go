package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/studymatch/internal/common"
	"github.com/dmitrijs2005/studymatch/internal/server/pubsub"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

const (
	actionSubscribe   = "subscribe"
	actionUnsubscribe = "unsubscribe"

	eventSubscribed   = "subscribed"
	eventUnsubscribed = "unsubscribed"
	eventError        = "error"
)

type clientFrame struct {
	Action string `json:"action"`
	RoomID string `json:"roomId"`
}

// wsCommand is handed from the read loop to the writer, which owns the
// subscription. A non-empty errMsg just reports an error frame.
type wsCommand struct {
	action string
	roomID string
	errMsg string
}

// originChecker accepts exactly the configured origins. With none
// configured, gorilla's same-host check applies.
func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if n, ok := normalizeOrigin(o); ok {
			set[n] = struct{}{}
		}
	}
	return func(r *http.Request) bool {
		n, ok := normalizeOrigin(r.Header.Get("Origin"))
		if !ok {
			return false
		}
		_, found := set[n]
		return found
	}
}

func normalizeOrigin(origin string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(origin))
	if err != nil || u.Scheme == "" || u.Host == "" || u.User != nil {
		return "", false
	}
	if (u.Path != "" && u.Path != "/") || u.RawQuery != "" || u.Fragment != "" {
		return "", false
	}
	return strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host), true
}

func (s *HTTPServer) handleWS(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn(r.Context(), "websocket upgrade failed", "error", err)
		return
	}

	// The request context ends with the handler; the connection lives until
	// either side closes it or the server shuts down.
	ctx := s.connCtx
	s.logger.Info(ctx, "websocket connected", "user_id", userID)

	cmds := make(chan wsCommand, 8)
	done := make(chan struct{})

	go s.writePump(ctx, conn, cmds, done)
	s.readPump(ctx, conn, userID, cmds, done)

	s.logger.Info(ctx, "websocket disconnected", "user_id", userID)
}

func (s *HTTPServer) readPump(ctx context.Context, conn *websocket.Conn, userID string, cmds chan<- wsCommand, done <-chan struct{}) {
	defer close(cmds)

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		cmd := s.parseCommand(ctx, userID, data)
		select {
		case cmds <- cmd:
		case <-done:
			return
		}
	}
}

func (s *HTTPServer) parseCommand(ctx context.Context, userID string, data []byte) wsCommand {
	var f clientFrame
	if err := json.Unmarshal(data, &f); err != nil {
		return wsCommand{errMsg: "Invalid frame"}
	}

	switch f.Action {
	case actionUnsubscribe:
		return wsCommand{action: actionUnsubscribe}
	case actionSubscribe:
		if f.RoomID == "" {
			return wsCommand{errMsg: "Missing required fields"}
		}
		ok, err := s.rooms.IsParticipant(ctx, f.RoomID, userID)
		switch {
		case errors.Is(err, common.ErrorNotFound):
			return wsCommand{errMsg: "Chat room not found"}
		case err != nil:
			return wsCommand{errMsg: "Internal server error"}
		case !ok:
			return wsCommand{errMsg: "Forbidden"}
		}
		return wsCommand{action: actionSubscribe, roomID: f.RoomID}
	default:
		return wsCommand{errMsg: "Unknown action"}
	}
}

// writePump is the only writer on conn. It owns the connection's single
// room subscription, so an acknowledgement is never followed by frames
// from the previous room.
func (s *HTTPServer) writePump(ctx context.Context, conn *websocket.Conn, cmds <-chan wsCommand, done chan<- struct{}) {
	ticker := time.NewTicker(pingPeriod)

	var sub *pubsub.Subscription
	var frames <-chan []byte

	defer func() {
		ticker.Stop()
		s.broker.Unsubscribe(sub)
		close(done)
		_ = conn.Close()
	}()

	write := func(msgType int, data []byte) bool {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteMessage(msgType, data) == nil
	}
	writeFrame := func(f pubsub.Frame) bool {
		b, err := json.Marshal(f)
		if err != nil {
			return false
		}
		return write(websocket.TextMessage, b)
	}

	for {
		select {
		case cmd, ok := <-cmds:
			if !ok {
				_ = write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}

			var reply pubsub.Frame
			switch {
			case cmd.errMsg != "":
				reply = pubsub.Frame{Event: eventError, Data: messageResponse{Message: cmd.errMsg}}
			case cmd.action == actionSubscribe:
				s.broker.Unsubscribe(sub)
				sub = s.broker.Subscribe(cmd.roomID)
				frames = sub.C()
				reply = pubsub.Frame{Event: eventSubscribed, Channel: cmd.roomID}
			case cmd.action == actionUnsubscribe:
				var channel string
				if sub != nil {
					channel = sub.Channel()
				}
				s.broker.Unsubscribe(sub)
				sub, frames = nil, nil
				reply = pubsub.Frame{Event: eventUnsubscribed, Channel: channel}
			}
			if !writeFrame(reply) {
				return
			}

		case b, ok := <-frames:
			if !ok {
				sub, frames = nil, nil
				continue
			}
			if !write(websocket.TextMessage, b) {
				return
			}

		case <-ticker.C:
			if !write(websocket.PingMessage, nil) {
				return
			}

		case <-ctx.Done():
			return
		}
	}
}
