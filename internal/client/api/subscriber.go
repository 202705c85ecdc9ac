package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/studymatch/internal/client/models"
	"github.com/dmitrijs2005/studymatch/internal/common"
	"github.com/gorilla/websocket"
)

const (
	writeWait        = 10 * time.Second
	handshakeTimeout = 10 * time.Second
	updatesBuffer    = 64
)

// ErrClosed is returned by Subscriber methods after the connection ended.
var ErrClosed = errors.New("subscriber closed")

type frame struct {
	Event   string          `json:"event"`
	Channel string          `json:"channel"`
	Data    json.RawMessage `json:"data"`
}

type command struct {
	Action string `json:"action"`
	RoomID string `json:"roomId,omitempty"`
}

// reply is the server's answer to one command.
type reply struct {
	event   string
	channel string
	err     error
}

// Subscriber follows at most one room over a single WebSocket connection.
type Subscriber struct {
	conn *websocket.Conn

	// cmdMu serialises commands so each reply belongs to the pending one.
	cmdMu   sync.Mutex
	writeMu sync.Mutex
	replies chan reply

	mu       sync.Mutex
	room     string
	messages []models.Message

	updates chan models.Message
	done    chan struct{}
	err     error
}

// Subscribe opens the real-time connection using the session cookie held by
// the client. It fails with ErrUnauthorized when the server refuses the
// handshake for lack of a valid session.
func (c *Client) Subscribe(ctx context.Context) (*Subscriber, error) {
	wsURL := c.BaseURL()
	switch wsURL.Scheme {
	case "https":
		wsURL.Scheme = "wss"
	default:
		wsURL.Scheme = "ws"
	}
	wsURL.Path = strings.TrimRight(wsURL.Path, "/") + "/ws"

	header := http.Header{}
	header.Set("Origin", c.baseURL.Scheme+"://"+c.baseURL.Host)
	if ck := c.sessionCookie(); ck != nil {
		header.Set("Cookie", ck.String())
	}

	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, resp, err := dialer.DialContext(ctx, wsURL.String(), header)
	if err != nil {
		if resp != nil {
			defer resp.Body.Close()
			return nil, &StatusError{Code: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	s := &Subscriber{
		conn:    conn,
		replies: make(chan reply, 1),
		updates: make(chan models.Message, updatesBuffer),
		done:    make(chan struct{}),
	}
	go s.readLoop()
	return s, nil
}

// Switch leaves the current room, clears the local message list and
// subscribes to roomID. It returns once the server has acknowledged the
// subscription or rejected it.
func (s *Subscriber) Switch(ctx context.Context, roomID string) error {
	if roomID == "" {
		return ErrInvalidInput
	}

	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()

	s.mu.Lock()
	prev := s.room
	s.room = roomID
	s.messages = nil
	s.mu.Unlock()

	if prev != "" {
		if _, err := s.roundTrip(ctx, command{Action: "unsubscribe"}); err != nil {
			s.resetRoom(roomID)
			return err
		}
	}

	r, err := s.roundTrip(ctx, command{Action: "subscribe", RoomID: roomID})
	if err == nil && r.event != "subscribed" {
		err = fmt.Errorf("unexpected reply %q", r.event)
	}
	if err != nil {
		s.resetRoom(roomID)
		return err
	}
	return nil
}

// Leave drops the current subscription and clears the local list.
func (s *Subscriber) Leave(ctx context.Context) error {
	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()

	s.resetRoom(s.Room())
	_, err := s.roundTrip(ctx, command{Action: "unsubscribe"})
	return err
}

func (s *Subscriber) resetRoom(roomID string) {
	s.mu.Lock()
	if s.room == roomID {
		s.room = ""
		s.messages = nil
	}
	s.mu.Unlock()
}

func (s *Subscriber) roundTrip(ctx context.Context, cmd command) (reply, error) {
	// A reply that arrived after its caller gave up must not answer this
	// command.
	select {
	case <-s.replies:
	default:
	}

	if err := s.write(cmd); err != nil {
		return reply{}, err
	}

	select {
	case r := <-s.replies:
		return r, r.err
	case <-s.done:
		return reply{}, ErrClosed
	case <-ctx.Done():
		return reply{}, ctx.Err()
	}
}

func (s *Subscriber) write(cmd command) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	select {
	case <-s.done:
		return ErrClosed
	default:
	}

	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := s.conn.WriteJSON(cmd); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Room returns the room currently followed, or "".
func (s *Subscriber) Room() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room
}

// Messages returns a copy of the messages received for the current room in
// receipt order.
func (s *Subscriber) Messages() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Updates delivers each accepted message as it arrives. The channel is
// closed when the connection ends. Slow readers miss updates but
// Messages still holds them.
func (s *Subscriber) Updates() <-chan models.Message {
	return s.updates
}

// Done is closed when the connection ends.
func (s *Subscriber) Done() <-chan struct{} {
	return s.done
}

// Err returns the reason the connection ended, or nil while it is open or
// after a clean Close.
func (s *Subscriber) Err() error {
	select {
	case <-s.done:
		return s.err
	default:
		return nil
	}
}

// Close ends the connection and waits for the reader to stop.
func (s *Subscriber) Close() error {
	s.writeMu.Lock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = s.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	s.writeMu.Unlock()

	err := s.conn.Close()
	<-s.done
	return err
}

func (s *Subscriber) readLoop() {
	defer func() {
		close(s.updates)
		close(s.done)
	}()

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) && !errors.Is(err, net.ErrClosed) {
				s.err = err
			}
			return
		}

		var f frame
		if err := json.Unmarshal(data, &f); err != nil {
			continue
		}
		s.dispatch(f)
	}
}

func (s *Subscriber) dispatch(f frame) {
	switch f.Event {
	case common.NewMessageEvent:
		var m models.Message
		if err := json.Unmarshal(f.Data, &m); err != nil {
			return
		}
		s.mu.Lock()
		if s.room == "" || !strings.EqualFold(s.room, f.Channel) {
			s.mu.Unlock()
			return
		}
		s.messages = append(s.messages, m)
		s.mu.Unlock()

		select {
		case s.updates <- m:
		default:
		}

	case "subscribed", "unsubscribed":
		s.answer(reply{event: f.Event, channel: f.Channel})

	case "error":
		var body struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(f.Data, &body)
		s.answer(reply{event: f.Event, err: frameError(body.Message)})
	}
}

func (s *Subscriber) answer(r reply) {
	select {
	case s.replies <- r:
	default:
	}
}

func frameError(msg string) error {
	switch msg {
	case "Forbidden":
		return fmt.Errorf("%w: %s", ErrForbidden, msg)
	case "Chat room not found":
		return fmt.Errorf("%w: %s", ErrNotFound, msg)
	case "Missing required fields", "Invalid frame", "Unknown action":
		return fmt.Errorf("%w: %s", ErrInvalidInput, msg)
	}
	return &StatusError{Code: http.StatusInternalServerError, Message: msg}
}
