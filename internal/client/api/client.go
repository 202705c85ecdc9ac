package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/studymatch/internal/client/models"
	"github.com/dmitrijs2005/studymatch/internal/common"
)

const roomCreatedMessage = "Chat room created successfully"

// Client is safe for concurrent use.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	jar     http.CookieJar
}

// NewClient returns a Client for the server at baseURL. A zero timeout
// means no per-request limit beyond the caller's context.
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported server url scheme %q", u.Scheme)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	return &Client{
		baseURL: u,
		jar:     jar,
		http:    &http.Client{Jar: jar, Timeout: timeout},
	}, nil
}

// BaseURL returns the server base URL.
func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}

// Authenticated reports whether the jar currently holds a session cookie.
func (c *Client) Authenticated() bool {
	return c.sessionCookie() != nil
}

func (c *Client) sessionCookie() *http.Cookie {
	for _, ck := range c.jar.Cookies(c.baseURL) {
		if ck.Name == common.AuthCookieName && ck.Value != "" {
			return ck
		}
	}
	return nil
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	if query != nil {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// do sends body as JSON and decodes a 2xx answer into out when out is
// non-nil. Transport failures become ErrUnavailable.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), rdr)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var m struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(data, &m)
		return &StatusError{Code: resp.StatusCode, Message: m.Message}
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

type userEnvelope struct {
	Message string      `json:"message"`
	User    models.User `json:"user"`
}

// Signup creates an account. It does not log in.
func (c *Client) Signup(ctx context.Context, email, password, name string) (*models.User, error) {
	var resp userEnvelope
	body := map[string]string{"email": email, "password": password, "name": name}
	if err := c.do(ctx, http.MethodPost, "/auth/signup", nil, body, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// Login exchanges credentials for a session cookie kept in the jar.
func (c *Client) Login(ctx context.Context, email, password string) (*models.User, error) {
	var resp userEnvelope
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, body, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// Logout asks the server to clear the cookie. The token itself stays valid
// until it expires.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil, nil)
}

// Me returns the logged-in user or ErrUnauthorized.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var resp struct {
		Authenticated bool         `json:"authenticated"`
		User          *models.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Authenticated || resp.User == nil {
		return nil, ErrUnauthorized
	}
	return resp.User, nil
}

// OpenRoom resolves the chat room shared with otherUserID, creating it on
// first contact. created reports whether this call created it.
func (c *Client) OpenRoom(ctx context.Context, otherUserID string) (roomID string, created bool, err error) {
	var resp struct {
		RoomID  string `json:"roomId"`
		Message string `json:"message"`
	}
	body := map[string]string{"otherUserId": otherUserID}
	if err := c.do(ctx, http.MethodPost, "/chatroom", nil, body, &resp); err != nil {
		return "", false, err
	}
	return resp.RoomID, resp.Message == roomCreatedMessage, nil
}

// Rooms lists the caller's chat rooms, newest first.
func (c *Client) Rooms(ctx context.Context) ([]models.RoomSummary, error) {
	var resp struct {
		Data []models.RoomSummary `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/chatroom", nil, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		resp.Data = []models.RoomSummary{}
	}
	return resp.Data, nil
}

func (c *Client) Send(ctx context.Context, roomID, text string) error {
	body := map[string]string{"roomId": roomID, "text": text}
	return c.do(ctx, http.MethodPost, "/chat", nil, body, nil)
}

// History returns the room's messages oldest first.
func (c *Client) History(ctx context.Context, roomID string) ([]models.Message, error) {
	var resp struct {
		Messages []models.Message `json:"messages"`
		Success  bool             `json:"success"`
	}
	q := url.Values{"chatRoomId": []string{roomID}}
	if err := c.do(ctx, http.MethodGet, "/chat", q, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Messages == nil {
		resp.Messages = []models.Message{}
	}
	return resp.Messages, nil
}
