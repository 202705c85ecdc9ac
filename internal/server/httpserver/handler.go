package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/studymatch/internal/common"
	"github.com/dmitrijs2005/studymatch/internal/server/models"
)

const maxBodyBytes = 64 << 10

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- auth ---

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type userResponse struct {
	Message string            `json:"message"`
	User    models.PublicUser `json:"user"`
}

func (s *HTTPServer) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeMessage(w, http.StatusUnprocessableEntity, "Invalid input.")
		return
	}

	user, err := s.auth.Signup(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorValidation):
			writeMessage(w, http.StatusUnprocessableEntity, "Invalid input.")
		case errors.Is(err, common.ErrorAlreadyExists):
			writeMessage(w, http.StatusUnprocessableEntity, "User already exists.")
		default:
			writeMessage(w, http.StatusInternalServerError, "Internal Server Error.")
		}
		return
	}

	writeJSON(w, http.StatusCreated, userResponse{Message: "User created successfully!", User: *user})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *HTTPServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	client := s.clientAddr.ClientAddr(r)

	if err := s.auth.Admit(ctx, client); err != nil {
		writeError(w, err, "Internal Server Error")
		return
	}

	if !strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		writeMessage(w, http.StatusBadRequest, "Invalid content type")
		return
	}

	var req loginRequest
	if err := decodeBody(w, r, &req); err != nil || req.Email == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	sess, err := s.auth.VerifyCredentials(ctx, client, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrInvalidCredentials) {
			writeMessage(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		writeMessage(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	http.SetCookie(w, s.sessionCookie(sess.Token, sess.ExpiresIn))
	s.logger.Info(ctx, "user logged in", "user_id", sess.User.ID)
	writeJSON(w, http.StatusOK, userResponse{Message: "Login successful", User: sess.User})
}

func (s *HTTPServer) handleLogout(w http.ResponseWriter, r *http.Request) {
	c := s.sessionCookie("", -1)
	c.Expires = time.Unix(0, 0)
	http.SetCookie(w, c)
	writeMessage(w, http.StatusOK, "Logged out successfully")
}

type meResponse struct {
	Authenticated bool               `json:"authenticated"`
	User          *models.PublicUser `json:"user,omitempty"`
}

func (s *HTTPServer) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := s.auth.Me(r.Context(), tokenFromRequest(r))
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			writeJSON(w, http.StatusOK, meResponse{})
			return
		}
		s.logger.Error(r.Context(), "me failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, meResponse{})
		return
	}
	writeJSON(w, http.StatusOK, meResponse{Authenticated: true, User: user})
}

func (s *HTTPServer) sessionCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     common.AuthCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteStrictMode,
	}
}

// --- chat rooms ---

type createRoomRequest struct {
	OtherUserID   string `json:"otherUserId"`
	CourseOwnerID string `json:"courseOwnerId"`
}

type createRoomResponse struct {
	RoomID  string `json:"roomId"`
	Message string `json:"message"`
}

func (s *HTTPServer) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	var req createRoomRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	other := req.OtherUserID
	if other == "" {
		other = req.CourseOwnerID
	}
	if other == "" {
		writeMessage(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	roomID, created, err := s.rooms.ResolveOrCreate(r.Context(), userID, other)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorValidation):
			writeMessage(w, http.StatusBadRequest, "Invalid participant")
		case errors.Is(err, common.ErrorNotFound):
			writeMessage(w, http.StatusNotFound, "User not found")
		default:
			writeMessage(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	msg := "Chat room already exists"
	if created {
		msg = "Chat room created successfully"
	}
	writeJSON(w, http.StatusOK, createRoomResponse{RoomID: roomID, Message: msg})
}

func (s *HTTPServer) handleListRooms(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	rooms, err := s.rooms.ListRoomsForUser(r.Context(), userID)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": rooms})
}

// --- messages ---

type sendRequest struct {
	RoomID string `json:"roomId"`
	Text   string `json:"text"`
}

func (s *HTTPServer) handleSend(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	var req sendRequest
	if err := decodeBody(w, r, &req); err != nil || req.RoomID == "" || strings.TrimSpace(req.Text) == "" {
		writeMessage(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	if _, err := s.messages.Send(r.Context(), req.RoomID, userID, req.Text); err != nil {
		writeError(w, err, "Failed to send message")
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

type historyResponse struct {
	Messages []models.Message `json:"messages"`
	Success  bool             `json:"success"`
}

func (s *HTTPServer) handleHistory(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	roomID := r.URL.Query().Get("chatRoomId")
	if roomID == "" {
		writeMessage(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	msgs, err := s.messages.History(r.Context(), roomID, userID)
	if err != nil {
		writeError(w, err, "Failed to fetch messages")
		return
	}
	writeJSON(w, http.StatusOK, historyResponse{Messages: msgs, Success: true})
}
