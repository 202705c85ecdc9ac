package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/dmitrijs2005/studymatch/internal/common"
	"github.com/dmitrijs2005/studymatch/internal/logging"
	"github.com/dmitrijs2005/studymatch/internal/server/models"
	"github.com/dmitrijs2005/studymatch/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// Publisher fans an event out to the subscribers of a channel.
type Publisher interface {
	Publish(ctx context.Context, channel, event string, payload any) error
}

// MessageService persists chat messages and then announces them on the
// room's channel. A message is never published before it is stored.
type MessageService struct {
	db           *sql.DB
	repomanager  repomanager.RepositoryManager
	rooms        *ChatRoomService
	publisher    Publisher
	storeTimeout time.Duration
	now          func() time.Time
	log          logging.Logger
}

func NewMessageService(db *sql.DB, m repomanager.RepositoryManager, rooms *ChatRoomService,
	publisher Publisher, storeTimeout time.Duration, log logging.Logger) *MessageService {
	if storeTimeout <= 0 {
		storeTimeout = 5 * time.Second
	}
	return &MessageService{
		db:           db,
		repomanager:  m,
		rooms:        rooms,
		publisher:    publisher,
		storeTimeout: storeTimeout,
		now:          time.Now,
		log:          log.With("module", "messages"),
	}
}

// Send stores text from senderID in roomID and publishes it as a
// new-message event. Publish failures, including a cancelled request, are
// logged and the stored message is returned regardless.
func (s *MessageService) Send(ctx context.Context, roomID, senderID, text string) (*models.Message, error) {
	if roomID == "" || strings.TrimSpace(text) == "" {
		return nil, common.ErrorValidation
	}

	room, err := s.rooms.Room(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.HasParticipant(senderID) {
		return nil, common.ErrorForbidden
	}

	msg := &models.Message{
		ID:       uuid.NewString(),
		RoomID:   room.ID,
		SenderID: senderID,
		Text:     text,
		// PostgreSQL keeps microseconds.
		Timestamp: s.now().UTC().Truncate(time.Microsecond),
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	if err := s.repomanager.Messages(s.db).Create(storeCtx, msg); err != nil {
		s.log.Error(ctx, "message store failed", "room_id", room.ID,
			"timeout", errors.Is(err, context.DeadlineExceeded), "error", err)
		return nil, common.ErrorInternal
	}

	// Publish is bounded by the request and by storeTimeout. A request
	// cancelled after the commit leaves the message in history only.
	pubCtx, pubCancel := context.WithTimeout(ctx, s.storeTimeout)
	defer pubCancel()

	if err := s.publisher.Publish(pubCtx, room.ID, common.NewMessageEvent, msg); err != nil {
		s.log.Warn(ctx, "message publish failed", "room_id", room.ID, "message_id", msg.ID, "error", err)
	}

	return msg, nil
}

// History returns every message in roomID oldest first. Only participants
// may read it.
func (s *MessageService) History(ctx context.Context, roomID, userID string) ([]models.Message, error) {
	if roomID == "" {
		return nil, common.ErrorValidation
	}

	room, err := s.rooms.Room(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.HasParticipant(userID) {
		return nil, common.ErrorForbidden
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	msgs, err := s.repomanager.Messages(s.db).ListByRoom(storeCtx, room.ID)
	if err != nil {
		s.log.Error(ctx, "history load failed", "room_id", room.ID, "error", err)
		return nil, common.ErrorInternal
	}
	return msgs, nil
}
