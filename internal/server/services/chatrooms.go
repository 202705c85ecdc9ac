package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/studymatch/internal/common"
	"github.com/dmitrijs2005/studymatch/internal/logging"
	"github.com/dmitrijs2005/studymatch/internal/server/models"
	"github.com/dmitrijs2005/studymatch/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// ImageSigner turns a stored profile image key into a fetchable URL.
type ImageSigner interface {
	PresignGet(ctx context.Context, key string) (string, error)
}

// ChatRoomService maps an unordered pair of users to exactly one room.
type ChatRoomService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	images      ImageSigner
	log         logging.Logger
}

// NewChatRoomService accepts a nil images signer; room listings then carry
// no image references.
func NewChatRoomService(db *sql.DB, m repomanager.RepositoryManager, images ImageSigner, log logging.Logger) *ChatRoomService {
	return &ChatRoomService{
		db:          db,
		repomanager: m,
		images:      images,
		log:         log.With("module", "chatrooms"),
	}
}

// canonicalID parses a user or room id and returns its canonical text form,
// which is what the sorted-pair ordering relies on.
func canonicalID(id string) (string, bool) {
	u, err := uuid.Parse(id)
	if err != nil {
		return "", false
	}
	return u.String(), true
}

// ResolveOrCreate returns the room shared by userA and userB, creating it on
// first contact. The result does not depend on argument order. created
// reports whether this call inserted the room.
func (s *ChatRoomService) ResolveOrCreate(ctx context.Context, userA, userB string) (string, bool, error) {
	a, okA := canonicalID(userA)
	b, okB := canonicalID(userB)
	if !okA || !okB || a == b {
		return "", false, common.ErrorValidation
	}

	if _, err := s.repomanager.Users(s.db).GetUserByID(ctx, b); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", false, common.ErrorNotFound
		}
		s.log.Error(ctx, "other participant lookup failed", "error", err)
		return "", false, common.ErrorInternal
	}

	first, second := models.CanonicalPair(a, b)
	repo := s.repomanager.ChatRooms(s.db)

	room, err := repo.FindByPair(ctx, first, second)
	if err == nil {
		return room.ID, false, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		s.log.Error(ctx, "room lookup failed", "error", err)
		return "", false, common.ErrorInternal
	}

	room, err = repo.Create(ctx, &models.ChatRoom{
		ID:           uuid.NewString(),
		ParticipantA: first,
		ParticipantB: second,
	})
	if err == nil {
		s.log.Info(ctx, "chat room created", "room_id", room.ID)
		return room.ID, true, nil
	}

	// A concurrent first contact won the insert; the pair key guarantees
	// its row is the only one.
	if errors.Is(err, common.ErrorAlreadyExists) {
		room, err = repo.FindByPair(ctx, first, second)
		if err == nil {
			return room.ID, false, nil
		}
	}

	s.log.Error(ctx, "room creation failed", "error", err)
	return "", false, common.ErrorInternal
}

// ListRoomsForUser returns userID's rooms with the other participant's
// display data. A failed image signature only drops that image reference.
func (s *ChatRoomService) ListRoomsForUser(ctx context.Context, userID string) ([]models.RoomSummary, error) {
	rooms, err := s.repomanager.ChatRooms(s.db).ListForUser(ctx, userID)
	if err != nil {
		s.log.Error(ctx, "room listing failed", "user_id", userID, "error", err)
		return nil, common.ErrorInternal
	}

	if s.images == nil {
		return rooms, nil
	}

	for i := range rooms {
		if rooms[i].ImageKey == "" {
			continue
		}
		url, err := s.images.PresignGet(ctx, rooms[i].ImageKey)
		if err != nil {
			s.log.Warn(ctx, "image presign failed", "user_id", rooms[i].OtherParticipant.ID, "error", err)
			continue
		}
		rooms[i].OtherParticipant.ImageRef = url
	}

	return rooms, nil
}

// Room loads a room, mapping malformed ids to common.ErrorNotFound.
func (s *ChatRoomService) Room(ctx context.Context, roomID string) (*models.ChatRoom, error) {
	id, ok := canonicalID(roomID)
	if !ok {
		return nil, common.ErrorNotFound
	}

	room, err := s.repomanager.ChatRooms(s.db).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		s.log.Error(ctx, "room lookup failed", "room_id", id, "error", err)
		return nil, common.ErrorInternal
	}
	return room, nil
}

// IsParticipant reports whether userID belongs to roomID. A missing room
// yields common.ErrorNotFound.
func (s *ChatRoomService) IsParticipant(ctx context.Context, roomID, userID string) (bool, error) {
	room, err := s.Room(ctx, roomID)
	if err != nil {
		return false, err
	}
	return room.HasParticipant(userID), nil
}
