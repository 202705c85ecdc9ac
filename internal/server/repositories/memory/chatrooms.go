package memory

import (
	"context"
	"sort"
	"time"

	"github.com/dmitrijs2005/studymatch/internal/common"
	"github.com/dmitrijs2005/studymatch/internal/server/models"
)

type roomRepo struct {
	s *store
}

func (r *roomRepo) FindByPair(ctx context.Context, a, b string) (*models.ChatRoom, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, room := range r.s.rooms {
		if room.ParticipantA == a && room.ParticipantB == b {
			return &room, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *roomRepo) GetByID(ctx context.Context, id string) (*models.ChatRoom, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	room, ok := r.s.rooms[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &room, nil
}

func (r *roomRepo) Create(ctx context.Context, room *models.ChatRoom) (*models.ChatRoom, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.rooms {
		if existing.ParticipantA == room.ParticipantA && existing.ParticipantB == room.ParticipantB {
			return nil, common.ErrorAlreadyExists
		}
	}

	room.CreatedAt = time.Now().UTC()
	r.s.rooms[room.ID] = *room
	return room, nil
}

func (r *roomRepo) ListForUser(ctx context.Context, userID string) ([]models.RoomSummary, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := []models.RoomSummary{}
	for _, room := range r.s.rooms {
		if !room.HasParticipant(userID) {
			continue
		}
		other := room.Other(userID)
		result = append(result, models.RoomSummary{
			RoomID:           room.ID,
			OtherParticipant: models.Participant{ID: other, Name: r.s.users[other].Name},
			CreatedAt:        room.CreatedAt,
			ImageKey:         r.s.images[other],
		})
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].RoomID < result[j].RoomID
	})
	return result, nil
}
