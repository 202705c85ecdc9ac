package memory

import (
	"context"
	"sort"

	"github.com/dmitrijs2005/studymatch/internal/server/models"
)

type messageRepo struct {
	s *store
}

func (r *messageRepo) Create(ctx context.Context, msg *models.Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.messages = append(r.s.messages, *msg)
	return nil
}

func (r *messageRepo) ListByRoom(ctx context.Context, roomID string) ([]models.Message, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := []models.Message{}
	for _, m := range r.s.messages {
		if m.RoomID == roomID {
			result = append(result, m)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp.Before(result[j].Timestamp)
	})
	return result, nil
}
