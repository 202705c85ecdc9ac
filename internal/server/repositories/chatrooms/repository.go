// Package chatrooms stores one-to-one rooms keyed by their sorted
// participant pair.
package chatrooms

import (
	"context"

	"github.com/dmitrijs2005/studymatch/internal/server/models"
)

type Repository interface {
	// FindByPair expects a and b already sorted (see models.CanonicalPair).
	FindByPair(ctx context.Context, a, b string) (*models.ChatRoom, error)
	GetByID(ctx context.Context, id string) (*models.ChatRoom, error)
	// Create yields common.ErrorAlreadyExists when the pair is taken.
	Create(ctx context.Context, room *models.ChatRoom) (*models.ChatRoom, error)
	// ListForUser returns every room userID belongs to, newest first, with
	// the other participant's display data.
	ListForUser(ctx context.Context, userID string) ([]models.RoomSummary, error)
}
