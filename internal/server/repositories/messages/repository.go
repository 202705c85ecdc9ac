// Package messages is the append-only message log.
package messages

import (
	"context"

	"github.com/dmitrijs2005/studymatch/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, msg *models.Message) error
	// ListByRoom returns the room's messages oldest first; equal timestamps
	// keep insertion order.
	ListByRoom(ctx context.Context, roomID string) ([]models.Message, error)
}
