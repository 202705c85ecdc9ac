// Package messages caches chat history locally so the CLI can show a room
// while the server is unreachable.
package messages

import (
	"context"

	"github.com/dmitrijs2005/studymatch/internal/client/models"
)

type Repository interface {
	// Save stores msgs, skipping ids that are already cached.
	Save(ctx context.Context, msgs ...models.Message) error
	// ListByRoom returns the cached messages of roomID oldest first.
	ListByRoom(ctx context.Context, roomID string) ([]models.Message, error)
	// Clear drops every cached message.
	Clear(ctx context.Context) error
}
