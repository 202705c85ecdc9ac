package metadata

import "context"

// Well-known keys.
const (
	KeyLastEmail = "last_email"
	KeyLastRoom  = "last_room"
)

// Repository is a small string key/value store for CLI state that should
// survive restarts.
type Repository interface {
	// Get returns "" when key is absent.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}
