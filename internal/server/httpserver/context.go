package httpserver

import (
	"context"

	"github.com/dmitrijs2005/studymatch/internal/logging"
)

type ctxKey string

const userIDKey ctxKey = "userID"

func withUserID(ctx context.Context, userID string) context.Context {
	return logging.ContextWith(context.WithValue(ctx, userIDKey, userID), "user_id", userID)
}

// UserIDFromContext returns the id the auth gate attached to the request.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}
