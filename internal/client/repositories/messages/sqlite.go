package messages

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/studymatch/internal/client/models"
	"github.com/dmitrijs2005/studymatch/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Save(ctx context.Context, msgs ...models.Message) error {
	for _, m := range msgs {
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO messages (id, room_id, sender_id, text, ts) VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(id) DO NOTHING
		`, m.ID, m.RoomID, m.SenderID, m.Text, m.Timestamp.UnixMicro())
		if err != nil {
			return fmt.Errorf("failed to cache message %s: %w", m.ID, err)
		}
	}
	return nil
}

func (r *SQLiteRepository) ListByRoom(ctx context.Context, roomID string) ([]models.Message, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, room_id, sender_id, text, ts FROM messages
		WHERE room_id = ? ORDER BY ts, seq
	`, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cached messages: %w", err)
	}
	defer rows.Close()

	result := []models.Message{}
	for rows.Next() {
		var m models.Message
		var ts int64
		if err := rows.Scan(&m.ID, &m.RoomID, &m.SenderID, &m.Text, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan cached message: %w", err)
		}
		m.Timestamp = time.UnixMicro(ts).UTC()
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list cached messages: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM messages`); err != nil {
		return fmt.Errorf("failed to clear cached messages: %w", err)
	}
	return nil
}
