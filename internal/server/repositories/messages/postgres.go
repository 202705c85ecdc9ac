package messages

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/studymatch/internal/dbx"
	"github.com/dmitrijs2005/studymatch/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, msg *models.Message) error {
	query :=
		`INSERT INTO messages (id, room_id, sender_id, text, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 `

	_, err := r.db.ExecContext(ctx, query, msg.ID, msg.RoomID, msg.SenderID, msg.Text, msg.Timestamp)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListByRoom(ctx context.Context, roomID string) ([]models.Message, error) {
	query :=
		`SELECT id, room_id, sender_id, text, created_at FROM messages
		 WHERE room_id = $1
		 ORDER BY created_at ASC, seq ASC
		 `

	rows, err := r.db.QueryContext(ctx, query, roomID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []models.Message{}
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.RoomID, &m.SenderID, &m.Text, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		// The driver reads TIMESTAMPTZ in the session zone.
		m.Timestamp = m.Timestamp.UTC()
		result = append(result, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}
