package chatrooms

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/studymatch/internal/common"
	"github.com/dmitrijs2005/studymatch/internal/dbx"
	"github.com/dmitrijs2005/studymatch/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) FindByPair(ctx context.Context, a, b string) (*models.ChatRoom, error) {
	query :=
		`SELECT id, participant_a, participant_b, created_at FROM chat_rooms
		 WHERE participant_a = $1 AND participant_b = $2
		 `
	return scanRoom(r.db.QueryRowContext(ctx, query, a, b))
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.ChatRoom, error) {
	query :=
		`SELECT id, participant_a, participant_b, created_at FROM chat_rooms
		 WHERE id = $1
		 `
	return scanRoom(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) Create(ctx context.Context, room *models.ChatRoom) (*models.ChatRoom, error) {
	query :=
		`INSERT INTO chat_rooms (id, participant_a, participant_b)
		 VALUES ($1, $2, $3)
		 RETURNING created_at
		 `

	err := r.db.QueryRowContext(ctx, query, room.ID, room.ParticipantA, room.ParticipantB).Scan(&room.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return room, nil
}

func (r *PostgresRepository) ListForUser(ctx context.Context, userID string) ([]models.RoomSummary, error) {
	query :=
		`SELECT r.id, u.id, u.name, COALESCE(p.image_key, ''), r.created_at
		 FROM chat_rooms r
		 JOIN users u ON u.id = CASE WHEN r.participant_a = $1 THEN r.participant_b ELSE r.participant_a END
		 LEFT JOIN profiles p ON p.user_id = u.id
		 WHERE r.participant_a = $1 OR r.participant_b = $1
		 ORDER BY r.created_at DESC, r.id
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []models.RoomSummary{}
	for rows.Next() {
		var s models.RoomSummary
		if err := rows.Scan(&s.RoomID, &s.OtherParticipant.ID, &s.OtherParticipant.Name, &s.ImageKey, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func scanRoom(row *sql.Row) (*models.ChatRoom, error) {
	room := &models.ChatRoom{}
	err := row.Scan(&room.ID, &room.ParticipantA, &room.ParticipantB, &room.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return room, nil
}
