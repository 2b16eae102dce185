package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/easymo/notify/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DeliveryLogRepository implements domain.DeliveryLogRepository. The
// delivery_logs table is append-only; there are no update or delete paths.
type DeliveryLogRepository struct {
	pool *pgxpool.Pool
}

// NewDeliveryLogRepository creates a new delivery log repository
func NewDeliveryLogRepository(pool *pgxpool.Pool) *DeliveryLogRepository {
	return &DeliveryLogRepository{pool: pool}
}

// Insert records one delivery attempt, success or failure.
func (r *DeliveryLogRepository) Insert(ctx context.Context, entry *domain.DeliveryLog) error {
	var metadataJSON []byte
	if entry.Metadata != nil {
		var err error
		metadataJSON, err = json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata: %w", err)
		}
	}

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO delivery_logs (
			id, session_id, profile_id, channel, direction, message_type,
			content, external_message_id, status, metadata, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.pool.Exec(ctx, query,
		entry.ID,
		entry.SessionID,
		entry.ProfileID,
		string(entry.Channel),
		string(entry.Direction),
		entry.MessageType,
		entry.Content,
		entry.ExternalMessageID,
		string(entry.Status),
		metadataJSON,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert delivery log: %w", err)
	}
	return nil
}

// ListBySession retrieves delivery attempts for a session in
// chronological order (oldest first).
func (r *DeliveryLogRepository) ListBySession(ctx context.Context, sessionID uuid.UUID, limit int) ([]domain.DeliveryLog, error) {
	query := `
		SELECT id, session_id, profile_id, channel, direction, message_type,
		       content, external_message_id, status, metadata, created_at
		FROM delivery_logs
		WHERE session_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list delivery logs: %w", err)
	}
	defer rows.Close()

	var entries []domain.DeliveryLog
	for rows.Next() {
		var (
			e           domain.DeliveryLog
			rawMetadata []byte
		)
		if err := rows.Scan(
			&e.ID,
			&e.SessionID,
			&e.ProfileID,
			&e.Channel,
			&e.Direction,
			&e.MessageType,
			&e.Content,
			&e.ExternalMessageID,
			&e.Status,
			&rawMetadata,
			&e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan delivery log: %w", err)
		}
		if len(rawMetadata) > 0 {
			if err := json.Unmarshal(rawMetadata, &e.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
			}
		}
		entries = append(entries, e)
	}

	// Reverse to return chronological order (oldest first)
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}

	return entries, nil
}
