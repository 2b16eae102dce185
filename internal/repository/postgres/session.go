package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/easymo/notify/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const sessionColumns = `
	id, profile_id, primary_channel, active_channels, last_agent_id, last_intent,
	context, summary_sent_whatsapp, summary_sent_sms, status,
	started_at, updated_at, expires_at
`

// SessionRepository implements domain.SessionRepository
type SessionRepository struct {
	pool *pgxpool.Pool
	ttl  time.Duration
}

// NewSessionRepository creates a new session repository. ttl is how far
// expires_at is pushed out on creation and on every touch.
func NewSessionRepository(pool *pgxpool.Pool, ttl time.Duration) *SessionRepository {
	return &SessionRepository{pool: pool, ttl: ttl}
}

// GetOrCreate returns the freshest unexpired active session for the
// profile with its TTL refreshed, or inserts a new one. A transaction
// scoped advisory lock on the profile id serializes concurrent calls,
// including two first contacts racing to insert: a row lock alone cannot
// cover the branch where no row exists yet.
func (r *SessionRepository) GetOrCreate(ctx context.Context, profileID uuid.UUID, opts domain.SessionOptions) (*domain.Session, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1::text))`, profileID.String()); err != nil {
		return nil, fmt.Errorf("failed to take session lock: %w", err)
	}

	query := `
		SELECT ` + sessionColumns + `
		FROM omni_sessions
		WHERE profile_id = $1 AND status = 'active' AND expires_at > now()
		ORDER BY updated_at DESC
		LIMIT 1
		FOR UPDATE
	`
	session, err := scanSession(tx.QueryRow(ctx, query, profileID))
	switch {
	case err == nil:
		touch := `
			UPDATE omni_sessions
			SET updated_at = now(),
			    expires_at = $2,
			    active_channels = CASE
			        WHEN $3 = ANY(active_channels) THEN active_channels
			        ELSE array_append(active_channels, $3)
			    END
			WHERE id = $1
			RETURNING ` + sessionColumns
		session, err = scanSession(tx.QueryRow(ctx, touch, session.ID, time.Now().Add(r.ttl), string(opts.PrimaryChannel)))
		if err != nil {
			return nil, fmt.Errorf("failed to refresh session: %w", err)
		}
	case errors.Is(err, pgx.ErrNoRows):
		session, err = r.insertSession(ctx, tx, profileID, opts)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("failed to look up active session: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit session transaction: %w", err)
	}
	return session, nil
}

func (r *SessionRepository) insertSession(ctx context.Context, tx pgx.Tx, profileID uuid.UUID, opts domain.SessionOptions) (*domain.Session, error) {
	sessionContext := map[string]any{}
	if opts.CallID != "" {
		sessionContext["call_id"] = opts.CallID
	}
	contextJSON, err := json.Marshal(sessionContext)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal context: %w", err)
	}

	now := time.Now()
	query := `
		INSERT INTO omni_sessions (
			id, profile_id, primary_channel, active_channels, last_agent_id, last_intent,
			context, summary_sent_whatsapp, summary_sent_sms, status,
			started_at, updated_at, expires_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, false, false, 'active', $8, $8, $9)
		RETURNING ` + sessionColumns

	session, err := scanSession(tx.QueryRow(ctx, query,
		uuid.New(),
		profileID,
		string(opts.PrimaryChannel),
		[]string{string(opts.PrimaryChannel)},
		opts.AgentID,
		opts.Intent,
		contextJSON,
		now,
		now.Add(r.ttl),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

// GetActive returns the current session for the profile, or (nil, nil)
// when no unexpired active session exists. Expired and absent look the
// same to callers.
func (r *SessionRepository) GetActive(ctx context.Context, profileID uuid.UUID) (*domain.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM omni_sessions
		WHERE profile_id = $1 AND status = 'active' AND expires_at > now()
		ORDER BY updated_at DESC
		LIMIT 1
	`
	session, err := scanSession(r.pool.QueryRow(ctx, query, profileID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active session: %w", err)
	}
	return session, nil
}

func (r *SessionRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM omni_sessions WHERE id = $1`
	session, err := scanSession(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return session, nil
}

// UpdateStatus sets the session status and optionally merges a context
// patch in the same statement.
func (r *SessionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.SessionStatus, contextPatch map[string]any) error {
	if contextPatch == nil {
		query := `UPDATE omni_sessions SET status = $2, updated_at = now() WHERE id = $1`
		if _, err := r.pool.Exec(ctx, query, id, string(status)); err != nil {
			return fmt.Errorf("failed to update session status: %w", err)
		}
		return nil
	}

	patchJSON, err := json.Marshal(contextPatch)
	if err != nil {
		return fmt.Errorf("failed to marshal context patch: %w", err)
	}
	query := `
		UPDATE omni_sessions
		SET status = $2,
		    context = COALESCE(context, '{}'::jsonb) || $3::jsonb,
		    updated_at = now()
		WHERE id = $1
	`
	if _, err := r.pool.Exec(ctx, query, id, string(status), patchJSON); err != nil {
		return fmt.Errorf("failed to update session status: %w", err)
	}
	return nil
}

func (r *SessionRepository) GetContext(ctx context.Context, id uuid.UUID) (map[string]any, error) {
	var raw []byte
	query := `SELECT COALESCE(context, '{}'::jsonb) FROM omni_sessions WHERE id = $1`
	if err := r.pool.QueryRow(ctx, query, id).Scan(&raw); err != nil {
		return nil, fmt.Errorf("failed to get session context: %w", err)
	}

	var sessionContext map[string]any
	if err := json.Unmarshal(raw, &sessionContext); err != nil {
		return nil, fmt.Errorf("failed to unmarshal context: %w", err)
	}
	return sessionContext, nil
}

// MergeContext applies a shallow merge of patch onto the stored context.
// The merge runs server-side in one statement, so concurrent patches from
// two channels interleave per-key instead of clobbering whole objects.
func (r *SessionRepository) MergeContext(ctx context.Context, id uuid.UUID, patch map[string]any) error {
	patchJSON, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("failed to marshal context patch: %w", err)
	}

	query := `
		UPDATE omni_sessions
		SET context = COALESCE(context, '{}'::jsonb) || $2::jsonb,
		    updated_at = now()
		WHERE id = $1
	`
	if _, err := r.pool.Exec(ctx, query, id, patchJSON); err != nil {
		return fmt.Errorf("failed to merge session context: %w", err)
	}
	return nil
}

// MarkSummarySent flips the per-channel idempotency flag so a terminal
// summary is not delivered twice.
func (r *SessionRepository) MarkSummarySent(ctx context.Context, id uuid.UUID, ch domain.Channel) error {
	var column string
	switch ch {
	case domain.ChannelWhatsApp:
		column = "summary_sent_whatsapp"
	case domain.ChannelSMS:
		column = "summary_sent_sms"
	default:
		return fmt.Errorf("no summary flag for channel %q", ch)
	}

	query := fmt.Sprintf(`UPDATE omni_sessions SET %s = true, updated_at = now() WHERE id = $1`, column)
	if _, err := r.pool.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to mark summary sent: %w", err)
	}
	return nil
}

// AddChannel records that the user started interacting through another
// channel, refreshing the TTL in the same statement.
func (r *SessionRepository) AddChannel(ctx context.Context, id uuid.UUID, ch domain.Channel) error {
	query := `
		UPDATE omni_sessions
		SET active_channels = CASE
		        WHEN $2 = ANY(active_channels) THEN active_channels
		        ELSE array_append(active_channels, $2)
		    END,
		    updated_at = now(),
		    expires_at = $3
		WHERE id = $1
	`
	if _, err := r.pool.Exec(ctx, query, id, string(ch), time.Now().Add(r.ttl)); err != nil {
		return fmt.Errorf("failed to add channel: %w", err)
	}
	return nil
}

// CloseExpired bulk-closes active sessions whose TTL passed more than
// olderThan ago. Lookups already treat those rows as absent; this just
// keeps the status column honest for reporting.
func (r *SessionRepository) CloseExpired(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	query := `
		UPDATE omni_sessions
		SET status = 'closed', updated_at = now()
		WHERE status = 'active' AND expires_at < $1
	`
	tag, err := r.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to close expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*domain.Session, error) {
	var (
		s        domain.Session
		channels []string
		rawCtx   []byte
	)
	if err := row.Scan(
		&s.ID,
		&s.ProfileID,
		&s.PrimaryChannel,
		&channels,
		&s.LastAgentID,
		&s.LastIntent,
		&rawCtx,
		&s.SummarySentWhatsApp,
		&s.SummarySentSMS,
		&s.Status,
		&s.StartedAt,
		&s.UpdatedAt,
		&s.ExpiresAt,
	); err != nil {
		return nil, err
	}

	s.ActiveChannels = make([]domain.Channel, len(channels))
	for i, ch := range channels {
		s.ActiveChannels[i] = domain.Channel(ch)
	}
	if len(rawCtx) > 0 {
		if err := json.Unmarshal(rawCtx, &s.Context); err != nil {
			return nil, fmt.Errorf("failed to unmarshal context: %w", err)
		}
	}
	if s.Context == nil {
		s.Context = map[string]any{}
	}
	return &s, nil
}
