package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/easymo/notify/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProfileRepository implements domain.ProfileRepository against the
// channel_profiles table.
type ProfileRepository struct {
	pool *pgxpool.Pool
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(pool *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{pool: pool}
}

// GetChannelProfile returns the channel capability record for a profile,
// or (nil, nil) when none exists. Callers fall back to defaults (no
// WhatsApp, SMS allowed) for unknown profiles.
func (r *ProfileRepository) GetChannelProfile(ctx context.Context, profileID uuid.UUID) (*domain.ChannelProfile, error) {
	query := `
		SELECT profile_id, has_whatsapp, allows_sms, COALESCE(whatsapp_jid, '')
		FROM channel_profiles
		WHERE profile_id = $1
	`
	var p domain.ChannelProfile
	err := r.pool.QueryRow(ctx, query, profileID).Scan(
		&p.ProfileID,
		&p.HasWhatsApp,
		&p.AllowsSMS,
		&p.WhatsAppJID,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get channel profile: %w", err)
	}
	return &p, nil
}

// Upsert creates or replaces the capability record for a profile.
func (r *ProfileRepository) Upsert(ctx context.Context, p *domain.ChannelProfile) error {
	query := `
		INSERT INTO channel_profiles (profile_id, has_whatsapp, allows_sms, whatsapp_jid, updated_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), now())
		ON CONFLICT (profile_id) DO UPDATE
		SET has_whatsapp = EXCLUDED.has_whatsapp,
		    allows_sms   = EXCLUDED.allows_sms,
		    whatsapp_jid = EXCLUDED.whatsapp_jid,
		    updated_at   = now()
	`
	if _, err := r.pool.Exec(ctx, query, p.ProfileID, p.HasWhatsApp, p.AllowsSMS, p.WhatsAppJID); err != nil {
		return fmt.Errorf("failed to upsert channel profile: %w", err)
	}
	return nil
}
