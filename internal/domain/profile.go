package domain

import (
	"context"

	"github.com/google/uuid"
)

// ChannelProfile is the per-user channel capability record. AllowsSMS is an
// opt-out flag: SMS is attempted unless it is explicitly false.
type ChannelProfile struct {
	ProfileID   uuid.UUID `json:"profile_id"`
	HasWhatsApp bool      `json:"has_whatsapp"`
	AllowsSMS   bool      `json:"allows_sms"`
	WhatsAppJID string    `json:"whatsapp_jid,omitempty"`
}

// ProfileRepository defines the interface for channel-capability lookups
type ProfileRepository interface {
	GetChannelProfile(ctx context.Context, profileID uuid.UUID) (*ChannelProfile, error)
}
