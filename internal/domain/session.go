package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Channel identifies a conversation channel
type Channel string

const (
	ChannelVoice    Channel = "voice"
	ChannelWhatsApp Channel = "whatsapp"
	ChannelSMS      Channel = "sms"
)

// SessionStatus represents the lifecycle state of a session
type SessionStatus string

const (
	// SessionActive is an ongoing conversation.
	SessionActive SessionStatus = "active"
	// SessionFollowUp means the conversation ended but a post-hoc
	// notification (e.g. a call summary) is still pending.
	SessionFollowUp SessionStatus = "follow_up"
	// SessionClosed is fully terminated. There is no transition out of
	// follow_up or closed; a later interaction starts a fresh session.
	SessionClosed SessionStatus = "closed"
)

// Session ties together a user's interactions across voice/WhatsApp/SMS
// under one conversational context with a TTL. Only the most recently
// updated active, unexpired session per profile is considered current.
type Session struct {
	ID                  uuid.UUID      `json:"id"`
	ProfileID           uuid.UUID      `json:"profile_id"`
	PrimaryChannel      Channel        `json:"primary_channel"`
	ActiveChannels      []Channel      `json:"active_channels"`
	LastAgentID         string         `json:"last_agent_id,omitempty"`
	LastIntent          string         `json:"last_intent,omitempty"`
	Context             map[string]any `json:"context"`
	SummarySentWhatsApp bool           `json:"summary_sent_whatsapp"`
	SummarySentSMS      bool           `json:"summary_sent_sms"`
	Status              SessionStatus  `json:"status"`
	StartedAt           time.Time      `json:"started_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
	ExpiresAt           time.Time      `json:"expires_at"`
}

// Expired reports whether the session TTL has passed. An expired session
// is treated by lookups exactly like a missing one.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// SessionOptions carries the attributes for a session created on first
// contact through a channel.
type SessionOptions struct {
	PrimaryChannel Channel `json:"primary_channel"`
	CallID         string  `json:"call_id,omitempty"`
	AgentID        string  `json:"agent_id,omitempty"`
	Intent         string  `json:"intent,omitempty"`
}

// SessionRepository defines the interface for session storage
type SessionRepository interface {
	// GetOrCreate returns the freshest unexpired active session for the
	// profile, refreshing its TTL, or creates a new one atomically.
	GetOrCreate(ctx context.Context, profileID uuid.UUID, opts SessionOptions) (*Session, error)
	// GetActive returns the current session or (nil, nil) when none exists.
	GetActive(ctx context.Context, profileID uuid.UUID) (*Session, error)
	Get(ctx context.Context, id uuid.UUID) (*Session, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status SessionStatus, contextPatch map[string]any) error
	GetContext(ctx context.Context, id uuid.UUID) (map[string]any, error)
	// MergeContext shallow-merges the patch into the stored context in a
	// single atomic update; patch keys win on conflict.
	MergeContext(ctx context.Context, id uuid.UUID, patch map[string]any) error
	MarkSummarySent(ctx context.Context, id uuid.UUID, channel Channel) error
	AddChannel(ctx context.Context, id uuid.UUID, channel Channel) error
	// CloseExpired bulk-closes active sessions whose TTL passed more than
	// olderThan ago. Housekeeping only; lookups already ignore expired rows.
	CloseExpired(ctx context.Context, olderThan time.Duration) (int64, error)
}
