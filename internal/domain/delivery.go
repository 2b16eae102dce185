package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DeliveryStatus records the outcome of one delivery attempt
type DeliveryStatus string

const (
	DeliverySent   DeliveryStatus = "sent"
	DeliveryFailed DeliveryStatus = "failed"
)

// DeliveryDirection distinguishes outbound notifications from inbound
// messages recorded by webhook ingestion.
type DeliveryDirection string

const (
	DirectionOutbound DeliveryDirection = "outbound"
	DirectionInbound  DeliveryDirection = "inbound"
)

// DeliveryLog is one audit row per channel send attempt, success or
// failure. The table is append-only.
type DeliveryLog struct {
	ID                uuid.UUID         `json:"id"`
	SessionID         *uuid.UUID        `json:"session_id,omitempty"`
	ProfileID         uuid.UUID         `json:"profile_id"`
	Channel           Channel           `json:"channel"`
	Direction         DeliveryDirection `json:"direction"`
	MessageType       string            `json:"message_type"`
	Content           string            `json:"content"`
	ExternalMessageID string            `json:"external_message_id,omitempty"`
	Status            DeliveryStatus    `json:"status"`
	Metadata          map[string]any    `json:"metadata,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
}

// DeliveryLogRepository defines the interface for the append-only audit log
type DeliveryLogRepository interface {
	Insert(ctx context.Context, entry *DeliveryLog) error
	ListBySession(ctx context.Context, sessionID uuid.UUID, limit int) ([]DeliveryLog, error)
}
