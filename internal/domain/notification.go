package domain

import "github.com/google/uuid"

// Notification is the request object for one logical message to be
// delivered across channels. It is never persisted as a single entity;
// only per-channel delivery attempts are recorded.
type Notification struct {
	PhoneNumber string         `json:"phone_number"`
	WhatsAppJID string         `json:"whatsapp_jid,omitempty"`
	ProfileID   uuid.UUID      `json:"profile_id"`
	Subject     string         `json:"subject,omitempty"`
	Message     string         `json:"message"`
	MessageType string         `json:"message_type"`
	SessionID   *uuid.UUID     `json:"session_id,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// ChannelResult is the per-channel outcome of a dispatch attempt.
type ChannelResult struct {
	Sent      bool   `json:"sent"`
	MessageID string `json:"message_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

// DualChannelResult reports both channel outcomes independently. There is
// deliberately no overall success flag: callers inspect both sides.
type DualChannelResult struct {
	WhatsApp ChannelResult `json:"whatsapp"`
	SMS      ChannelResult `json:"sms"`
}

// AnySent reports whether at least one channel accepted the message.
func (r DualChannelResult) AnySent() bool {
	return r.WhatsApp.Sent || r.SMS.Sent
}
