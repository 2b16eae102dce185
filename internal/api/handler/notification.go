package handler

import (
	"encoding/json"
	"net/http"

	"github.com/easymo/notify/internal/api/response"
	"github.com/easymo/notify/internal/domain"
	"github.com/easymo/notify/internal/service"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// NotificationRequest is the payload for a dual-channel dispatch.
type NotificationRequest struct {
	PhoneNumber   string         `json:"phone_number" validate:"required,e164"`
	WhatsAppJID   string         `json:"whatsapp_jid,omitempty"`
	ProfileID     uuid.UUID      `json:"profile_id" validate:"required"`
	Subject       string         `json:"subject,omitempty" validate:"max=200"`
	Message       string         `json:"message" validate:"required,max=4096"`
	MessageType   string         `json:"message_type" validate:"required,max=64"`
	SessionID     *uuid.UUID     `json:"session_id,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	CorrelationID string         `json:"correlation_id,omitempty"`
}

// NotificationHandler exposes the dispatch endpoints
type NotificationHandler struct {
	dispatcher *service.DispatchService
	validate   *validator.Validate
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(dispatcher *service.DispatchService) *NotificationHandler {
	return &NotificationHandler{
		dispatcher: dispatcher,
		validate:   validator.New(),
	}
}

func (h *NotificationHandler) toDomain(req NotificationRequest) domain.Notification {
	return domain.Notification{
		PhoneNumber: req.PhoneNumber,
		WhatsAppJID: req.WhatsAppJID,
		ProfileID:   req.ProfileID,
		Subject:     req.Subject,
		Message:     req.Message,
		MessageType: req.MessageType,
		SessionID:   req.SessionID,
		Metadata:    req.Metadata,
	}
}

// Send dispatches one logical notification across WhatsApp and SMS. The
// response always carries both channel outcomes; a partial failure is not
// an HTTP error.
func (h *NotificationHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req NotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	correlationID := req.CorrelationID
	if correlationID == "" {
		correlationID = uuid.New().String()
	}

	result := h.dispatcher.SendDualChannel(r.Context(), h.toDomain(req), correlationID)

	response.OK(w, map[string]any{
		"correlation_id": correlationID,
		"result":         result,
	})
}

// SendText is the convenience endpoint: message type defaults to "text"
// and a fresh correlation id is generated.
func (h *NotificationHandler) SendText(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PhoneNumber string     `json:"phone_number" validate:"required,e164"`
		ProfileID   uuid.UUID  `json:"profile_id" validate:"required"`
		Message     string     `json:"message" validate:"required,max=4096"`
		SessionID   *uuid.UUID `json:"session_id,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	result := h.dispatcher.SendText(r.Context(), domain.Notification{
		PhoneNumber: req.PhoneNumber,
		ProfileID:   req.ProfileID,
		Message:     req.Message,
		SessionID:   req.SessionID,
	})

	response.OK(w, map[string]any{"result": result})
}
