package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/easymo/notify/internal/api/response"
	"github.com/easymo/notify/internal/domain"
	"github.com/easymo/notify/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// maxDeliveryListLimit caps one page of the delivery audit trail.
const maxDeliveryListLimit = 500

// SessionHandler exposes omnichannel session operations
type SessionHandler struct {
	sessions   *service.SessionService
	deliveries domain.DeliveryLogRepository
	validate   *validator.Validate
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions *service.SessionService, deliveries domain.DeliveryLogRepository) *SessionHandler {
	return &SessionHandler{
		sessions:   sessions,
		deliveries: deliveries,
		validate:   validator.New(),
	}
}

// GetOrCreate returns the profile's current session, creating one on
// first contact through a channel.
func (h *SessionHandler) GetOrCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProfileID      uuid.UUID `json:"profile_id" validate:"required"`
		PrimaryChannel string    `json:"primary_channel" validate:"required,oneof=voice whatsapp sms"`
		CallID         string    `json:"call_id,omitempty"`
		AgentID        string    `json:"agent_id,omitempty"`
		Intent         string    `json:"intent,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	session := h.sessions.GetOrCreate(r.Context(), req.ProfileID, domain.SessionOptions{
		PrimaryChannel: domain.Channel(req.PrimaryChannel),
		CallID:         req.CallID,
		AgentID:        req.AgentID,
		Intent:         req.Intent,
	})
	if session == nil {
		response.InternalError(w, "failed to get or create session")
		return
	}

	response.OK(w, session)
}

// GetActive returns the freshest unexpired active session for a profile.
func (h *SessionHandler) GetActive(w http.ResponseWriter, r *http.Request) {
	profileID, err := uuid.Parse(r.URL.Query().Get("profile_id"))
	if err != nil {
		response.BadRequest(w, "invalid profile_id")
		return
	}

	session, err := h.sessions.GetActive(r.Context(), profileID)
	if err != nil {
		response.InternalError(w, "failed to look up active session")
		return
	}
	if session == nil {
		response.NotFound(w, "no active session")
		return
	}

	response.OK(w, session)
}

// Get returns a session by id.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		response.BadRequest(w, "invalid session ID")
		return
	}

	session, err := h.sessions.Get(r.Context(), sessionID)
	if err != nil {
		response.NotFound(w, "session not found")
		return
	}

	response.OK(w, session)
}

// UpdateStatus transitions a session's lifecycle status with an optional
// context patch.
func (h *SessionHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		response.BadRequest(w, "invalid session ID")
		return
	}

	var req struct {
		Status  string         `json:"status" validate:"required,oneof=active closed follow_up"`
		Context map[string]any `json:"context,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	if !h.sessions.UpdateStatus(r.Context(), sessionID, domain.SessionStatus(req.Status), req.Context) {
		response.InternalError(w, "failed to update session status")
		return
	}

	response.OK(w, map[string]string{"status": req.Status})
}

// MergeContext shallow-merges a patch into the session context.
func (h *SessionHandler) MergeContext(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		response.BadRequest(w, "invalid session ID")
		return
	}

	var patch map[string]any
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if len(patch) == 0 {
		response.BadRequest(w, "empty context patch")
		return
	}

	if !h.sessions.MergeContext(r.Context(), sessionID, patch) {
		response.InternalError(w, "failed to merge session context")
		return
	}

	sessionContext, err := h.sessions.GetContext(r.Context(), sessionID)
	if err != nil {
		response.InternalError(w, "failed to read merged context")
		return
	}

	response.OK(w, sessionContext)
}

// Close terminates a session.
func (h *SessionHandler) Close(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		response.BadRequest(w, "invalid session ID")
		return
	}

	if !h.sessions.Close(r.Context(), sessionID) {
		response.InternalError(w, "failed to close session")
		return
	}

	response.OK(w, map[string]string{"status": string(domain.SessionClosed)})
}

// ListDeliveries returns the audit trail of delivery attempts for a session.
func (h *SessionHandler) ListDeliveries(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		response.BadRequest(w, "invalid session ID")
		return
	}

	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > maxDeliveryListLimit {
		limit = maxDeliveryListLimit
	}

	entries, err := h.deliveries.ListBySession(r.Context(), sessionID, limit)
	if err != nil {
		response.InternalError(w, "failed to list deliveries")
		return
	}

	response.OK(w, entries)
}
