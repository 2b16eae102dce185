package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/easymo/notify/internal/api/response"
	"github.com/easymo/notify/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ProfileStore persists channel capability records.
type ProfileStore interface {
	Upsert(ctx context.Context, p *domain.ChannelProfile) error
}

// ProfileCacheInvalidator drops a cached capability record so the next
// dispatch sees the updated flags.
type ProfileCacheInvalidator interface {
	Invalidate(ctx context.Context, profileID uuid.UUID) error
}

// ProfileHandler exposes channel capability management
type ProfileHandler struct {
	store    ProfileStore
	cache    ProfileCacheInvalidator
	validate *validator.Validate
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(store ProfileStore, cache ProfileCacheInvalidator) *ProfileHandler {
	return &ProfileHandler{
		store:    store,
		cache:    cache,
		validate: validator.New(),
	}
}

// UpdateChannels replaces a profile's channel capability flags, e.g. after
// a WhatsApp opt-in or an SMS opt-out.
func (h *ProfileHandler) UpdateChannels(w http.ResponseWriter, r *http.Request) {
	profileID, err := uuid.Parse(chi.URLParam(r, "profileID"))
	if err != nil {
		response.BadRequest(w, "invalid profile ID")
		return
	}

	var req struct {
		HasWhatsApp bool   `json:"has_whatsapp"`
		AllowsSMS   bool   `json:"allows_sms"`
		WhatsAppJID string `json:"whatsapp_jid,omitempty" validate:"max=128"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	profile := &domain.ChannelProfile{
		ProfileID:   profileID,
		HasWhatsApp: req.HasWhatsApp,
		AllowsSMS:   req.AllowsSMS,
		WhatsAppJID: req.WhatsAppJID,
	}
	if err := h.store.Upsert(r.Context(), profile); err != nil {
		response.InternalError(w, "failed to update channel profile")
		return
	}

	// Stale cache entries only delay the new flags by one TTL, so an
	// invalidation failure is not worth failing the update over.
	if err := h.cache.Invalidate(r.Context(), profileID); err != nil {
		log.Warn().Err(err).Str("profile_id", profileID.String()).Msg("failed to invalidate profile cache")
	}

	response.OK(w, profile)
}
