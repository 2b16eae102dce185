package service

import (
	"context"

	"github.com/easymo/notify/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// SessionService wraps the session repository with the non-fatal error
// semantics the conversational flows rely on: lookups and updates log
// failures and report them as "not found" / false rather than erroring,
// so a broken session store never takes down message handling.
type SessionService struct {
	repo domain.SessionRepository
}

// NewSessionService creates a new session service
func NewSessionService(repo domain.SessionRepository) *SessionService {
	return &SessionService{repo: repo}
}

// GetOrCreate returns the profile's current session, creating one when
// none exists. Returns nil on any underlying error.
func (s *SessionService) GetOrCreate(ctx context.Context, profileID uuid.UUID, opts domain.SessionOptions) *domain.Session {
	session, err := s.repo.GetOrCreate(ctx, profileID, opts)
	if err != nil {
		log.Error().Err(err).Str("profile_id", profileID.String()).Msg("failed to get or create session")
		return nil
	}
	return session
}

// GetActive returns the freshest unexpired active session for the
// profile, or nil when none exists. An expired session is not found; the
// caller decides whether to start a new one.
func (s *SessionService) GetActive(ctx context.Context, profileID uuid.UUID) (*domain.Session, error) {
	return s.repo.GetActive(ctx, profileID)
}

// Get returns a session by id.
func (s *SessionService) Get(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	return s.repo.Get(ctx, id)
}

// UpdateStatus sets the session status, optionally merging a context
// patch, and reports success as a boolean.
func (s *SessionService) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.SessionStatus, contextPatch map[string]any) bool {
	if err := s.repo.UpdateStatus(ctx, id, status, contextPatch); err != nil {
		log.Error().Err(err).Str("session_id", id.String()).Str("status", string(status)).Msg("failed to update session status")
		return false
	}
	return true
}

// GetContext returns the session's cross-channel context map.
func (s *SessionService) GetContext(ctx context.Context, id uuid.UUID) (map[string]any, error) {
	return s.repo.GetContext(ctx, id)
}

// MergeContext shallow-merges the patch into the session context; patch
// keys win on conflict.
func (s *SessionService) MergeContext(ctx context.Context, id uuid.UUID, patch map[string]any) bool {
	if err := s.repo.MergeContext(ctx, id, patch); err != nil {
		log.Error().Err(err).Str("session_id", id.String()).Msg("failed to merge session context")
		return false
	}
	return true
}

// MarkSummarySent flips the per-channel summary idempotency flag.
func (s *SessionService) MarkSummarySent(ctx context.Context, id uuid.UUID, ch domain.Channel) bool {
	if err := s.repo.MarkSummarySent(ctx, id, ch); err != nil {
		log.Error().Err(err).Str("session_id", id.String()).Str("channel", string(ch)).Msg("failed to mark summary sent")
		return false
	}
	return true
}

// AddChannel records interaction through an additional channel.
func (s *SessionService) AddChannel(ctx context.Context, id uuid.UUID, ch domain.Channel) bool {
	if err := s.repo.AddChannel(ctx, id, ch); err != nil {
		log.Error().Err(err).Str("session_id", id.String()).Str("channel", string(ch)).Msg("failed to add channel")
		return false
	}
	return true
}

// Close terminates the session. There is no reopening: once closed (or in
// follow_up), a later interaction starts a brand-new session through
// GetOrCreate.
func (s *SessionService) Close(ctx context.Context, id uuid.UUID) bool {
	return s.UpdateStatus(ctx, id, domain.SessionClosed, nil)
}
