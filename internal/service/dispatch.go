package service

import (
	"context"
	"fmt"
	"time"

	"github.com/easymo/notify/internal/channel"
	"github.com/easymo/notify/internal/domain"
	"github.com/easymo/notify/internal/sms"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// WhatsAppSender sends one text message and returns the provider id.
type WhatsAppSender interface {
	SendText(ctx context.Context, to, text string) (string, error)
}

// SMSSender sends one SMS segment with the adapter's retry policy.
type SMSSender interface {
	SendWithRetry(ctx context.Context, msg sms.Message) sms.SendResult
}

// DispatchService coordinates delivery of one logical notification across
// WhatsApp and SMS. Channels are independent and best-effort: a failure on
// one never blocks the other, and the service never returns an error.
// Callers inspect both sides of the DualChannelResult.
type DispatchService struct {
	profiles      domain.ProfileRepository
	deliveryLog   domain.DeliveryLogRepository
	sessions      domain.SessionRepository
	whatsapp      WhatsAppSender
	sms           SMSSender
	maxSegmentLen int
}

// NewDispatchService creates a new dispatch service. sessions may be nil
// when summary idempotency tracking is not needed (e.g. in tools).
func NewDispatchService(
	profiles domain.ProfileRepository,
	deliveryLog domain.DeliveryLogRepository,
	sessions domain.SessionRepository,
	whatsapp WhatsAppSender,
	smsSender SMSSender,
	maxSegmentLen int,
) *DispatchService {
	if maxSegmentLen <= 0 {
		maxSegmentLen = 480
	}
	return &DispatchService{
		profiles:      profiles,
		deliveryLog:   deliveryLog,
		sessions:      sessions,
		whatsapp:      whatsapp,
		sms:           smsSender,
		maxSegmentLen: maxSegmentLen,
	}
}

// SendText dispatches a plain text notification under a fresh correlation id.
func (s *DispatchService) SendText(ctx context.Context, n domain.Notification) domain.DualChannelResult {
	if n.MessageType == "" {
		n.MessageType = "text"
	}
	return s.SendDualChannel(ctx, n, uuid.New().String())
}

// SendDualChannel attempts WhatsApp first, then SMS, recording every
// attempt in the delivery log. The correlation id ties together all log
// events from this one dispatch.
func (s *DispatchService) SendDualChannel(ctx context.Context, n domain.Notification, correlationID string) domain.DualChannelResult {
	logger := log.With().
		Str("correlation_id", correlationID).
		Str("profile_id", n.ProfileID.String()).
		Logger()

	startEvt := logger.Info().
		Str("event", "dispatch.start").
		Str("phone", n.PhoneNumber).
		Str("message_type", n.MessageType).
		Bool("has_jid", n.WhatsAppJID != "")
	if n.SessionID != nil {
		startEvt = startEvt.Str("session_id", n.SessionID.String())
	}
	startEvt.Msg("dual-channel dispatch started")

	hasWhatsApp, allowsSMS, jid := s.channelCapabilities(ctx, n, logger)
	session := s.sessionForSummary(ctx, n, logger)

	var result domain.DualChannelResult

	// WhatsApp branch. Failures are recorded and the SMS branch still runs.
	switch {
	case session != nil && session.SummarySentWhatsApp:
		logger.Info().Str("event", "dispatch.whatsapp.skip").Str("reason", "summary_already_sent").Msg("skipping whatsapp")
	case hasWhatsApp || n.WhatsAppJID != "":
		result.WhatsApp = s.sendWhatsApp(ctx, n, jid, logger)
		if result.WhatsApp.Sent && session != nil {
			s.markSummarySent(ctx, *n.SessionID, domain.ChannelWhatsApp, logger)
		}
	default:
		logger.Info().Str("event", "dispatch.whatsapp.skip").Str("reason", "no_capability").Msg("skipping whatsapp")
	}

	// SMS branch. Default-on: only an explicit opt-out skips it.
	switch {
	case !allowsSMS:
		logger.Info().Str("event", "dispatch.sms.skip").Str("reason", "opted_out").Msg("skipping sms")
	case session != nil && session.SummarySentSMS:
		logger.Info().Str("event", "dispatch.sms.skip").Str("reason", "summary_already_sent").Msg("skipping sms")
	default:
		result.SMS = s.sendSMS(ctx, n, logger)
		if result.SMS.Sent && session != nil {
			s.markSummarySent(ctx, *n.SessionID, domain.ChannelSMS, logger)
		}
	}

	s.recordOutcome(ctx, n, result, logger)

	logger.Info().
		Str("event", "dispatch.complete").
		Bool("whatsapp_sent", result.WhatsApp.Sent).
		Bool("sms_sent", result.SMS.Sent).
		Msg("dual-channel dispatch complete")

	return result
}

// channelCapabilities resolves the user's capability flags. A missing or
// unreadable profile degrades to defaults: no WhatsApp, SMS allowed.
func (s *DispatchService) channelCapabilities(ctx context.Context, n domain.Notification, logger zerolog.Logger) (hasWhatsApp, allowsSMS bool, jid string) {
	allowsSMS = true
	jid = n.WhatsAppJID

	profile, err := s.profiles.GetChannelProfile(ctx, n.ProfileID)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to load channel profile, using defaults")
		return
	}
	if profile == nil {
		return
	}

	hasWhatsApp = profile.HasWhatsApp
	allowsSMS = profile.AllowsSMS
	if jid == "" {
		jid = profile.WhatsAppJID
	}
	return
}

// sessionForSummary loads the session's summary flags for call_summary
// notifications so a summary is not delivered twice per channel.
func (s *DispatchService) sessionForSummary(ctx context.Context, n domain.Notification, logger zerolog.Logger) *domain.Session {
	if s.sessions == nil || n.SessionID == nil || n.MessageType != "call_summary" {
		return nil
	}
	session, err := s.sessions.Get(ctx, *n.SessionID)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to load session for summary tracking")
		return nil
	}
	return session
}

func (s *DispatchService) sendWhatsApp(ctx context.Context, n domain.Notification, jid string, logger zerolog.Logger) domain.ChannelResult {
	to := jid
	if to == "" {
		to = n.PhoneNumber
	}
	text := channel.ForWhatsApp(n)

	messageID, err := s.whatsapp.SendText(ctx, to, text)
	if err != nil {
		logger.Error().
			Str("event", "dispatch.whatsapp.failed").
			Err(err).
			Msg("whatsapp send failed")
		s.logDelivery(ctx, &domain.DeliveryLog{
			SessionID:   n.SessionID,
			ProfileID:   n.ProfileID,
			Channel:     domain.ChannelWhatsApp,
			Direction:   domain.DirectionOutbound,
			MessageType: n.MessageType,
			Content:     text,
			Status:      domain.DeliveryFailed,
			Metadata:    map[string]any{"error": err.Error()},
		}, logger)
		return domain.ChannelResult{Error: err.Error()}
	}

	logger.Info().
		Str("event", "dispatch.whatsapp.sent").
		Str("message_id", messageID).
		Msg("whatsapp message sent")
	s.logDelivery(ctx, &domain.DeliveryLog{
		SessionID:         n.SessionID,
		ProfileID:         n.ProfileID,
		Channel:           domain.ChannelWhatsApp,
		Direction:         domain.DirectionOutbound,
		MessageType:       n.MessageType,
		Content:           text,
		ExternalMessageID: messageID,
		Status:            domain.DeliverySent,
	}, logger)

	return domain.ChannelResult{Sent: true, MessageID: messageID}
}

// sendSMS sends the formatted message as ordered segments. A failed
// segment halts the rest of the multi-part message.
func (s *DispatchService) sendSMS(ctx context.Context, n domain.Notification, logger zerolog.Logger) domain.ChannelResult {
	text := channel.ForSMS(n)
	segments := sms.SplitSegments(text, s.maxSegmentLen)

	var result domain.ChannelResult
	for i, segment := range segments {
		res := s.sms.SendWithRetry(ctx, sms.Message{
			To:        n.PhoneNumber,
			Body:      segment,
			Reference: fmt.Sprintf("%s-%d", n.MessageType, i+1),
		})

		meta := map[string]any{"segment": i + 1, "total_segments": len(segments)}

		if !res.Success {
			result.Sent = false
			result.Error = res.Error
			meta["error"] = res.Error
			logger.Error().
				Str("event", "dispatch.sms.failed").
				Int("segment", i+1).
				Int("total_segments", len(segments)).
				Str("error", res.Error).
				Msg("sms segment failed, halting remaining segments")
			s.logDelivery(ctx, &domain.DeliveryLog{
				SessionID:   n.SessionID,
				ProfileID:   n.ProfileID,
				Channel:     domain.ChannelSMS,
				Direction:   domain.DirectionOutbound,
				MessageType: n.MessageType,
				Content:     segment,
				Status:      domain.DeliveryFailed,
				Metadata:    meta,
			}, logger)
			break
		}

		result.Sent = true
		result.MessageID = res.MessageID
		logger.Info().
			Str("event", "dispatch.sms.sent").
			Int("segment", i+1).
			Int("total_segments", len(segments)).
			Str("message_id", res.MessageID).
			Msg("sms segment sent")
		s.logDelivery(ctx, &domain.DeliveryLog{
			SessionID:         n.SessionID,
			ProfileID:         n.ProfileID,
			Channel:           domain.ChannelSMS,
			Direction:         domain.DirectionOutbound,
			MessageType:       n.MessageType,
			Content:           segment,
			ExternalMessageID: res.MessageID,
			Status:            domain.DeliverySent,
			Metadata:          meta,
		}, logger)
	}

	return result
}

// recordOutcome merges the dispatch outcome into the session context so
// later channels can see what the user was last told.
func (s *DispatchService) recordOutcome(ctx context.Context, n domain.Notification, result domain.DualChannelResult, logger zerolog.Logger) {
	if s.sessions == nil || n.SessionID == nil {
		return
	}
	patch := map[string]any{
		"last_notification": map[string]any{
			"type":          n.MessageType,
			"whatsapp_sent": result.WhatsApp.Sent,
			"sms_sent":      result.SMS.Sent,
			"at":            time.Now().UTC().Format(time.RFC3339),
		},
	}
	if err := s.sessions.MergeContext(ctx, *n.SessionID, patch); err != nil {
		logger.Warn().Err(err).Msg("failed to merge dispatch outcome into session context")
	}
}

func (s *DispatchService) markSummarySent(ctx context.Context, sessionID uuid.UUID, ch domain.Channel, logger zerolog.Logger) {
	if err := s.sessions.MarkSummarySent(ctx, sessionID, ch); err != nil {
		logger.Warn().Err(err).Str("channel", string(ch)).Msg("failed to mark summary sent")
	}
}

// logDelivery is best-effort: audit failures are logged but never block
// or fail the notification flow.
func (s *DispatchService) logDelivery(ctx context.Context, entry *domain.DeliveryLog, logger zerolog.Logger) {
	if err := s.deliveryLog.Insert(ctx, entry); err != nil {
		logger.Warn().
			Err(err).
			Str("channel", string(entry.Channel)).
			Msg("failed to insert delivery log")
	}
}
