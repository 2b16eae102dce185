package service

import (
	"context"
	"time"

	"github.com/easymo/notify/internal/domain"
	"github.com/easymo/notify/internal/sms"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type mockProfileRepo struct {
	mock.Mock
}

func (m *mockProfileRepo) GetChannelProfile(ctx context.Context, profileID uuid.UUID) (*domain.ChannelProfile, error) {
	args := m.Called(ctx, profileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ChannelProfile), args.Error(1)
}

type mockDeliveryLogRepo struct {
	mock.Mock
}

func (m *mockDeliveryLogRepo) Insert(ctx context.Context, entry *domain.DeliveryLog) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *mockDeliveryLogRepo) ListBySession(ctx context.Context, sessionID uuid.UUID, limit int) ([]domain.DeliveryLog, error) {
	args := m.Called(ctx, sessionID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DeliveryLog), args.Error(1)
}

type mockSessionRepo struct {
	mock.Mock
}

func (m *mockSessionRepo) GetOrCreate(ctx context.Context, profileID uuid.UUID, opts domain.SessionOptions) (*domain.Session, error) {
	args := m.Called(ctx, profileID, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

func (m *mockSessionRepo) GetActive(ctx context.Context, profileID uuid.UUID) (*domain.Session, error) {
	args := m.Called(ctx, profileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

func (m *mockSessionRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

func (m *mockSessionRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.SessionStatus, contextPatch map[string]any) error {
	args := m.Called(ctx, id, status, contextPatch)
	return args.Error(0)
}

func (m *mockSessionRepo) GetContext(ctx context.Context, id uuid.UUID) (map[string]any, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]any), args.Error(1)
}

func (m *mockSessionRepo) MergeContext(ctx context.Context, id uuid.UUID, patch map[string]any) error {
	args := m.Called(ctx, id, patch)
	return args.Error(0)
}

func (m *mockSessionRepo) MarkSummarySent(ctx context.Context, id uuid.UUID, channel domain.Channel) error {
	args := m.Called(ctx, id, channel)
	return args.Error(0)
}

func (m *mockSessionRepo) AddChannel(ctx context.Context, id uuid.UUID, channel domain.Channel) error {
	args := m.Called(ctx, id, channel)
	return args.Error(0)
}

func (m *mockSessionRepo) CloseExpired(ctx context.Context, olderThan time.Duration) (int64, error) {
	args := m.Called(ctx, olderThan)
	return args.Get(0).(int64), args.Error(1)
}

type mockWhatsAppSender struct {
	mock.Mock
}

func (m *mockWhatsAppSender) SendText(ctx context.Context, to, text string) (string, error) {
	args := m.Called(ctx, to, text)
	return args.String(0), args.Error(1)
}

type mockSMSSender struct {
	mock.Mock
}

func (m *mockSMSSender) SendWithRetry(ctx context.Context, msg sms.Message) sms.SendResult {
	args := m.Called(ctx, msg)
	return args.Get(0).(sms.SendResult)
}
