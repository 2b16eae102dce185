package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/easymo/notify/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingProfileSource struct {
	calls   int
	profile *domain.ChannelProfile
	err     error
}

func (s *countingProfileSource) GetChannelProfile(ctx context.Context, profileID uuid.UUID) (*domain.ChannelProfile, error) {
	s.calls++
	return s.profile, s.err
}

func TestCachedProfileRepository_ReadThrough(t *testing.T) {
	client := newTestClient(t)
	profileID := uuid.New()
	source := &countingProfileSource{
		profile: &domain.ChannelProfile{
			ProfileID:   profileID,
			HasWhatsApp: true,
			AllowsSMS:   true,
			WhatsAppJID: "250788123456@s.whatsapp.net",
		},
	}

	cache := NewCachedProfileRepository(client, source, 5*time.Minute)
	ctx := context.Background()

	first, err := cache.GetChannelProfile(ctx, profileID)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, 1, source.calls)

	second, err := cache.GetChannelProfile(ctx, profileID)
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, 1, source.calls, "second read should be served from cache")
	assert.Equal(t, first, second)
}

func TestCachedProfileRepository_MissingProfileNotCached(t *testing.T) {
	client := newTestClient(t)
	profileID := uuid.New()
	source := &countingProfileSource{}

	cache := NewCachedProfileRepository(client, source, 5*time.Minute)
	ctx := context.Background()

	p, err := cache.GetChannelProfile(ctx, profileID)
	require.NoError(t, err)
	assert.Nil(t, p)

	_, err = cache.GetChannelProfile(ctx, profileID)
	require.NoError(t, err)
	assert.Equal(t, 2, source.calls, "absent profiles are not cached")
}

func TestCachedProfileRepository_SourceErrorPropagates(t *testing.T) {
	client := newTestClient(t)
	source := &countingProfileSource{err: errors.New("db unavailable")}

	cache := NewCachedProfileRepository(client, source, 5*time.Minute)

	_, err := cache.GetChannelProfile(context.Background(), uuid.New())
	assert.Error(t, err)
}

func TestCachedProfileRepository_Invalidate(t *testing.T) {
	client := newTestClient(t)
	profileID := uuid.New()
	source := &countingProfileSource{
		profile: &domain.ChannelProfile{ProfileID: profileID, AllowsSMS: true},
	}

	cache := NewCachedProfileRepository(client, source, 5*time.Minute)
	ctx := context.Background()

	_, err := cache.GetChannelProfile(ctx, profileID)
	require.NoError(t, err)
	require.NoError(t, cache.Invalidate(ctx, profileID))

	_, err = cache.GetChannelProfile(ctx, profileID)
	require.NoError(t, err)
	assert.Equal(t, 2, source.calls, "invalidation forces a source read")
}
