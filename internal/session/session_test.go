package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/horoscope-be/internal/models"
	"github.com/hongminglow/horoscope-be/internal/profile"
	"github.com/hongminglow/horoscope-be/internal/storage/memory"
)

func ptr[T any](v T) *T { return &v }

func newManager(t *testing.T) (*Manager, *profile.Store) {
	t.Helper()
	store := profile.NewStore(memory.New())
	return NewManager(store), store
}

func recv(t *testing.T, ch <-chan *models.UserProfile) *models.UserProfile {
	t.Helper()
	select {
	case p, ok := <-ch:
		require.True(t, ok, "channel closed")
		return p
	case <-time.After(time.Second):
		t.Fatal("no snapshot published")
		return nil
	}
}

func TestOpenLoadsDefaultProfile(t *testing.T) {
	m, _ := newManager(t)
	s, err := m.Open(context.Background(), models.User{ID: "u1"})
	require.NoError(t, err)

	snap := s.Snapshot()
	assert.Equal(t, "u1", snap.UserID)
	assert.Equal(t, models.TierFree, snap.Subscription.Tier)

	again, err := m.Open(context.Background(), models.User{ID: "u1"})
	require.NoError(t, err)
	assert.Same(t, s, again)
}

func TestOpenLoadsStoredProfile(t *testing.T) {
	m, store := newManager(t)
	ctx := context.Background()
	_, err := store.Update(ctx, "u1", models.ProfileUpdate{ZodiacSign: ptr("Leo")})
	require.NoError(t, err)

	s, err := m.Open(ctx, models.User{ID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, "Leo", s.Snapshot().Sign())
}

func TestSnapshotIsACopy(t *testing.T) {
	m, _ := newManager(t)
	s, err := m.Open(context.Background(), models.User{ID: "u1"})
	require.NoError(t, err)

	snap := s.Snapshot()
	snap.Subscription.Tier = models.TierPremium
	assert.Equal(t, models.TierFree, s.Snapshot().Subscription.Tier)
}

func TestUpdatePersistsAndPublishes(t *testing.T) {
	m, store := newManager(t)
	ctx := context.Background()
	s, err := m.Open(ctx, models.User{ID: "u1"})
	require.NoError(t, err)

	ch, unsubscribe := s.Subscribe()
	defer unsubscribe()

	got, err := s.Update(ctx, models.ProfileUpdate{ZodiacSign: ptr("Pisces"), BirthTime: ptr("14:30")})
	require.NoError(t, err)
	assert.Equal(t, "Pisces", got.Sign())

	published := recv(t, ch)
	assert.Equal(t, "Pisces", published.Sign())

	stored, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "14:30", *stored.BirthTime)
}

func TestGuestUpdatesAreNotPersisted(t *testing.T) {
	m, store := newManager(t)
	ctx := context.Background()
	s, err := m.Open(ctx, models.User{ID: "guest:abc", Guest: true})
	require.NoError(t, err)

	_, err = s.Update(ctx, models.ProfileUpdate{ZodiacSign: ptr("Aries")})
	require.NoError(t, err)
	assert.Equal(t, "Aries", s.Snapshot().Sign())

	stored, err := store.Get(ctx, "guest:abc")
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestSlowSubscriberGetsLatest(t *testing.T) {
	m, _ := newManager(t)
	ctx := context.Background()
	s, err := m.Open(ctx, models.User{ID: "u1"})
	require.NoError(t, err)

	ch, unsubscribe := s.Subscribe()
	defer unsubscribe()

	for _, sign := range []string{"Aries", "Taurus", "Gemini"} {
		_, err := s.Update(ctx, models.ProfileUpdate{ZodiacSign: ptr(sign)})
		require.NoError(t, err)
	}
	assert.Equal(t, "Gemini", recv(t, ch).Sign())
	assert.Empty(t, ch)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	m, _ := newManager(t)
	ctx := context.Background()
	s, err := m.Open(ctx, models.User{ID: "u1"})
	require.NoError(t, err)

	ch, unsubscribe := s.Subscribe()
	unsubscribe()
	unsubscribe()

	_, err = s.Update(ctx, models.ProfileUpdate{ZodiacSign: ptr("Leo")})
	require.NoError(t, err)
	_, ok := <-ch
	assert.False(t, ok)
}

func TestReplacePublishes(t *testing.T) {
	m, _ := newManager(t)
	s, err := m.Open(context.Background(), models.User{ID: "u1"})
	require.NoError(t, err)
	ch, unsubscribe := s.Subscribe()
	defer unsubscribe()

	p := s.Snapshot()
	p.Subscription = &models.Subscription{Tier: models.TierPremium}
	s.Replace(p)

	assert.Equal(t, models.TierPremium, recv(t, ch).Subscription.Tier)
	assert.Equal(t, models.TierPremium, s.Snapshot().Subscription.Tier)
}

func TestResetDeletesStoredProfile(t *testing.T) {
	m, store := newManager(t)
	ctx := context.Background()
	s, err := m.Open(ctx, models.User{ID: "u1"})
	require.NoError(t, err)
	_, err = s.Update(ctx, models.ProfileUpdate{ZodiacSign: ptr("Leo")})
	require.NoError(t, err)

	fresh, err := s.Reset(ctx)
	require.NoError(t, err)
	assert.Empty(t, fresh.Sign())

	stored, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestCloseEndsSession(t *testing.T) {
	m, _ := newManager(t)
	ctx := context.Background()
	s, err := m.Open(ctx, models.User{ID: "u1"})
	require.NoError(t, err)
	ch, _ := s.Subscribe()

	m.Close("u1")
	_, ok := m.Get("u1")
	assert.False(t, ok)
	_, open := <-ch
	assert.False(t, open)

	_, err = s.Update(ctx, models.ProfileUpdate{ZodiacSign: ptr("Leo")})
	assert.ErrorIs(t, err, ErrClosed)

	late, _ := s.Subscribe()
	_, open = <-late
	assert.False(t, open)

	m.Close("u1")
}

func TestCloseAll(t *testing.T) {
	m, _ := newManager(t)
	ctx := context.Background()
	for _, id := range []string{"a", "b"} {
		_, err := m.Open(ctx, models.User{ID: id})
		require.NoError(t, err)
	}
	m.CloseAll()
	_, ok := m.Get("a")
	assert.False(t, ok)
}
