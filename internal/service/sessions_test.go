package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/community-registration/internal/model"
	"github.com/Shivanand-hulikatti/community-registration/internal/repository"
)

func newTestSessions(gw Gateway) (*Sessions, *time.Time) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewSessions(SessionsConfig{
		Store:        repository.NewMemoryFlagStore(),
		Gateway:      gw,
		ShareMessage: "hi",
		TTL:          time.Hour,
		Logger:       zerolog.Nop(),
	})
	s.now = func() time.Time { return now }
	return s, &now
}

func TestSessions_GetReusesController(t *testing.T) {
	s, _ := newTestSessions(&fakeGateway{})
	ctx := context.Background()

	a, err := s.Get(ctx, "client-1")
	require.NoError(t, err)
	require.NoError(t, a.Controller.UpdateField(model.FieldName, "Asha"))

	b, err := s.Get(ctx, "client-1")
	require.NoError(t, err)
	assert.Same(t, a.Controller, b.Controller)

	other, err := s.Get(ctx, "client-2")
	require.NoError(t, err)
	assert.NotSame(t, a.Controller, other.Controller)
	assert.Equal(t, 2, s.Len())
}

// gatedStore holds every flag read until release is closed.
type gatedStore struct {
	repository.FlagStore
	arrived chan struct{}
	release chan struct{}
}

func (g *gatedStore) Get(ctx context.Context, namespace, key string) (string, error) {
	g.arrived <- struct{}{}
	<-g.release
	return g.FlagStore.Get(ctx, namespace, key)
}

func TestSessions_ConcurrentFirstGetSharesController(t *testing.T) {
	store := &gatedStore{
		FlagStore: repository.NewMemoryFlagStore(),
		arrived:   make(chan struct{}, 2),
		release:   make(chan struct{}),
	}
	s := NewSessions(SessionsConfig{
		Store:   store,
		Gateway: &fakeGateway{},
		TTL:     time.Hour,
		Logger:  zerolog.Nop(),
	})
	ctx := context.Background()

	results := make(chan *Session, 2)
	for i := 0; i < 2; i++ {
		go func() {
			sess, err := s.Get(ctx, "client-1")
			assert.NoError(t, err)
			results <- sess
		}()
	}
	<-store.arrived
	<-store.arrived
	close(store.release)

	a, b := <-results, <-results
	require.NotNil(t, a)
	require.NotNil(t, b)
	assert.Same(t, a.Controller, b.Controller)
	assert.Equal(t, 1, s.Len())

	require.NoError(t, a.Controller.UpdateField(model.FieldName, "Asha"))
	current, err := s.Get(ctx, "client-1")
	require.NoError(t, err)
	assert.Equal(t, "Asha", current.Controller.Snapshot().Draft.Name)
}

func TestSessions_LoadDiscardsDraft(t *testing.T) {
	s, _ := newTestSessions(&fakeGateway{})
	ctx := context.Background()

	first, err := s.Load(ctx, "client-1")
	require.NoError(t, err)
	require.NoError(t, first.Controller.UpdateField(model.FieldName, "Asha"))
	require.NoError(t, first.Controller.Share())

	reloaded, err := s.Load(ctx, "client-1")
	require.NoError(t, err)

	snap := reloaded.Controller.Snapshot()
	assert.Empty(t, snap.Draft.Name)
	assert.Zero(t, snap.ShareCount)
	assert.Equal(t, 1, s.Len())
}

func TestSessions_ReloadAfterSubmitIsTerminal(t *testing.T) {
	s, _ := newTestSessions(&fakeGateway{})
	ctx := context.Background()

	sess, err := s.Load(ctx, "client-1")
	require.NoError(t, err)

	d := completeDraft()
	for _, f := range model.TextFields {
		require.NoError(t, sess.Controller.UpdateField(f, d.Value(f)))
	}
	require.NoError(t, sess.Controller.SelectFile(d.File))
	for i := 0; i < model.ShareQuota; i++ {
		require.NoError(t, sess.Controller.Share())
	}
	require.NoError(t, sess.Controller.Submit(ctx))

	links, _ := sess.Outbox.Drain()
	assert.Len(t, links, model.ShareQuota)

	reloaded, err := s.Load(ctx, "client-1")
	require.NoError(t, err)
	assert.Equal(t, model.StateSubmitted, reloaded.Controller.State())

	fresh, err := s.Load(ctx, "client-2")
	require.NoError(t, err)
	assert.Equal(t, model.StateIdle, fresh.Controller.State())
}

func TestSessions_Sweep(t *testing.T) {
	gw := &fakeGateway{started: make(chan struct{}), release: make(chan struct{})}
	s, now := newTestSessions(gw)
	ctx := context.Background()

	_, err := s.Get(ctx, "idle")
	require.NoError(t, err)

	busy, err := s.Get(ctx, "busy")
	require.NoError(t, err)
	d := completeDraft()
	for _, f := range model.TextFields {
		require.NoError(t, busy.Controller.UpdateField(f, d.Value(f)))
	}
	require.NoError(t, busy.Controller.SelectFile(d.File))
	for i := 0; i < model.ShareQuota; i++ {
		require.NoError(t, busy.Controller.Share())
	}
	done := make(chan error, 1)
	go func() { done <- busy.Controller.Submit(ctx) }()
	<-gw.started

	*now = now.Add(30 * time.Minute)
	assert.Zero(t, s.Sweep())

	*now = now.Add(2 * time.Hour)
	assert.Equal(t, 1, s.Sweep(), "in-flight sessions survive")
	assert.Equal(t, 1, s.Len())

	close(gw.release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, s.Sweep())
	assert.Zero(t, s.Len())
}
