package dashboard

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matchdash/internal/domain"
)

type backendFactory struct {
	mu       sync.Mutex
	backends []*fakeBackend
	sessions []domain.Session
}

func (f *backendFactory) New(sess domain.Session) Backend {
	f.mu.Lock()
	defer f.mu.Unlock()
	b := &fakeBackend{users: []domain.User{user(1, sess.Username)}}
	f.backends = append(f.backends, b)
	f.sessions = append(f.sessions, sess)
	return b
}

func (f *backendFactory) created() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.backends)
}

func newTestRegistry(t *testing.T) (*Registry, *backendFactory) {
	t.Helper()
	factory := &backendFactory{}
	r := NewRegistry(factory.New, Options{
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		AfterFunc: (&fakeClock{}).AfterFunc,
	})
	t.Cleanup(r.Close)
	return r, factory
}

func TestRegistryEnsureReusesMount(t *testing.T) {
	r, factory := newTestRegistry(t)
	sess := domain.Session{Token: "tok", Username: "ann"}

	first := r.Ensure(context.Background(), "sid", sess)
	second := r.Ensure(context.Background(), "sid", sess)

	assert.Same(t, first, second)
	assert.Equal(t, 1, factory.created())
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, []domain.User{user(1, "ann")}, first.Snapshot().Users)
}

func TestRegistryEnsureRemountsOnSessionChange(t *testing.T) {
	r, factory := newTestRegistry(t)

	first := r.Ensure(context.Background(), "sid", domain.Session{Token: "a", Username: "ann"})
	second := r.Ensure(context.Background(), "sid", domain.Session{Token: "b", Username: "ann"})

	assert.NotSame(t, first, second)
	assert.Equal(t, 2, factory.created())
	assert.Equal(t, "b", factory.sessions[1].Token)

	// the replaced mount no longer accepts results
	_ = first.SendInterest(context.Background(), 5)
	assert.False(t, first.Snapshot().Banner.Visible)
}

func TestRegistryMountReloads(t *testing.T) {
	r, factory := newTestRegistry(t)
	sess := domain.Session{Token: "tok", Username: "ann"}

	first := r.Ensure(context.Background(), "sid", sess)
	require.NoError(t, first.SendInterest(context.Background(), 5))

	reloaded := r.Mount(context.Background(), "sid", sess)

	assert.NotSame(t, first, reloaded)
	assert.Equal(t, 2, factory.created())
	assert.False(t, reloaded.Snapshot().Banner.Visible)
	assert.Equal(t, 1, factory.backends[1].count("sent"))

	got, ok := r.Get("sid")
	require.True(t, ok)
	assert.Same(t, reloaded, got)
}

func TestRegistryUnmount(t *testing.T) {
	r, _ := newTestRegistry(t)
	d := r.Ensure(context.Background(), "sid", domain.Session{Token: "tok", Username: "ann"})
	r.Ensure(context.Background(), "other", domain.Session{Token: "tok2", Username: "bob"})

	r.Unmount("sid")
	r.Unmount("missing")

	_, ok := r.Get("sid")
	assert.False(t, ok)
	assert.Equal(t, 1, r.Len())

	_ = d.SendInterest(context.Background(), 5)
	assert.False(t, d.Snapshot().Banner.Visible)
}

func TestRegistryPrune(t *testing.T) {
	r, _ := newTestRegistry(t)
	sess := domain.Session{Token: "tok", Username: "ann"}
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		r.Ensure(context.Background(), id, sess)
	}
	gone, _ := r.Get("b")

	removed := r.Prune(func(id string) bool { return id == "c" })

	assert.Equal(t, 4, removed)
	assert.Equal(t, 1, r.Len())
	_, ok := r.Get("c")
	assert.True(t, ok)

	_ = gone.SendInterest(context.Background(), 5)
	assert.False(t, gone.Snapshot().Banner.Visible)

	assert.Zero(t, r.Prune(func(string) bool { return true }))
	assert.Equal(t, 1, r.Len())
}
