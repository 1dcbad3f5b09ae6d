package dashboard

import (
	"context"
	"errors"
	"sync"
	"time"

	"matchdash/internal/domain"
)

var errBackend = errors.New("backend down")

type fakeBackend struct {
	mu    sync.Mutex
	calls map[string]int

	users    []domain.User
	received [][]domain.InterestRequest // successive ListReceivedInterests payloads
	sent     []domain.InterestRequest
	room     domain.ChatRoom

	failUsers, failReceived, failSent bool
	failSend, failHandle, failChat    bool
	failRefetch                       bool

	lastHandled struct {
		id     int64
		status domain.InterestStatus
	}
}

func (f *fakeBackend) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeBackend) record(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[op]++
	return f.calls[op]
}

func (f *fakeBackend) ListUsers(context.Context) ([]domain.User, error) {
	f.record("users")
	if f.failUsers {
		return nil, errBackend
	}
	return f.users, nil
}

func (f *fakeBackend) ListReceivedInterests(context.Context) ([]domain.InterestRequest, error) {
	n := f.record("received")
	if f.failReceived || (n > 1 && f.failRefetch) {
		return nil, errBackend
	}
	if len(f.received) == 0 {
		return []domain.InterestRequest{}, nil
	}
	if n > len(f.received) {
		n = len(f.received)
	}
	return f.received[n-1], nil
}

func (f *fakeBackend) ListSentInterests(context.Context) ([]domain.InterestRequest, error) {
	f.record("sent")
	if f.failSent {
		return nil, errBackend
	}
	return f.sent, nil
}

func (f *fakeBackend) SendInterest(context.Context, int64) error {
	f.record("send")
	if f.failSend {
		return errBackend
	}
	return nil
}

func (f *fakeBackend) HandleInterest(_ context.Context, id int64, status domain.InterestStatus) error {
	f.record("handle")
	f.mu.Lock()
	f.lastHandled.id = id
	f.lastHandled.status = status
	f.mu.Unlock()
	if f.failHandle {
		return errBackend
	}
	return nil
}

func (f *fakeBackend) CreateOrGetChatRoom(context.Context, int64) (domain.ChatRoom, error) {
	f.record("chat")
	if f.failChat {
		return domain.ChatRoom{}, errBackend
	}
	return f.room, nil
}

type fakeTimer struct {
	d       time.Duration
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{d: d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) last() *fakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.timers) == 0 {
		return nil
	}
	return c.timers[len(c.timers)-1]
}

func user(id int64, name string) domain.User {
	return domain.User{ID: id, Username: name}
}

func request(id int64, from, to *domain.User, status domain.InterestStatus) domain.InterestRequest {
	return domain.InterestRequest{ID: id, FromUser: from, ToUser: to, Status: status}
}

func ref(id int64) *domain.User {
	return &domain.User{ID: id}
}
