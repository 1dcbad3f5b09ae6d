package dashboard

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"matchdash/internal/domain"
)

const DefaultBannerTTL = 2000 * time.Millisecond

// Backend is the slice of the REST API a dashboard calls. Implementations
// are already bound to the session's token.
type Backend interface {
	ListUsers(ctx context.Context) ([]domain.User, error)
	ListReceivedInterests(ctx context.Context) ([]domain.InterestRequest, error)
	ListSentInterests(ctx context.Context) ([]domain.InterestRequest, error)
	SendInterest(ctx context.Context, toUserID int64) error
	HandleInterest(ctx context.Context, interestID int64, status domain.InterestStatus) error
	CreateOrGetChatRoom(ctx context.Context, participantID int64) (domain.ChatRoom, error)
}

type Timer interface {
	Stop() bool
}

type Options struct {
	Logger    *slog.Logger
	BannerTTL time.Duration

	// AfterFunc schedules banner auto-dismiss. Defaults to time.AfterFunc.
	AfterFunc func(time.Duration, func()) Timer

	// OnBanner observes every banner visibility change, in order. A new
	// message is reported as the old banner hidden, then the new one shown.
	// It runs with the dashboard locked and must not call back into it.
	OnBanner func(Banner)
}

// Dashboard is one mounted dashboard for one session. All state changes go
// through dispatch, so it is safe for concurrent use.
type Dashboard struct {
	session domain.Session
	backend Backend
	logger  *slog.Logger

	bannerTTL time.Duration
	afterFunc func(time.Duration, func()) Timer
	onBanner  func(Banner)

	ctx    context.Context
	cancel context.CancelFunc
	loaded chan struct{}
	once   sync.Once

	mu     sync.Mutex
	state  State
	timer  Timer
	closed bool
}

func New(sess domain.Session, backend Backend, opts Options) *Dashboard {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ttl := opts.BannerTTL
	if ttl <= 0 {
		ttl = DefaultBannerTTL
	}
	afterFunc := opts.AfterFunc
	if afterFunc == nil {
		afterFunc = func(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Dashboard{
		session:   sess,
		backend:   backend,
		logger:    logger.With("username", sess.Username),
		bannerTTL: ttl,
		afterFunc: afterFunc,
		onBanner:  opts.OnBanner,
		ctx:       ctx,
		cancel:    cancel,
		loaded:    make(chan struct{}),
		state:     initialState(),
	}
}

func (d *Dashboard) Session() domain.Session { return d.session }

func (d *Dashboard) BannerTTL() time.Duration { return d.bannerTTL }

// Load issues the three initial reads concurrently. Each one dispatches its
// own result as soon as it completes; a failure in one does not affect the
// others. The reads are bound to the dashboard's lifetime, not to ctx: ctx
// only bounds how long Load waits for them. Only the first call loads.
func (d *Dashboard) Load(ctx context.Context) {
	d.once.Do(func() {
		var wg sync.WaitGroup
		wg.Add(3)
		go func() {
			defer wg.Done()
			users, err := d.backend.ListUsers(d.ctx)
			if err != nil {
				d.failed("list users", err, ListFailed{List: ListUsers})
				return
			}
			d.dispatch(UsersLoaded{Users: users})
		}()
		go func() {
			defer wg.Done()
			d.refreshReceived()
		}()
		go func() {
			defer wg.Done()
			sent, err := d.backend.ListSentInterests(d.ctx)
			if err != nil {
				d.failed("list sent interests", err, ListFailed{List: ListSent})
				return
			}
			d.dispatch(SentLoaded{Requests: sent})
		}()
		go func() {
			wg.Wait()
			close(d.loaded)
		}()
	})
	_ = d.WaitLoaded(ctx)
}

// WaitLoaded blocks until the initial reads have all finished or ctx ends.
func (d *Dashboard) WaitLoaded(ctx context.Context) error {
	select {
	case <-d.loaded:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dashboard) refreshReceived() {
	received, err := d.backend.ListReceivedInterests(d.ctx)
	if err != nil {
		d.failed("list received interests", err, ListFailed{List: ListReceived})
		return
	}
	d.dispatch(ReceivedLoaded{Requests: received})
}

// SendInterest proposes an interest to userID. The sent list is not
// refreshed; it catches up on the next mount.
func (d *Dashboard) SendInterest(ctx context.Context, userID int64) error {
	if err := d.backend.SendInterest(ctx, userID); err != nil {
		d.failed("send interest", err, InterestSendFailed{UserID: userID})
		return err
	}
	d.dispatch(InterestSent{UserID: userID})
	return nil
}

// ConfirmInterest accepts or rejects a received request, then re-reads the
// received list. If the re-read fails the list keeps its content and the
// banner shows the failure text for status.
func (d *Dashboard) ConfirmInterest(ctx context.Context, requestID int64, status domain.InterestStatus) error {
	if status != domain.InterestAccepted && status != domain.InterestRejected {
		return domain.NewValidationError(map[string]string{"status": "must be accepted or rejected"})
	}
	if err := d.backend.HandleInterest(ctx, requestID, status); err != nil {
		d.failed("handle interest", err, InterestHandleFailed{RequestID: requestID, Status: status})
		return err
	}
	d.dispatch(InterestHandled{RequestID: requestID, Status: status})

	// A failed re-read reports the whole action as failed.
	received, err := d.backend.ListReceivedInterests(ctx)
	if err != nil {
		d.failed("list received interests", err, InterestHandleFailed{RequestID: requestID, Status: status})
		return err
	}
	d.dispatch(ReceivedLoaded{Requests: received})
	return nil
}

// OpenChat gets or creates the chat room with userID and opens the dialog.
func (d *Dashboard) OpenChat(ctx context.Context, userID int64) error {
	room, err := d.backend.CreateOrGetChatRoom(ctx, userID)
	if err != nil {
		d.failed("create or get chat room", err, ChatOpenFailed{UserID: userID})
		return err
	}
	d.dispatch(ChatOpened{RoomID: room.ID, UserID: userID})
	return nil
}

func (d *Dashboard) CloseChat() {
	d.dispatch(ChatClosed{})
}

func (d *Dashboard) DismissBanner(id uint64) {
	d.dispatch(BannerDismissed{ID: id})
}

func (d *Dashboard) IsChatAvailable(userID int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state.ChatAvailable(userID)
}

func (d *Dashboard) Snapshot() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Close cancels outstanding initial reads and stops the banner timer. Later
// results are dropped.
func (d *Dashboard) Close() {
	d.mu.Lock()
	d.closed = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()
	d.cancel()
}

func (d *Dashboard) failed(op string, err error, a Action) {
	d.logger.Warn("dashboard: backend call failed", "op", op, "err", err)
	d.dispatch(a)
}

func (d *Dashboard) dispatch(a Action) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}

	prev := d.state.Banner
	d.state = Reduce(d.state, a)
	next := d.state.Banner

	switch {
	case next.ID != prev.ID:
		if d.timer != nil {
			d.timer.Stop()
		}
		hidden := prev
		hidden.Visible = false
		d.notify(hidden)
		d.notify(next)
		id := next.ID
		d.timer = d.afterFunc(d.bannerTTL, func() { d.dispatch(BannerExpired{ID: id}) })
	case prev.Visible && !next.Visible:
		if d.timer != nil {
			d.timer.Stop()
			d.timer = nil
		}
		d.notify(next)
	}
}

func (d *Dashboard) notify(b Banner) {
	if d.onBanner != nil {
		d.onBanner(b)
	}
}
