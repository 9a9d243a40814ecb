package recorder

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/park285/bancho-mp-bot/internal/bancho"
	"github.com/park285/bancho-mp-bot/internal/domain"
	"github.com/park285/bancho-mp-bot/internal/egress"
	"github.com/park285/bancho-mp-bot/internal/lobby"
	"github.com/park285/bancho-mp-bot/internal/obslog"
	"github.com/park285/bancho-mp-bot/internal/results"
	"github.com/park285/bancho-mp-bot/pkg/mpdto"
)

// DefaultQueueSize bounds the number of pending persistence jobs.
const DefaultQueueSize = 256

// SnapshotStore is the subset of mpstore.Store the recorder writes to.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snap *mpdto.LobbySnapshot) error
	Deactivate(ctx context.Context, matchID int64) error
	AppendPlay(ctx context.Context, matchID int64, playID string) error
}

type Options struct {
	Store   SnapshotStore      // optional
	Results results.Repository // optional
	Egress  egress.Egress      // optional
	Logger  *zap.Logger

	QueueSize  int
	JobTimeout time.Duration
	Now        func() time.Time
}

type subscription struct{ announcement, settled int }

type job struct {
	name string
	run  func(ctx context.Context) error
}

// Recorder turns lobby streams into snapshots, play records and relayed
// events. Handlers only build values and enqueue; storage and egress I/O
// happens on the recorder's own goroutine so the receive path never blocks.
type Recorder struct {
	opts Options
	log  *zap.Logger

	jobs chan job
	wg   sync.WaitGroup

	mu       sync.Mutex
	closed   bool
	attached map[*lobby.Lobby]subscription
	plays    map[string]*domain.Play // channel -> play in progress
	cmd      Commander
}

func New(opts Options) *Recorder {
	if opts.Logger == nil {
		opts.Logger = obslog.L()
	}
	if opts.Egress == nil {
		opts.Egress = egress.Nop{}
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.JobTimeout <= 0 {
		opts.JobTimeout = 10 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	r := &Recorder{
		opts:     opts,
		log:      opts.Logger,
		jobs:     make(chan job, opts.QueueSize),
		attached: make(map[*lobby.Lobby]subscription),
		plays:    make(map[string]*domain.Play),
	}
	r.wg.Add(1)
	go r.worker()
	return r
}

func (r *Recorder) worker() {
	defer r.wg.Done()
	for j := range r.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), r.opts.JobTimeout)
		if err := j.run(ctx); err != nil {
			r.log.Warn("recorder_job_failed", zap.String("job", j.name), zap.Error(err))
		}
		cancel()
	}
}

// enqueue never blocks; a full queue drops the job.
func (r *Recorder) enqueue(name string, run func(ctx context.Context) error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	select {
	case r.jobs <- job{name: name, run: run}:
	default:
		r.log.Warn("recorder_queue_full", zap.String("job", name))
	}
}

// Close stops accepting jobs and waits for the queued ones to drain.
func (r *Recorder) Close(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.jobs)
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// Attach subscribes to the client's streams. Every multiplayer lobby is
// attached as soon as the client registers it, and the client becomes the
// target of relay commands.
func (r *Recorder) Attach(c *bancho.Client) {
	r.mu.Lock()
	r.cmd = c
	r.mu.Unlock()

	c.Events.ChannelCreated.Subscribe(r.AttachLobby)
	c.Events.MultiplayerCreated.Subscribe(func(l *lobby.Lobby) {
		r.publish(l, &mpdto.Event{Type: mpdto.EventLobbyCreated, Text: l.Title()})
	})
	c.Events.ChannelLeave.Subscribe(func(ev bancho.ChannelEvent) {
		if ev.Lobby == nil || !ev.Lobby.IsMultiplayer() {
			return
		}
		r.detach(ev.Lobby, ev.Err != nil || c.IsSelf(ev.Nick))
	})
}

// AttachLobby subscribes to l once. Non-multiplayer channels are ignored.
func (r *Recorder) AttachLobby(l *lobby.Lobby) {
	if l == nil || !l.IsMultiplayer() {
		return
	}
	r.mu.Lock()
	if _, ok := r.attached[l]; ok {
		r.mu.Unlock()
		return
	}
	r.attached[l] = subscription{
		announcement: l.Events.Announcement.Subscribe(r.onAnnouncement),
		settled:      l.Events.Settled.Subscribe(func([]lobby.Player) { r.saveSnapshot(l) }),
	}
	r.mu.Unlock()
	r.log.Debug("recorder_attached", zap.String("channel", l.Name()))
}

// detach forgets l. A lobby dropped because someone else parted is
// recreated under the same name, so an in-progress play survives unless the
// session itself left.
func (r *Recorder) detach(l *lobby.Lobby, closed bool) {
	r.mu.Lock()
	if sub, ok := r.attached[l]; ok {
		l.Events.Announcement.Unsubscribe(sub.announcement)
		l.Events.Settled.Unsubscribe(sub.settled)
		delete(r.attached, l)
	}
	if closed {
		delete(r.plays, l.Name())
	}
	r.mu.Unlock()
	if !closed {
		return
	}

	matchID := l.MatchID()
	if r.opts.Store != nil && matchID != 0 {
		r.enqueue("deactivate", func(ctx context.Context) error { return r.opts.Store.Deactivate(ctx, matchID) })
	}
	r.publish(l, &mpdto.Event{Type: mpdto.EventLobbyClosed})
}

func (r *Recorder) saveSnapshot(l *lobby.Lobby) {
	snap := SnapshotOf(l.Snapshot(), r.opts.Now())
	if r.opts.Store != nil && snap.MatchID != 0 {
		r.enqueue("snapshot", func(ctx context.Context) error { return r.opts.Store.SaveSnapshot(ctx, snap) })
	}
	r.publish(l, &mpdto.Event{Type: mpdto.EventSnapshot, Snapshot: snap})
}

// publish fills the envelope and relays it through the worker.
func (r *Recorder) publish(l *lobby.Lobby, ev *mpdto.Event) {
	ev.ID = uuid.NewString()
	ev.Channel = l.Name()
	ev.MatchID = l.MatchID()
	ev.At = r.opts.Now()
	r.enqueue("egress_"+ev.Type, func(ctx context.Context) error { return r.opts.Egress.Publish(ctx, ev) })
}
