package sendq

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/park285/bancho-mp-bot/internal/event"
	"github.com/park285/bancho-mp-bot/internal/obslog"
	"go.uber.org/zap"
)

const (
	DefaultInterval = time.Second
	DefaultMaxSize  = 449
)

var (
	ErrMessageTooLarge = errors.New("sendq: message too large")
	ErrQueueClosed     = errors.New("sendq: queue closed")
	ErrLineBreak       = errors.New("sendq: line break in message")
)

// WriteFunc transmits one line. The queue appends no terminator.
type WriteFunc func(line string) error

// Pending is a queued line. It resolves once the line has been handed to the
// writer, or fails with the writer's error or ErrQueueClosed.
type Pending struct {
	Line string
	sig  *event.Signal[struct{}]
}

// Wait blocks until the line was written or ctx ends.
func (p *Pending) Wait(ctx context.Context) error {
	_, err := p.sig.Wait(ctx)
	return err
}

func (p *Pending) Done() <-chan struct{} { return p.sig.Done() }

// Queue is a FIFO outbound governor that writes at most one line per
// interval. It is safe for concurrent use.
type Queue struct {
	interval time.Duration
	maxSize  int
	log      *zap.Logger
	onWrite  func(line string)

	mu      sync.Mutex
	items   []*Pending
	started bool
	closed  bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

type Option func(*Queue)

func WithLogger(l *zap.Logger) Option { return func(q *Queue) { q.log = l } }

// WithOnWrite registers a hook run on the drain goroutine after every write.
func WithOnWrite(fn func(line string)) Option { return func(q *Queue) { q.onWrite = fn } }

// New builds an idle queue. Non-positive arguments select the defaults.
func New(interval time.Duration, maxSize int, opts ...Option) *Queue {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	q := &Queue{interval: interval, maxSize: maxSize, stopCh: make(chan struct{})}
	for _, o := range opts {
		o(q)
	}
	if q.log == nil {
		q.log = obslog.L()
	}
	return q
}

// Enqueue appends line to the queue. Lines longer than the size limit, or
// carrying CR or LF, are rejected without being queued.
func (q *Queue) Enqueue(line string) (*Pending, error) {
	if strings.ContainsAny(line, "\r\n") {
		return nil, ErrLineBreak
	}
	if n := utf8.RuneCountInString(line); n > q.maxSize {
		return nil, fmt.Errorf("%w: %d > %d characters", ErrMessageTooLarge, n, q.maxSize)
	}
	p := &Pending{Line: line, sig: event.NewSignal[struct{}]()}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil, ErrQueueClosed
	}
	q.items = append(q.items, p)
	return p, nil
}

// Len reports the number of lines still waiting.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Start begins draining into w. Calls after the first are ignored.
func (q *Queue) Start(w WriteFunc) {
	q.mu.Lock()
	if q.started || q.closed {
		q.mu.Unlock()
		return
	}
	q.started = true
	q.mu.Unlock()

	q.wg.Add(1)
	go q.run(w)
}

func (q *Queue) run(w WriteFunc) {
	defer q.wg.Done()
	ticker := time.NewTicker(q.interval)
	defer ticker.Stop()
	for {
		select {
		case <-q.stopCh:
			return
		case <-ticker.C:
			p := q.pop()
			if p == nil {
				continue
			}
			if err := w(p.Line); err != nil {
				q.log.Warn("sendq_write_failed", zap.Error(err))
				p.sig.Reject(err)
				continue
			}
			p.sig.Resolve(struct{}{})
			if q.onWrite != nil {
				q.onWrite(p.Line)
			}
		}
	}
}

func (q *Queue) pop() *Pending {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil
	}
	p := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return p
}

// Stop halts the drain and fails every queued line with ErrQueueClosed. It
// is safe to call more than once.
func (q *Queue) Stop() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	rest := q.items
	q.items = nil
	close(q.stopCh)
	q.mu.Unlock()

	q.wg.Wait()
	for _, p := range rest {
		p.sig.Reject(ErrQueueClosed)
	}
}
