package sendq

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu    sync.Mutex
	lines []string
	at    []time.Time
}

func (r *recorder) write(line string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, line)
	r.at = append(r.at, time.Now())
	return nil
}

func (r *recorder) snapshot() ([]string, []time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lines...), append([]time.Time(nil), r.at...)
}

func TestFIFOOnePerInterval(t *testing.T) {
	const interval = 40 * time.Millisecond
	q := New(interval, 0)
	t.Cleanup(q.Stop)

	var pending []*Pending
	for _, line := range []string{"a", "b", "c", "d"} {
		p, err := q.Enqueue(line)
		if err != nil { t.Fatalf("Enqueue(%q): %v", line, err) }
		pending = append(pending, p)
	}

	rec := &recorder{}
	q.Start(rec.write)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for i, p := range pending {
		if err := p.Wait(ctx); err != nil { t.Fatalf("Wait #%d: %v", i, err) }
	}

	lines, at := rec.snapshot()
	if strings.Join(lines, ",") != "a,b,c,d" {
		t.Fatalf("unexpected order %q", lines)
	}
	for i := 1; i < len(at); i++ {
		// ticker jitter allowance
		if gap := at[i].Sub(at[i-1]); gap < interval/2 {
			t.Fatalf("lines %d and %d only %v apart", i-1, i, gap)
		}
	}
}

func TestNothingWrittenBeforeStart(t *testing.T) {
	q := New(5*time.Millisecond, 0)
	t.Cleanup(q.Stop)
	p, err := q.Enqueue("PRIVMSG BanchoBot :!mp make x")
	if err != nil { t.Fatalf("Enqueue: %v", err) }

	time.Sleep(30 * time.Millisecond)
	select {
	case <-p.Done():
		t.Fatalf("line resolved before Start")
	default:
	}
	if q.Len() != 1 { t.Fatalf("expected 1 queued line, got %d", q.Len()) }
}

func TestOversizedLineRejected(t *testing.T) {
	q := New(5*time.Millisecond, 10)
	t.Cleanup(q.Stop)
	rec := &recorder{}
	q.Start(rec.write)

	if _, err := q.Enqueue(strings.Repeat("x", 11)); !errors.Is(err, ErrMessageTooLarge) {
		t.Fatalf("expected ErrMessageTooLarge, got %v", err)
	}
	// limit counts characters, not bytes
	p, err := q.Enqueue(strings.Repeat("あ", 10))
	if err != nil { t.Fatalf("Enqueue multibyte: %v", err) }
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := p.Wait(ctx); err != nil { t.Fatalf("Wait: %v", err) }

	lines, _ := rec.snapshot()
	if len(lines) != 1 || lines[0] != strings.Repeat("あ", 10) {
		t.Fatalf("unexpected writes %q", lines)
	}
}

func TestLineBreakRejected(t *testing.T) {
	q := New(5*time.Millisecond, 0)
	t.Cleanup(q.Stop)
	for _, line := range []string{"PRIVMSG #mp_1 :gg\r\nPART #mp_1", "a\nb", "a\rb"} {
		if _, err := q.Enqueue(line); !errors.Is(err, ErrLineBreak) {
			t.Fatalf("Enqueue(%q): expected ErrLineBreak, got %v", line, err)
		}
	}
	if q.Len() != 0 { t.Fatalf("rejected lines were queued: %d", q.Len()) }
}

func TestStopRejectsQueued(t *testing.T) {
	q := New(time.Hour, 0)
	p, err := q.Enqueue("JOIN #mp_1")
	if err != nil { t.Fatalf("Enqueue: %v", err) }
	q.Start(func(string) error { return nil })
	q.Stop()
	q.Stop()

	if err := p.Wait(context.Background()); !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("expected ErrQueueClosed, got %v", err)
	}
	if _, err := q.Enqueue("JOIN #mp_2"); !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("expected ErrQueueClosed after Stop, got %v", err)
	}
}

func TestWriteErrorFailsOnlyThatLine(t *testing.T) {
	q := New(5*time.Millisecond, 0)
	t.Cleanup(q.Stop)
	boom := errors.New("boom")
	var written []string
	var mu sync.Mutex
	q.Start(func(line string) error {
		if line == "bad" {
			return boom
		}
		mu.Lock()
		written = append(written, line)
		mu.Unlock()
		return nil
	})

	bad, _ := q.Enqueue("bad")
	good, _ := q.Enqueue("good")
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := bad.Wait(ctx); !errors.Is(err, boom) {
		t.Fatalf("expected write error, got %v", err)
	}
	if err := good.Wait(ctx); err != nil { t.Fatalf("Wait good: %v", err) }
}

func TestOnWriteHook(t *testing.T) {
	seen := make(chan string, 1)
	q := New(5*time.Millisecond, 0, WithOnWrite(func(line string) { seen <- line }))
	t.Cleanup(q.Stop)
	q.Start(func(string) error { return nil })
	if _, err := q.Enqueue("PART #mp_1"); err != nil { t.Fatalf("Enqueue: %v", err) }

	select {
	case line := <-seen:
		if line != "PART #mp_1" { t.Fatalf("hook got %q", line) }
	case <-time.After(time.Second):
		t.Fatalf("hook not called")
	}
}
