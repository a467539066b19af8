package callback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"
)

// ThreadID identifies a background worker. Ids are never reused.
type ThreadID uint64

// ThreadFunc is the body of a background worker. It reports progress with
// send, which blocks while the message buffer is full and returns false once
// the thread was stopped. The worker must return when ctx is done.
type ThreadFunc func(ctx context.Context, data any, send func(msg any) bool) error

// WriteBackFunc receives the messages of a worker on the frame goroutine.
type WriteBackFunc func(info *Info, data any, msg any) Update

// Message is one message received from a worker.
type Message struct {
	Thread ThreadID
	Msg    any
}

type thread struct {
	id        ThreadID
	data      any
	writeBack WriteBackFunc
	msgs      chan any
	cancel    context.CancelFunc
	done      chan struct{}

	// err is written before done is closed.
	err error
}

// Threads supervises background workers. Workers never touch frame state;
// their messages are drained without blocking by Poll at frame boundaries.
type Threads struct {
	ctx     context.Context
	cancel  context.CancelFunc
	group   errgroup.Group
	buffer  int
	logger  *slog.Logger
	next    ThreadID
	threads map[ThreadID]*thread
}

// NewThreads creates a supervisor. buffer is the per-thread message buffer.
func NewThreads(buffer int, logger *slog.Logger) *Threads {
	if buffer <= 0 {
		buffer = 16
	}
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Threads{
		ctx:     ctx,
		cancel:  cancel,
		buffer:  buffer,
		logger:  logger,
		threads: make(map[ThreadID]*thread),
	}
}

// Start launches a worker.
func (ts *Threads) Start(fn ThreadFunc, data any, writeBack WriteBackFunc) (ThreadID, error) {
	if fn == nil {
		return 0, fmt.Errorf("start thread: %w", ErrNilThreadFunc)
	}
	id := ts.reserve()
	ts.start(id, fn, data, writeBack)
	return id, nil
}

func (ts *Threads) reserve() ThreadID {
	ts.next++
	return ts.next
}

func (ts *Threads) start(id ThreadID, fn ThreadFunc, data any, writeBack WriteBackFunc) {
	ctx, cancel := context.WithCancel(ts.ctx)
	t := &thread{
		id:        id,
		data:      data,
		writeBack: writeBack,
		msgs:      make(chan any, ts.buffer),
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	ts.threads[id] = t

	send := func(msg any) bool {
		select {
		case t.msgs <- msg:
			return true
		case <-ctx.Done():
			return false
		}
	}

	ts.group.Go(func() (err error) {
		defer close(t.done)
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("thread %d panicked: %v", id, r)
			}
			if errors.Is(err, context.Canceled) {
				err = nil
			}
			t.err = err
		}()
		return fn(ctx, data, send)
	})
}

// Stop cancels a worker and forgets it; messages still buffered are dropped.
// Unknown ids are ignored.
func (ts *Threads) Stop(id ThreadID) bool {
	t, ok := ts.threads[id]
	if !ok {
		return false
	}
	t.cancel()
	delete(ts.threads, id)
	return true
}

// Alive reports whether a thread is still registered.
func (ts *Threads) Alive(id ThreadID) bool {
	_, ok := ts.threads[id]
	return ok
}

// Len returns the number of registered threads.
func (ts *Threads) Len() int {
	return len(ts.threads)
}

// Poll drains up to max buffered messages (all if max <= 0) in thread id
// order without blocking. Threads that finished are removed by the first poll
// that finds them drained.
func (ts *Threads) Poll(max int) []Message {
	ids := make([]ThreadID, 0, len(ts.threads))
	for id := range ts.threads {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var out []Message
	for _, id := range ids {
		t := ts.threads[id]
		before := len(out)
	drain:
		for max <= 0 || len(out) < max {
			select {
			case msg := <-t.msgs:
				out = append(out, Message{Thread: id, Msg: msg})
			default:
				break drain
			}
		}

		select {
		case <-t.done:
			// Keep the thread until a poll finds it empty so the messages
			// just returned can still reach its write-back.
			if len(out) > before || len(t.msgs) > 0 {
				continue
			}
			delete(ts.threads, id)
			t.cancel()
			if t.err != nil {
				ts.logger.Warn("thread error", slog.Uint64("thread", uint64(id)), slog.Any("error", t.err))
			} else {
				ts.logger.Debug("thread finished", slog.Uint64("thread", uint64(id)))
			}
		default:
		}
	}
	return out
}

// Close stops every worker and waits for them to return. It returns the
// first worker error.
func (ts *Threads) Close() error {
	ts.cancel()
	for id := range ts.threads {
		delete(ts.threads, id)
	}
	if err := ts.group.Wait(); err != nil {
		return fmt.Errorf("threads: %w", err)
	}
	return nil
}

func (ts *Threads) lookup(id ThreadID) (WriteBackFunc, any, bool) {
	t, ok := ts.threads[id]
	if !ok || t.writeBack == nil {
		return nil, nil, false
	}
	return t.writeBack, t.data, true
}
