// Package queue serializes ribcore actions onto a single consumer goroutine,
// so Commit is never called concurrently, and drives the periodic Tick that
// the hold-timer and keepalive checks in ribcore depend on.
package queue

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/malbeclabs/meshrib/internal/ribcore"
)

var ErrClosed = errors.New("queue: closed")

// Committer is the subset of ribcore.RIB's interface the queue depends on.
type Committer interface {
	Commit(action ribcore.Action) (ribcore.CommitResult, error)
}

// Clock abstracts wall-clock time so tests can drive deterministic ticks
// instead of waiting on a real timer.
type Clock func() int64

func systemClock() int64 { return time.Now().UnixMilli() }

type request struct {
	action ribcore.Action
	result chan Result
}

// Result is delivered back to Submit's caller once the action has been
// committed (or rejected).
type Result struct {
	Commit ribcore.CommitResult
	Err    error
}

type Config struct {
	// TickInterval is how often a synthetic Tick action is enqueued. Zero
	// disables the ticker (useful in tests driving Tick manually).
	TickInterval time.Duration
	Clock        Clock
	// OnCommit, if set, is invoked with every commit result, including ones
	// produced by internally-generated Tick actions that no Submit caller is
	// waiting on. This is the only place a Tick-triggered propagation (e.g.
	// a keepalive) reaches the peer transport sink.
	OnCommit func(ribcore.CommitResult)
}

// Queue is a FIFO of actions consumed by a single goroutine started by Run.
type Queue struct {
	rib      Committer
	log      *slog.Logger
	clock    Clock
	tickIv   time.Duration
	onCommit func(ribcore.CommitResult)

	submit chan request
	closed chan struct{}
}

func New(rib Committer, log *slog.Logger, cfg Config) *Queue {
	if log == nil {
		log = slog.Default()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = systemClock
	}
	return &Queue{
		rib:      rib,
		log:      log,
		clock:    clock,
		tickIv:   cfg.TickInterval,
		onCommit: cfg.OnCommit,
		submit:   make(chan request),
		closed:   make(chan struct{}),
	}
}

// Submit enqueues action and returns a channel that receives exactly one
// Result once it has been committed. Returns ErrClosed if the queue has
// already shut down.
func (q *Queue) Submit(action ribcore.Action) (<-chan Result, error) {
	result := make(chan Result, 1)
	select {
	case <-q.closed:
		return nil, ErrClosed
	default:
	}
	select {
	case q.submit <- request{action: action, result: result}:
		return result, nil
	case <-q.closed:
		return nil, ErrClosed
	}
}

// SubmitWait is a convenience wrapper around Submit that blocks for the
// result or until ctx is done.
func (q *Queue) SubmitWait(ctx context.Context, action ribcore.Action) (ribcore.CommitResult, error) {
	ch, err := q.Submit(action)
	if err != nil {
		return ribcore.CommitResult{}, err
	}
	select {
	case r := <-ch:
		return r.Commit, r.Err
	case <-ctx.Done():
		return ribcore.CommitResult{}, ctx.Err()
	}
}

// Run consumes actions until ctx is cancelled, committing each one in order
// and feeding Tick on the configured interval. Run drains every
// already-submitted action (those sitting in q.submit or in flight) before
// returning, matching spec.md §5's "suspension point" semantics: shutdown
// never discards a commit the caller is waiting on.
func (q *Queue) Run(ctx context.Context) error {
	defer close(q.closed)

	var ticker *time.Ticker
	var tickC <-chan time.Time
	if q.tickIv > 0 {
		ticker = time.NewTicker(q.tickIv)
		defer ticker.Stop()
		tickC = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return q.drain(ctx)
		case req := <-q.submit:
			q.process(req)
		case <-tickC:
			q.process(request{action: ribcore.NewTick(q.clock()), result: make(chan Result, 1)})
		}
	}
}

// drain processes any actions still pending in the submit channel's buffer
// (there is none, since it's unbuffered, but a brief grace window lets
// in-flight Submit calls land), one at a time in arrival order, so callers
// blocked on SubmitWait observe a clean ErrClosed or a final result rather
// than hanging.
func (q *Queue) drain(parent context.Context) error {
	deadline := time.NewTimer(50 * time.Millisecond)
	defer deadline.Stop()

	for {
		select {
		case req := <-q.submit:
			q.process(req)
		case <-deadline.C:
			return nil
		}
	}
}

func (q *Queue) process(req request) {
	MetricQueueDepth.Inc()
	defer MetricQueueDepth.Dec()

	start := time.Now()
	result, err := q.rib.Commit(req.action)
	MetricCommitDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		q.log.Debug("queue: action rejected", "action", req.action.Kind, "error", err)
	}
	MetricActionsTotal.WithLabelValues(req.action.Kind.String()).Inc()
	if err == nil && q.onCommit != nil {
		q.onCommit(result)
	}
	req.result <- Result{Commit: result, Err: err}
}
