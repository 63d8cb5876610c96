package uiflow

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"go.uber.org/atomic"
)

// executor runs a single command and reports its outcome.
type executor func(ctx context.Context, cmd *Command) Result

// commandQueue serializes navigation commands. At most one drain loop
// exists at any time, so at most one transition is ever in flight.
type commandQueue struct {
	mu      sync.Mutex
	pending []*Command
	running bool
	idle    chan struct{}

	transiting atomic.Bool
	exec       executor
	log        *slog.Logger
}

func newCommandQueue(exec executor, log *slog.Logger) *commandQueue {
	idle := make(chan struct{})
	close(idle)
	return &commandQueue{
		pending: make([]*Command, 0),
		idle:    idle,
		exec:    exec,
		log:     log,
	}
}

// submit appends cmd and waits for it to finish. The first submitter
// while idle starts the drain loop; later submitters only append.
// If ctx ends before the command finishes the caller stops waiting,
// but the command stays queued and still executes.
func (q *commandQueue) submit(ctx context.Context, cmd *Command) Result {
	q.mu.Lock()
	q.pending = append(q.pending, cmd)
	recordQueueDepth(len(q.pending))
	if !q.running {
		q.running = true
		q.transiting.Store(true)
		q.idle = make(chan struct{})
		go q.drain()
	}
	q.mu.Unlock()

	select {
	case <-cmd.Done():
		return cmd.Result()
	case <-ctx.Done():
		q.log.Warn("stopped waiting for navigation command",
			"command", cmd.ID, "kind", cmd.Kind.String(), "error", ctx.Err())
		return ResultAbandoned
	}
}

func (q *commandQueue) drain() {
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.running = false
			q.transiting.Store(false)
			close(q.idle)
			q.mu.Unlock()
			return
		}
		cmd := q.pending[0]
		q.pending[0] = nil
		q.pending = q.pending[1:]
		recordQueueDepth(len(q.pending))
		q.mu.Unlock()

		q.run(cmd)
	}
}

// run executes cmd and always marks it done, even if the executor panics.
func (q *commandQueue) run(cmd *Command) {
	result := ResultFailed
	defer func() {
		if r := recover(); r != nil {
			q.log.Error("navigation command panicked",
				"command", cmd.ID,
				"kind", cmd.Kind.String(),
				"target", cmd.subjectName(),
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()))
			result = ResultFailed
		}
		cmd.finish(result)
	}()

	result = q.exec(context.Background(), cmd)
}

// isActive reports whether a drain loop is running.
func (q *commandQueue) isActive() bool {
	return q.transiting.Load()
}

// whenIdle runs fn under the queue lock if no drain loop is running,
// so no command can start until fn returns. Reports whether fn ran.
func (q *commandQueue) whenIdle(fn func()) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.running {
		return false
	}
	fn()
	return true
}

// depth returns the number of commands waiting behind the current one.
func (q *commandQueue) depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// wait blocks until no drain loop is running.
func (q *commandQueue) wait(ctx context.Context) error {
	for {
		q.mu.Lock()
		idle := q.idle
		q.mu.Unlock()

		select {
		case <-idle:
		case <-ctx.Done():
			return ctx.Err()
		}

		q.mu.Lock()
		running := q.running
		q.mu.Unlock()
		if !running {
			return nil
		}
	}
}
