package uiflow

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestCommandQueue_FIFO(t *testing.T) {
	release := make(chan struct{})

	var mu sync.Mutex
	var order []string
	q := newCommandQueue(func(ctx context.Context, cmd *Command) Result {
		name := cmd.Args.(string)
		if name == "first" {
			<-release
		}
		mu.Lock()
		order = append(order, name)
		mu.Unlock()
		return ResultCompleted
	}, discardLogger())

	var wg sync.WaitGroup
	submit := func(name string) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, ResultCompleted, q.submit(context.Background(), newCommand(CommandMoveBack, nil, WithArgs(name))))
		}()
	}

	submit("first")
	require.Eventually(t, q.isActive, time.Second, time.Millisecond)
	for i, name := range []string{"second", "third", "fourth"} {
		submit(name)
		want := i + 1
		require.Eventually(t, func() bool { return q.depth() == want }, time.Second, time.Millisecond)
	}

	close(release)
	wg.Wait()

	assert.Equal(t, []string{"first", "second", "third", "fourth"}, order)
	assert.False(t, q.isActive())
	assert.Equal(t, 0, q.depth())
}

func TestCommandQueue_RecoversPanic(t *testing.T) {
	q := newCommandQueue(func(ctx context.Context, cmd *Command) Result {
		if cmd.Args == "boom" {
			panic("exploded")
		}
		return ResultCompleted
	}, discardLogger())

	bad := newCommand(CommandMoveBack, nil, WithArgs("boom"))
	assert.Equal(t, ResultFailed, q.submit(context.Background(), bad))
	assert.True(t, bad.IsDone())
	assert.Equal(t, ResultFailed, bad.Result())

	assert.Equal(t, ResultCompleted, q.submit(context.Background(), newCommand(CommandMoveBack, nil)))
}

func TestCommandQueue_Abandoned(t *testing.T) {
	release := make(chan struct{})
	q := newCommandQueue(func(ctx context.Context, cmd *Command) Result {
		<-release
		return ResultCompleted
	}, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cmd := newCommand(CommandTriggerScreen, nil)

	done := make(chan Result)
	go func() { done <- q.submit(ctx, cmd) }()

	require.Eventually(t, q.isActive, time.Second, time.Millisecond)
	cancel()
	assert.Equal(t, ResultAbandoned, <-done)
	assert.False(t, cmd.IsDone(), "the command keeps running")

	close(release)
	select {
	case <-cmd.Done():
	case <-time.After(time.Second):
		t.Fatal("abandoned command never finished")
	}
	assert.Equal(t, ResultCompleted, cmd.Result())

	require.NoError(t, q.wait(context.Background()))
	assert.False(t, q.isActive())
}

func TestCommandQueue_WaitTimesOut(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	q := newCommandQueue(func(ctx context.Context, cmd *Command) Result {
		<-release
		return ResultCompleted
	}, discardLogger())
	go q.submit(context.Background(), newCommand(CommandMoveBack, nil))
	require.Eventually(t, q.isActive, time.Second, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, q.wait(ctx), context.DeadlineExceeded)
}

func TestCommandQueue_WhenIdle(t *testing.T) {
	release := make(chan struct{})
	var executed atomic.Int32
	q := newCommandQueue(func(ctx context.Context, cmd *Command) Result {
		executed.Add(1)
		if cmd.Args == "hold" {
			<-release
		}
		return ResultCompleted
	}, discardLogger())

	// A command submitted while fn runs waits for it.
	ran := q.whenIdle(func() {
		go q.submit(context.Background(), newCommand(CommandMoveBack, nil, WithArgs("hold")))
		time.Sleep(20 * time.Millisecond)
		assert.Equal(t, int32(0), executed.Load())
		assert.False(t, q.isActive())
	})
	assert.True(t, ran)
	require.Eventually(t, func() bool { return executed.Load() == 1 }, time.Second, time.Millisecond)

	called := false
	assert.False(t, q.whenIdle(func() { called = true }), "busy queue")
	assert.False(t, called)

	close(release)
	require.NoError(t, q.wait(context.Background()))
	assert.True(t, q.whenIdle(func() { called = true }))
	assert.True(t, called)
}

func TestCommand_FinishOnce(t *testing.T) {
	cmd := newCommand(CommandClosePopup, nil)
	assert.NotEmpty(t, cmd.ID)
	assert.False(t, cmd.IsDone())

	cmd.finish(ResultRejected)
	cmd.finish(ResultCompleted)

	assert.True(t, cmd.IsDone())
	assert.Equal(t, ResultRejected, cmd.Result())
}
