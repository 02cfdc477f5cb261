package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type countingCompleter struct {
	calls atomic.Int32
	err   error
}

func (c *countingCompleter) CompleteOverdue(context.Context) (int, error) {
	c.calls.Add(1)
	return 1, c.err
}

func TestSessionSweeperRunsUntilCancelled(t *testing.T) {
	completer := &countingCompleter{}
	sweeper := NewSessionSweeper(completer, 5*time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for completer.calls.Load() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("expected at least 3 sweeps, got %d", completer.calls.Load())
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}
}

func TestSessionSweeperSurvivesErrors(t *testing.T) {
	completer := &countingCompleter{err: errors.New("database unavailable")}
	sweeper := NewSessionSweeper(completer, 5*time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sweeper.Run(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for completer.calls.Load() < 2 {
		if time.Now().After(deadline) {
			t.Fatal("sweeper stopped after a failed sweep")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestNewSessionSweeperDefaultsInterval(t *testing.T) {
	sweeper := NewSessionSweeper(&countingCompleter{}, 0, zerolog.Nop())
	if sweeper.interval != 30*time.Second {
		t.Fatalf("expected 30s default, got %s", sweeper.interval)
	}
}
