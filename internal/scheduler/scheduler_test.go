package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lshigami/skillcheck/config"
	"github.com/lshigami/skillcheck/internal/service"
)

type countingSweeper struct {
	runs atomic.Int32
}

func (s *countingSweeper) Sweep(context.Context) service.SweepReport {
	s.runs.Add(1)
	return service.SweepReport{}
}

func TestSchedulerRejectsBadSchedule(t *testing.T) {
	s := New(&countingSweeper{}, &config.Config{Sweeper: config.Sweeper{Schedule: "every now and then"}})
	if err := s.Start(); err == nil {
		t.Fatal("expected an error for an invalid schedule")
	}
}

func TestSchedulerRunsSweeper(t *testing.T) {
	sweeper := &countingSweeper{}
	s := New(sweeper, &config.Config{Sweeper: config.Sweeper{Schedule: "@every 1s"}})
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for sweeper.runs.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("sweeper never ran")
		}
		time.Sleep(50 * time.Millisecond)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
}
