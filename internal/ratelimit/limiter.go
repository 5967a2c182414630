// Package ratelimit provides a keyed token-bucket limiter with its own cleanup lifecycle.
package ratelimit

import (
	"sync"
	"time"

	"github.com/lshigami/skillcheck/config"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter hands out one token bucket per key. Idle buckets are dropped by Cleanup, which
// Start runs periodically until Stop.
type Limiter struct {
	rps     rate.Limit
	burst   int
	idleTTL time.Duration
	every   time.Duration
	now     func() time.Time

	mu      sync.Mutex
	entries map[string]*entry

	stop    chan struct{}
	done    chan struct{}
	started bool
	once    sync.Once
}

func New(cfg *config.Config) *Limiter {
	return &Limiter{
		rps:     rate.Limit(cfg.RateLimit.RequestsPerSecond),
		burst:   cfg.RateLimit.Burst,
		idleTTL: cfg.RateLimit.IdleTTL,
		every:   cfg.RateLimit.CleanupInterval,
		now:     time.Now,
		entries: make(map[string]*entry),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Allow consumes one token for key and reports whether the request may proceed.
func (l *Limiter) Allow(key string) bool {
	now := l.now()
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.entries[key] = e
	}
	e.lastSeen = now
	l.mu.Unlock()
	return e.limiter.AllowN(now, 1)
}

// Cleanup drops buckets idle for longer than the configured TTL and returns how many it removed.
func (l *Limiter) Cleanup() int {
	cutoff := l.now().Add(-l.idleTTL)
	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for key, e := range l.entries {
		if e.lastSeen.Before(cutoff) {
			delete(l.entries, key)
			removed++
		}
	}
	return removed
}

// Len is the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func (l *Limiter) Start() {
	if l.every <= 0 {
		l.every = time.Minute
	}
	l.mu.Lock()
	l.started = true
	l.mu.Unlock()
	go func() {
		defer close(l.done)
		ticker := time.NewTicker(l.every)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := l.Cleanup(); n > 0 {
					log.Debug().Int("removed", n).Msg("Rate limiter cleanup")
				}
			case <-l.stop:
				return
			}
		}
	}()
}

func (l *Limiter) Stop() {
	l.once.Do(func() { close(l.stop) })
	l.mu.Lock()
	started := l.started
	l.mu.Unlock()
	if started {
		<-l.done
	}
}
