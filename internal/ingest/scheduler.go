package ingest

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/gorhill/cronexpr"
	"github.com/redis/go-redis/v9"
)

const lockKey = "novachat:ingest:lock"

// Runner performs one ingestion pass.
type Runner interface {
	Run(ctx context.Context) (Stats, error)
}

// Scheduler triggers Runner on a cron schedule. With Rdb set only one replica runs a
// pass at a time.
type Scheduler struct {
	Runner   Runner
	Rdb      *redis.Client
	Schedule string
	LockTTL  time.Duration
	Interval time.Duration
	Logger   *log.Logger

	mu     sync.Mutex
	last   *time.Time
	cancel context.CancelFunc
	done   chan struct{}
}

// Start begins checking the schedule in the background.
func (s *Scheduler) Start() {
	interval := s.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	ticker := time.NewTicker(interval)
	go func() {
		defer close(s.done)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				s.tick(ctx, now)
			}
		}
	}()
}

// Stop cancels a running pass, ends the loop and waits for it to return.
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel = nil
}

func (s *Scheduler) tick(ctx context.Context, now time.Time) bool {
	s.mu.Lock()
	last := s.last
	s.mu.Unlock()
	if !isDue(s.Schedule, last, now) {
		return false
	}

	// distributed lock to avoid duplicate runs
	if s.Rdb != nil {
		ttl := s.LockTTL
		if ttl <= 0 {
			ttl = 30 * time.Minute
		}
		ok, err := s.Rdb.SetNX(ctx, lockKey, now.UTC().Format(time.RFC3339), ttl).Result()
		if err != nil {
			s.logger().Printf("acquire lock: %v", err)
			return false
		}
		if !ok {
			return false
		}
		defer s.Rdb.Del(context.WithoutCancel(ctx), lockKey)
	}

	s.mu.Lock()
	s.last = &now
	s.mu.Unlock()

	stats, err := s.Runner.Run(ctx)
	if err != nil {
		s.logger().Printf("scheduled ingestion failed: %v", err)
		return true
	}
	s.logger().Printf("scheduled ingestion done: %s", stats)
	return true
}

func (s *Scheduler) logger() *log.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return log.New(log.Writer(), "[SCHED] ", log.LstdFlags)
}

// isDue determines if a job with cronSpec should run at now based on last run time.
// Supports "@daily", "@hourly", and standard 5-field cron expressions.
func isDue(cronSpec string, last *time.Time, now time.Time) bool {
	switch cronSpec {
	case "@daily":
		if last == nil {
			return true
		}
		return now.Sub(*last) >= 24*time.Hour
	case "@hourly":
		if last == nil {
			return true
		}
		return now.Sub(*last) >= time.Hour
	default:
		expr, err := cronexpr.Parse(cronSpec)
		if err != nil {
			// Fallback: treat as @daily if invalid
			if last == nil {
				return true
			}
			return now.Sub(*last) >= 24*time.Hour
		}
		if last == nil {
			// If never run, due now
			return true
		}
		next := expr.Next(*last)
		return !next.After(now)
	}
}
