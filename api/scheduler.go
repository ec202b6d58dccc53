/*
scheduler.go - Background sweep of expired quota verdicts

PURPOSE:
  The in-memory verdict cache drops stale entries lazily on read. Users who
  stop checking never read again, so their entries would stay in memory
  forever. The scheduler sweeps them out periodically.

DESIGN:
  - Runs a background goroutine with a configurable interval
  - Sweeps once immediately on start
  - Redis expires entries itself and needs no scheduler

CONFIGURATION:
  - Interval: How often to sweep (default: 1 minute, SWEEP_INTERVAL)
  - Enabled: Whether the scheduler is active (default: true)

USAGE:
  scheduler := NewSweepScheduler(memCache, logger)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - cache/memory.go: The swept cache
  - cmd/server/main.go: Starts the scheduler when no Redis is configured
*/
package api

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Sweeper removes expired entries and reports how many were removed.
type Sweeper interface {
	Sweep() int
}

// SweepScheduler periodically sweeps a cache.
type SweepScheduler struct {
	Cache    Sweeper
	Interval time.Duration
	Enabled  bool

	logger *zap.Logger
	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewSweepScheduler creates a scheduler over c.
func NewSweepScheduler(c Sweeper, logger *zap.Logger) *SweepScheduler {
	if logger == nil {
		logger = zap.L()
	}
	return &SweepScheduler{
		Cache:    c,
		Interval: time.Minute,
		Enabled:  true,
		logger:   logger.Named("scheduler"),
	}
}

// Start begins the scheduler. Calling Start twice has no effect.
func (s *SweepScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.Enabled {
		s.logger.Info("disabled, not starting")
		return
	}
	if s.ticker != nil {
		return
	}

	s.ticker = time.NewTicker(s.Interval)
	s.stop = make(chan struct{})
	s.wg.Add(1)

	go s.run(s.ticker, s.stop)

	s.logger.Info("started", zap.Duration("interval", s.Interval))
}

// Stop stops the scheduler and waits for an in-flight sweep.
func (s *SweepScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker != nil {
		s.ticker.Stop()
		close(s.stop)
		s.wg.Wait()
		s.ticker = nil
		s.logger.Info("stopped")
	}
}

func (s *SweepScheduler) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer s.wg.Done()

	// Run immediately on start
	s.RunNow()

	for {
		select {
		case <-ticker.C:
			s.RunNow()
		case <-stop:
			return
		}
	}
}

// RunNow sweeps immediately and returns the number of removed entries.
func (s *SweepScheduler) RunNow() int {
	n := s.Cache.Sweep()
	if n > 0 {
		s.logger.Debug("swept expired verdicts", zap.Int("removed", n))
	}
	return n
}
