package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/showgate/ticketd/internal/domain"
	"github.com/showgate/ticketd/internal/service"
	"github.com/showgate/ticketd/pkg/logger"
)

// SweepWorkerConfig holds configuration for the sweep worker
type SweepWorkerConfig struct {
	// Interval between runs
	Interval time.Duration
	// ExpiryThreshold is how old a hold must be before it is reclaimed
	ExpiryThreshold time.Duration
}

// DefaultSweepWorkerConfig returns default configuration
func DefaultSweepWorkerConfig() *SweepWorkerConfig {
	return &SweepWorkerConfig{
		Interval:        time.Minute,
		ExpiryThreshold: 15 * time.Minute,
	}
}

// SweepWorkerStats is a snapshot of the worker's counters
type SweepWorkerStats struct {
	IsRunning         bool      `json:"is_running"`
	TotalReleased     int64     `json:"total_released"`
	TotalExpired      int64     `json:"total_expired"`
	LastRunTime       time.Time `json:"last_run_time"`
	LastReleasedCount int       `json:"last_released_count"`
}

// SweepWorker periodically reclaims expired checkout holds and expires SOLD
// tickets of ended events. Runs never overlap with themselves: a tick that
// arrives while a run is still in progress is skipped.
type SweepWorker struct {
	sweeper *service.SweepService
	tickets *service.TicketService
	clock   domain.Clock
	config  *SweepWorkerConfig
	log     *logger.Logger

	mu       sync.Mutex
	running  bool
	sweeping bool
	stopCh   chan struct{}
	wg       sync.WaitGroup

	totalReleased     int64
	totalExpired      int64
	lastRunTime       time.Time
	lastReleasedCount int
}

// NewSweepWorker creates a SweepWorker
func NewSweepWorker(sweeper *service.SweepService, tickets *service.TicketService, clock domain.Clock, log *logger.Logger, config *SweepWorkerConfig) *SweepWorker {
	if config == nil {
		config = DefaultSweepWorkerConfig()
	}
	if clock == nil {
		clock = domain.SystemClock()
	}
	return &SweepWorker{
		sweeper: sweeper,
		tickets: tickets,
		clock:   clock,
		config:  config,
		log:     log,
	}
}

// Start launches the periodic loop. Calling Start on a running worker is a
// no-op.
func (w *SweepWorker) Start() {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.mu.Unlock()

	w.wg.Add(1)
	go w.loop()

	w.log.Info("sweep worker started",
		zap.Duration("interval", w.config.Interval),
		zap.Duration("expiry_threshold", w.config.ExpiryThreshold))
}

// Stop halts the loop and waits for any in-flight run to finish
func (w *SweepWorker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	close(w.stopCh)
	w.mu.Unlock()

	w.wg.Wait()
	w.log.Info("sweep worker stopped")
}

func (w *SweepWorker) loop() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.RunOnce(context.Background())
		case <-w.stopCh:
			return
		}
	}
}

// RunOnce performs one sweep. If a run is already in progress it returns
// immediately with zero, keeping runs from overlapping.
func (w *SweepWorker) RunOnce(ctx context.Context) int {
	w.mu.Lock()
	if w.sweeping {
		w.mu.Unlock()
		return 0
	}
	w.sweeping = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.sweeping = false
		w.mu.Unlock()
	}()

	released, err := w.sweeper.Sweep(ctx, w.config.ExpiryThreshold)
	if err != nil {
		w.log.ErrorContext(ctx, "hold sweep failed", zap.Error(err))
	}

	expired, err := w.tickets.ExpirePastEvents(ctx)
	if err != nil {
		w.log.ErrorContext(ctx, "ticket expiry failed", zap.Error(err))
	}

	w.mu.Lock()
	w.totalReleased += int64(released)
	w.totalExpired += int64(expired)
	w.lastRunTime = w.clock.Now()
	w.lastReleasedCount = released
	w.mu.Unlock()

	return released
}

// GetStats returns a snapshot of the worker's counters
func (w *SweepWorker) GetStats() *SweepWorkerStats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return &SweepWorkerStats{
		IsRunning:         w.running,
		TotalReleased:     w.totalReleased,
		TotalExpired:      w.totalExpired,
		LastRunTime:       w.lastRunTime,
		LastReleasedCount: w.lastReleasedCount,
	}
}
