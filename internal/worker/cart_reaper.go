package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/farellandr/ticketmart/internal/clock"
	"go.uber.org/zap"
)

const DefaultReapInterval = 15 * time.Minute

// ExpiredCartDeleter removes carts whose expiry lies before cutoff.
type ExpiredCartDeleter interface {
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

type CartReaperStats struct {
	Running      bool
	TotalReaped  int64
	LastRunAt    time.Time
	LastReaped   int64
	LastRunError string
}

// CartReaper periodically deletes abandoned carts past their 24 hour window.
type CartReaper struct {
	carts    ExpiredCartDeleter
	clock    clock.Clock
	interval time.Duration
	log      *zap.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
	stats   CartReaperStats
}

func NewCartReaper(carts ExpiredCartDeleter, clk clock.Clock, interval time.Duration, log *zap.Logger) *CartReaper {
	if interval <= 0 {
		interval = DefaultReapInterval
	}
	return &CartReaper{carts: carts, clock: clk, interval: interval, log: log}
}

// Start runs one sweep immediately and then one per interval until Stop is
// called or ctx is done.
func (r *CartReaper) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return errors.New("cart reaper already running")
	}
	r.running = true
	r.stopCh = make(chan struct{})

	r.log.Info("starting cart reaper", zap.Duration("interval", r.interval))
	r.wg.Add(1)
	go r.loop(ctx, r.stopCh)
	return nil
}

func (r *CartReaper) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	close(r.stopCh)
	r.mu.Unlock()

	r.wg.Wait()
	r.log.Info("cart reaper stopped")
}

func (r *CartReaper) loop(ctx context.Context, stop <-chan struct{}) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.RunOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			r.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single sweep and returns how many carts it removed.
func (r *CartReaper) RunOnce(ctx context.Context) int64 {
	now := r.clock.Now()
	n, err := r.carts.DeleteExpired(ctx, now)

	r.mu.Lock()
	r.stats.LastRunAt = now
	r.stats.LastReaped = n
	r.stats.TotalReaped += n
	r.stats.LastRunError = ""
	if err != nil {
		r.stats.LastRunError = err.Error()
	}
	r.mu.Unlock()

	if err != nil {
		r.log.Error("failed to delete expired carts", zap.Error(err))
		return 0
	}
	if n > 0 {
		r.log.Info("expired carts deleted", zap.Int64("count", n))
	}
	return n
}

func (r *CartReaper) Stats() CartReaperStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := r.stats
	stats.Running = r.running
	return stats
}
