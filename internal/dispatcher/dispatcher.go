// Package dispatcher delivers notifications asynchronously through a bounded
// queue drained by a fixed pool of workers.
package dispatcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/webclipper/internal/clip"
	"github.com/JakeFAU/webclipper/internal/metrics"
)

// Config bounds the worker pool.
type Config struct {
	Workers     int
	QueueDepth  int
	SendTimeout time.Duration
}

// DefaultConfig suits a single-replica deployment.
func DefaultConfig() Config {
	return Config{Workers: 2, QueueDepth: 64, SendTimeout: 15 * time.Second}
}

// Dispatcher fans messages out to notifier workers. It implements clip.Alerter.
type Dispatcher struct {
	notifier clip.Notifier
	cfg      Config
	logger   *zap.Logger

	mu     sync.RWMutex
	queue  chan string
	closed bool

	startOnce sync.Once
	wg        sync.WaitGroup
}

// New creates a Dispatcher. Call Start before dispatching.
func New(notifier clip.Notifier, cfg Config, logger *zap.Logger) (*Dispatcher, error) {
	if notifier == nil {
		return nil, fmt.Errorf("notifier is required")
	}
	if cfg.Workers <= 0 {
		return nil, fmt.Errorf("workers must be > 0")
	}
	if cfg.QueueDepth <= 0 {
		return nil, fmt.Errorf("queue depth must be > 0")
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = DefaultConfig().SendTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		notifier: notifier,
		cfg:      cfg,
		logger:   logger.Named("dispatcher"),
		queue:    make(chan string, cfg.QueueDepth),
	}, nil
}

// Start launches the workers. Further calls are no-ops.
func (d *Dispatcher) Start() {
	d.startOnce.Do(func() {
		for i := 0; i < d.cfg.Workers; i++ {
			d.wg.Add(1)
			go func(id int) {
				defer d.wg.Done()
				d.work(id)
			}(i)
		}
	})
}

// Dispatch queues msg without blocking. It reports false when the queue is
// full or the dispatcher is draining.
func (d *Dispatcher) Dispatch(msg string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		metrics.ObserveNotification("dropped")
		return false
	}
	select {
	case d.queue <- msg:
		return true
	default:
		metrics.ObserveNotification("dropped")
		d.logger.Warn("notification queue full, dropping message")
		return false
	}
}

// Drain stops accepting messages and waits for queued ones to be delivered or
// for ctx to end, whichever comes first.
func (d *Dispatcher) Drain(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()
	d.Start()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("drain notifications: %w", ctx.Err())
	}
}

func (d *Dispatcher) work(id int) {
	logger := d.logger.With(zap.Int("worker", id))
	for msg := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), d.cfg.SendTimeout)
		err := d.notifier.Notify(ctx, msg)
		cancel()
		if err != nil {
			metrics.ObserveNotification("failed")
			logger.Error("notification failed", zap.Error(err))
			continue
		}
		metrics.ObserveNotification("sent")
	}
}
