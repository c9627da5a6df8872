package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-monolith/mono/pkg/types"
)

const defaultProbeTimeout = 2 * time.Second

// Prober periodically pings Redis and keeps an Availability up to date.
// It stops on its own once Redis is found to be misconfigured.
type Prober struct {
	pinger    Pinger
	status    *Availability
	interval  time.Duration
	timeout   time.Duration
	onRecover func(ctx context.Context) error
	logger    types.Logger

	stopChan chan struct{}
	doneChan chan struct{}
	stopOnce sync.Once
}

// NewProber creates a prober. onRecover, when set, runs before the cache is
// marked available again and must succeed for the transition to happen.
func NewProber(pinger Pinger, status *Availability, interval time.Duration, onRecover func(ctx context.Context) error, logger types.Logger) *Prober {
	return &Prober{
		pinger:    pinger,
		status:    status,
		interval:  interval,
		timeout:   defaultProbeTimeout,
		onRecover: onRecover,
		logger:    logger,
	}
}

// ProbeOnce pings Redis once and updates the availability flag.
// The returned error is classified as ErrCacheUnreachable or ErrCacheMisconfigured.
func (p *Prober) ProbeOnce(ctx context.Context) error {
	if p.status.Disabled() {
		return ErrCacheMisconfigured
	}

	err := Probe(ctx, p.pinger, p.timeout)
	switch {
	case err == nil:
		if p.status.Available() {
			return nil
		}
		if p.onRecover != nil {
			if rerr := p.onRecover(ctx); rerr != nil {
				p.logger.Warn("Cache reachable but reset failed, staying in degraded mode", "error", rerr)
				return rerr
			}
		}
		p.status.Set(true)
		p.logger.Info("Cache available")
		return nil

	case errors.Is(err, ErrCacheMisconfigured):
		p.status.Disable()
		p.logger.Error("Cache misconfigured, caching disabled", "error", err)
		return err

	default:
		if p.status.Set(false) {
			p.logger.Warn("Cache unreachable, running in degraded mode", "error", err)
		}
		return err
	}
}

// Start launches the background probe loop.
func (p *Prober) Start() {
	p.stopChan = make(chan struct{})
	p.doneChan = make(chan struct{})

	go p.run()
}

func (p *Prober) run() {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	defer close(p.doneChan)

	for {
		select {
		case <-p.stopChan:
			return
		case <-ticker.C:
			if p.status.Disabled() {
				p.logger.Info("Cache prober stopped: caching disabled")
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), p.interval)
			_ = p.ProbeOnce(ctx)
			cancel()
		}
	}
}

// Stop stops the probe loop and waits for it to exit.
func (p *Prober) Stop(ctx context.Context) error {
	if p.stopChan == nil {
		return nil
	}

	p.stopOnce.Do(func() {
		close(p.stopChan)
	})

	select {
	case <-p.doneChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
