package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Poller periodically refreshes lock reachability for one or more
// platforms. Refresh itself guarantees it never overlaps an in-flight
// mutation on the same entity.
type Poller struct {
	cron     *cron.Cron
	interval time.Duration
	log      zerolog.Logger

	mu        sync.Mutex
	platforms []*Platform
}

// NewPoller creates a state refresh poller.
func NewPoller(intervalSeconds int, log zerolog.Logger) *Poller {
	if intervalSeconds <= 0 {
		intervalSeconds = 30
	}

	return &Poller{
		cron:     cron.New(),
		interval: time.Duration(intervalSeconds) * time.Second,
		log:      log.With().Str("component", "poller").Logger(),
	}
}

// Add registers a platform for periodic refresh. Safe to call while the
// schedule is running; the config flow registers new entries at runtime.
func (p *Poller) Add(platform *Platform) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.platforms = append(p.platforms, platform)
}

// snapshot copies the platform list so a refresh pass never holds the
// lock across network calls.
func (p *Poller) snapshot() []*Platform {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*Platform, len(p.platforms))
	copy(out, p.platforms)
	return out
}

// refreshAll runs one refresh pass over all registered platforms.
func (p *Poller) refreshAll(ctx context.Context) {
	for _, platform := range p.snapshot() {
		platform.Refresh(ctx)
	}
}

// Start begins the refresh schedule. Call before serving traffic.
func (p *Poller) Start() error {
	spec := fmt.Sprintf("@every %s", p.interval)
	_, err := p.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), p.interval)
		defer cancel()

		p.refreshAll(ctx)
	})
	if err != nil {
		return fmt.Errorf("scheduling state refresh: %w", err)
	}

	p.cron.Start()
	p.log.Info().Dur("interval", p.interval).Msg("state poller started")
	return nil
}

// Stop gracefully shuts down the poller, waiting for a running refresh.
func (p *Poller) Stop() {
	ctx := p.cron.Stop()
	<-ctx.Done()
	p.log.Info().Msg("state poller stopped")
}
