package watch

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Poller reloads a data file into a Target on a fixed interval, whether or
// not the file changed.
type Poller struct {
	path      string
	target    Target
	interval  time.Duration
	onError   func(error)
	logger    *slog.Logger
	scheduler gocron.Scheduler

	mu   sync.Mutex
	runs int
}

// NewPoller creates a poller for cfg.Path. cfg.Debounce is ignored.
func NewPoller(cfg Config, interval time.Duration, target Target) (*Poller, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("watch: poll interval must be positive, got %s", interval)
	}
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("watch: create scheduler: %w", err)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	p := &Poller{
		path:      cfg.Path,
		target:    target,
		interval:  interval,
		onError:   cfg.OnError,
		logger:    cfg.Logger.With("component", "poll", "path", cfg.Path),
		scheduler: s,
	}

	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(p.reload),
		gocron.WithName("data-refresh"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		s.Shutdown()
		return nil, fmt.Errorf("watch: schedule refresh: %w", err)
	}
	return p, nil
}

// Start begins polling. The first reload happens one interval after Start.
func (p *Poller) Start() {
	p.logger.Info("polling data file", "interval", p.interval)
	p.scheduler.Start()
}

// Stop stops polling and waits for a running reload to finish.
func (p *Poller) Stop() error {
	return p.scheduler.Shutdown()
}

// Runs returns how many reloads have been attempted.
func (p *Poller) Runs() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.runs
}

func (p *Poller) reload() {
	p.mu.Lock()
	p.runs++
	p.mu.Unlock()

	if err := p.target.LoadData(p.path); err != nil {
		p.logger.Error("refresh failed", "error", err)
		if p.onError != nil {
			p.onError(err)
		}
		return
	}
	p.logger.Debug("data file refreshed")
}
