package watch

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"metasweep/internal/logging"
)

// Poller re-walks the watched directory on a fixed interval and hands every
// file it finds to the pipeline.
type Poller struct {
	filter   Filter
	interval time.Duration
	logger   *slog.Logger
}

// NewPoller constructs a polling driver.
func NewPoller(filter Filter, interval time.Duration, logger *slog.Logger) (*Poller, error) {
	if filter.Root == "" {
		return nil, errors.New("watch root required")
	}
	if interval <= 0 {
		return nil, errors.New("poll interval must be positive")
	}
	return &Poller{
		filter:   filter,
		interval: interval,
		logger:   logging.NewComponentLogger(logger, "poller"),
	}, nil
}

// Run scans immediately, then on every tick until the context is cancelled.
func (p *Poller) Run(ctx context.Context, handle Handler) error {
	p.scan(ctx, handle)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			p.scan(ctx, handle)
		}
	}
}

func (p *Poller) scan(ctx context.Context, handle Handler) {
	start := time.Now()
	if err := Walk(ctx, p.filter, handle); err != nil && !errors.Is(err, context.Canceled) {
		p.logger.Warn("directory scan failed; will retry next interval",
			logging.Error(err),
			logging.String(logging.FieldEventType, "scan_failed"),
		)
		return
	}
	p.logger.Debug("directory scan complete",
		logging.Duration("elapsed", time.Since(start)),
	)
}
