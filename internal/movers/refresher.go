package movers

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"market-movers-api/internal/config"
	"market-movers-api/internal/models"
)

// Refresher drives the pipeline on a fixed cadence for the lifetime of the
// process, keeping the cache warm and history buffers current even with no
// traffic. Iteration failures are logged and never stop the loop.
type Refresher struct {
	service  *Service
	settings *config.Runtime
	onUpdate func(*models.AggregateResult)
	log      *logrus.Entry

	cancel context.CancelFunc
	done   chan struct{}
}

// NewRefresher creates a background refresher. onUpdate, when non-nil, is
// invoked after every successful pass.
func NewRefresher(service *Service, settings *config.Runtime, onUpdate func(*models.AggregateResult), log *logrus.Logger) *Refresher {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Refresher{
		service:  service,
		settings: settings,
		onUpdate: onUpdate,
		log:      log.WithField("component", "refresher"),
		done:     make(chan struct{}),
	}
}

// Start launches the refresh loop. The first pass runs immediately.
func (r *Refresher) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel

	go r.run(ctx)
	r.log.Info("background refresh loop started")
}

// Stop terminates the loop and waits for the current iteration to finish.
func (r *Refresher) Stop() {
	if r.cancel == nil {
		return
	}
	r.cancel()
	<-r.done
	r.log.Info("background refresh loop stopped")
}

func (r *Refresher) run(ctx context.Context) {
	defer close(r.done)

	for {
		r.runOnce(ctx)

		// Re-read the interval each iteration so cadence changes take
		// effect on the next tick.
		interval := r.settings.Snapshot().UpdateInterval

		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}
	}
}

func (r *Refresher) runOnce(ctx context.Context) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.WithField("panic", rec).Error("refresh iteration panicked")
		}
	}()

	result, err := r.service.Refresh(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		r.log.WithError(err).Error("refresh iteration failed")
		return
	}

	if r.onUpdate != nil {
		r.onUpdate(result)
	}
}
