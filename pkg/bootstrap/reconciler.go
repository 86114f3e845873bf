package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/coachly/guardrail/pkg/observability"
)

// Reconciler runs FixOrphans on a cron schedule, healing identities the
// inline bootstrap path missed.
type Reconciler struct {
	coordinator *Coordinator
	logger      *observability.Logger
	schedule    string
	timeout     time.Duration
	cron        *cron.Cron
}

// NewReconciler creates a reconciler. schedule is a standard cron
// expression, e.g. "*/5 * * * *".
func NewReconciler(coordinator *Coordinator, logger *observability.Logger, schedule string, timeout time.Duration) *Reconciler {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Reconciler{
		coordinator: coordinator,
		logger:      logger,
		schedule:    schedule,
		timeout:     timeout,
	}
}

// Start begins the schedule.
func (r *Reconciler) Start() error {
	c := cron.New()
	if _, err := c.AddFunc(r.schedule, r.run); err != nil {
		return fmt.Errorf("invalid reconcile schedule %q: %w", r.schedule, err)
	}
	c.Start()
	r.cron = c
	r.logger.WithField("schedule", r.schedule).Info("orphan reconciler started")
	return nil
}

// Stop halts the schedule and waits for a running repair to finish.
func (r *Reconciler) Stop() {
	if r.cron != nil {
		<-r.cron.Stop().Done()
	}
}

func (r *Reconciler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	results, err := r.coordinator.FixOrphans(ctx)
	if err != nil {
		r.logger.WithError(err).Error("orphan repair run failed")
		return
	}

	repaired := 0
	for _, res := range results {
		if res.Err != nil {
			r.logger.WithError(res.Err).
				WithField("identity_id", res.IdentityID.String()).
				Warn("orphan repair failed for identity")
			continue
		}
		if res.Created {
			repaired++
		}
	}
	if repaired > 0 {
		r.logger.WithField("repaired", repaired).Info("orphan repair run complete")
	}
}
