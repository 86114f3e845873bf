package bootstrap

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// repairConcurrency bounds parallel repairs so a large backlog does not
// saturate the connection pool.
const repairConcurrency = 4

// FixOrphans finds confirmed identities that have no principal and
// bootstraps each one. Per-identity failures are reported in the results,
// not returned; only the orphan scan itself can fail outright. Safe to run
// repeatedly and concurrently with live signups: every repair goes through
// the same idempotent Bootstrap path.
func (c *Coordinator) FixOrphans(ctx context.Context) ([]RepairResult, error) {
	orphans, err := c.identities.ListOrphaned(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list orphaned identities: %w", err)
	}
	if len(orphans) == 0 {
		return nil, nil
	}

	c.logger.WithField("count", len(orphans)).Info("repairing orphaned identities")

	results := make([]RepairResult, len(orphans))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(repairConcurrency)

	for i, ident := range orphans {
		g.Go(func() error {
			res, err := c.Bootstrap(gctx, ident.ID, ident.Email, ident.FirstName, ident.LastName)
			if err != nil {
				results[i] = RepairResult{IdentityID: ident.ID, Err: err}
				c.countRepair("failed")
				return nil // keep repairing the rest
			}
			results[i] = RepairResult{IdentityID: ident.ID, Created: res.Created}
			if res.Created {
				c.countRepair("created")
			} else {
				c.countRepair("existing")
			}
			return nil
		})
	}
	// Workers never return errors; Wait only observes context cancellation.
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

func (c *Coordinator) countRepair(result string) {
	if c.metrics != nil {
		c.metrics.OrphanRepairsTotal.WithLabelValues(result).Inc()
	}
}
