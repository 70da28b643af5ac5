package bootstrap

import (
	"context"
	"sync"

	"go.uber.org/zap"

	analyticsdomain "bizit/internal/analytics/domain"
	sharedinfra "bizit/internal/shared/infrastructure"
)

// RecomputeReport bilan d'un recalcul global
type RecomputeReport struct {
	Total    int
	Computed int
	Pending  int
	Failed   int
}

// RecomputeAll recalcule l'artefact de chaque commerçant sur un pool de workers.
// Un jeu de référence indisponible arrête tout le recalcul.
func RecomputeAll(ctx context.Context, c *Container, workers int, logger *zap.Logger) (*RecomputeReport, error) {
	// le jeu est vérifié avant de lancer les workers
	if _, err := c.Datasets.Sales(); err != nil {
		return nil, err
	}

	ids, err := c.Stores.ListUserIDs(ctx)
	if err != nil {
		return nil, err
	}

	report := &RecomputeReport{Total: len(ids)}
	var (
		mu       sync.Mutex
		systemic error
	)

	pool := sharedinfra.NewWorkerPool(ctx, workers)
	pool.Start()

	for _, id := range ids {
		userID := id
		task := func(ctx context.Context) error {
			_, err := c.Analyses.Run(ctx, userID)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				report.Computed++
			case analyticsdomain.IsNotReady(err):
				report.Pending++
			case analyticsdomain.IsSystemic(err):
				if systemic == nil {
					systemic = err
				}
				report.Failed++
			default:
				logger.Warn("merchant recompute failed", zap.String("user_id", userID), zap.Error(err))
				report.Failed++
			}
			return err
		}
		if err := pool.Submit(task); err != nil {
			break
		}

		mu.Lock()
		abort := systemic != nil
		mu.Unlock()
		if abort {
			pool.Stop()
			break
		}
	}
	pool.Wait()

	if errs := pool.Errors(); len(errs) > 0 {
		logger.Info("recompute finished with merchant errors", zap.Int("errors", len(errs)))
	}

	if systemic != nil {
		return report, systemic
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}
