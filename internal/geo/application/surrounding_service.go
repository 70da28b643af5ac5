package application

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"bizit/internal/geo/domain"
	sharedinfra "bizit/internal/shared/infrastructure"
)

// Geocoder convertit une adresse en coordonnées et district
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*domain.GeocodeResult, error)
}

// StoreLocator liste les commerces d'un secteur dans un rayon
type StoreLocator interface {
	StoresInRadius(ctx context.Context, center domain.Coordinate, radius int) ([]domain.Coordinate, error)
}

// SurroundingService collecte les concurrents sur les quatre rayons en parallèle
type SurroundingService struct {
	locator StoreLocator
	workers int
	logger  *zap.Logger
}

// NewSurroundingService crée le service de collecte
func NewSurroundingService(locator StoreLocator, workers int, logger *zap.Logger) *SurroundingService {
	return &SurroundingService{
		locator: locator,
		workers: workers,
		logger:  logger,
	}
}

// Collect interroge chaque rayon sur le pool de workers.
// Un rayon en échec reste vide et est listé dans FailedRadii.
func (s *SurroundingService) Collect(ctx context.Context, center domain.Coordinate) *domain.Surrounding {
	result := domain.NewSurrounding()
	var mu sync.Mutex
	done := make(map[int]bool, len(domain.Radii))

	pool := sharedinfra.NewWorkerPool(ctx, s.workers)
	pool.Start()

	for _, radius := range domain.Radii {
		radius := radius
		task := func(ctx context.Context) error {
			coords, err := s.locator.StoresInRadius(ctx, center, radius)

			mu.Lock()
			defer mu.Unlock()
			done[radius] = true
			if err != nil {
				s.logger.Warn("surrounding radius unavailable",
					zap.Int("radius", radius), zap.Error(err))
				result.MarkFailed(radius)
				return err
			}
			result.Set(radius, coords)
			return nil
		}
		if err := pool.Submit(task); err != nil {
			break
		}
	}
	pool.Wait()

	// tâches jamais exécutées (contexte annulé)
	for _, radius := range domain.Radii {
		if !done[radius] {
			result.MarkFailed(radius)
		}
	}

	return result
}
