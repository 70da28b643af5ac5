package application

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"bizit/internal/analytics/domain"
	"bizit/internal/analytics/infrastructure"
	referencedomain "bizit/internal/reference/domain"
	sharedinfra "bizit/internal/shared/infrastructure"
	storedomain "bizit/internal/store/domain"
)

// ProfileLoader lit la fiche magasin d'un commerçant
type ProfileLoader interface {
	Get(ctx context.Context, userID string) (*storedomain.StoreProfile, error)
}

// DatasetSource fournit le jeu de référence chargé
type DatasetSource interface {
	Sales() (*referencedomain.Dataset, error)
}

// AnalysisService calcule et persiste l'artefact comparatif d'un commerçant
type AnalysisService struct {
	profiles ProfileLoader
	datasets DatasetSource
	repo     *infrastructure.AnalysisRepository
	uow      sharedinfra.UnitOfWork
	locks    *sharedinfra.KeyedMutex
	logger   *zap.Logger
	now      func() time.Time
}

// NewAnalysisService crée le service d'analyse
func NewAnalysisService(
	profiles ProfileLoader,
	datasets DatasetSource,
	repo *infrastructure.AnalysisRepository,
	uow sharedinfra.UnitOfWork,
	logger *zap.Logger,
) *AnalysisService {
	return &AnalysisService{
		profiles: profiles,
		datasets: datasets,
		repo:     repo,
		uow:      uow,
		locks:    sharedinfra.NewKeyedMutex(),
		logger:   logger,
		now:      time.Now,
	}
}

// Run recalcule l'artefact du commerçant et remplace celui stocké.
// Les exécutions d'un même commerçant sont sérialisées; rien n'est écrit en cas d'erreur.
func (s *AnalysisService) Run(ctx context.Context, userID string) (*domain.ComparativeMetrics, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	profile, err := s.profiles.Get(ctx, userID)
	if errors.Is(err, storedomain.ErrStoreNotFound) {
		return nil, domain.ErrMissingProfile
	}
	if err != nil {
		return nil, err
	}
	if len(profile.SalesLogs) < 2 {
		return nil, domain.ErrInsufficientHistory
	}

	dataset, err := s.datasets.Sales()
	if err != nil {
		return nil, err
	}

	records := make([]domain.MonthlyRevenue, len(profile.SalesLogs))
	for i, log := range profile.SalesLogs {
		records[i] = domain.MonthlyRevenue{
			YearMonth: log.YearMonth,
			Revenue:   log.Revenue,
			Profit:    log.Profit,
		}
	}

	start := time.Now()
	metrics, err := domain.Calculate(domain.CalculatorInput{
		Records:      records,
		SectorCode:   profile.SectorCodeCS,
		DistrictCode: profile.Location.AdminCode,
	}, dataset)
	if err != nil {
		return nil, err
	}
	if len(metrics.Provenance.SkippedMonths) > 0 {
		s.logger.Warn("malformed sales months skipped",
			zap.String("user_id", userID),
			zap.Strings("months", metrics.Provenance.SkippedMonths))
	}

	metrics.CreatedAt = s.now().UTC()
	if !metrics.Complete() {
		return nil, eris.Errorf("incomplete analysis for %s", userID)
	}

	err = s.uow.Execute(ctx, func(tx *sql.Tx) error {
		return s.repo.WithTx(tx).Upsert(ctx, userID, metrics, metrics.CreatedAt)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("analysis computed",
		zap.String("user_id", userID),
		zap.String("target_ym", metrics.TargetYearMonth),
		zap.String("grade", string(metrics.Percentile.Grade)),
		zap.String("benchmark", string(metrics.Provenance.BenchmarkSource)),
		zap.Duration("elapsed", time.Since(start)))

	return metrics, nil
}

// Get retourne l'artefact courant ou sharedinfra.ErrNotFound
func (s *AnalysisService) Get(ctx context.Context, userID string) (*domain.ComparativeMetrics, error) {
	return s.repo.Get(ctx, userID)
}
