package application

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	analyticsdomain "bizit/internal/analytics/domain"
	geodomain "bizit/internal/geo/domain"
	geoinfra "bizit/internal/geo/infrastructure"
	sharedinfra "bizit/internal/shared/infrastructure"
	"bizit/internal/store/domain"
	"bizit/internal/store/infrastructure"
)

// Statuts de l'analyse déclenchée après enregistrement
const (
	AnalysisReady       = "ready"
	AnalysisPending     = "pending"
	AnalysisUnavailable = "unavailable"
)

// Geocoder convertit une adresse en coordonnées et district
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*geodomain.GeocodeResult, error)
}

// SurroundingCollector relève les concurrents autour d'un point
type SurroundingCollector interface {
	Collect(ctx context.Context, center geodomain.Coordinate) *geodomain.Surrounding
}

// AnalysisRunner recalcule l'artefact d'analyse d'un commerçant
type AnalysisRunner interface {
	Run(ctx context.Context, userID string) (*analyticsdomain.ComparativeMetrics, error)
}

// SubmitResult résultat d'un enregistrement de fiche
type SubmitResult struct {
	Created        bool                   `json:"created"`
	UserID         string                 `json:"user_id"`
	Surrounding    *geodomain.Surrounding `json:"surrounding_info"`
	AnalysisStatus string                 `json:"analysis_status"`
	Warning        string                 `json:"warning,omitempty"`
}

// StoreService service applicatif des fiches magasin
type StoreService struct {
	repo            *infrastructure.StoreRepository
	surroundingRepo *geoinfra.SurroundingRepository
	uow             sharedinfra.UnitOfWork
	geocoder        Geocoder
	collector       SurroundingCollector
	analysis        AnalysisRunner
	logger          *zap.Logger
	now             func() time.Time
}

// NewStoreService crée le service
func NewStoreService(
	repo *infrastructure.StoreRepository,
	surroundingRepo *geoinfra.SurroundingRepository,
	uow sharedinfra.UnitOfWork,
	geocoder Geocoder,
	collector SurroundingCollector,
	analysis AnalysisRunner,
	logger *zap.Logger,
) *StoreService {
	return &StoreService{
		repo:            repo,
		surroundingRepo: surroundingRepo,
		uow:             uow,
		geocoder:        geocoder,
		collector:       collector,
		analysis:        analysis,
		logger:          logger,
		now:             time.Now,
	}
}

// Submit géocode l'adresse, relève les concurrents, enregistre la fiche puis relance l'analyse.
// Une analyse pas encore possible n'empêche pas l'enregistrement.
func (s *StoreService) Submit(ctx context.Context, userID string, profile *domain.StoreProfile) (*SubmitResult, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}

	geo, err := s.geocoder.Geocode(ctx, profile.Location.Address)
	if err != nil {
		return nil, err
	}
	lat, lng := geo.Lat, geo.Lng
	profile.Location.Lat = &lat
	profile.Location.Lng = &lng
	if profile.Location.AdminCode == "" {
		profile.Location.AdminCode = geo.AdminCode
	}
	if profile.Location.AdminDongName == "" {
		profile.Location.AdminDongName = geo.DongName
	}

	surrounding := s.collector.Collect(ctx, geo.Coordinate)

	profile.UserID = userID
	profile.UpdatedAt = s.now()
	profile.SortSalesLogs()

	var created bool
	err = s.uow.Execute(ctx, func(tx *sql.Tx) error {
		var err error
		created, err = s.repo.WithTx(tx).Upsert(ctx, profile)
		if err != nil {
			return err
		}
		return s.surroundingRepo.WithTx(tx).Save(ctx, userID, surrounding, profile.UpdatedAt)
	})
	if err != nil {
		return nil, eris.Wrapf(err, "save store %s", userID)
	}

	s.logger.Info("store profile saved",
		zap.String("user_id", userID),
		zap.Bool("created", created),
		zap.Int("sales_logs", len(profile.SalesLogs)),
		zap.Bool("surrounding_degraded", surrounding.Degraded()),
		zap.Ints("failed_radii", surrounding.FailedRadii))

	result := &SubmitResult{
		Created:        created,
		UserID:         userID,
		Surrounding:    surrounding,
		AnalysisStatus: AnalysisReady,
	}

	if _, err := s.analysis.Run(ctx, userID); err != nil {
		switch {
		case analyticsdomain.IsNotReady(err):
			result.AnalysisStatus = AnalysisPending
		case analyticsdomain.IsSystemic(err):
			s.logger.Error("analysis unavailable after store submit",
				zap.String("user_id", userID), zap.Error(err))
			result.AnalysisStatus = AnalysisUnavailable
			result.Warning = "reference dataset unavailable, analysis will be computed later"
		default:
			s.logger.Warn("analysis failed after store submit",
				zap.String("user_id", userID), zap.Error(err))
			result.AnalysisStatus = AnalysisUnavailable
			result.Warning = err.Error()
		}
	}

	return result, nil
}

// Get retourne la fiche du commerçant
func (s *StoreService) Get(ctx context.Context, userID string) (*domain.StoreProfile, error) {
	return s.repo.Get(ctx, userID)
}

// Surrounding retourne le dernier relevé des concurrents, nil s'il n'y en a pas
func (s *StoreService) Surrounding(ctx context.Context, userID string) (*geodomain.Surrounding, error) {
	sur, err := s.surroundingRepo.Get(ctx, userID)
	if errors.Is(err, sharedinfra.ErrNotFound) {
		return nil, nil
	}
	return sur, err
}

// ParseSalesFile extrait les ventes d'un fichier importé
func (s *StoreService) ParseSalesFile(name string, data []byte) ([]domain.SalesLog, error) {
	return infrastructure.ParseSalesFile(name, data)
}
