package application

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"bizit/internal/reference/domain"
	"bizit/internal/reference/infrastructure"
	sharedinfra "bizit/internal/shared/infrastructure"
)

// DatasetProvider charge les jeux de référence et les garde en cache en lecture seule
type DatasetProvider struct {
	loader         *infrastructure.CSVLoader
	salesPath      string
	populationPath string
	cache          sharedinfra.Cache
	cacheTTL       time.Duration
	logger         *zap.Logger

	// une seule lecture de fichier à la fois en cas de cache miss simultanés
	loadMu sync.Mutex
}

// NewDatasetProvider crée un provider de jeux de référence
func NewDatasetProvider(
	loader *infrastructure.CSVLoader,
	salesPath, populationPath string,
	cache sharedinfra.Cache,
	cacheTTL time.Duration,
	logger *zap.Logger,
) *DatasetProvider {
	return &DatasetProvider{
		loader:         loader,
		salesPath:      salesPath,
		populationPath: populationPath,
		cache:          cache,
		cacheTTL:       cacheTTL,
		logger:         logger,
	}
}

// Sales retourne le jeu de ventes estimées. ErrEmptyDataset est systémique: jamais masquée.
func (p *DatasetProvider) Sales() (*domain.Dataset, error) {
	key := p.cacheKey("sales", p.salesPath)
	if cached, ok := p.cache.Get(key); ok {
		return cached.(*domain.Dataset), nil
	}

	p.loadMu.Lock()
	defer p.loadMu.Unlock()
	if cached, ok := p.cache.Get(key); ok {
		return cached.(*domain.Dataset), nil
	}

	start := time.Now()
	ds, err := p.loader.LoadSalesFile(p.salesPath)
	if err != nil {
		p.logger.Error("reference dataset unavailable",
			zap.String("path", p.salesPath), zap.Error(err))
		if !errors.Is(err, domain.ErrEmptyDataset) {
			return nil, errors.Join(domain.ErrEmptyDataset, err)
		}
		return nil, err
	}

	latest, _ := ds.LatestAvailableQuarter()
	p.logger.Info("reference dataset loaded",
		zap.String("path", p.salesPath),
		zap.Int("rows", ds.Len()),
		zap.String("latest_quarter", latest),
		zap.Duration("elapsed", time.Since(start)))

	p.cache.Set(key, ds, p.cacheTTL)
	return ds, nil
}

// Population retourne le jeu flux/revenus. Il sert uniquement de contexte: une absence
// retourne un jeu vide et un avertissement, pas une erreur bloquante.
func (p *DatasetProvider) Population() *domain.PopulationSet {
	if p.populationPath == "" {
		return domain.NewPopulationSet(nil)
	}
	key := p.cacheKey("population", p.populationPath)
	if cached, ok := p.cache.Get(key); ok {
		return cached.(*domain.PopulationSet)
	}

	p.loadMu.Lock()
	defer p.loadMu.Unlock()
	if cached, ok := p.cache.Get(key); ok {
		return cached.(*domain.PopulationSet)
	}

	set, err := p.loader.LoadPopulationFile(p.populationPath)
	if err != nil {
		p.logger.Warn("population dataset unavailable",
			zap.String("path", p.populationPath), zap.Error(err))
		return domain.NewPopulationSet(nil)
	}
	p.cache.Set(key, set, p.cacheTTL)
	return set
}

// Invalidate force le rechargement au prochain accès
func (p *DatasetProvider) Invalidate() {
	p.cache.Delete(p.cacheKey("sales", p.salesPath))
	p.cache.Delete(p.cacheKey("population", p.populationPath))
}

func (p *DatasetProvider) cacheKey(kind, path string) string {
	return sharedinfra.NewCacheKeyBuilder().
		Add("reference").
		Add(kind).
		Add(path).
		Build()
}
