package bootstrap

import (
	"database/sql"
	"time"

	"go.uber.org/zap"

	v1 "bizit/api/v1"
	analyticsapp "bizit/internal/analytics/application"
	analyticsinfra "bizit/internal/analytics/infrastructure"
	chatapp "bizit/internal/chat/application"
	"bizit/internal/config"
	exportapp "bizit/internal/export/application"
	geoapp "bizit/internal/geo/application"
	geodomain "bizit/internal/geo/domain"
	geoinfra "bizit/internal/geo/infrastructure"
	referenceapp "bizit/internal/reference/application"
	referenceinfra "bizit/internal/reference/infrastructure"
	sharedinfra "bizit/internal/shared/infrastructure"
	solutionapp "bizit/internal/solution/application"
	solutioninfra "bizit/internal/solution/infrastructure"
	storeapp "bizit/internal/store/application"
	storeinfra "bizit/internal/store/infrastructure"
	userapp "bizit/internal/user/application"
	userinfra "bizit/internal/user/infrastructure"
)

// Overrides remplace les clients externes (tests, outils hors ligne)
type Overrides struct {
	Geocoder   storeapp.Geocoder
	Locator    geoapp.StoreLocator
	Generator  solutionapp.Generator
	BcryptCost int
}

// Container dépendances câblées de l'application
type Container struct {
	Datasets *referenceapp.DatasetProvider
	Stores   *storeinfra.StoreRepository
	Analyses *analyticsapp.AnalysisService
	Services v1.Services
	closers  []interface{ Close() }
}

// Build câble repositories, clients externes et services
func Build(cfg *config.AppConfig, db *sql.DB, logger *zap.Logger, o Overrides) *Container {
	uow := sharedinfra.NewUnitOfWork(db)

	datasetCache := sharedinfra.NewInMemoryCache(10 * time.Minute)
	// sessions de conversation: une entrée par commerçant actif, shardées
	sessionCache := sharedinfra.NewShardedCache(16, time.Minute)

	loader := referenceinfra.NewCSVLoader(cfg.Dataset.SalesColumns, cfg.Dataset.PopulationColumns, cfg.Dataset.MonthlyProxy)
	datasets := referenceapp.NewDatasetProvider(loader,
		cfg.Dataset.SalesPath, cfg.Dataset.PopulationPath,
		datasetCache, cfg.Dataset.CacheTTL.Duration, logger.Named("reference"))

	geocoder := o.Geocoder
	if geocoder == nil {
		geocoder = geoinfra.NewKakaoGeocoder(cfg.External.KakaoAPIKey, cfg.External.KakaoEndpoint)
	}
	locator := o.Locator
	if locator == nil {
		locator = geoinfra.NewCommercialClient(cfg.External.DataGoKrAPIKey, cfg.External.CommercialEndpoint, cfg.External.IndustryCode)
	}
	generator := o.Generator
	if generator == nil {
		generator = sharedinfra.NewGeminiClient(cfg.External.GeminiAPIKey, cfg.External.GeminiModel,
			cfg.External.GeminiEndpoint, cfg.External.Timeout.Duration)
	}

	storeRepo := storeinfra.NewStoreRepository(db)
	surroundingRepo := geoinfra.NewSurroundingRepository(db)
	analysisRepo := analyticsinfra.NewAnalysisRepository(db)
	solutionRepo := solutioninfra.NewSolutionRepository(db)
	userRepo := userinfra.NewUserRepository(db)

	analyses := analyticsapp.NewAnalysisService(storeRepo, datasets, analysisRepo, uow, logger.Named("analysis"))
	surroundings := geoapp.NewSurroundingService(locator, len(geodomain.Radii), logger.Named("geo"))
	stores := storeapp.NewStoreService(storeRepo, surroundingRepo, uow, geocoder, surroundings, analyses, logger.Named("store"))
	solutions := solutionapp.NewSolutionService(stores, stores, datasets, analyses, generator, solutionRepo, uow, logger.Named("solution"))
	chat := chatapp.NewChatService(sessionCache, cfg.Chat.SessionTTL.Duration, cfg.Chat.MaxTurns, generator, solutions, logger.Named("chat"))

	return &Container{
		Datasets: datasets,
		Stores:   storeRepo,
		Analyses: analyses,
		Services: v1.Services{
			Users:     userapp.NewUserService(userRepo, o.BcryptCost, logger.Named("user")),
			Stores:    stores,
			Analyses:  analyses,
			Solutions: solutions,
			Chat:      chat,
			Exports:   exportapp.NewExportService(analyses, stores),
		},
		closers: []interface{ Close() }{datasetCache, sessionCache},
	}
}

// Close arrête les purges périodiques des caches
func (c *Container) Close() {
	for _, cl := range c.closers {
		cl.Close()
	}
}
