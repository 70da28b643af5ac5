package testhelpers

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/joho/godotenv"

	"bizit/database"
	analyticsinfra "bizit/internal/analytics/infrastructure"
	geodomain "bizit/internal/geo/domain"
	geoinfra "bizit/internal/geo/infrastructure"
	sharedinfra "bizit/internal/shared/infrastructure"
	solutioninfra "bizit/internal/solution/infrastructure"
	storeinfra "bizit/internal/store/infrastructure"
	userinfra "bizit/internal/user/infrastructure"
)

// TestContext contient toutes les dépendances pour les tests d'intégration
// Note: Ne contient PAS les services pour éviter les import cycles
// Les tests doivent créer leurs propres services en utilisant ce contexte
type TestContext struct {
	DB  *sql.DB
	UoW sharedinfra.UnitOfWork

	// Repositories
	StoreRepo       *storeinfra.StoreRepository
	SurroundingRepo *geoinfra.SurroundingRepository
	AnalysisRepo    *analyticsinfra.AnalysisRepository
	SolutionRepo    *solutioninfra.SolutionRepository
	UserRepo        *userinfra.UserRepository
}

// SetupTestDB ouvre une base de test migrée.
// Par défaut une base SQLite dans un répertoire temporaire; TEST_DB_DRIVER=postgres utilise
// la base décrite par les variables DB_* (le test est ignoré si elle est injoignable).
func SetupTestDB(tb testing.TB) *sql.DB {
	tb.Helper()

	_ = godotenv.Load("../../.env")

	driver := getEnv("TEST_DB_DRIVER", database.DriverSQLite)
	var dsn string
	if driver == database.DriverPostgres {
		dsn = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			getEnv("DB_HOST", "localhost"),
			getEnv("DB_PORT", "5432"),
			getEnv("DB_USER", "bizit"),
			getEnv("DB_PASSWORD", "bizit"),
			getEnv("DB_NAME", "bizit_test"),
			getEnv("DB_SSLMODE", "disable"),
		)
	} else {
		dsn = filepath.Join(tb.TempDir(), "bizit.db")
	}

	db, err := database.Open(driver, dsn)
	if err != nil {
		if driver == database.DriverPostgres {
			tb.Skip("Database not available:", err)
		}
		tb.Fatalf("Failed to open database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		db.Close()
		tb.Fatalf("Failed to migrate database: %v", err)
	}
	if driver == database.DriverPostgres {
		truncateAll(tb, db)
	}

	tb.Cleanup(func() { db.Close() })
	return db
}

// SetupTestContext initialise un contexte de test avec DB et repositories
// Les services doivent être créés par les tests eux-mêmes pour éviter les import cycles
func SetupTestContext(tb testing.TB) *TestContext {
	tb.Helper()

	ctx := &TestContext{}

	// 1. Initialiser la connexion DB
	ctx.DB = SetupTestDB(tb)
	ctx.UoW = sharedinfra.NewUnitOfWork(ctx.DB)

	// 2. Initialiser les repositories
	ctx.StoreRepo = storeinfra.NewStoreRepository(ctx.DB)
	ctx.SurroundingRepo = geoinfra.NewSurroundingRepository(ctx.DB)
	ctx.AnalysisRepo = analyticsinfra.NewAnalysisRepository(ctx.DB)
	ctx.SolutionRepo = solutioninfra.NewSolutionRepository(ctx.DB)
	ctx.UserRepo = userinfra.NewUserRepository(ctx.DB)

	return ctx
}

// CountRows nombre de lignes d'une table
func (ctx *TestContext) CountRows(tb testing.TB, table string) int {
	tb.Helper()

	var n int
	if err := ctx.DB.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		tb.Fatalf("count %s: %v", table, err)
	}
	return n
}

// WriteFile écrit content dans un fichier temporaire et retourne son chemin
func WriteFile(tb testing.TB, name, content string) string {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		tb.Fatalf("write %s: %v", name, err)
	}
	return path
}

// SalesDatasetCSV construit un jeu de ventes estimées; chaque ligne est
// "trimestre,district,secteur,montant"
func SalesDatasetCSV(lines ...string) string {
	return "기준_년분기_코드,행정동_코드,서비스_업종_코드,당월_매출_금액\n" + strings.Join(lines, "\n") + "\n"
}

// FakeGeocoder géocodeur en mémoire
type FakeGeocoder struct {
	Result *geodomain.GeocodeResult
	Err    error
}

// Geocode retourne Result ou Err
func (f *FakeGeocoder) Geocode(ctx context.Context, address string) (*geodomain.GeocodeResult, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	r := *f.Result
	return &r, nil
}

// FakeLocator retourne count concurrents par rayon; les rayons de Fail échouent
type FakeLocator struct {
	Count int
	Fail  map[int]error
}

// StoresInRadius implémente la recherche par rayon
func (f *FakeLocator) StoresInRadius(ctx context.Context, center geodomain.Coordinate, radius int) ([]geodomain.Coordinate, error) {
	if err, ok := f.Fail[radius]; ok {
		return nil, err
	}
	out := make([]geodomain.Coordinate, f.Count)
	for i := range out {
		out[i] = geodomain.Coordinate{Lat: center.Lat, Lng: center.Lng}
	}
	return out, nil
}

// FakeGenerator modèle de langage scripté; enregistre les requêtes reçues
type FakeGenerator struct {
	mu        sync.Mutex
	Responses []string
	Err       error
	Requests  []sharedinfra.LLMRequest
}

// Generate retourne la réponse suivante (la dernière est répétée)
func (f *FakeGenerator) Generate(ctx context.Context, req sharedinfra.LLMRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Requests = append(f.Requests, req)
	if f.Err != nil {
		return "", f.Err
	}
	if len(f.Responses) == 0 {
		return "", sharedinfra.ErrLLMEmptyResponse
	}
	resp := f.Responses[0]
	if len(f.Responses) > 1 {
		f.Responses = f.Responses[1:]
	}
	return resp, nil
}

// Calls nombre d'appels reçus
func (f *FakeGenerator) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Requests)
}

func truncateAll(tb testing.TB, db *sql.DB) {
	tb.Helper()

	for _, table := range []string{"solutions", "analyses", "surroundings", "sales_logs", "stores", "users"} {
		if _, err := db.Exec("DELETE FROM " + table); err != nil {
			tb.Fatalf("truncate %s: %v", table, err)
		}
	}
}

// getEnv récupère une variable d'environnement avec fallback
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
