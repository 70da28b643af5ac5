package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/rotisserie/eris"

	referenceinfra "bizit/internal/reference/infrastructure"
)

// AppConfig configuration de l'application
type AppConfig struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Dataset  DatasetConfig  `toml:"dataset"`
	External ExternalConfig `toml:"external"`
	Analysis AnalysisConfig `toml:"analysis"`
	Chat     ChatConfig     `toml:"chat"`
}

// ServerConfig serveur HTTP
type ServerConfig struct {
	Port    int  `toml:"port"`
	DevMode bool `toml:"dev_mode"`
}

// DatabaseConfig connexion à la base
type DatabaseConfig struct {
	Driver string `toml:"driver"`
	DSN    string `toml:"dsn"`
}

// DatasetConfig jeux publics de référence
type DatasetConfig struct {
	SalesPath         string                           `toml:"sales_path"`
	PopulationPath    string                           `toml:"population_path"`
	MonthlyProxy      bool                             `toml:"monthly_proxy"`
	CacheTTL          Duration                         `toml:"cache_ttl"`
	SalesColumns      referenceinfra.SalesColumns      `toml:"sales_columns"`
	PopulationColumns referenceinfra.PopulationColumns `toml:"population_columns"`
}

// ExternalConfig APIs externes
type ExternalConfig struct {
	KakaoAPIKey        string   `toml:"kakao_api_key"`
	KakaoEndpoint      string   `toml:"kakao_endpoint"`
	DataGoKrAPIKey     string   `toml:"data_go_kr_api_key"`
	CommercialEndpoint string   `toml:"commercial_endpoint"`
	IndustryCode       string   `toml:"industry_code"`
	GeminiAPIKey       string   `toml:"gemini_api_key"`
	GeminiModel        string   `toml:"gemini_model"`
	GeminiEndpoint     string   `toml:"gemini_endpoint"`
	Timeout            Duration `toml:"timeout"`
}

// AnalysisConfig recalcul des analyses
type AnalysisConfig struct {
	Workers int `toml:"workers"`
}

// ChatConfig sessions de conversation
type ChatConfig struct {
	SessionTTL Duration `toml:"session_ttl"`
	MaxTurns   int      `toml:"max_turns"`
}

// Duration durée lisible en TOML ("30m", "1h")
type Duration struct {
	time.Duration
}

// UnmarshalText implémente encoding.TextUnmarshaler
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

// MarshalText implémente encoding.TextMarshaler
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// DefaultConfig configuration par défaut (sqlite local)
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:    8080,
			DevMode: false,
		},
		Database: DatabaseConfig{
			Driver: "sqlite3",
			DSN:    "data/bizit.db",
		},
		Dataset: DatasetConfig{
			SalesPath:         "data_set/서울상권_추정매출.csv",
			PopulationPath:    "data_set/서울상권_소득소비_유동인구.csv",
			MonthlyProxy:      false,
			CacheTTL:          Duration{time.Hour},
			SalesColumns:      referenceinfra.DefaultSalesColumns(),
			PopulationColumns: referenceinfra.DefaultPopulationColumns(),
		},
		External: ExternalConfig{
			IndustryCode: "I21201",
			GeminiModel:  "gemini-2.5-flash",
			Timeout:      Duration{60 * time.Second},
		},
		Analysis: AnalysisConfig{
			Workers: 4,
		},
		Chat: ChatConfig{
			SessionTTL: Duration{30 * time.Minute},
			MaxTurns:   20,
		},
	}
}

// LoadConfig charge .env, puis path (optionnel), puis les variables d'environnement
func LoadConfig(path string) (*AppConfig, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, eris.Wrapf(err, "parse %s", path)
			}
		case os.IsNotExist(err):
		default:
			return nil, eris.Wrapf(err, "read %s", path)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

// applyEnv surcharge la configuration par les variables d'environnement
func applyEnv(cfg *AppConfig) {
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	cfg.Database.Driver = getEnv("DB_DRIVER", cfg.Database.Driver)
	cfg.Database.DSN = getEnv("DB_DSN", cfg.Database.DSN)
	if cfg.Database.Driver == "postgres" && os.Getenv("DB_DSN") == "" && os.Getenv("DB_HOST") != "" {
		cfg.Database.DSN = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			getEnv("DB_HOST", "localhost"),
			getEnv("DB_PORT", "5432"),
			getEnv("DB_USER", "bizit"),
			getEnv("DB_PASSWORD", "bizit"),
			getEnv("DB_NAME", "bizit"),
			getEnv("DB_SSLMODE", "disable"),
		)
	}

	cfg.Dataset.SalesPath = getEnv("SALES_DATASET_PATH", cfg.Dataset.SalesPath)
	cfg.Dataset.PopulationPath = getEnv("POPULATION_DATASET_PATH", cfg.Dataset.PopulationPath)

	cfg.External.KakaoAPIKey = getEnv("KAKAO_API_KEY", cfg.External.KakaoAPIKey)
	cfg.External.DataGoKrAPIKey = getEnv("DATA_GO_KR_API_KEY", cfg.External.DataGoKrAPIKey)
	cfg.External.GeminiAPIKey = getEnv("GEMINI_API_KEY", cfg.External.GeminiAPIKey)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
