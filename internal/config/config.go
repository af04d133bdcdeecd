package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	CORS      CORSConfig
	Analytics AnalyticsConfig
	FX        FXConfig
	Security  SecurityConfig
}

// SecurityConfig holds secret-handling configuration.
type SecurityConfig struct {
	// SettingsEncryptionKey is the base64 fernet key used to encrypt
	// secrets stored in the setting table. Empty disables secret storage.
	SettingsEncryptionKey string
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port string
	Host string
	Addr string // Combined host:port for convenience
}

// DatabaseConfig holds database-specific configuration
type DatabaseConfig struct {
	Path string
}

// CORSConfig holds CORS-specific configuration
type CORSConfig struct {
	AllowedOrigins []string
}

// AnalyticsConfig holds the tunable defaults of the analytics engine.
// Every value is overridable through the environment; the defaults are the
// documented behaviour of the engine, not hidden constants.
type AnalyticsConfig struct {
	AnnualizationFactor   float64        // Trading periods per year (default 252)
	VaRConfidence         float64        // Confidence level for VaR/CVaR (default 0.95)
	MinVaRObservations    int            // Minimum sample size for historical VaR (default 20)
	FreshnessCriticalDays float64        // Days after which price data is critically stale (default 7)
	ExpectedAssetCount    int            // Expected number of priced assets (default 50)
	QualityWeights        QualityWeights // Sub-score weights for the overall quality score
	RefreshThreshold      float64        // Overall score below which a refresh is required (default 60)
	TargetSectorCount     int            // Sector diversification target (default 5)
	TargetRegionCount     int            // Region diversification target (default 3)
}

// QualityWeights holds the weighting of the four data-quality sub-scores.
// The four weights must sum to 1.
type QualityWeights struct {
	Freshness    float64
	Completeness float64
	Accuracy     float64
	Coverage     float64
}

// FXConfig holds currency-resolution configuration.
type FXConfig struct {
	BaseCurrency string        // Intermediate currency for cross-rates (default USD)
	CacheTTL     time.Duration // Expiry for current-date rates (default 1h)
	FetchTimeout time.Duration // Timeout for a single live rate fetch (default 5s)
	ProviderURL  string        // Base URL of the exchange-rate provider
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "5001"),
			Host: getEnv("SERVER_HOST", "localhost"),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/portfolio_analytics.db"),
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{
				"http://localhost:3000",
				"http://localhost",
			},
		},
		Analytics: AnalyticsConfig{
			AnnualizationFactor:   getEnvFloat("ANNUALIZATION_FACTOR", 252),
			VaRConfidence:         getEnvFloat("VAR_CONFIDENCE", 0.95),
			MinVaRObservations:    getEnvInt("MIN_VAR_OBSERVATIONS", 20),
			FreshnessCriticalDays: getEnvFloat("FRESHNESS_CRITICAL_DAYS", 7),
			ExpectedAssetCount:    getEnvInt("EXPECTED_ASSET_COUNT", 50),
			RefreshThreshold:      getEnvFloat("QUALITY_REFRESH_THRESHOLD", 60),
			TargetSectorCount:     getEnvInt("TARGET_SECTOR_COUNT", 5),
			TargetRegionCount:     getEnvInt("TARGET_REGION_COUNT", 3),
		},
		FX: FXConfig{
			BaseCurrency: getEnv("BASE_CURRENCY", "USD"),
			CacheTTL:     getEnvDuration("FX_CACHE_TTL", time.Hour),
			FetchTimeout: getEnvDuration("FX_FETCH_TIMEOUT", 5*time.Second),
			ProviderURL:  getEnv("FX_PROVIDER_URL", "https://api.frankfurter.dev/v1"),
		},
		Security: SecurityConfig{
			SettingsEncryptionKey: getEnv("SETTINGS_ENCRYPTION_KEY", ""),
		},
	}

	weights, err := parseQualityWeights(getEnv("QUALITY_WEIGHTS", "0.25,0.25,0.25,0.25"))
	if err != nil {
		return nil, err
	}
	config.Analytics.QualityWeights = weights

	// Combine host and port
	config.Server.Addr = fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port)

	return config, nil
}

// parseQualityWeights parses "freshness,completeness,accuracy,coverage" and
// verifies the weights sum to 1 within tolerance.
func parseQualityWeights(raw string) (QualityWeights, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return QualityWeights{}, fmt.Errorf("QUALITY_WEIGHTS must contain 4 comma-separated values, got %q", raw)
	}

	values := make([]float64, 4)
	sum := 0.0
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return QualityWeights{}, fmt.Errorf("invalid quality weight %q: %w", part, err)
		}
		values[i] = v
		sum += v
	}

	if sum < 0.999999 || sum > 1.000001 {
		return QualityWeights{}, fmt.Errorf("quality weights must sum to 1, got %g", sum)
	}

	return QualityWeights{
		Freshness:    values[0],
		Completeness: values[1],
		Accuracy:     values[2],
		Coverage:     values[3],
	}, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvFloat gets a float environment variable or returns a default value
func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// getEnvInt gets an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// getEnvDuration gets a duration environment variable or returns a default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
