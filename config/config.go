package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	Catalog    DatabaseConfig
	Redis      RedisConfig
	Auth       AuthConfig
	API        APIConfig
	Comparison ComparisonConfig
	Suppliers  SupplierConfig
}

// AppConfig holds application configuration
type AppConfig struct {
	Name        string
	Environment string
	Port        string
	Debug       bool
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	MaxIdle  int
	MaxOpen  int
	MaxLife  time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	PoolSize int
}

// AuthConfig holds branch user session configuration
type AuthConfig struct {
	AccessSecret   string
	Issuer         string
	Audience       string
	AccessTokenTTL time.Duration
}

// APIConfig holds API configuration
type APIConfig struct {
	TimeoutSeconds int
	MaxRequestSize int64
}

// ComparisonConfig tunes the aggregator and the confirm step
type ComparisonConfig struct {
	LineConcurrency int
	TableTTL        time.Duration
	// Deadline bounds a whole comparison; quotes still pending render as
	// unavailable.
	Deadline time.Duration
	// SharedTokenCache stores Monroe tokens in Redis instead of process memory.
	SharedTokenCache bool
}

// SupplierConfig holds external supplier configurations
type SupplierConfig struct {
	Quantio  QuantioConfig
	Monroe   MonroeConfig
	Cofarsur CofarsurConfig
	Suizo    SuizoConfig
}

// EndpointConfig is shared by every supplier integration
type EndpointConfig struct {
	BaseURL        string
	TimeoutSeconds int
	// RequestsPerSecond limits outbound calls; zero disables the limiter.
	RequestsPerSecond float64
	Burst             int
}

// Timeout returns the configured timeout or the default
func (e EndpointConfig) Timeout() time.Duration {
	if e.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(e.TimeoutSeconds) * time.Second
}

// QuantioConfig holds Quantio REST configuration
type QuantioConfig struct {
	EndpointConfig
	// Branch is the fixed branch the remote API expects on every call.
	Branch string
}

// MonroeConfig holds Monroe REST configuration
type MonroeConfig struct {
	EndpointConfig
	TokenDuration     time.Duration
	TokenSafetyMargin time.Duration
}

// TokenTTL is how long a cached token is trusted
func (m MonroeConfig) TokenTTL() time.Duration {
	ttl := m.TokenDuration - m.TokenSafetyMargin
	if ttl <= 0 {
		return m.TokenDuration / 2
	}
	return ttl
}

// CofarsurConfig holds Cofarsur SOAP configuration
type CofarsurConfig struct {
	EndpointConfig
}

// SuizoConfig holds Suizo SOAP configuration
type SuizoConfig struct {
	EndpointConfig
	StockType string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, using environment variables")
	}

	config := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "pedidos-sucursales"),
			Environment: getEnv("APP_ENV", "development"),
			Port:        getEnv("APP_PORT", "3000"),
			Debug:       getEnvBool("APP_DEBUG", true),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			Name:     getEnv("DB_NAME", "pedidos"),
			User:     getEnv("DB_USER", "pedidos"),
			Password: getEnv("DB_PASSWORD", ""),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxIdle:  getEnvInt("DB_MAX_IDLE", 5),
			MaxOpen:  getEnvInt("DB_MAX_OPEN", 20),
			MaxLife:  getEnvDuration("DB_MAX_LIFE", time.Hour),
		},
		Catalog: DatabaseConfig{
			Host:     getEnv("CATALOG_DB_HOST", "localhost"),
			Port:     getEnv("CATALOG_DB_PORT", "5432"),
			Name:     getEnv("CATALOG_DB_NAME", "onze_center"),
			User:     getEnv("CATALOG_DB_USER", "sistemas"),
			Password: getEnv("CATALOG_DB_PASSWORD", ""),
			SSLMode:  getEnv("CATALOG_DB_SSLMODE", "disable"),
			MaxIdle:  getEnvInt("CATALOG_DB_MAX_IDLE", 2),
			MaxOpen:  getEnvInt("CATALOG_DB_MAX_OPEN", 10),
			MaxLife:  getEnvDuration("CATALOG_DB_MAX_LIFE", time.Hour),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			PoolSize: getEnvInt("REDIS_POOL_SIZE", 10),
		},
		Auth: AuthConfig{
			AccessSecret:   getEnv("AUTH_ACCESS_SECRET", getEnv("SESSION_SECRET", "")),
			Issuer:         getEnv("AUTH_ISSUER", "pedidos-sucursales"),
			Audience:       getEnv("AUTH_AUDIENCE", "sucursales"),
			AccessTokenTTL: getEnvDuration("AUTH_ACCESS_TTL", 12*time.Hour),
		},
		API: APIConfig{
			TimeoutSeconds: getEnvInt("API_TIMEOUT", 90),
			MaxRequestSize: getEnvInt64("API_MAX_REQUEST_SIZE", 1048576), // 1MB
		},
		Comparison: ComparisonConfig{
			LineConcurrency:  getEnvInt("COMPARISON_LINE_CONCURRENCY", 4),
			TableTTL:         getEnvDuration("COMPARISON_TABLE_TTL", 30*time.Minute),
			Deadline:         getEnvDuration("COMPARISON_DEADLINE", 75*time.Second),
			SharedTokenCache: getEnvBool("MONROE_SHARED_TOKEN_CACHE", false),
		},
		Suppliers: SupplierConfig{
			Quantio: QuantioConfig{
				EndpointConfig: loadEndpoint("QUANTIO", "http://sanchezantoniolli.quantio.com.ar:8081/wsquantiorest"),
				Branch:         getEnv("QUANTIO_BRANCH", "1"),
			},
			Monroe: MonroeConfig{
				EndpointConfig:    loadEndpoint("MONROE", "https://servicios.monroeamericana.com.ar/api-cli"),
				TokenDuration:     getEnvDuration("MONROE_TOKEN_DURATION", 300*time.Second),
				TokenSafetyMargin: getEnvDuration("MONROE_TOKEN_SAFETY_MARGIN", 60*time.Second),
			},
			Cofarsur: CofarsurConfig{
				EndpointConfig: loadEndpoint("COFARSUR", "http://www.cofarsur.net/ws"),
			},
			Suizo: SuizoConfig{
				EndpointConfig: loadEndpoint("SUIZO", "https://ws.suizoargentina.com/webservice/wspedidos2.wsdl"),
				StockType:      getEnv("SUIZO_STOCK_TYPE", "2"),
			},
		},
	}

	return config, nil
}

func loadEndpoint(prefix, defaultURL string) EndpointConfig {
	return EndpointConfig{
		BaseURL:           getEnv(prefix+"_BASE_URL", defaultURL),
		TimeoutSeconds:    getEnvInt(prefix+"_TIMEOUT", 30),
		RequestsPerSecond: getEnvFloat(prefix+"_RPS", 0),
		Burst:             getEnvInt(prefix+"_BURST", 5),
	}
}

// GetDSN returns database connection string
func (d *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// GetRedisAddr returns Redis connection address
func (r *RedisConfig) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

// IsDevelopment returns true if environment is development
func (a *AppConfig) IsDevelopment() bool {
	return a.Environment == "development"
}

// IsProduction returns true if environment is production
func (a *AppConfig) IsProduction() bool {
	return a.Environment == "production"
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// writeMargin is left between the comparison deadline and the server write
// timeout for rendering and storing the table.
const writeMargin = 15 * time.Second

// ServerWriteTimeout returns the HTTP write timeout. It always leaves room
// for a comparison that runs until its deadline.
func (c *Config) ServerWriteTimeout() time.Duration {
	timeout := time.Duration(c.API.TimeoutSeconds) * time.Second
	if minimum := c.Comparison.Deadline + writeMargin; timeout < minimum {
		return minimum
	}
	return timeout
}

// Validate validates configuration
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database name is required")
	}
	if c.Catalog.Host == "" || c.Catalog.Name == "" {
		return fmt.Errorf("catalog database host and name are required")
	}
	if strings.TrimSpace(c.Auth.AccessSecret) == "" {
		return fmt.Errorf("AUTH_ACCESS_SECRET must be set")
	}
	if c.Suppliers.Monroe.TokenDuration <= 0 {
		return fmt.Errorf("MONROE_TOKEN_DURATION must be positive")
	}
	if c.Comparison.LineConcurrency <= 0 {
		return fmt.Errorf("COMPARISON_LINE_CONCURRENCY must be positive")
	}
	if c.Comparison.Deadline <= 0 {
		return fmt.Errorf("COMPARISON_DEADLINE must be positive")
	}

	return nil
}

// Print prints configuration (excluding sensitive data)
func (c *Config) Print() {
	fmt.Printf("=== Configuration ===\n")
	fmt.Printf("App Name: %s\n", c.App.Name)
	fmt.Printf("Environment: %s\n", c.App.Environment)
	fmt.Printf("Port: %s\n", c.App.Port)
	fmt.Printf("Database: %s:%s/%s\n", c.Database.Host, c.Database.Port, c.Database.Name)
	fmt.Printf("Catalog: %s:%s/%s\n", c.Catalog.Host, c.Catalog.Port, c.Catalog.Name)
	fmt.Printf("Redis: %s:%s/%d\n", c.Redis.Host, c.Redis.Port, c.Redis.DB)
	fmt.Printf("Quantio: %s\n", c.Suppliers.Quantio.BaseURL)
	fmt.Printf("Monroe: %s (token ttl %v)\n", c.Suppliers.Monroe.BaseURL, c.Suppliers.Monroe.TokenTTL())
	fmt.Printf("Cofarsur: %s\n", c.Suppliers.Cofarsur.BaseURL)
	fmt.Printf("Suizo: %s\n", c.Suppliers.Suizo.BaseURL)
	fmt.Printf("====================\n")
}
