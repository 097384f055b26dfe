package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// ErrMissingConfig is returned by Validate when credentials or other required
// settings are absent. It is fatal: commands abort before touching any input.
var ErrMissingConfig = errors.New("missing required configuration")

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	StoreDriver string

	DatabaseURL      string
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	SQLitePath string

	MaxConcurrency    int
	RateLimitMs       int
	MaxRetries        int
	RequestTimeoutSec int
	UserAgent         string
	ChromeBin         string

	SeedsCSVPath   string
	CSVOutputPath  string
	JSONOutputPath string
	ImportCSVPath  string

	MissingLocationPolicy string
	LogLevel              string
}

// Load reads the .env file (or the files named in ENV_FILE, comma separated)
// and returns a populated Config.
func Load() *Config {
	var files []string
	if v := os.Getenv("ENV_FILE"); v != "" {
		files = strings.Split(v, ",")
	}
	if err := godotenv.Load(files...); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", DriverPostgres)),

		DatabaseURL:      getEnv("DATABASE_URL", ""),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "medindex"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", ""),
		PostgresDB:       getEnv("POSTGRES_DB", "medindex"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		SQLitePath: getEnv("SQLITE_PATH", "./output/schools.db"),

		MaxConcurrency:    getEnvInt("MAX_CONCURRENCY", 1),
		RateLimitMs:       getEnvInt("RATE_LIMIT_MS", 2000),
		MaxRetries:        getEnvInt("MAX_RETRIES", 3),
		RequestTimeoutSec: getEnvInt("REQUEST_TIMEOUT_SEC", 30),
		UserAgent:         getEnv("USER_AGENT", "MedIndex Scraper (+http://www.medindex.com)"),
		ChromeBin:         getEnv("CHROME_BIN", ""),

		SeedsCSVPath:   getEnv("SEEDS_CSV_PATH", "school_urls.csv"),
		CSVOutputPath:  getEnv("CSV_OUTPUT_PATH", "./output/medical_schools.csv"),
		JSONOutputPath: getEnv("JSON_OUTPUT_PATH", ""),
		ImportCSVPath:  getEnv("IMPORT_CSV_PATH", "./output/medical_schools.csv"),

		MissingLocationPolicy: strings.ToLower(getEnv("MISSING_LOCATION_POLICY", "placeholder")),
		LogLevel:              strings.ToLower(getEnv("LOG_LEVEL", "info")),
	}
}

// Validate checks that the selected store has what it needs to connect.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" && c.PostgresPassword == "" {
			return fmt.Errorf("%w: set DATABASE_URL or POSTGRES_PASSWORD", ErrMissingConfig)
		}
		if c.DatabaseURL == "" && (c.PostgresUser == "" || c.PostgresDB == "") {
			return fmt.Errorf("%w: POSTGRES_USER and POSTGRES_DB must not be empty", ErrMissingConfig)
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("%w: SQLITE_PATH", ErrMissingConfig)
		}
	default:
		return fmt.Errorf("%w: unknown STORE_DRIVER %q", ErrMissingConfig, c.StoreDriver)
	}
	return nil
}

// DSN returns the PostgreSQL connection string. DATABASE_URL wins when set.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}
