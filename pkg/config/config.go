package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Platform names reported to the UI alongside scanner status.
const (
	PlatformKiosk       = "kiosk"
	PlatformDevelopment = "development"
)

type Config struct {
	Env        string
	Port       int
	APIPrefix  string
	TerminalID string

	Assignment AssignmentConfig
	Scanner    ScannerConfig
	Modal      ModalConfig
	Roster     RosterConfig
	Offline    OfflineConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Admin      AdminConfig
	CORS       CORSConfig
	Log        LogConfig
}

// AssignmentConfig points the agent at the remote assignment service.
type AssignmentConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
}

// ScannerConfig selects and tunes the scan acquisition adapter.
type ScannerConfig struct {
	Platform    string
	ForceMock   bool
	BridgeURL   string
	ScanTimeout time.Duration
	MockLatency time.Duration
	MockTags    []string
	MockSeed    int64
}

// ModalConfig tunes the scanning overlay timers. AutoClose must be at
// least the scanner scan timeout so the bridge, not the UI, decides the
// timeout outcome.
type ModalConfig struct {
	ScanAutoClose   time.Duration
	ResultAutoClose time.Duration
}

// RosterConfig governs the selection grid and roster caching.
type RosterConfig struct {
	PageSize int
	CacheTTL time.Duration
}

// OfflineConfig controls the pending-scan queue and its flusher.
type OfflineConfig struct {
	Enabled       bool
	FlushInterval time.Duration
	MaxAttempts   int
	QueueKey      string
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// AdminConfig guards maintenance endpoints with a device-local PIN.
type AdminConfig struct {
	PINHash string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")
	cfg.TerminalID = v.GetString("TERMINAL_ID")

	cfg.Assignment = AssignmentConfig{
		BaseURL:        strings.TrimRight(v.GetString("ASSIGNMENT_API_URL"), "/"),
		RequestTimeout: parseDuration(v.GetString("ASSIGNMENT_REQUEST_TIMEOUT"), 10*time.Second),
	}

	cfg.Scanner = ScannerConfig{
		Platform:    v.GetString("SCANNER_PLATFORM"),
		ForceMock:   v.GetBool("SCANNER_FORCE_MOCK"),
		BridgeURL:   strings.TrimRight(v.GetString("SCANNER_BRIDGE_URL"), "/"),
		ScanTimeout: parseDuration(v.GetString("SCANNER_SCAN_TIMEOUT"), 10*time.Second),
		MockLatency: parseDuration(v.GetString("SCANNER_MOCK_LATENCY"), 2*time.Second),
		MockTags:    splitAndTrim(v.GetString("SCANNER_MOCK_TAGS")),
		MockSeed:    v.GetInt64("SCANNER_MOCK_SEED"),
	}

	cfg.Modal = ModalConfig{
		ScanAutoClose:   parseDuration(v.GetString("MODAL_SCAN_AUTOCLOSE"), 12*time.Second),
		ResultAutoClose: parseDuration(v.GetString("MODAL_RESULT_AUTOCLOSE"), 5*time.Second),
	}
	if cfg.Modal.ScanAutoClose < cfg.Scanner.ScanTimeout {
		cfg.Modal.ScanAutoClose = cfg.Scanner.ScanTimeout
	}

	cfg.Roster = RosterConfig{
		PageSize: v.GetInt("ROSTER_PAGE_SIZE"),
		CacheTTL: parseDuration(v.GetString("ROSTER_CACHE_TTL"), 10*time.Minute),
	}

	cfg.Offline = OfflineConfig{
		Enabled:       v.GetBool("OFFLINE_QUEUE_ENABLED"),
		FlushInterval: parseDuration(v.GetString("OFFLINE_FLUSH_INTERVAL"), 5*time.Minute),
		MaxAttempts:   v.GetInt("OFFLINE_MAX_ATTEMPTS"),
		QueueKey:      v.GetString("OFFLINE_QUEUE_KEY"),
	}

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Admin = AdminConfig{
		PINHash: v.GetString("ADMIN_PIN_HASH"),
	}

	cfg.CORS = CORSConfig{
		AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS")),
	}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8090)
	v.SetDefault("API_PREFIX", "/api/v1")
	v.SetDefault("TERMINAL_ID", "kiosk-01")

	v.SetDefault("ASSIGNMENT_API_URL", "http://localhost:8000/api")
	v.SetDefault("ASSIGNMENT_REQUEST_TIMEOUT", "10s")

	v.SetDefault("SCANNER_PLATFORM", PlatformDevelopment)
	v.SetDefault("SCANNER_FORCE_MOCK", false)
	v.SetDefault("SCANNER_BRIDGE_URL", "http://localhost:9306")
	v.SetDefault("SCANNER_SCAN_TIMEOUT", "10s")
	v.SetDefault("SCANNER_MOCK_LATENCY", "2s")
	v.SetDefault("SCANNER_MOCK_TAGS", "")
	v.SetDefault("SCANNER_MOCK_SEED", 0)

	v.SetDefault("MODAL_SCAN_AUTOCLOSE", "12s")
	v.SetDefault("MODAL_RESULT_AUTOCLOSE", "5s")

	v.SetDefault("ROSTER_PAGE_SIZE", 10)
	v.SetDefault("ROSTER_CACHE_TTL", "10m")

	v.SetDefault("OFFLINE_QUEUE_ENABLED", true)
	v.SetDefault("OFFLINE_FLUSH_INTERVAL", "5m")
	v.SetDefault("OFFLINE_MAX_ATTEMPTS", 3)
	v.SetDefault("OFFLINE_QUEUE_KEY", "kiosk:pending_scans")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "kiosk_agent")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ADMIN_PIN_HASH", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
