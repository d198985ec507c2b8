package config

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"PosTerminal/app/security"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

const (
	appDirName     = "PosTerminal"
	configFileName = "config.json"

	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// AppConfig holds all application configuration
type AppConfig struct {
	// Database Configuration
	Database DatabaseConfig `json:"database"`

	// Websocket / REST server for companion devices
	Server ServerConfig `json:"server"`

	// Business Information
	Business BusinessConfig `json:"business"`

	// Session token settings
	Auth AuthConfig `json:"auth"`

	// System Configuration
	System SystemConfig `json:"system"`

	// First run flag
	FirstRun bool `json:"first_run"`
}

// DatabaseConfig holds record store connection settings
type DatabaseConfig struct {
	Driver   string `json:"driver"` // "sqlite" or "postgres"
	Path     string `json:"path"`   // SQLite file
	URL      string `json:"url"`    // Full postgres DSN, wins over the fields below
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Database string `json:"database"`
	Username string `json:"username"`
	Password string `json:"password"`
	SSLMode  string `json:"ssl_mode"`
	Seed     bool   `json:"seed"`
}

// ServerConfig holds the websocket hub settings
type ServerConfig struct {
	Port       int  `json:"port"`
	EnableMDNS bool `json:"enable_mdns"`
}

// BusinessConfig holds business information used on tickets and totals
type BusinessConfig struct {
	Name    string          `json:"name"`
	TaxRate decimal.Decimal `json:"tax_rate"`
}

// AuthConfig holds session token settings
type AuthConfig struct {
	JWTSecret     string `json:"jwt_secret"`
	TokenTTLHours int    `json:"token_ttl_hours"`
}

// SystemConfig holds system settings
type SystemConfig struct {
	DataPath          string `json:"data_path"`
	LogDir            string `json:"log_dir"`
	Language          string `json:"language"`
	ToastTTLMillis    int    `json:"toast_ttl_ms"`
	LowStockThreshold int    `json:"low_stock_threshold"`
}

// ToastTTL returns the toast lifetime as a duration
func (c *AppConfig) ToastTTL() time.Duration {
	return time.Duration(c.System.ToastTTLMillis) * time.Millisecond
}

// TokenTTL returns the session token lifetime
func (c *AppConfig) TokenTTL() time.Duration {
	return time.Duration(c.Auth.TokenTTLHours) * time.Hour
}

// DataDir returns the directory holding config, key and local database.
// POS_DATA_DIR overrides the per-user config directory.
func DataDir() string {
	if dir := os.Getenv("POS_DATA_DIR"); dir != "" {
		return dir
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "data"
	}
	return filepath.Join(base, appDirName)
}

// GetConfigPath returns the path to the config file inside dir
func GetConfigPath(dir string) string {
	return filepath.Join(dir, configFileName)
}

// LoadEnv loads a .env file from the working directory (development only)
func LoadEnv() error {
	return godotenv.Load(".env")
}

// Default returns the configuration used before setup has been completed
func Default(dir string) *AppConfig {
	return &AppConfig{
		Database: DatabaseConfig{
			Driver:   DriverSQLite,
			Path:     filepath.Join(dir, "pos.db"),
			Host:     "localhost",
			Port:     5432,
			Database: "pos_terminal",
			Username: "postgres",
			SSLMode:  "disable",
			Seed:     true,
		},
		Server: ServerConfig{
			Port:       8080,
			EnableMDNS: true,
		},
		Business: BusinessConfig{
			Name:    "POS Terminal",
			TaxRate: decimal.RequireFromString("0.08"),
		},
		Auth: AuthConfig{
			TokenTTLHours: 12,
		},
		System: SystemConfig{
			DataPath:          dir,
			LogDir:            filepath.Join(dir, "logs"),
			Language:          "vi",
			ToastTTLMillis:    3000,
			LowStockThreshold: 10,
		},
		FirstRun: true,
	}
}

// Load reads dir/config.json, decrypts secrets and applies environment overrides.
// A missing file yields the default configuration.
func Load(dir string) (*AppConfig, error) {
	sealer := security.NewSealer(dir)

	cfg := Default(dir)
	data, err := os.ReadFile(GetConfigPath(dir))
	switch {
	case os.IsNotExist(err):
		// first run
	case err != nil:
		return nil, fmt.Errorf("could not read config file: %w", err)
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("could not parse config file: %w", err)
		}
		cfg.Database.Password = sealer.DecryptOrPlain(cfg.Database.Password)
		cfg.Database.URL = sealer.DecryptOrPlain(cfg.Database.URL)
		cfg.Auth.JWTSecret = sealer.DecryptOrPlain(cfg.Auth.JWTSecret)
	}

	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	if cfg.Auth.JWTSecret == "" {
		secret, err := randomSecret()
		if err != nil {
			return nil, err
		}
		cfg.Auth.JWTSecret = secret
	}
	return cfg, cfg.Validate()
}

// Save writes cfg to dir/config.json with secrets encrypted
func Save(dir string, cfg *AppConfig) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("could not create config directory: %w", err)
	}
	sealer := security.NewSealer(dir)

	// Encrypt a copy so the caller keeps plain values
	cfgCopy := *cfg
	var err error
	if cfgCopy.Database.Password, err = sealer.Encrypt(cfg.Database.Password); err != nil {
		return fmt.Errorf("could not encrypt database password: %w", err)
	}
	if cfgCopy.Database.URL, err = sealer.Encrypt(cfg.Database.URL); err != nil {
		return fmt.Errorf("could not encrypt database url: %w", err)
	}
	if cfgCopy.Auth.JWTSecret, err = sealer.Encrypt(cfg.Auth.JWTSecret); err != nil {
		return fmt.Errorf("could not encrypt jwt secret: %w", err)
	}

	data, err := json.MarshalIndent(&cfgCopy, "", "  ")
	if err != nil {
		return fmt.Errorf("could not marshal config: %w", err)
	}
	if err := os.WriteFile(GetConfigPath(dir), data, 0600); err != nil {
		return fmt.Errorf("could not write config file: %w", err)
	}
	return nil
}

// MarkSetupComplete clears the first run flag and persists the config
func MarkSetupComplete(dir string, cfg *AppConfig) error {
	cfg.FirstRun = false
	return Save(dir, cfg)
}

// ApplyEnv overrides cfg from environment variables
// Priority: DATABASE_URL > individual variables (DB_HOST, DB_PORT, etc.) > config.json
func ApplyEnv(cfg *AppConfig) error {
	if v := os.Getenv("DB_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
		if os.Getenv("DB_DRIVER") == "" {
			cfg.Database.Driver = DriverPostgres
		}
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("DB_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid DB_PORT %q: %w", v, err)
		}
		cfg.Database.Port = port
	}
	if v := os.Getenv("DB_USER"); v != "" {
		cfg.Database.Username = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		cfg.Database.Database = v
	}
	if v := os.Getenv("DB_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}
	if v := os.Getenv("WS_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid WS_PORT %q: %w", v, err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("TAX_RATE"); v != "" {
		rate, err := decimal.NewFromString(v)
		if err != nil {
			return fmt.Errorf("invalid TAX_RATE %q: %w", v, err)
		}
		cfg.Business.TaxRate = rate
	}
	return nil
}

// Validate checks the values the services depend on
func (c *AppConfig) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("database path is required for sqlite")
		}
	case DriverPostgres:
		if c.Database.URL == "" && c.Database.Host == "" {
			return fmt.Errorf("database host or url is required for postgres")
		}
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Business.TaxRate.IsNegative() {
		return fmt.Errorf("tax rate cannot be negative")
	}
	if c.System.ToastTTLMillis <= 0 {
		return fmt.Errorf("toast ttl must be positive")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	return nil
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("could not generate jwt secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
