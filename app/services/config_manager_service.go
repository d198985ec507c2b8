package services

import (
	"context"
	"fmt"
	"os"
	"time"

	"PosTerminal/app/config"
	"PosTerminal/app/database"
)

// ConfigManagerService drives the first-run setup wizard
type ConfigManagerService struct {
	dir string
}

// NewConfigManagerService creates a new ConfigManagerService for the data directory dir
func NewConfigManagerService(dir string) *ConfigManagerService {
	return &ConfigManagerService{dir: dir}
}

// GetConfig returns the current configuration
func (s *ConfigManagerService) GetConfig() (*config.AppConfig, error) {
	return config.Load(s.dir)
}

// SaveConfig saves the configuration
func (s *ConfigManagerService) SaveConfig(cfg *config.AppConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	return config.Save(s.dir, cfg)
}

// ConfigExists checks if configuration exists
func (s *ConfigManagerService) ConfigExists() (bool, error) {
	_, err := os.Stat(config.GetConfigPath(s.dir))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// IsFirstRun checks if this is the first run
func (s *ConfigManagerService) IsFirstRun() (bool, error) {
	exists, err := s.ConfigExists()
	if err != nil {
		return false, err
	}
	if !exists {
		return true, nil
	}

	cfg, err := config.Load(s.dir)
	if err != nil {
		return false, err
	}
	return cfg.FirstRun, nil
}

// CreateDefaultConfig returns the configuration proposed by the wizard
func (s *ConfigManagerService) CreateDefaultConfig() *config.AppConfig {
	return config.Default(s.dir)
}

// TestDatabaseConnection tests the database connection with given parameters
func (s *ConfigManagerService) TestDatabaseConnection(dbConfig config.DatabaseConfig) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return database.Ping(ctx, dbConfig)
}

// CompleteSetup connects to the chosen backend, seeds it and clears the first run flag
func (s *ConfigManagerService) CompleteSetup(cfg *config.AppConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := database.Initialize(cfg); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := config.MarkSetupComplete(s.dir, cfg); err != nil {
		return fmt.Errorf("failed to mark setup complete: %w", err)
	}
	return nil
}

// GetConfigPath returns the path to the config file
func (s *ConfigManagerService) GetConfigPath() string {
	return config.GetConfigPath(s.dir)
}
