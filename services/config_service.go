package services

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/open-teleop/rovcontrol/pkg/config"
	customlog "github.com/open-teleop/rovcontrol/pkg/log"
)

// ErrInvalidConfig wraps parse and validation failures of a submitted config.
var ErrInvalidConfig = errors.New("invalid vehicle configuration")

// ConfigPublisher defines the interface for publishing configuration updates.
type ConfigPublisher interface {
	PublishConfigUpdatedNotification(cfg *config.VehicleConfig) error
}

// VehicleConfigService manages the vehicle config file. The active config is
// fixed for the life of the process; updates are validated and persisted
// for the next start.
type VehicleConfigService interface {
	GetActiveConfig() *config.VehicleConfig
	GetStoredConfig() *config.VehicleConfig
	GetCurrentConfigYAML() ([]byte, error)
	UpdateConfig(newConfigYAML []byte) error
	PendingRestart() bool
	SetPublisher(p ConfigPublisher)
}

type vehicleConfigService struct {
	path            string
	logger          customlog.Logger
	configPublisher ConfigPublisher
	active          *config.VehicleConfig
	stored          *config.VehicleConfig
	pending         bool
	mu              sync.RWMutex
}

// NewVehicleConfigService loads the vehicle config at path. A missing file
// falls back to the firmware defaults; an unreadable or invalid one is an error.
func NewVehicleConfigService(path string, logger customlog.Logger) (VehicleConfigService, error) {
	if path == "" {
		return nil, fmt.Errorf("vehicle configuration path cannot be empty")
	}

	cfg, err := config.LoadVehicleConfig(path)
	switch {
	case err == nil:
		logger.Infof("Loaded vehicle configuration %s (version %s) from %s", cfg.VehicleID, cfg.Version, path)
	case errors.Is(err, os.ErrNotExist):
		logger.Warnf("Vehicle configuration %s not found, using firmware defaults", path)
		cfg = config.DefaultVehicleConfig()
	default:
		return nil, err
	}

	return &vehicleConfigService{
		path:   path,
		logger: logger,
		active: cfg,
		stored: cfg,
	}, nil
}

// GetActiveConfig returns the configuration the pipeline was built from.
// Callers must treat it as read-only.
func (s *vehicleConfigService) GetActiveConfig() *config.VehicleConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// GetStoredConfig returns the configuration that the next start will use.
func (s *vehicleConfigService) GetStoredConfig() *config.VehicleConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stored
}

// GetCurrentConfigYAML returns the raw file content, or the active config
// rendered as YAML when no file exists yet.
func (s *vehicleConfigService) GetCurrentConfigYAML() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path)
	if err == nil {
		return data, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return s.stored.Marshal()
	}
	s.logger.Errorf("Error reading vehicle config file '%s': %v", s.path, err)
	return nil, fmt.Errorf("error reading vehicle config file '%s': %w", s.path, err)
}

// UpdateConfig validates and persists new YAML, then publishes a notification.
func (s *vehicleConfigService) UpdateConfig(newConfigYAML []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	newCfg, err := config.ParseVehicleConfig(newConfigYAML)
	if err != nil {
		s.logger.Warnf("Rejected vehicle configuration update: %v", err)
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if err := s.persistConfigUnlocked(newConfigYAML); err != nil {
		return err
	}

	s.stored = newCfg
	s.pending = true
	s.logger.Infof("Vehicle configuration %s version %s stored; applies on next start", newCfg.VehicleID, newCfg.Version)

	if s.configPublisher != nil {
		go func(publisher ConfigPublisher, cfg *config.VehicleConfig) {
			if err := publisher.PublishConfigUpdatedNotification(cfg); err != nil {
				s.logger.Warnf("Failed to publish config update notification: %v", err)
			}
		}(s.configPublisher, newCfg)
	}
	return nil
}

// PendingRestart reports whether a stored update differs from the active config.
func (s *vehicleConfigService) PendingRestart() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pending
}

func (s *vehicleConfigService) persistConfigUnlocked(yamlData []byte) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("error creating config directory for '%s': %w", s.path, err)
	}
	if err := os.WriteFile(s.path, yamlData, 0644); err != nil {
		s.logger.Errorf("Error writing vehicle config file '%s': %v", s.path, err)
		return fmt.Errorf("error writing vehicle config file '%s': %w", s.path, err)
	}
	return nil
}

// SetPublisher allows injecting the ConfigPublisher after initialization.
func (s *vehicleConfigService) SetPublisher(p ConfigPublisher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configPublisher = p
}
