package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/open-teleop/rovcontrol/pkg/actuator"
	"gopkg.in/yaml.v3"
)

// BootstrapFileName is read from the config directory at startup.
const BootstrapFileName = "controller_config.yaml"

// Frame sources the daemon can read operator frames from.
const (
	FrameSourceSerial    = "serial"
	FrameSourceWebsocket = "websocket"
)

// Actuator backends.
const (
	ActuatorSim  = "sim"
	ActuatorPCA9685 = "pca9685"
)

// BootstrapConfig holds the initial configuration loaded from controller_config.yaml
type BootstrapConfig struct {
	Logging    LoggingConfig         `yaml:"logging"`
	Server     BootstrapServerConfig `yaml:"server"`
	Control    ControlConfig         `yaml:"control"`
	Serial     SerialConfig          `yaml:"serial"`
	ZeroMQ     ZeroMQBootstrap       `yaml:"zeromq"`
	Processing ProcessingConfig      `yaml:"processing"`
	Data       DataConfig            `yaml:"data"`
	Actuator   ActuatorConfig        `yaml:"actuator"`
}

// LoggingConfig holds logging settings from bootstrap
type LoggingConfig struct {
	Level      string `yaml:"level"`
	LogPath    string `yaml:"log_path,omitempty"`
	MaxSizeMB  int    `yaml:"max_size_mb,omitempty"`
	MaxBackups int    `yaml:"max_backups,omitempty"`
	MaxAgeDays int    `yaml:"max_age_days,omitempty"`
	Compress   bool   `yaml:"compress,omitempty"`
}

// BootstrapServerConfig holds HTTP server settings
type BootstrapServerConfig struct {
	HTTPPort int `yaml:"http_port"`
}

// ControlConfig selects where frames come from.
type ControlConfig struct {
	FrameSource string `yaml:"frame_source"`
	// Pending websocket frames before new ones are dropped.
	ChannelQueueSize int `yaml:"channel_queue_size"`
	// How long the websocket source waits for a frame before reporting idle.
	ChannelTimeoutMs int `yaml:"channel_timeout_ms"`
}

// SerialConfig holds the topside link settings.
type SerialConfig struct {
	Port          string `yaml:"port"`
	Baud          int    `yaml:"baud"`
	ReadTimeoutMs int    `yaml:"read_timeout_ms"`
}

// ReadTimeout returns the per-frame deadline.
func (s SerialConfig) ReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeoutMs) * time.Millisecond
}

// ZeroMQBootstrap holds telemetry publisher settings. An empty
// RequestBindAddress disables the request/response endpoint.
type ZeroMQBootstrap struct {
	Enabled            bool   `yaml:"enabled"`
	PublishBindAddress string `yaml:"publish_bind_address"`
	RequestBindAddress string `yaml:"request_bind_address"`
	Topic              string `yaml:"topic"`
	SendHighWaterMark  int    `yaml:"send_high_water_mark"`
}

// ProcessingConfig holds telemetry worker configuration
type ProcessingConfig struct {
	TelemetryWorkers   int `yaml:"telemetry_workers"`
	TelemetryQueueSize int `yaml:"telemetry_queue_size"`
}

// DataConfig holds data directory settings from bootstrap
type DataConfig struct {
	Directory             string `yaml:"directory"`
	VehicleConfigFilename string `yaml:"vehicle_config_file"`
}

// VehicleConfigPath joins the data directory and vehicle config file name.
func (d DataConfig) VehicleConfigPath() string {
	return filepath.Join(d.Directory, d.VehicleConfigFilename)
}

// ActuatorConfig selects the thruster output backend.
type ActuatorConfig struct {
	Backend    string                 `yaml:"backend"`
	MaxDuty    uint32                 `yaml:"max_duty"`
	PWMHz      int                    `yaml:"pwm_hz"`
	I2CBus     string                 `yaml:"i2c_bus"`
	I2CAddress int                    `yaml:"i2c_address"`
	Channels   []actuator.ChannelPins `yaml:"channels,omitempty"`
}

// EnvOverrides are applied on top of the bootstrap file.
type EnvOverrides struct {
	LogLevel        string `env:"ROV_LOG_LEVEL"`
	HTTPPort        int    `env:"ROV_HTTP_PORT"`
	SerialPort      string `env:"ROV_SERIAL_PORT"`
	FrameSource     string `env:"ROV_FRAME_SOURCE"`
	ActuatorBackend string `env:"ROV_ACTUATOR_BACKEND"`
	ZeroMQEnabled   string `env:"ROV_ZMQ_ENABLED"`
}

// DefaultBootstrapConfig returns the settings used for fields the file leaves out.
func DefaultBootstrapConfig() BootstrapConfig {
	return BootstrapConfig{
		Logging: LoggingConfig{Level: "info"},
		Server:  BootstrapServerConfig{HTTPPort: 8080},
		Control: ControlConfig{
			FrameSource:      FrameSourceSerial,
			ChannelQueueSize: 4,
			ChannelTimeoutMs: 500,
		},
		Serial: SerialConfig{
			Port:          "/dev/ttyUSB0",
			Baud:          115200,
			ReadTimeoutMs: 1000,
		},
		ZeroMQ: ZeroMQBootstrap{
			PublishBindAddress: "tcp://*:5556",
			Topic:              "rov.thrusters",
			SendHighWaterMark:  100,
		},
		Processing: ProcessingConfig{
			TelemetryWorkers:   1,
			TelemetryQueueSize: 64,
		},
		Data: DataConfig{
			Directory:             "./config",
			VehicleConfigFilename: "vehicle_config.yaml",
		},
		Actuator: ActuatorConfig{
			Backend:    ActuatorSim,
			MaxDuty:    actuator.DefaultMaxDuty,
			PWMHz:      1000,
			I2CBus:     "/dev/i2c-1",
			I2CAddress: actuator.DefaultPCA9685Address,
		},
	}
}

// LoadBootstrapConfig loads the bootstrap configuration from controller_config.yaml
// and applies environment overrides.
func LoadBootstrapConfig(configDir string) (*BootstrapConfig, error) {
	bootstrapConfigPath := filepath.Join(configDir, BootstrapFileName)

	data, err := os.ReadFile(bootstrapConfigPath)
	if err != nil {
		return nil, fmt.Errorf("error reading bootstrap config file '%s': %w", bootstrapConfigPath, err)
	}

	bootstrapCfg := DefaultBootstrapConfig()
	if err := yaml.Unmarshal(data, &bootstrapCfg); err != nil {
		return nil, fmt.Errorf("error parsing bootstrap config file '%s': %w", bootstrapConfigPath, err)
	}

	if err := bootstrapCfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := bootstrapCfg.Validate(); err != nil {
		return nil, err
	}
	return &bootstrapCfg, nil
}

// ApplyEnv overrides fields from ROV_* environment variables.
func (c *BootstrapConfig) ApplyEnv() error {
	var o EnvOverrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("error parsing environment overrides: %w", err)
	}
	if o.LogLevel != "" {
		c.Logging.Level = o.LogLevel
	}
	if o.HTTPPort != 0 {
		c.Server.HTTPPort = o.HTTPPort
	}
	if o.SerialPort != "" {
		c.Serial.Port = o.SerialPort
	}
	if o.FrameSource != "" {
		c.Control.FrameSource = o.FrameSource
	}
	if o.ActuatorBackend != "" {
		c.Actuator.Backend = o.ActuatorBackend
	}
	if o.ZeroMQEnabled != "" {
		enabled, err := strconv.ParseBool(o.ZeroMQEnabled)
		if err != nil {
			return fmt.Errorf("invalid ROV_ZMQ_ENABLED %q: %w", o.ZeroMQEnabled, err)
		}
		c.ZeroMQ.Enabled = enabled
	}
	return nil
}

// Validate checks required fields and enumerations.
func (c *BootstrapConfig) Validate() error {
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid bootstrap config: server.http_port %d", c.Server.HTTPPort)
	}
	switch c.Control.FrameSource {
	case FrameSourceSerial:
		if c.Serial.Port == "" {
			return fmt.Errorf("missing required field in bootstrap config: serial.port")
		}
		if c.Serial.Baud <= 0 {
			return fmt.Errorf("invalid bootstrap config: serial.baud %d", c.Serial.Baud)
		}
		if c.Serial.ReadTimeoutMs <= 0 {
			return fmt.Errorf("invalid bootstrap config: serial.read_timeout_ms %d", c.Serial.ReadTimeoutMs)
		}
	case FrameSourceWebsocket:
	default:
		return fmt.Errorf("invalid bootstrap config: control.frame_source %q", c.Control.FrameSource)
	}
	if c.ZeroMQ.Enabled && c.ZeroMQ.PublishBindAddress == "" {
		return fmt.Errorf("missing required field in bootstrap config: zeromq.publish_bind_address")
	}
	if c.Data.Directory == "" {
		return fmt.Errorf("missing required field in bootstrap config: data.directory")
	}
	if c.Data.VehicleConfigFilename == "" {
		return fmt.Errorf("missing required field in bootstrap config: data.vehicle_config_file")
	}
	switch c.Actuator.Backend {
	case ActuatorSim:
	case ActuatorPCA9685:
		if err := actuator.ValidatePins(c.Actuator.Channels); err != nil {
			return fmt.Errorf("invalid bootstrap config: actuator.channels: %w", err)
		}
		if _, err := actuator.Prescale(c.Actuator.PWMHz); err != nil {
			return fmt.Errorf("invalid bootstrap config: actuator.pwm_hz: %w", err)
		}
		if c.Actuator.I2CBus == "" {
			return fmt.Errorf("missing required field in bootstrap config: actuator.i2c_bus")
		}
	default:
		return fmt.Errorf("invalid bootstrap config: actuator.backend %q", c.Actuator.Backend)
	}
	return nil
}
