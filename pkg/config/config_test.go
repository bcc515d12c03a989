package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/open-teleop/rovcontrol/pkg/actuator"
	"github.com/open-teleop/rovcontrol/pkg/protocol"
	"github.com/open-teleop/rovcontrol/pkg/thrust"
)

func TestLoadVehicleConfig(t *testing.T) {
	tempDir := t.TempDir()

	configContent := `
version: "1.1"
vehicle_id: "test-rov"
lastUpdated: "2024-01-01T00:00:00Z"

mixing:
  horizontal:
    - [0.25, 0.25, 0.5]
    - [0.25, -0.25, -0.5]
    - [-0.25, 0.25, -0.5]
    - [-0.25, -0.25, 0.5]
  vertical:
    - [0.5, 1]
    - [0.5, -1]
  horizontal_limit: 200
  vertical_limit: 180

protocol:
  verify_checksum: true
  incomplete_frame_policy: "neutral"
`

	configPath := filepath.Join(tempDir, "vehicle_config.yaml")
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	config, err := LoadVehicleConfig(configPath)
	if err != nil {
		t.Fatalf("LoadVehicleConfig failed: %v", err)
	}

	if config.Version != "1.1" {
		t.Errorf("Expected version 1.1, got %s", config.Version)
	}
	if config.VehicleID != "test-rov" {
		t.Errorf("Expected vehicle_id test-rov, got %s", config.VehicleID)
	}
	if config.Mixing.HorizontalLimit != 200 || config.Mixing.VerticalLimit != 180 {
		t.Errorf("Expected limits 200/180, got %v/%v", config.Mixing.HorizontalLimit, config.Mixing.VerticalLimit)
	}
	if !config.Protocol.VerifyChecksum {
		t.Errorf("Expected verify_checksum true")
	}
	if config.Protocol.IncompleteFramePolicy != "neutral" {
		t.Errorf("Expected incomplete_frame_policy neutral, got %s", config.Protocol.IncompleteFramePolicy)
	}

	// Sections left out of the file keep their defaults
	if config.AxisScales != protocol.DefaultAxisScales() {
		t.Errorf("Expected default axis scales, got %+v", config.AxisScales)
	}
	if len(config.Thrusters) != thrust.Thrusters {
		t.Errorf("Expected %d default thruster names, got %d", thrust.Thrusters, len(config.Thrusters))
	}
}

func TestVehicleConfigBuildsPipeline(t *testing.T) {
	config := DefaultVehicleConfig()
	config.AxisScales.Pitch = 100

	alloc, err := config.NewAllocator()
	if err != nil {
		t.Fatalf("NewAllocator failed: %v", err)
	}
	if alloc.HorizontalLimit() != 255 || alloc.VerticalLimit() != 255 {
		t.Errorf("Expected default limits 255/255, got %v/%v", alloc.HorizontalLimit(), alloc.VerticalLimit())
	}

	cmd, err := config.NewDecoder().Decode([]byte{0, 0, 254, 0, 0, 0})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if cmd.Tp != 100 {
		t.Errorf("Expected configured pitch scale 100, got %v", cmd.Tp)
	}
}

func TestDefaultVehicleConfigIsIsolated(t *testing.T) {
	a := DefaultVehicleConfig()
	a.Mixing.Horizontal[0][0] = 9
	a.Thrusters[0] = "changed"

	b := DefaultVehicleConfig()
	if b.Mixing.Horizontal[0][0] != 0.25 {
		t.Errorf("Default matrix was mutated through a previous copy")
	}
	if thrust.DefaultHorizontalRows[0][0] != 0.25 {
		t.Errorf("Package default rows were mutated")
	}
	if b.Thrusters[0] != "front_right" {
		t.Errorf("Default thruster names were mutated")
	}
}

func TestVehicleConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *VehicleConfig)
		wantErr string
	}{
		{"short horizontal matrix", func(c *VehicleConfig) { c.Mixing.Horizontal = c.Mixing.Horizontal[:3] }, "mixing.horizontal"},
		{"ragged vertical matrix", func(c *VehicleConfig) { c.Mixing.Vertical[1] = []float64{1} }, "mixing.vertical"},
		{"zero horizontal limit", func(c *VehicleConfig) { c.Mixing.HorizontalLimit = 0 }, "mixing.horizontal_limit"},
		{"negative vertical limit", func(c *VehicleConfig) { c.Mixing.VerticalLimit = -1 }, "mixing.vertical_limit"},
		{"zero axis scale", func(c *VehicleConfig) { c.AxisScales.Heave = 0 }, "axis_scales.heave"},
		{"unknown incomplete policy", func(c *VehicleConfig) { c.Protocol.IncompleteFramePolicy = "hold" }, "incomplete_frame_policy"},
		{"wrong thruster count", func(c *VehicleConfig) { c.Thrusters = []string{"a"} }, "thrusters"},
	}

	if err := DefaultVehicleConfig().Validate(); err != nil {
		t.Fatalf("Default config should validate, got: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultVehicleConfig()
			tt.mutate(config)
			err := config.Validate()
			if err == nil {
				t.Fatalf("Expected validation error containing '%s', got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error to contain '%s', got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestParseVehicleConfigRoundTrip(t *testing.T) {
	original := DefaultVehicleConfig()
	original.VehicleID = "round-trip"

	data, err := original.Marshal()
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	parsed, err := ParseVehicleConfig(data)
	if err != nil {
		t.Fatalf("ParseVehicleConfig failed: %v", err)
	}
	if parsed.VehicleID != "round-trip" {
		t.Errorf("Expected vehicle_id round-trip, got %s", parsed.VehicleID)
	}

	if _, err := ParseVehicleConfig([]byte("mixing: [")); err == nil {
		t.Errorf("Expected a parse error for malformed YAML")
	}
}

func TestThrusterName(t *testing.T) {
	config := DefaultVehicleConfig()
	if config.ThrusterName(4) != "vertical_fore" {
		t.Errorf("Expected vertical_fore, got %s", config.ThrusterName(4))
	}
	config.Thrusters = nil
	if config.ThrusterName(2) != "T3" {
		t.Errorf("Expected fallback name T3, got %s", config.ThrusterName(2))
	}
}

func TestLoadBootstrapConfig(t *testing.T) {
	tempDir := t.TempDir()

	bootstrapContent := `
logging:
  level: "debug"
  log_path: "/var/log/rovcontrol"
  max_size_mb: 5
server:
  http_port: 9090
control:
  frame_source: "websocket"
  channel_queue_size: 8
zeromq:
  enabled: true
  publish_bind_address: "tcp://*:7777"
  topic: "test.thrusters"
data:
  directory: "/data/rov"
  vehicle_config_file: "my_vehicle.yaml"
processing:
  telemetry_workers: 2
  telemetry_queue_size: 16
actuator:
  backend: "sim"
  max_duty: 1023
`
	configPath := filepath.Join(tempDir, BootstrapFileName)
	if err := os.WriteFile(configPath, []byte(bootstrapContent), 0644); err != nil {
		t.Fatalf("Failed to write test bootstrap config: %v", err)
	}

	bootstrapCfg, err := LoadBootstrapConfig(tempDir)
	if err != nil {
		t.Fatalf("LoadBootstrapConfig failed: %v", err)
	}

	if bootstrapCfg.Logging.Level != "debug" {
		t.Errorf("Expected logging level 'debug', got '%s'", bootstrapCfg.Logging.Level)
	}
	if bootstrapCfg.Logging.LogPath != "/var/log/rovcontrol" {
		t.Errorf("Expected log path '/var/log/rovcontrol', got '%s'", bootstrapCfg.Logging.LogPath)
	}
	if bootstrapCfg.Server.HTTPPort != 9090 {
		t.Errorf("Expected server http_port 9090, got %d", bootstrapCfg.Server.HTTPPort)
	}
	if bootstrapCfg.Control.FrameSource != FrameSourceWebsocket {
		t.Errorf("Expected frame_source websocket, got '%s'", bootstrapCfg.Control.FrameSource)
	}
	if bootstrapCfg.Control.ChannelQueueSize != 8 {
		t.Errorf("Expected channel_queue_size 8, got %d", bootstrapCfg.Control.ChannelQueueSize)
	}
	if bootstrapCfg.Control.ChannelTimeoutMs != 500 {
		t.Errorf("Expected default channel_timeout_ms 500, got %d", bootstrapCfg.Control.ChannelTimeoutMs)
	}
	if !bootstrapCfg.ZeroMQ.Enabled || bootstrapCfg.ZeroMQ.PublishBindAddress != "tcp://*:7777" {
		t.Errorf("Expected zeromq enabled on 'tcp://*:7777', got %+v", bootstrapCfg.ZeroMQ)
	}
	if bootstrapCfg.ZeroMQ.Topic != "test.thrusters" {
		t.Errorf("Expected zeromq topic 'test.thrusters', got '%s'", bootstrapCfg.ZeroMQ.Topic)
	}
	if bootstrapCfg.Data.VehicleConfigPath() != filepath.Join("/data/rov", "my_vehicle.yaml") {
		t.Errorf("Unexpected vehicle config path '%s'", bootstrapCfg.Data.VehicleConfigPath())
	}
	if bootstrapCfg.Processing.TelemetryWorkers != 2 || bootstrapCfg.Processing.TelemetryQueueSize != 16 {
		t.Errorf("Expected processing 2/16, got %+v", bootstrapCfg.Processing)
	}
	if bootstrapCfg.Actuator.MaxDuty != 1023 {
		t.Errorf("Expected actuator max_duty 1023, got %d", bootstrapCfg.Actuator.MaxDuty)
	}
	if bootstrapCfg.Serial.Baud != 115200 {
		t.Errorf("Expected default serial baud 115200, got %d", bootstrapCfg.Serial.Baud)
	}
}

func TestLoadBootstrapConfigEnvOverrides(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, BootstrapFileName)
	if err := os.WriteFile(configPath, []byte("logging:\n  level: info\n"), 0644); err != nil {
		t.Fatalf("Failed to write test bootstrap config: %v", err)
	}

	t.Setenv("ROV_LOG_LEVEL", "warn")
	t.Setenv("ROV_HTTP_PORT", "8181")
	t.Setenv("ROV_SERIAL_PORT", "/dev/ttyAMA0")
	t.Setenv("ROV_ZMQ_ENABLED", "true")

	bootstrapCfg, err := LoadBootstrapConfig(tempDir)
	if err != nil {
		t.Fatalf("LoadBootstrapConfig failed: %v", err)
	}
	if bootstrapCfg.Logging.Level != "warn" {
		t.Errorf("Expected env log level 'warn', got '%s'", bootstrapCfg.Logging.Level)
	}
	if bootstrapCfg.Server.HTTPPort != 8181 {
		t.Errorf("Expected env http port 8181, got %d", bootstrapCfg.Server.HTTPPort)
	}
	if bootstrapCfg.Serial.Port != "/dev/ttyAMA0" {
		t.Errorf("Expected env serial port '/dev/ttyAMA0', got '%s'", bootstrapCfg.Serial.Port)
	}
	if !bootstrapCfg.ZeroMQ.Enabled {
		t.Errorf("Expected ROV_ZMQ_ENABLED to enable the publisher")
	}

	t.Setenv("ROV_ZMQ_ENABLED", "sometimes")
	if _, err := LoadBootstrapConfig(tempDir); err == nil {
		t.Errorf("Expected an error for an invalid ROV_ZMQ_ENABLED value")
	}
}

func TestLoadBootstrapConfigInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing data directory",
			content: "data:\n  directory: \"\"\n",
			wantErr: "missing required field in bootstrap config: data.directory",
		},
		{
			name:    "unknown frame source",
			content: "control:\n  frame_source: \"can\"\n",
			wantErr: "control.frame_source",
		},
		{
			name:    "pca9685 without channels",
			content: "actuator:\n  backend: \"pca9685\"\n",
			wantErr: "actuator.channels",
		},
		{
			name:    "retired rpio backend",
			content: "actuator:\n  backend: \"rpio\"\n",
			wantErr: "actuator.backend",
		},
		{
			name:    "unknown actuator backend",
			content: "actuator:\n  backend: \"i2c\"\n",
			wantErr: "actuator.backend",
		},
		{
			name:    "empty serial port",
			content: "serial:\n  port: \"\"\n",
			wantErr: "serial.port",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tempDir := t.TempDir()
			configPath := filepath.Join(tempDir, BootstrapFileName)
			if err := os.WriteFile(configPath, []byte(tt.content), 0644); err != nil {
				t.Fatalf("Failed to write test bootstrap config: %v", err)
			}

			_, err := LoadBootstrapConfig(tempDir)
			if err == nil {
				t.Fatalf("Expected error containing '%s', got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error message to contain '%s', but got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadBootstrapConfigMissingFile(t *testing.T) {
	if _, err := LoadBootstrapConfig(t.TempDir()); err == nil {
		t.Errorf("Expected error for a missing bootstrap file")
	}
}

func TestShippedConfigFilesLoad(t *testing.T) {
	bootstrap, err := LoadBootstrapConfig("../../config")
	if err != nil {
		t.Fatalf("shipped bootstrap config failed to load: %v", err)
	}
	if err := actuator.ValidatePins(bootstrap.Actuator.Channels); err != nil {
		t.Errorf("shipped actuator pins invalid: %v", err)
	}
	hardware := *bootstrap
	hardware.Actuator.Backend = ActuatorPCA9685
	if err := hardware.Validate(); err != nil {
		t.Errorf("shipped config does not validate for the pca9685 backend: %v", err)
	}
	if bootstrap.Actuator.I2CAddress != actuator.DefaultPCA9685Address {
		t.Errorf("i2c_address = %#x, want %#x", bootstrap.Actuator.I2CAddress, actuator.DefaultPCA9685Address)
	}

	vehicle, err := LoadVehicleConfig("../../config/vehicle_config.yaml")
	if err != nil {
		t.Fatalf("shipped vehicle config failed to load: %v", err)
	}
	if !reflect.DeepEqual(vehicle.Mixing, DefaultVehicleConfig().Mixing) {
		t.Errorf("shipped mixing differs from the firmware defaults: %+v", vehicle.Mixing)
	}
}
