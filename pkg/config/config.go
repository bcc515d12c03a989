package config

import (
	"fmt"
	"os"

	"github.com/open-teleop/rovcontrol/pkg/protocol"
	"github.com/open-teleop/rovcontrol/pkg/thrust"
	"gopkg.in/yaml.v3"
)

// VehicleConfig describes the vehicle's thruster geometry and frame handling.
// It is read once at startup; a running controller never picks up changes.
type VehicleConfig struct {
	Version     string              `yaml:"version" json:"version"`
	VehicleID   string              `yaml:"vehicle_id" json:"vehicle_id"`
	LastUpdated string              `yaml:"lastUpdated" json:"lastUpdated"`
	Mixing      MixingConfig        `yaml:"mixing" json:"mixing"`
	AxisScales  protocol.AxisScales `yaml:"axis_scales" json:"axis_scales"`
	Protocol    ProtocolConfig      `yaml:"protocol" json:"protocol"`
	Thrusters   []string            `yaml:"thrusters" json:"thrusters"`
}

// MixingConfig holds the mixing matrices and the per-group saturation limits.
type MixingConfig struct {
	Horizontal      [][]float64 `yaml:"horizontal" json:"horizontal"`
	Vertical        [][]float64 `yaml:"vertical" json:"vertical"`
	HorizontalLimit float64     `yaml:"horizontal_limit" json:"horizontal_limit"`
	VerticalLimit   float64     `yaml:"vertical_limit" json:"vertical_limit"`
}

// ProtocolConfig holds frame validation choices.
type ProtocolConfig struct {
	VerifyChecksum        bool   `yaml:"verify_checksum" json:"verify_checksum"`
	IncompleteFramePolicy string `yaml:"incomplete_frame_policy" json:"incomplete_frame_policy"`
}

// DefaultThrusterNames are the channel names in output order.
var DefaultThrusterNames = []string{"front_right", "front_left", "back_right", "back_left", "vertical_fore", "vertical_aft"}

// DefaultVehicleConfig returns the values flashed on the vehicle firmware.
func DefaultVehicleConfig() *VehicleConfig {
	return &VehicleConfig{
		Version:   "1.0",
		VehicleID: "rov",
		Mixing: MixingConfig{
			Horizontal:      copyRows(thrust.DefaultHorizontalRows),
			Vertical:        copyRows(thrust.DefaultVerticalRows),
			HorizontalLimit: 255,
			VerticalLimit:   255,
		},
		AxisScales: protocol.DefaultAxisScales(),
		Protocol: ProtocolConfig{
			IncompleteFramePolicy: "retain",
		},
		Thrusters: append([]string(nil), DefaultThrusterNames...),
	}
}

// LoadVehicleConfig reads and validates the vehicle config at path.
// Sections missing from the file keep their defaults.
func LoadVehicleConfig(path string) (*VehicleConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading vehicle config file: %w", err)
	}
	cfg, err := ParseVehicleConfig(data)
	if err != nil {
		return nil, fmt.Errorf("vehicle config '%s': %w", path, err)
	}
	return cfg, nil
}

// ParseVehicleConfig decodes YAML over the defaults and validates the result.
func ParseVehicleConfig(data []byte) (*VehicleConfig, error) {
	cfg := DefaultVehicleConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing vehicle config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks matrix shapes, limits, scales and policy names.
func (c *VehicleConfig) Validate() error {
	if _, err := thrust.NewHorizontalMatrix(c.Mixing.Horizontal); err != nil {
		return fmt.Errorf("mixing.horizontal: %w", err)
	}
	if _, err := thrust.NewVerticalMatrix(c.Mixing.Vertical); err != nil {
		return fmt.Errorf("mixing.vertical: %w", err)
	}
	if !(c.Mixing.HorizontalLimit > 0) {
		return fmt.Errorf("mixing.horizontal_limit must be positive, got %v", c.Mixing.HorizontalLimit)
	}
	if !(c.Mixing.VerticalLimit > 0) {
		return fmt.Errorf("mixing.vertical_limit must be positive, got %v", c.Mixing.VerticalLimit)
	}

	scales := map[string]float64{
		"surge": c.AxisScales.Surge,
		"sway":  c.AxisScales.Sway,
		"yaw":   c.AxisScales.Yaw,
		"heave": c.AxisScales.Heave,
		"pitch": c.AxisScales.Pitch,
	}
	for name, v := range scales {
		if !(v > 0) {
			return fmt.Errorf("axis_scales.%s must be positive, got %v", name, v)
		}
	}

	switch c.Protocol.IncompleteFramePolicy {
	case "retain", "neutral":
	default:
		return fmt.Errorf("protocol.incomplete_frame_policy %q is not retain or neutral", c.Protocol.IncompleteFramePolicy)
	}

	if len(c.Thrusters) != 0 && len(c.Thrusters) != thrust.Thrusters {
		return fmt.Errorf("thrusters: expected %d names, got %d", thrust.Thrusters, len(c.Thrusters))
	}
	return nil
}

// NewAllocator builds the allocator described by the mixing section.
func (c *VehicleConfig) NewAllocator() (*thrust.Allocator, error) {
	h, err := thrust.NewHorizontalMatrix(c.Mixing.Horizontal)
	if err != nil {
		return nil, fmt.Errorf("mixing.horizontal: %w", err)
	}
	v, err := thrust.NewVerticalMatrix(c.Mixing.Vertical)
	if err != nil {
		return nil, fmt.Errorf("mixing.vertical: %w", err)
	}
	return thrust.NewAllocator(h, v, c.Mixing.HorizontalLimit, c.Mixing.VerticalLimit)
}

// NewDecoder builds the frame decoder described by the protocol section.
func (c *VehicleConfig) NewDecoder() *protocol.Decoder {
	return protocol.NewDecoder(c.AxisScales, &protocol.DecoderOptions{
		VerifyChecksum: c.Protocol.VerifyChecksum,
	})
}

// ThrusterName returns the configured name of channel i.
func (c *VehicleConfig) ThrusterName(i int) string {
	if i >= 0 && i < len(c.Thrusters) {
		return c.Thrusters[i]
	}
	return fmt.Sprintf("T%d", i+1)
}

// Marshal renders the config as YAML.
func (c *VehicleConfig) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

func copyRows(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, r := range rows {
		out[i] = append([]float64(nil), r...)
	}
	return out
}
