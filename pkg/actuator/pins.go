package actuator

import (
	"fmt"

	"github.com/open-teleop/rovcontrol/pkg/thrust"
)

// Wiring selects how a channel's driver is connected.
type Wiring string

const (
	// WiringDirPWM is one direction line plus one PWM output.
	WiringDirPWM Wiring = "dir_pwm"
	// WiringDualPWM is a pair of PWM outputs, one per direction, plus an optional enable line.
	WiringDualPWM Wiring = "dual_pwm"
)

// ChannelPins maps one thruster channel to its outputs. PWM fields are
// expander outputs (0-15); direction and enable fields are BCM GPIO numbers.
type ChannelPins struct {
	Name          string `yaml:"name" json:"name"`
	Wiring        Wiring `yaml:"wiring" json:"wiring"`
	DirPin        int    `yaml:"dir_pin,omitempty" json:"dir_pin,omitempty"`
	PWMPin        int    `yaml:"pwm_pin" json:"pwm_pin"`
	ReversePWMPin int    `yaml:"reverse_pwm_pin,omitempty" json:"reverse_pwm_pin,omitempty"`
	EnablePin     int    `yaml:"enable_pin,omitempty" json:"enable_pin,omitempty"`
}

const (
	// PWMOutputs is the number of outputs on one PCA9685.
	PWMOutputs = 16
	// maxBCMPin is the highest GPIO exposed on the 40-pin header.
	maxBCMPin = 27
)

// ValidatePins checks a full channel map before any hardware is touched.
// Every PWM output and every GPIO line may belong to one channel only.
func ValidatePins(pins []ChannelPins) error {
	if len(pins) != thrust.Thrusters {
		return fmt.Errorf("expected %d thruster channels, got %d", thrust.Thrusters, len(pins))
	}

	pwmOwner := make(map[int]int)
	gpioOwner := make(map[int]int)
	claim := func(owner map[int]int, kind string, pin, ch int) error {
		if prev, ok := owner[pin]; ok {
			return fmt.Errorf("channel %d: %s %d already used by channel %d", ch, kind, pin, prev)
		}
		owner[pin] = ch
		return nil
	}
	pwm := func(field string, pin, ch int) error {
		if pin < 0 || pin >= PWMOutputs {
			return fmt.Errorf("channel %d: %s: output %d outside 0-%d", ch, field, pin, PWMOutputs-1)
		}
		return claim(pwmOwner, "pwm output", pin, ch)
	}
	gpio := func(field string, pin, ch int) error {
		if pin < 0 || pin > maxBCMPin {
			return fmt.Errorf("channel %d: %s: gpio %d outside 0-%d", ch, field, pin, maxBCMPin)
		}
		return claim(gpioOwner, "gpio", pin, ch)
	}

	for i, p := range pins {
		if err := pwm("pwm_pin", p.PWMPin, i); err != nil {
			return err
		}
		switch p.Wiring {
		case WiringDirPWM:
			if err := gpio("dir_pin", p.DirPin, i); err != nil {
				return err
			}
		case WiringDualPWM:
			if err := pwm("reverse_pwm_pin", p.ReversePWMPin, i); err != nil {
				return err
			}
			if p.EnablePin != 0 {
				if err := gpio("enable_pin", p.EnablePin, i); err != nil {
					return err
				}
			}
		default:
			return fmt.Errorf("channel %d: unknown wiring %q", i, p.Wiring)
		}
	}
	return nil
}
