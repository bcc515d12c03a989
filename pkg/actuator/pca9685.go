package actuator

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/open-teleop/rovcontrol/pkg/thrust"
	"github.com/stianeikeland/go-rpio/v4"
	"golang.org/x/exp/io/i2c"
)

// PCA9685 registers.
const (
	regMode1    = 0x00
	regMode2    = 0x01
	regLED0     = 0x06
	regPrescale = 0xFE

	mode1Sleep   = 0x10
	mode1AutoInc = 0x20
	mode1Restart = 0x80
	mode2OutDrv  = 0x04

	// fullBit in ON_H or OFF_H forces an output fully on or off.
	fullBit = 0x10

	pcaOscillatorHz = 25_000_000
	pcaSteps        = 4096
)

// DefaultPCA9685Address is the expander's address with no solder jumpers set.
const DefaultPCA9685Address = 0x40

// RegisterWriter is the register access the expander needs. *i2c.Device
// satisfies it.
type RegisterWriter interface {
	WriteReg(reg byte, buf []byte) error
	Close() error
}

// DigitalLine is a GPIO output. rpio.Pin satisfies it.
type DigitalLine interface {
	High()
	Low()
}

type expanderChannel struct {
	wiring  Wiring
	pwm     int
	reverse int
	dir     DigitalLine
	enable  DigitalLine
}

// ExpanderPort drives thrusters through a PCA9685 PWM expander on I2C, with
// direction and enable lines on the Raspberry Pi GPIO header.
type ExpanderPort struct {
	mu        sync.Mutex
	dev       RegisterWriter
	channels  [thrust.Thrusters]expanderChannel
	dirs      [thrust.Thrusters]Direction
	cycleLen  uint32
	closeGPIO func() error
}

// PCA9685Config locates the expander.
type PCA9685Config struct {
	Bus     string
	Address int
}

// OpenPCA9685 opens the expander and the GPIO header and configures every
// channel at zero duty. cycleLen is the duty range, normally the adapter's
// max duty.
func OpenPCA9685(cfg PCA9685Config, pins []ChannelPins, pwmHz int, cycleLen uint32) (*ExpanderPort, error) {
	if err := ValidatePins(pins); err != nil {
		return nil, err
	}
	dev, err := i2c.Open(&i2c.Devfs{Dev: cfg.Bus}, cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to open pca9685 at %s/%#02x: %w", cfg.Bus, cfg.Address, err)
	}
	if err := rpio.Open(); err != nil {
		dev.Close()
		return nil, fmt.Errorf("failed to open gpio: %w", err)
	}

	line := func(pin int) DigitalLine {
		p := rpio.Pin(pin)
		p.Output()
		return p
	}
	port, err := NewExpanderPort(dev, line, pins, pwmHz, cycleLen)
	if err != nil {
		dev.Close()
		rpio.Close()
		return nil, err
	}
	port.closeGPIO = rpio.Close
	return port, nil
}

// NewExpanderPort configures dev for pwmHz and drives every output off.
// line returns the GPIO output for a BCM pin number.
func NewExpanderPort(dev RegisterWriter, line func(pin int) DigitalLine, pins []ChannelPins, pwmHz int, cycleLen uint32) (*ExpanderPort, error) {
	if err := ValidatePins(pins); err != nil {
		return nil, err
	}
	if cycleLen == 0 {
		return nil, errors.New("duty cycle length must be positive")
	}
	prescale, err := Prescale(pwmHz)
	if err != nil {
		return nil, err
	}

	setup := []struct {
		reg byte
		val byte
	}{
		{regMode2, mode2OutDrv},
		{regMode1, mode1Sleep},
		{regPrescale, prescale},
		{regMode1, mode1AutoInc},
	}
	for _, w := range setup {
		if err := dev.WriteReg(w.reg, []byte{w.val}); err != nil {
			return nil, fmt.Errorf("pca9685 register %#02x: %w", w.reg, err)
		}
	}
	// The oscillator needs 500µs after leaving sleep before a restart.
	time.Sleep(time.Millisecond)
	if err := dev.WriteReg(regMode1, []byte{mode1AutoInc | mode1Restart}); err != nil {
		return nil, fmt.Errorf("pca9685 restart: %w", err)
	}

	p := &ExpanderPort{dev: dev, cycleLen: cycleLen, closeGPIO: func() error { return nil }}
	for i, cfg := range pins {
		ch := expanderChannel{wiring: cfg.Wiring, pwm: cfg.PWMPin, reverse: -1}
		if err := p.writeOutput(ch.pwm, 0); err != nil {
			return nil, err
		}
		switch cfg.Wiring {
		case WiringDirPWM:
			ch.dir = line(cfg.DirPin)
			ch.dir.High()
		case WiringDualPWM:
			ch.reverse = cfg.ReversePWMPin
			if err := p.writeOutput(ch.reverse, 0); err != nil {
				return nil, err
			}
			if cfg.EnablePin != 0 {
				ch.enable = line(cfg.EnablePin)
				ch.enable.High()
			}
		}
		p.channels[i] = ch
	}
	return p, nil
}

// Prescale returns the PCA9685 prescaler for a PWM frequency. The chip
// supports roughly 24 Hz to 1526 Hz.
func Prescale(pwmHz int) (byte, error) {
	if pwmHz <= 0 {
		return 0, fmt.Errorf("invalid pwm frequency %d Hz", pwmHz)
	}
	v := math.Round(float64(pcaOscillatorHz)/(pcaSteps*float64(pwmHz))) - 1
	if v < 3 || v > 255 {
		return 0, fmt.Errorf("pwm frequency %d Hz outside the pca9685 range", pwmHz)
	}
	return byte(v), nil
}

// ledRegisters encodes duty/cycleLen as the ON_L, ON_H, OFF_L, OFF_H bytes of
// one output.
func ledRegisters(duty, cycleLen uint32) [4]byte {
	switch {
	case duty == 0:
		return [4]byte{0, 0, 0, fullBit}
	case duty >= cycleLen:
		return [4]byte{0, fullBit, 0, 0}
	}
	off := duty * pcaSteps / cycleLen
	return [4]byte{0, 0, byte(off), byte(off >> 8)}
}

func (p *ExpanderPort) writeOutput(output int, duty uint32) error {
	regs := ledRegisters(duty, p.cycleLen)
	if err := p.dev.WriteReg(byte(regLED0+4*output), regs[:]); err != nil {
		return fmt.Errorf("pca9685 output %d: %w", output, err)
	}
	return nil
}

func (p *ExpanderPort) SetDirection(channel int, d Direction) error {
	if channel < 0 || channel >= thrust.Thrusters {
		return fmt.Errorf("channel %d out of range", channel)
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.dirs[channel] = d
	if ch := p.channels[channel]; ch.wiring == WiringDirPWM {
		if d == Forward {
			ch.dir.High()
		} else {
			ch.dir.Low()
		}
	}
	return nil
}

func (p *ExpanderPort) SetDuty(channel int, duty uint32) error {
	if channel < 0 || channel >= thrust.Thrusters {
		return fmt.Errorf("channel %d out of range", channel)
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	ch := p.channels[channel]
	if ch.wiring == WiringDirPWM {
		return p.writeOutput(ch.pwm, duty)
	}
	on, off := ch.pwm, ch.reverse
	if p.dirs[channel] == Reverse {
		on, off = off, on
	}
	if err := p.writeOutput(off, 0); err != nil {
		return err
	}
	return p.writeOutput(on, duty)
}

// Close turns every output off, drops the enable lines, puts the expander
// to sleep and releases the bus and GPIO.
func (p *ExpanderPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	for _, ch := range p.channels {
		errs = append(errs, p.writeOutput(ch.pwm, 0))
		if ch.wiring == WiringDualPWM {
			errs = append(errs, p.writeOutput(ch.reverse, 0))
		}
		if ch.enable != nil {
			ch.enable.Low()
		}
	}
	errs = append(errs,
		p.dev.WriteReg(regMode1, []byte{mode1Sleep}),
		p.dev.Close(),
		p.closeGPIO(),
	)
	return errors.Join(errs...)
}
