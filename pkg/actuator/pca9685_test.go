package actuator

import (
	"errors"
	"testing"
)

type regWrite struct {
	reg byte
	buf []byte
}

type fakeRegisters struct {
	writes []regWrite
	failAt byte
	closed bool
}

func (f *fakeRegisters) WriteReg(reg byte, buf []byte) error {
	if f.failAt != 0 && reg == f.failAt {
		return errors.New("nack")
	}
	f.writes = append(f.writes, regWrite{reg: reg, buf: append([]byte(nil), buf...)})
	return nil
}

func (f *fakeRegisters) Close() error {
	f.closed = true
	return nil
}

// last returns the most recent write to reg.
func (f *fakeRegisters) last(reg byte) []byte {
	for i := len(f.writes) - 1; i >= 0; i-- {
		if f.writes[i].reg == reg {
			return f.writes[i].buf
		}
	}
	return nil
}

type fakeLine struct{ high bool }

func (l *fakeLine) High() { l.high = true }
func (l *fakeLine) Low()  { l.high = false }

func testChannelMap() []ChannelPins {
	return []ChannelPins{
		{Name: "H1", Wiring: WiringDirPWM, DirPin: 5, PWMPin: 0},
		{Name: "H2", Wiring: WiringDirPWM, DirPin: 6, PWMPin: 1},
		{Name: "H3", Wiring: WiringDirPWM, DirPin: 16, PWMPin: 2},
		{Name: "H4", Wiring: WiringDirPWM, DirPin: 20, PWMPin: 3},
		{Name: "V1", Wiring: WiringDualPWM, PWMPin: 4, ReversePWMPin: 5, EnablePin: 24},
		{Name: "V2", Wiring: WiringDualPWM, PWMPin: 6, ReversePWMPin: 7, EnablePin: 25},
	}
}

func newTestExpander(t *testing.T) (*ExpanderPort, *fakeRegisters, map[int]*fakeLine) {
	t.Helper()
	regs := &fakeRegisters{}
	lines := make(map[int]*fakeLine)
	line := func(pin int) DigitalLine {
		l := &fakeLine{}
		lines[pin] = l
		return l
	}
	port, err := NewExpanderPort(regs, line, testChannelMap(), 1000, 255)
	if err != nil {
		t.Fatalf("NewExpanderPort() error: %v", err)
	}
	return port, regs, lines
}

func ledReg(output int) byte { return byte(regLED0 + 4*output) }

func TestPrescale(t *testing.T) {
	tests := []struct {
		hz   int
		want byte
		ok   bool
	}{
		{1000, 5, true},
		{50, 121, true},
		{200, 30, true},
		{0, 0, false},
		{10, 0, false},
		{5000, 0, false},
	}
	for _, tt := range tests {
		got, err := Prescale(tt.hz)
		if (err == nil) != tt.ok || got != tt.want {
			t.Errorf("Prescale(%d) = %d, %v; want %d, ok=%v", tt.hz, got, err, tt.want, tt.ok)
		}
	}
}

func TestLedRegisters(t *testing.T) {
	tests := []struct {
		duty uint32
		want [4]byte
	}{
		{0, [4]byte{0, 0, 0, fullBit}},
		{255, [4]byte{0, fullBit, 0, 0}},
		{300, [4]byte{0, fullBit, 0, 0}},
		{127, [4]byte{0, 0, 0xF7, 0x07}},
		{1, [4]byte{0, 0, 16, 0}},
	}
	for _, tt := range tests {
		if got := ledRegisters(tt.duty, 255); got != tt.want {
			t.Errorf("ledRegisters(%d) = %v, want %v", tt.duty, got, tt.want)
		}
	}
}

func TestNewExpanderPortConfiguresChip(t *testing.T) {
	port, regs, lines := newTestExpander(t)

	if got := regs.last(regPrescale); len(got) != 1 || got[0] != 5 {
		t.Errorf("prescale = %v, want [5]", got)
	}
	if got := regs.last(regMode1); got[0] != mode1AutoInc|mode1Restart {
		t.Errorf("mode1 = %#02x, want auto-increment with restart", got[0])
	}
	for out := 0; out < 8; out++ {
		if got := regs.last(ledReg(out)); len(got) != 4 || got[3] != fullBit {
			t.Errorf("output %d not forced off at start: %v", out, got)
		}
	}
	for _, pin := range []int{5, 6, 16, 20, 24, 25} {
		if l := lines[pin]; l == nil || !l.high {
			t.Errorf("gpio %d not driven high at start", pin)
		}
	}
	if port.cycleLen != 255 {
		t.Errorf("cycle length = %d", port.cycleLen)
	}
}

func TestExpanderPortDirPWM(t *testing.T) {
	port, regs, lines := newTestExpander(t)

	if err := port.SetDirection(2, Reverse); err != nil {
		t.Fatalf("SetDirection() error: %v", err)
	}
	if lines[16].high {
		t.Error("reverse should pull the direction line low")
	}
	if err := port.SetDuty(2, 127); err != nil {
		t.Fatalf("SetDuty() error: %v", err)
	}
	if got := regs.last(ledReg(2)); got[2] != 0xF7 || got[3] != 0x07 {
		t.Errorf("output 2 = %v, want off count 2039", got)
	}
}

func TestExpanderPortDualPWM(t *testing.T) {
	port, regs, _ := newTestExpander(t)

	port.SetDirection(4, Forward)
	port.SetDuty(4, 255)
	if got := regs.last(ledReg(4)); got[1] != fullBit {
		t.Errorf("forward output = %v, want fully on", got)
	}
	if got := regs.last(ledReg(5)); got[3] != fullBit {
		t.Errorf("reverse output = %v, want off", got)
	}

	port.SetDirection(4, Reverse)
	port.SetDuty(4, 255)
	if got := regs.last(ledReg(4)); got[3] != fullBit {
		t.Errorf("forward output after reversing = %v, want off", got)
	}
	if got := regs.last(ledReg(5)); got[1] != fullBit {
		t.Errorf("reverse output = %v, want fully on", got)
	}

	if err := port.SetDuty(6, 1); err == nil {
		t.Error("expected an error for an out-of-range channel")
	}
}

func TestExpanderPortClose(t *testing.T) {
	port, regs, lines := newTestExpander(t)
	port.SetDuty(0, 200)

	if err := port.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if got := regs.last(ledReg(0)); got[3] != fullBit {
		t.Errorf("output 0 left on after Close: %v", got)
	}
	if lines[24].high || lines[25].high {
		t.Error("enable lines left high after Close")
	}
	if got := regs.last(regMode1); got[0] != mode1Sleep {
		t.Errorf("mode1 = %#02x after Close, want sleep", got[0])
	}
	if !regs.closed {
		t.Error("bus not closed")
	}
}

func TestNewExpanderPortBusError(t *testing.T) {
	regs := &fakeRegisters{failAt: regPrescale}
	_, err := NewExpanderPort(regs, func(int) DigitalLine { return &fakeLine{} }, testChannelMap(), 1000, 255)
	if err == nil {
		t.Fatal("expected an error when the prescaler write fails")
	}
}
