package main

import (
	"errors"
	"strings"
	"testing"

	"github.com/open-teleop/rovcontrol/pkg/config"
	customlog "github.com/open-teleop/rovcontrol/pkg/log"
	"github.com/open-teleop/rovcontrol/pkg/protocol"
)

func newTestBench(t *testing.T) *bench {
	t.Helper()
	b, err := newBench(config.DefaultVehicleConfig(), customlog.NewNopLogger())
	if err != nil {
		t.Fatalf("newBench() error: %v", err)
	}
	return b
}

func TestBenchDecode(t *testing.T) {
	b := newTestBench(t)

	out, err := b.decode(strings.Fields("127 0 0 0 0 0 4"))
	if err != nil {
		t.Fatalf("decode() error: %v", err)
	}
	if out != "Fx=511.500 Fy=0.000 Tau=0.000 Fz=0.000 Tp=0.000 aux=100" {
		t.Errorf("unexpected decode output: %s", out)
	}

	if _, err := b.decode(strings.Fields("1 2 3")); err == nil {
		t.Error("Expected an error for a short frame")
	}
	if _, err := b.decode(strings.Fields("10 255 20 30 40 0 0 0")); !errors.Is(err, protocol.ErrIncompleteFrame) {
		t.Errorf("Expected ErrIncompleteFrame for an early terminator, got %v", err)
	}
	if _, err := b.decode(strings.Fields("1 2 x")); err == nil {
		t.Error("Expected an error for a non-numeric byte")
	}
	if _, err := b.decode(nil); err == nil {
		t.Error("Expected an error for no bytes")
	}
}

func TestBenchEncode(t *testing.T) {
	b := newTestBench(t)

	out, err := b.encode(strings.Fields("1 0 0 0 0 0x04"))
	if err != nil {
		t.Fatalf("encode() error: %v", err)
	}
	if !strings.HasPrefix(out, "254 0 0 0 0 0 4 ") || !strings.HasSuffix(out, " 255") {
		t.Errorf("unexpected frame: %s", out)
	}

	if _, err := b.encode(strings.Fields("1 0")); err == nil {
		t.Error("Expected an error for missing axes")
	}
}

func TestBenchMixSaturates(t *testing.T) {
	b := newTestBench(t)

	out, err := b.mix(strings.Fields("1023 0 0 0 0"))
	if err != nil {
		t.Fatalf("mix() error: %v", err)
	}
	if !strings.Contains(out, "F1: 255.00 F2: 255.00 F3: -255.00 F4: -255.00") {
		t.Errorf("unexpected mix output: %s", out)
	}
	if !strings.Contains(out, "vertical=1.0000") {
		t.Errorf("vertical group should be unscaled: %s", out)
	}
}

func TestBenchCycle(t *testing.T) {
	b := newTestBench(t)

	out, err := b.cycle(strings.Fields("127 0 0 0 0 0"))
	if err != nil {
		t.Fatalf("cycle() error: %v", err)
	}
	if !strings.HasPrefix(out, "cycle 1 applied") {
		t.Errorf("unexpected cycle header: %s", out)
	}
	if !strings.Contains(out, "back_right") || !strings.Contains(out, "reverse duty=127") {
		t.Errorf("unexpected outputs: %s", out)
	}

	out, err = b.cycle(strings.Fields("1 2"))
	if err != nil {
		t.Fatalf("cycle() on a short frame error: %v", err)
	}
	if !strings.Contains(out, "retained") {
		t.Errorf("short frame should retain the last command: %s", out)
	}
}
