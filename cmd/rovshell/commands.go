package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/abiosoft/ishell/v2"
	"github.com/open-teleop/rovcontrol/domain/control"
	"github.com/open-teleop/rovcontrol/pkg/actuator"
	"github.com/open-teleop/rovcontrol/pkg/config"
	customlog "github.com/open-teleop/rovcontrol/pkg/log"
	"github.com/open-teleop/rovcontrol/pkg/protocol"
	"github.com/open-teleop/rovcontrol/pkg/telemetry"
	"github.com/open-teleop/rovcontrol/pkg/thrust"
)

// bench is the controller pipeline driving a simulated port.
type bench struct {
	vehicle    *config.VehicleConfig
	decoder    *protocol.Decoder
	encoder    *protocol.Encoder
	allocator  *thrust.Allocator
	controller *control.Controller
	port       *actuator.RecordingPort
}

func newBench(vehicle *config.VehicleConfig, logger customlog.Logger) (*bench, error) {
	allocator, err := vehicle.NewAllocator()
	if err != nil {
		return nil, err
	}
	policy, err := control.ParseIncompletePolicy(vehicle.Protocol.IncompleteFramePolicy)
	if err != nil {
		return nil, err
	}
	port := actuator.NewRecordingPort(64)
	decoder := vehicle.NewDecoder()
	return &bench{
		vehicle:   vehicle,
		decoder:   decoder,
		encoder:   protocol.NewEncoder(protocol.DefaultDeadzone),
		allocator: allocator,
		controller: control.NewController(decoder, allocator,
			actuator.NewAdapter(port, actuator.DefaultMaxDuty, logger), &control.Options{Policy: policy}, logger),
		port: port,
	}, nil
}

func (b *bench) commands() []*ishell.Cmd {
	return []*ishell.Cmd{
		{
			Name: "decode",
			Help: "decode <b0> <b1> ... decode frame bytes into a command",
			Func: func(c *ishell.Context) {
				out, err := b.decode(c.Args)
				if err != nil {
					c.Err(err)
					return
				}
				c.Println(out)
			},
		},
		{
			Name: "encode",
			Help: "encode <surge> <sway> <pitch> <yaw> <heave> [aux] build a frame from stick values in [-1,1]",
			Func: func(c *ishell.Context) {
				out, err := b.encode(c.Args)
				if err != nil {
					c.Err(err)
					return
				}
				c.Println(out)
			},
		},
		{
			Name: "mix",
			Help: "mix <fx> <fy> <tau> <fz> <tp> allocate a command to thruster forces",
			Func: func(c *ishell.Context) {
				out, err := b.mix(c.Args)
				if err != nil {
					c.Err(err)
					return
				}
				c.Println(out)
			},
		},
		{
			Name: "cycle",
			Help: "cycle <b0> <b1> ... run one control cycle on the simulated outputs",
			Func: func(c *ishell.Context) {
				out, err := b.cycle(c.Args)
				if err != nil {
					c.Err(err)
					return
				}
				c.Println(out)
			},
		},
		{
			Name: "config",
			Help: "print the vehicle configuration",
			Func: func(c *ishell.Context) {
				data, err := b.vehicle.Marshal()
				if err != nil {
					c.Err(err)
					return
				}
				c.Print(string(data))
			},
		},
	}
}

func (b *bench) decode(args []string) (string, error) {
	frame, err := parseBytes(args)
	if err != nil {
		return "", err
	}
	frame = protocol.Trim(frame)
	cmd, err := b.decoder.Decode(frame)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s aux=%03b", cmd, protocol.Aux(frame)), nil
}

func (b *bench) encode(args []string) (string, error) {
	if len(args) != 5 && len(args) != 6 {
		return "", fmt.Errorf("expected 5 axis values and an optional aux byte, got %d arguments", len(args))
	}
	v, err := parseFloats(args[:5])
	if err != nil {
		return "", err
	}
	intent := protocol.Intent{Surge: v[0], Sway: v[1], Pitch: v[2], Yaw: v[3], Heave: v[4]}
	if len(args) == 6 {
		aux, err := parseBytes(args[5:])
		if err != nil {
			return "", err
		}
		intent.Aux = aux[0]
	}
	return formatBytes(b.encoder.Encode(intent)), nil
}

func (b *bench) mix(args []string) (string, error) {
	if len(args) != 5 {
		return "", fmt.Errorf("expected fx fy tau fz tp, got %d arguments", len(args))
	}
	v, err := parseFloats(args)
	if err != nil {
		return "", err
	}
	alloc := b.allocator.Allocate(thrust.Command{Fx: v[0], Fy: v[1], Tau: v[2], Fz: v[3], Tp: v[4]})
	return fmt.Sprintf("%s\nscale: horizontal=%.4f vertical=%.4f",
		telemetry.FormatForces(alloc.Forces()), alloc.HorizontalScale, alloc.VerticalScale), nil
}

func (b *bench) cycle(args []string) (string, error) {
	frame, err := parseBytes(args)
	if err != nil {
		return "", err
	}
	snap, err := b.controller.Cycle(frame, nil)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "cycle %d %s", snap.Sequence, snap.Outcome)
	if snap.Error != "" {
		fmt.Fprintf(&sb, " (%s)", snap.Error)
	}
	sb.WriteString("\n")
	sb.WriteString(telemetry.FormatForces(snap.Allocation.Forces()))
	for i, out := range b.port.State() {
		fmt.Fprintf(&sb, "\n  %-14s %-7s duty=%d", b.vehicle.ThrusterName(i), out.Direction, out.Duty)
	}
	return sb.String(), nil
}

func parseBytes(args []string) ([]byte, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("no bytes given")
	}
	out := make([]byte, len(args))
	for i, a := range args {
		v, err := strconv.ParseUint(a, 0, 8)
		if err != nil {
			return nil, fmt.Errorf("byte %d: %w", i, err)
		}
		out[i] = byte(v)
	}
	return out, nil
}

func parseFloats(args []string) ([]float64, error) {
	out := make([]float64, len(args))
	for i, a := range args {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return nil, fmt.Errorf("value %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func formatBytes(b []byte) string {
	parts := make([]string, len(b))
	for i, v := range b {
		parts[i] = strconv.Itoa(int(v))
	}
	return strings.Join(parts, " ")
}
