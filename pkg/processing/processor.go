package processing

import (
	"fmt"

	"github.com/open-teleop/rovcontrol/domain/control"
	"github.com/open-teleop/rovcontrol/pkg/telemetry"
)

// EncodeThrusterState encodes a snapshot as a ThrusterState flatbuffer.
func EncodeThrusterState(s control.Snapshot) ([]byte, error) {
	data := telemetry.Encode(s)
	if len(data) == 0 {
		return nil, fmt.Errorf("empty thruster state for snapshot %d", s.Sequence)
	}
	return data, nil
}
