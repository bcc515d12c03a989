// Package diagnostic reports the state of the thruster pipeline.
package diagnostic

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/open-teleop/rovcontrol/domain/control"
	"github.com/open-teleop/rovcontrol/pkg/thrust"
)

// ControlState is the read side of the control loop.
type ControlState interface {
	Snapshot() control.Snapshot
	Counters() control.Counters
	Policy() control.IncompletePolicy
}

// ThrusterStatus is one output channel as last driven
type ThrusterStatus struct {
	Channel   int     `json:"channel"`
	Name      string  `json:"name"`
	Force     float64 `json:"force"`
	Direction string  `json:"direction"`
	Duty      uint32  `json:"duty"`
}

// StatusReport represents thruster diagnostics information
type StatusReport struct {
	Timestamp time.Time                `json:"timestamp"`
	Uptime    string                   `json:"uptime"`
	VehicleID string                   `json:"vehicle_id"`
	Policy    control.IncompletePolicy `json:"incomplete_frame_policy"`
	Counters  control.Counters         `json:"counters"`
	Snapshot  control.Snapshot         `json:"snapshot"`
	Thrusters []ThrusterStatus         `json:"thrusters"`
	Sources   map[string]interface{}   `json:"sources,omitempty"`
}

// DiagnosticService collects thruster diagnostics
type DiagnosticService struct {
	mu        sync.RWMutex
	state     ControlState
	vehicleID string
	names     func(int) string
	started   time.Time
	sources   map[string]func() interface{}
	now       func() time.Time
}

// NewDiagnosticService creates a new diagnostic service instance. names maps
// a channel index to its configured thruster name.
func NewDiagnosticService(state ControlState, vehicleID string, names func(int) string) *DiagnosticService {
	return &DiagnosticService{
		state:     state,
		vehicleID: vehicleID,
		names:     names,
		started:   time.Now(),
		sources:   make(map[string]func() interface{}),
		now:       time.Now,
	}
}

// AddSource registers an extra status section, such as pool metrics.
func (s *DiagnosticService) AddSource(name string, fn func() interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources[name] = fn
}

// GetStatus assembles the current report.
func (s *DiagnosticService) GetStatus() StatusReport {
	snap := s.state.Snapshot()
	forces := snap.Allocation.Forces()

	thrusters := make([]ThrusterStatus, thrust.Thrusters)
	for i := range thrusters {
		thrusters[i] = ThrusterStatus{
			Channel:   i,
			Name:      s.names(i),
			Force:     forces[i],
			Direction: snap.Outputs[i].Direction.String(),
			Duty:      snap.Outputs[i].Duty,
		}
	}

	now := s.now()
	report := StatusReport{
		Timestamp: now,
		Uptime:    now.Sub(s.started).Truncate(time.Second).String(),
		VehicleID: s.vehicleID,
		Policy:    s.state.Policy(),
		Counters:  s.state.Counters(),
		Snapshot:  snap,
		Thrusters: thrusters,
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.sources) > 0 {
		report.Sources = make(map[string]interface{}, len(s.sources))
		for name, fn := range s.sources {
			report.Sources[name] = fn()
		}
	}
	return report
}

// Status implements the ZeroMQ status provider.
func (s *DiagnosticService) Status() interface{} {
	return s.GetStatus()
}

// GetStatusHandler handles API requests for thruster status
func (s *DiagnosticService) GetStatusHandler(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "success",
		"report": s.GetStatus(),
	})
}
