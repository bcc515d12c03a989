package thrust

import "fmt"

// Command is the body-frame force/torque request decoded from one operator frame.
type Command struct {
	Fx  float64 `json:"fx"`  // surge
	Fy  float64 `json:"fy"`  // sway
	Tau float64 `json:"tau"` // yaw
	Fz  float64 `json:"fz"`  // heave
	Tp  float64 `json:"tp"`  // pitch
}

// Neutral is the all-zero command used before any frame has arrived.
var Neutral = Command{}

// Horizontal returns the (Fx, Fy, Tau) input of the horizontal mixer.
func (c Command) Horizontal() [3]float64 {
	return [3]float64{c.Fx, c.Fy, c.Tau}
}

// Vertical returns the (Fz, Tp) input of the vertical mixer.
func (c Command) Vertical() [2]float64 {
	return [2]float64{c.Fz, c.Tp}
}

func (c Command) String() string {
	return fmt.Sprintf("Fx=%.3f Fy=%.3f Tau=%.3f Fz=%.3f Tp=%.3f", c.Fx, c.Fy, c.Tau, c.Fz, c.Tp)
}
