package control

import "time"

// SchedulerState is the master scheduler's state machine position.
type SchedulerState uint8

const (
	StateIdle SchedulerState = iota
	StateSampling
	StateEvaluating
)

func (s SchedulerState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSampling:
		return "sampling"
	case StateEvaluating:
		return "evaluating"
	default:
		return "unknown"
	}
}

// ControlState is the loop's working state. Only the scheduler's event loop
// writes it; other goroutines see it through a published Report.
type ControlState struct {
	// Setpoint is written by EventSetpoint/EventButton, read at evaluation.
	Setpoint uint32
	// Speed is the latest estimate, written at evaluation.
	Speed float64
	// Current is the latest averaged current in mA, written once per window.
	Current float64
	// Output is the clamped PID output, i.e. the duty percent.
	Output float64
	// LoopPeriod is the number of ticks between evaluations.
	LoopPeriod int
	// Ticks counts ticks since the last evaluation.
	Ticks int
	// QuietTicks counts ticks since the last pulse edge or drive start.
	QuietTicks int
	Stalled    bool
}

// Report is the once-per-second snapshot handed to the display path.
type Report struct {
	Seq uint64 `json:"seq"`

	AvgRPM     int     `json:"avg_rpm"`
	AvgCurrent float64 `json:"avg_current_ma"`

	Setpoint   uint32  `json:"setpoint"`
	Speed      float64 `json:"speed"`
	Duty       float64 `json:"duty"`
	LoopPeriod int     `json:"loop_period"`
	Stalled    bool    `json:"stalled"`

	ADCErrors int    `json:"adc_errors"`
	LastError string `json:"last_error,omitempty"`

	UpdatedAt time.Time `json:"updated_at_utc,omitempty"`
}
