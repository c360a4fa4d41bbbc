package control

// EventKind tags a hardware or user event posted to the scheduler.
type EventKind uint8

const (
	// EventTick is one 1 kHz master clock period.
	EventTick EventKind = iota
	// EventPulseEdge is a speed sensor edge.
	EventPulseEdge
	// EventPhaseExpired is the PWM phase timer reaching zero.
	EventPhaseExpired
	// EventButton is the reset button; it clears the setpoint.
	EventButton
	// EventSetpoint carries a committed setpoint.
	EventSetpoint
	// EventStop returns the scheduler to Idle with the output low.
	EventStop
)

func (k EventKind) String() string {
	switch k {
	case EventTick:
		return "tick"
	case EventPulseEdge:
		return "pulse_edge"
	case EventPhaseExpired:
		return "phase_expired"
	case EventButton:
		return "button"
	case EventSetpoint:
		return "setpoint"
	case EventStop:
		return "stop"
	default:
		return "unknown"
	}
}

type Event struct {
	Kind     EventKind
	Setpoint uint32
}
