package control

// The control loop talks to hardware only through these interfaces so the
// algorithms can run against simulated or fake devices.

// ADC reads one raw 12-bit conversion from the motor current channel.
type ADC interface {
	ReadADC() (uint16, error)
}

// Output drives the motor driver's enable line.
type Output interface {
	SetOutput(on bool) error
}

// PhaseTimer is the auto-reload countdown timer that ends each PWM phase.
//
// Arm stops the timer, loads reload (milliseconds) and restarts it. Once
// armed it keeps expiring every reload ms until re-armed or stopped.
type PhaseTimer interface {
	Arm(reload uint32) error
	Stop()
}

// FreeRunningTimer is the countdown timer restarted on every pulse edge.
// Remaining and Period are in timer ticks.
type FreeRunningTimer interface {
	Restart()
	Remaining() uint32
	Period() uint32
}

// Hardware bundles the devices a Scheduler needs.
type Hardware struct {
	ADC    ADC
	Output Output
	Phase  PhaseTimer
	Pulse  FreeRunningTimer
}
