package control

// LoopPeriodFor returns the number of 1 kHz ticks between PID evaluations for
// a setpoint. Faster targets are evaluated more often.
func LoopPeriodFor(setpoint uint32) int {
	switch {
	case setpoint > 250:
		return 30
	case setpoint > 100:
		return 40
	case setpoint > 50:
		return 100
	default:
		return 200
	}
}
