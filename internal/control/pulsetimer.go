package control

// PulseTimer measures how far the motor has turned toward the next pulse.
type PulseTimer struct {
	t FreeRunningTimer
}

func NewPulseTimer(t FreeRunningTimer) *PulseTimer {
	return &PulseTimer{t: t}
}

// Restart is called on every pulse edge.
func (p *PulseTimer) Restart() {
	if p == nil || p.t == nil {
		return
	}
	p.t.Restart()
}

// Fraction returns the elapsed share of the timer period since the last
// restart, in [0,1].
func (p *PulseTimer) Fraction() float64 {
	if p == nil || p.t == nil {
		return 0
	}
	period := p.t.Period()
	if period == 0 {
		return 0
	}
	remaining := p.t.Remaining()
	if remaining > period {
		remaining = period
	}
	return float64(period-remaining) / float64(period)
}
