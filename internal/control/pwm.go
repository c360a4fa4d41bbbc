package control

import "fmt"

// Phase is the half of the PWM cycle the generator schedules next.
type Phase uint8

const (
	PhaseOff Phase = iota
	PhaseOn
)

func (p Phase) String() string {
	if p == PhaseOn {
		return "on"
	}
	return "off"
}

// PWMGenerator synthesizes a PWM wave on a plain digital output by
// re-arming a countdown timer at every phase boundary.
//
// Not safe for concurrent use; the event loop calls every method.
type PWMGenerator struct {
	out   Output
	timer PhaseTimer

	phase    Phase
	periodMs uint32
	percent  float64

	lastReload uint32
}

func NewPWMGenerator(out Output, timer PhaseTimer, periodMs uint32) *PWMGenerator {
	if periodMs == 0 {
		periodMs = 1000
	}
	return &PWMGenerator{out: out, timer: timer, periodMs: periodMs}
}

// Start drives the output low and arms the phase timer for one full period
// so the free-running wave begins at the first expiry.
func (g *PWMGenerator) Start() error {
	if err := g.out.SetOutput(false); err != nil {
		return fmt.Errorf("pwm: set output: %w", err)
	}
	if err := g.timer.Arm(g.periodMs); err != nil {
		return fmt.Errorf("pwm: arm timer: %w", err)
	}
	g.lastReload = g.periodMs
	return nil
}

// SetPercent sets the duty used from the next phase boundary on.
func (g *PWMGenerator) SetPercent(percent float64) {
	g.percent = clamp(percent, 0, 100)
}

// SetDuty configures the wave and schedules the next phase. In the Off phase
// the output goes high for period*percent/100 ms; in the On phase it goes
// low for the complement. 0 % and 100 % force the line and skip re-arming
// when the computed reload is zero.
func (g *PWMGenerator) SetDuty(periodMs uint32, percent float64) error {
	percent = clamp(percent, 0, 100)
	g.periodMs = periodMs
	g.percent = percent

	var share float64
	if g.phase == PhaseOff {
		share = percent
	} else {
		share = 100 - percent
	}
	reload := uint32(float64(periodMs)*share/100 + 0.5)

	var level bool
	switch {
	case percent == 0:
		level = false
	case percent == 100:
		level = true
	case g.phase == PhaseOn:
		level = false
	default:
		level = true
	}

	var err error
	if oerr := g.out.SetOutput(level); oerr != nil {
		err = fmt.Errorf("pwm: set output: %w", oerr)
	}
	if reload > 0 {
		g.timer.Stop()
		if terr := g.timer.Arm(reload); terr != nil && err == nil {
			err = fmt.Errorf("pwm: arm timer: %w", terr)
		}
		g.lastReload = reload
	}

	if g.phase == PhaseOff {
		g.phase = PhaseOn
	} else {
		g.phase = PhaseOff
	}
	return err
}

// OnPeriodElapsed handles a phase timer expiry.
func (g *PWMGenerator) OnPeriodElapsed() error {
	return g.SetDuty(g.periodMs, g.percent)
}

// Phase reports the phase the next SetDuty call schedules.
func (g *PWMGenerator) Phase() Phase { return g.phase }

func (g *PWMGenerator) Percent() float64 { return g.percent }

func (g *PWMGenerator) PeriodMs() uint32 { return g.periodMs }

// LastReload is the reload value most recently loaded into the timer.
func (g *PWMGenerator) LastReload() uint32 { return g.lastReload }

// Off forces the output low without touching the phase timer.
func (g *PWMGenerator) Off() error {
	g.percent = 0
	if err := g.out.SetOutput(false); err != nil {
		return fmt.Errorf("pwm: set output: %w", err)
	}
	return nil
}
