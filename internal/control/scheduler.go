package control

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"
)

var nowFn = time.Now

// DefaultFullScaleRPM is the sensor's full-scale speed.
const DefaultFullScaleRPM = 350.0

type SchedulerConfig struct {
	PID     PIDConfig
	Current CurrentConfig

	PWMPeriodMs  uint32
	FullScaleRPM float64

	// StallTicks is the number of ticks without a pulse edge after which the
	// motor counts as idle, or as stalled while it is being driven. Zero
	// disables stall detection.
	StallTicks int

	// Setpoint is the initial target speed.
	Setpoint uint32
}

// Scheduler is the master control loop. Handle dispatches one event at a
// time; the caller must not invoke it concurrently.
type Scheduler struct {
	cfg SchedulerConfig
	hw  Hardware

	state SchedulerState
	st    ControlState

	pid     *PIDController
	rpm     *RpmEstimator
	current *CurrentSampler
	pwm     *PWMGenerator
	pulse   *PulseTimer

	lastRaw   uint16
	adcErrors int
	lastErr   string
	seq       uint64

	report atomic.Pointer[Report]
	ready  chan struct{}
}

func NewScheduler(cfg SchedulerConfig, hw Hardware) (*Scheduler, error) {
	if hw.ADC == nil || hw.Output == nil || hw.Phase == nil || hw.Pulse == nil {
		return nil, errors.New("control: hardware is incomplete")
	}
	if cfg.PID == (PIDConfig{}) {
		cfg.PID = DefaultPIDConfig()
	}
	if cfg.PWMPeriodMs == 0 {
		cfg.PWMPeriodMs = 1000
	}
	if cfg.FullScaleRPM <= 0 {
		cfg.FullScaleRPM = DefaultFullScaleRPM
	}
	if cfg.StallTicks < 0 {
		return nil, fmt.Errorf("control: stall ticks must be >= 0, got %d", cfg.StallTicks)
	}

	s := &Scheduler{
		cfg:     cfg,
		hw:      hw,
		pid:     NewPID(cfg.PID),
		rpm:     &RpmEstimator{},
		current: NewCurrentSampler(cfg.Current),
		pwm:     NewPWMGenerator(hw.Output, hw.Phase, cfg.PWMPeriodMs),
		pulse:   NewPulseTimer(hw.Pulse),
		ready:   make(chan struct{}, 1),
	}
	s.st.Setpoint = cfg.Setpoint
	s.st.LoopPeriod = LoopPeriodFor(cfg.Setpoint)
	s.report.Store(&Report{Setpoint: cfg.Setpoint, LoopPeriod: s.st.LoopPeriod})
	return s, nil
}

// Start moves the scheduler from Idle to Sampling and begins the PWM wave.
func (s *Scheduler) Start() error {
	if s.state != StateIdle {
		return nil
	}
	s.st.Ticks = 0
	s.st.LoopPeriod = LoopPeriodFor(s.st.Setpoint)
	s.pulse.Restart()
	if err := s.pwm.Start(); err != nil {
		return fmt.Errorf("control: start: %w", err)
	}
	s.state = StateSampling
	return nil
}

// Handle dispatches one event.
func (s *Scheduler) Handle(ev Event) error {
	switch ev.Kind {
	case EventTick:
		return s.tick()
	case EventPulseEdge:
		s.rpm.OnPulseEdge()
		s.pulse.Restart()
		s.st.QuietTicks = 0
		return nil
	case EventPhaseExpired:
		if s.state == StateIdle {
			return nil
		}
		return s.recordErr(s.pwm.OnPeriodElapsed())
	case EventButton:
		s.setSetpoint(0)
		return nil
	case EventSetpoint:
		s.setSetpoint(ev.Setpoint)
		return nil
	case EventStop:
		return s.stop()
	default:
		return fmt.Errorf("control: unknown event %d", ev.Kind)
	}
}

func (s *Scheduler) setSetpoint(v uint32) {
	s.st.Setpoint = v
	s.st.Stalled = false
}

func (s *Scheduler) stop() error {
	if s.state == StateIdle {
		return nil
	}
	s.hw.Phase.Stop()
	s.state = StateIdle
	s.st.Output = 0
	return s.recordErr(s.pwm.Off())
}

func (s *Scheduler) tick() error {
	if s.state == StateIdle {
		return nil
	}
	s.st.Ticks++
	s.st.QuietTicks++

	raw, err := s.hw.ADC.ReadADC()
	if err != nil {
		// Hold the previous sample so the report window stays 1000 ticks.
		s.adcErrors++
		s.lastErr = fmt.Sprintf("control: read adc: %v", err)
		raw = s.lastRaw
	}
	s.lastRaw = raw

	var errOut error
	if s.stallDetected() && !s.st.Stalled && s.st.Output > 0 {
		errOut = s.enterStall()
	}

	if s.st.Ticks >= s.st.LoopPeriod {
		if err := s.evaluate(); err != nil && errOut == nil {
			errOut = err
		}
	}

	if reading, ok := s.current.Accumulate(raw); ok {
		s.st.Current = reading.Current
		s.publish()
	}
	return errOut
}

func (s *Scheduler) stallDetected() bool {
	return s.cfg.StallTicks > 0 && s.st.QuietTicks >= s.cfg.StallTicks
}

func (s *Scheduler) enterStall() error {
	s.st.Stalled = true
	s.st.Output = 0
	s.st.Speed = 0
	s.pid.Reset()
	return s.recordErr(s.pwm.Off())
}

func (s *Scheduler) evaluate() error {
	s.state = StateEvaluating

	fraction := s.pulse.Fraction()
	if s.stallDetected() {
		s.rpm.Idle()
		fraction = 0
	}
	s.st.Speed = s.rpm.Finalize(s.st.LoopPeriod, fraction)

	prev := s.st.Output
	if s.st.Stalled {
		s.st.Output = 0
	} else {
		e := (float64(s.st.Setpoint) - s.st.Speed) * 100 / s.cfg.FullScaleRPM
		s.st.Output = clamp(s.pid.Update(e), 0, 100)
	}
	if prev == 0 && s.st.Output > 0 {
		// The motor gets a full window to start turning.
		s.st.QuietTicks = 0
	}
	s.pwm.SetPercent(s.st.Output)

	s.st.LoopPeriod = LoopPeriodFor(s.st.Setpoint)
	s.st.Ticks = 0
	s.state = StateSampling
	return nil
}

func (s *Scheduler) publish() {
	s.seq++
	r := &Report{
		Seq:        s.seq,
		AvgRPM:     s.rpm.TakeAverage(),
		AvgCurrent: s.st.Current,
		Setpoint:   s.st.Setpoint,
		Speed:      s.st.Speed,
		Duty:       s.st.Output,
		LoopPeriod: s.st.LoopPeriod,
		Stalled:    s.st.Stalled,
		ADCErrors:  s.adcErrors,
		LastError:  s.lastErr,
		UpdatedAt:  nowFn().UTC(),
	}
	s.report.Store(r)
	select {
	case s.ready <- struct{}{}:
	default:
	}
}

func (s *Scheduler) recordErr(err error) error {
	if err != nil {
		s.lastErr = err.Error()
	}
	return err
}

// Report returns the most recently published snapshot. Safe from any
// goroutine.
func (s *Scheduler) Report() Report {
	return *s.report.Load()
}

// Ready is signalled once per published report. It holds at most one
// pending signal.
func (s *Scheduler) Ready() <-chan struct{} {
	return s.ready
}

// State returns the scheduler's state machine position.
func (s *Scheduler) State() SchedulerState { return s.state }

// Control returns a copy of the working state. Event loop only.
func (s *Scheduler) Control() ControlState { return s.st }

// PID exposes the controller for inspection. Event loop only.
func (s *Scheduler) PID() *PIDController { return s.pid }

// PWM exposes the generator for inspection. Event loop only.
func (s *Scheduler) PWM() *PWMGenerator { return s.pwm }

// Estimator exposes the speed estimator. OnPulseEdge is safe from any
// goroutine.
func (s *Scheduler) Estimator() *RpmEstimator { return s.rpm }
