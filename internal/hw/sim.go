package hw

import (
	"context"
	"sync"
	"time"
)

// DefaultSimPulsesPerRev makes the edge rate in edges/s equal the shaft
// speed in RPM, the unit the speed estimator reports.
const DefaultSimPulsesPerRev = 60

type SimConfig struct {
	MaxRPM       float64
	TimeConstant time.Duration
	PulsesPerRev int
	// StallCurrent is the ADC code above Offset drawn with the rotor locked.
	StallCurrent int
	Offset       int
	Locked       bool
}

// SimMotor is a first-order DC motor driven by the output line. It produces
// pulse edges from its shaft speed and an ADC code from its current draw.
type SimMotor struct {
	cfg     SimConfig
	onPulse func()

	mu    sync.Mutex
	on    bool
	rpm   float64
	phase float64 // fractional pulses not yet emitted
	edges uint64
}

func NewSimMotor(cfg SimConfig, onPulse func()) *SimMotor {
	if cfg.MaxRPM <= 0 {
		cfg.MaxRPM = 400
	}
	if cfg.TimeConstant <= 0 {
		cfg.TimeConstant = 500 * time.Millisecond
	}
	if cfg.PulsesPerRev <= 0 {
		cfg.PulsesPerRev = DefaultSimPulsesPerRev
	}
	return &SimMotor{cfg: cfg, onPulse: onPulse}
}

func (m *SimMotor) SetOutput(on bool) error {
	m.mu.Lock()
	m.on = on
	m.mu.Unlock()
	return nil
}

// ReadADC models winding current falling with back-EMF as the shaft speeds
// up, with a small friction floor.
func (m *SimMotor) ReadADC() (uint16, error) {
	m.mu.Lock()
	on, rpm := m.on, m.rpm
	m.mu.Unlock()

	code := float64(m.cfg.Offset)
	if on {
		load := 0.1 + 0.9*(1-rpm/m.cfg.MaxRPM)
		if load < 0.1 {
			load = 0.1
		}
		code += float64(m.cfg.StallCurrent) * load
	}
	if code < 0 {
		code = 0
	}
	if code > 0xFFF {
		code = 0xFFF
	}
	return uint16(code), nil
}

// Step advances the model by dt and fires onPulse for every whole pulse.
func (m *SimMotor) Step(dt time.Duration) {
	m.mu.Lock()
	target := 0.0
	if m.on && !m.cfg.Locked {
		target = m.cfg.MaxRPM
	}
	k := dt.Seconds() / m.cfg.TimeConstant.Seconds()
	if k > 1 {
		k = 1
	}
	m.rpm += (target - m.rpm) * k
	if m.rpm < 0.01 {
		m.rpm = 0
	}
	m.phase += m.rpm / 60 * float64(m.cfg.PulsesPerRev) * dt.Seconds()
	n := int(m.phase)
	m.phase -= float64(n)
	m.edges += uint64(n)
	m.mu.Unlock()

	if m.onPulse == nil {
		return
	}
	for i := 0; i < n; i++ {
		m.onPulse()
	}
}

func (m *SimMotor) RPM() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rpm
}

func (m *SimMotor) Edges() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.edges
}

// Run steps the model every interval until ctx is done.
func (m *SimMotor) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Millisecond
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			m.Step(now.Sub(last))
			last = now
		}
	}
}
