package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"

	"go.uber.org/multierr"

	"motorctl/internal/config"
	"motorctl/internal/control"
	"motorctl/internal/display"
	"motorctl/internal/hw"
	"motorctl/internal/i2c"
	"motorctl/internal/keypad"
	"motorctl/internal/telemetry"
)

// lines is the GPIO side of a hardware backend.
type lines interface {
	control.Output
	Watch(onPulse, onButton func()) error
	Close() error
}

var (
	openGPIODFn = func(c config.HardwareConfig) (lines, error) {
		return hw.OpenGPIOD(c.Chip, c.OutputPin, c.PulsePin, c.ButtonPin)
	}
	openRPIOFn = func(c config.HardwareConfig) (lines, error) {
		return hw.OpenRPIO(c.OutputPin, c.PulsePin, c.ButtonPin)
	}
	openADCFn = func(c config.HardwareConfig) (control.ADC, func() error, error) {
		bus, err := i2c.Open(i2c.BusPath(c.I2CBus))
		if err != nil {
			return nil, nil, err
		}
		adc, err := hw.NewADS1015(bus.Dev(c.ADCAddr))
		if err != nil {
			_ = bus.Close()
			return nil, nil, fmt.Errorf("%s addr %#02x: %w", bus.Path(), c.ADCAddr, err)
		}
		return adc, bus.Close, nil
	}
)

func schedulerConfig(cfg config.Config) control.SchedulerConfig {
	return control.SchedulerConfig{
		PID: control.PIDConfig{
			PGain: cfg.PID.PGain,
			IGain: cfg.PID.IGain,
			IMin:  cfg.PID.IMin,
			IMax:  cfg.PID.IMax,
		},
		Current: control.CurrentConfig{
			Offset:   cfg.ADC.Offset,
			ScaleNum: cfg.ADC.ScaleNum,
			ScaleDen: cfg.ADC.ScaleDen,
		},
		PWMPeriodMs:  cfg.PWM.PeriodMs,
		FullScaleRPM: cfg.Control.FullScaleRPM,
		StallTicks:   cfg.Control.StallTicks(),
		Setpoint:     cfg.Control.Setpoint,
	}
}

func readoutFromReport(rep control.Report, entry keypad.Segments, typing bool) display.Readout {
	r := display.Readout{
		AvgRPM:     rep.AvgRPM,
		AvgCurrent: rep.AvgCurrent,
		Setpoint:   rep.Setpoint,
		Duty:       rep.Duty,
		Stalled:    rep.Stalled,
	}
	if typing {
		r.Entry = entry.String()
	}
	return r
}

type runtime struct {
	cfg config.Config

	svc   *control.Service
	entry *keypad.Entry
	phase *hw.PhaseTimer

	sim      *hw.SimMotor
	gpio     lines
	closeADC func() error

	renderer  display.Renderer
	termbox   *display.Termbox
	telemetry reportSender
}

type reportSender interface {
	SendReport(rep control.Report) error
	Close() error
}

func newRuntime(cfg config.Config) (*runtime, error) {
	r := &runtime{cfg: cfg, entry: keypad.NewEntry()}

	// The service does not exist yet; callbacks fire only after Start.
	r.phase = hw.NewPhaseTimer(func() { r.svc.PhaseExpired() })
	hwSet := control.Hardware{
		Phase: r.phase,
		Pulse: hw.NewPulseClock(cfg.PulseTimer.Period),
	}

	switch cfg.Hardware.Backend {
	case "sim":
		r.sim = hw.NewSimMotor(hw.SimConfig{
			MaxRPM:       cfg.Sim.MaxRPM,
			TimeConstant: cfg.Sim.TimeConstant,
			PulsesPerRev: cfg.Sim.PulsesPerRev,
			StallCurrent: cfg.Sim.StallCurrent,
			Offset:       cfg.ADC.Offset,
			Locked:       cfg.Sim.Locked,
		}, func() { r.svc.PulseEdge() })
		hwSet.ADC = r.sim
		hwSet.Output = r.sim
	case "gpiod", "rpio":
		open := openGPIODFn
		if cfg.Hardware.Backend == "rpio" {
			open = openRPIOFn
		}
		g, err := open(cfg.Hardware)
		if err != nil {
			return nil, err
		}
		r.gpio = g
		adc, closeADC, err := openADCFn(cfg.Hardware)
		if err != nil {
			_ = g.Close()
			return nil, fmt.Errorf("adc init failed: %w", err)
		}
		r.closeADC = closeADC
		hwSet.ADC = adc
		hwSet.Output = g
	default:
		return nil, fmt.Errorf("unknown hardware backend %q", cfg.Hardware.Backend)
	}

	svc, err := control.NewService(control.Config{
		Scheduler:    schedulerConfig(cfg),
		TickInterval: cfg.Control.TickInterval,
	}, hwSet)
	if err != nil {
		_ = r.closeHardware()
		return nil, err
	}
	r.svc = svc

	if cfg.Telemetry.Dest != "" {
		ts, err := telemetry.NewSender(cfg.Telemetry.Dest)
		if err != nil {
			_ = r.closeHardware()
			return nil, err
		}
		r.telemetry = ts
		log.Printf("telemetry: reports to %s", ts.Dest())
	}

	switch cfg.Display.Mode {
	case "console":
		r.renderer = display.NewConsole(os.Stdout, cfg.Control.FullScaleRPM)
	case "termbox":
		tb, err := display.NewTermbox(cfg.Control.FullScaleRPM)
		if err != nil {
			_ = r.Close()
			return nil, err
		}
		r.termbox = tb
		r.renderer = tb
	}
	return r, nil
}

// Commit implements keypad.Handler.
func (r *runtime) Commit(setpoint uint32) {
	log.Printf("keypad: setpoint=%d", setpoint)
	r.svc.SetSetpoint(setpoint)
}

// Feedback implements keypad.Handler. The next report carries the entry.
func (r *runtime) Feedback(keypad.Segments) {}

func (r *runtime) press(k keypad.Key) {
	v, ok := r.entry.Press(k)
	if ok {
		r.Commit(v)
	}
}

func (r *runtime) button() {
	r.entry.Reset()
	r.svc.Button()
}

// Run blocks until ctx is done or the user quits. The motor is left
// unpowered on return.
func (r *runtime) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	if err := r.svc.Start(ctx); err != nil {
		cancel()
		return err
	}

	var wg sync.WaitGroup
	defer func() {
		cancel()
		wg.Wait()
		r.svc.Close()
	}()

	if r.sim != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.sim.Run(ctx, r.cfg.Control.TickInterval)
		}()
	}
	if r.gpio != nil {
		if err := r.gpio.Watch(r.svc.PulseEdge, r.button); err != nil {
			return err
		}
	}

	switch r.cfg.Keyboard.Mode {
	case "ps2serial":
		rd := keypad.NewReader(r.cfg.Keyboard.Device, r.cfg.Keyboard.Baud, r.entry, r)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := rd.Run(ctx); err != nil && ctx.Err() == nil {
				log.Printf("keypad stopped: %v", err)
			}
		}()
	case "termbox":
		if r.termbox != nil {
			wg.Add(1)
			go func() {
				defer wg.Done()
				r.termbox.PollKeys(ctx, display.KeyActions{
					Key:   r.press,
					Reset: r.button,
					Quit:  cancel,
				})
			}()
		}
	}

	r.displayLoop(ctx)
	return nil
}

func (r *runtime) displayLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.svc.Ready():
		}
		rep := r.svc.Report()
		if r.telemetry != nil {
			if err := r.telemetry.SendReport(rep); err != nil {
				log.Printf("telemetry send failed: %v", err)
			}
		}
		if r.renderer == nil {
			continue
		}
		typing := r.entry.State() == keypad.EntryTyping
		if err := r.renderer.Render(readoutFromReport(rep, r.entry.Segments(), typing)); err != nil {
			log.Printf("display render failed: %v", err)
		}
	}
}

func (r *runtime) closeHardware() error {
	var err error
	if r.phase != nil {
		r.phase.Stop()
	}
	if r.gpio != nil {
		err = multierr.Append(err, r.gpio.Close())
		r.gpio = nil
	}
	if r.closeADC != nil {
		err = multierr.Append(err, r.closeADC())
		r.closeADC = nil
	}
	return err
}

// Close releases the display and hardware. Call after Run returns.
func (r *runtime) Close() error {
	var err error
	if r.renderer != nil {
		err = multierr.Append(err, r.renderer.Close())
		r.renderer = nil
	}
	if r.telemetry != nil {
		err = multierr.Append(err, r.telemetry.Close())
		r.telemetry = nil
	}
	return multierr.Append(err, r.closeHardware())
}
