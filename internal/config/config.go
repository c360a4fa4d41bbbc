package config

import (
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Hardware   HardwareConfig   `yaml:"hardware"`
	Control    ControlConfig    `yaml:"control"`
	PID        PIDConfig        `yaml:"pid"`
	PWM        PWMConfig        `yaml:"pwm"`
	ADC        ADCConfig        `yaml:"adc"`
	PulseTimer PulseTimerConfig `yaml:"pulse_timer"`
	Display    DisplayConfig    `yaml:"display"`
	Keyboard   KeyboardConfig   `yaml:"keyboard"`
	Sim        SimConfig        `yaml:"sim"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
}

type HardwareConfig struct {
	// Backend is one of sim, gpiod, rpio.
	Backend string `yaml:"backend"`
	// Chip is the GPIO character device (gpiod backend).
	Chip string `yaml:"chip"`
	// Pins use BCM numbering.
	OutputPin int `yaml:"output_pin"`
	PulsePin  int `yaml:"pulse_pin"`
	ButtonPin int `yaml:"button_pin"`

	I2CBus  int    `yaml:"i2c_bus"`
	ADCAddr uint16 `yaml:"adc_addr"`
}

type ControlConfig struct {
	Setpoint     uint32        `yaml:"setpoint"`
	StallTimeout time.Duration `yaml:"stall_timeout"`
	FullScaleRPM float64       `yaml:"full_scale_rpm"`
	TickInterval time.Duration `yaml:"tick_interval"`
}

type PIDConfig struct {
	PGain float64 `yaml:"p_gain"`
	IGain float64 `yaml:"i_gain"`
	IMin  float64 `yaml:"i_min"`
	IMax  float64 `yaml:"i_max"`
}

type PWMConfig struct {
	PeriodMs uint32 `yaml:"period_ms"`
}

type ADCConfig struct {
	Offset   int     `yaml:"offset"`
	ScaleNum float64 `yaml:"scale_num"`
	ScaleDen float64 `yaml:"scale_den"`
}

type PulseTimerConfig struct {
	Period time.Duration `yaml:"period"`
}

type DisplayConfig struct {
	// Mode is one of termbox, console, none.
	Mode string `yaml:"mode"`
}

type KeyboardConfig struct {
	// Mode is one of termbox, ps2serial, none.
	Mode   string `yaml:"mode"`
	Device string `yaml:"device"`
	Baud   int    `yaml:"baud"`
}

type SimConfig struct {
	MaxRPM       float64       `yaml:"max_rpm"`
	TimeConstant time.Duration `yaml:"time_constant"`
	// PulsesPerRev defaults to 60 so edges per second read as RPM.
	PulsesPerRev int `yaml:"pulses_per_rev"`
	// StallCurrent is the raw ADC code drawn at full duty with the rotor locked.
	StallCurrent int  `yaml:"stall_current"`
	Locked       bool `yaml:"locked"`
}

type TelemetryConfig struct {
	// Dest is a host:port receiving one JSON report per second. Empty
	// disables telemetry.
	Dest string `yaml:"dest"`
}

// StallTicks converts the stall timeout into master clock ticks.
func (c ControlConfig) StallTicks() int {
	if c.StallTimeout <= 0 || c.TickInterval <= 0 {
		return 0
	}
	return int(c.StallTimeout / c.TickInterval)
}

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return Parse(b)
}

func Parse(b []byte) (Config, error) {
	var cfg Config
	// Stall detection is on unless the file sets it explicitly.
	cfg.Control.StallTimeout = 2 * time.Second
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}
	if err := applyDefaults(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) error {
	cfg.Hardware.Backend = strings.ToLower(strings.TrimSpace(cfg.Hardware.Backend))
	if cfg.Hardware.Backend == "" {
		cfg.Hardware.Backend = "sim"
	}
	switch cfg.Hardware.Backend {
	case "sim":
	case "gpiod", "rpio":
		if cfg.Hardware.OutputPin <= 0 {
			return fmt.Errorf("hardware.output_pin is required for backend %s", cfg.Hardware.Backend)
		}
		if cfg.Hardware.PulsePin <= 0 {
			return fmt.Errorf("hardware.pulse_pin is required for backend %s", cfg.Hardware.Backend)
		}
		if cfg.Hardware.OutputPin == cfg.Hardware.PulsePin {
			return fmt.Errorf("hardware.output_pin and hardware.pulse_pin must differ")
		}
	default:
		return fmt.Errorf("hardware.backend must be sim, gpiod or rpio")
	}
	if cfg.Hardware.Chip == "" {
		cfg.Hardware.Chip = "/dev/gpiochip0"
	}
	if cfg.Hardware.I2CBus == 0 {
		cfg.Hardware.I2CBus = 1
	}
	if cfg.Hardware.ADCAddr == 0 {
		cfg.Hardware.ADCAddr = 0x48
	}
	if cfg.Hardware.ADCAddr > 0x7F {
		return fmt.Errorf("hardware.adc_addr must be a 7-bit address")
	}

	if cfg.Control.TickInterval <= 0 {
		cfg.Control.TickInterval = time.Millisecond
	}
	if cfg.Control.FullScaleRPM == 0 {
		cfg.Control.FullScaleRPM = 350
	}
	if cfg.Control.FullScaleRPM < 0 {
		return fmt.Errorf("control.full_scale_rpm must be > 0")
	}
	if cfg.Control.StallTimeout < 0 {
		return fmt.Errorf("control.stall_timeout must be >= 0")
	}
	if cfg.Control.Setpoint > 9999 {
		return fmt.Errorf("control.setpoint must be <= 9999")
	}

	if cfg.PID == (PIDConfig{}) {
		cfg.PID = PIDConfig{PGain: 1, IGain: 0.8, IMin: -100, IMax: 100}
	}
	if cfg.PID.IMin > cfg.PID.IMax {
		return fmt.Errorf("pid.i_min must be <= pid.i_max")
	}

	if cfg.PWM.PeriodMs == 0 {
		cfg.PWM.PeriodMs = 1000
	}

	if cfg.ADC.Offset == 0 {
		cfg.ADC.Offset = 98
	}
	if cfg.ADC.ScaleNum == 0 {
		cfg.ADC.ScaleNum = 1000
	}
	if cfg.ADC.ScaleDen == 0 {
		cfg.ADC.ScaleDen = 3650
	}
	if cfg.ADC.ScaleDen < 0 {
		return fmt.Errorf("adc.scale_den must be > 0")
	}

	if cfg.PulseTimer.Period <= 0 {
		cfg.PulseTimer.Period = time.Second
	}

	cfg.Display.Mode = strings.ToLower(strings.TrimSpace(cfg.Display.Mode))
	if cfg.Display.Mode == "" {
		cfg.Display.Mode = "console"
	}
	switch cfg.Display.Mode {
	case "termbox", "console", "none":
	default:
		return fmt.Errorf("display.mode must be termbox, console or none")
	}

	cfg.Keyboard.Mode = strings.ToLower(strings.TrimSpace(cfg.Keyboard.Mode))
	if cfg.Keyboard.Mode == "" {
		cfg.Keyboard.Mode = "none"
	}
	switch cfg.Keyboard.Mode {
	case "none":
	case "termbox":
		if cfg.Display.Mode != "termbox" {
			return fmt.Errorf("keyboard.mode termbox requires display.mode termbox")
		}
	case "ps2serial":
		if cfg.Keyboard.Device == "" {
			return fmt.Errorf("keyboard.device is required when keyboard.mode is ps2serial")
		}
		if cfg.Keyboard.Baud == 0 {
			cfg.Keyboard.Baud = 9600
		}
	default:
		return fmt.Errorf("keyboard.mode must be termbox, ps2serial or none")
	}

	// Simulator defaults (safe even if the sim backend is unused).
	if cfg.Sim.MaxRPM <= 0 {
		cfg.Sim.MaxRPM = 400
	}
	if cfg.Sim.TimeConstant <= 0 {
		cfg.Sim.TimeConstant = 500 * time.Millisecond
	}
	if cfg.Sim.PulsesPerRev <= 0 {
		cfg.Sim.PulsesPerRev = 60
	}
	if cfg.Sim.StallCurrent <= 0 {
		cfg.Sim.StallCurrent = 900
	}

	cfg.Telemetry.Dest = strings.TrimSpace(cfg.Telemetry.Dest)
	if cfg.Telemetry.Dest != "" {
		if _, _, err := net.SplitHostPort(cfg.Telemetry.Dest); err != nil {
			return fmt.Errorf("telemetry.dest must be host:port")
		}
	}
	return nil
}
