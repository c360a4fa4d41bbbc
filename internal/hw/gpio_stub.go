//go:build !linux

package hw

import "fmt"

// Stub implementations for platforms without Linux GPIO.

type GPIOD struct{}

func OpenGPIOD(chipPath string, outPin, pulsePin, buttonPin int) (*GPIOD, error) {
	return nil, fmt.Errorf("hw: gpiod unsupported on this platform")
}

func (g *GPIOD) SetOutput(on bool) error              { return fmt.Errorf("hw: gpiod unsupported") }
func (g *GPIOD) Watch(onPulse, onButton func()) error { return fmt.Errorf("hw: gpiod unsupported") }
func (g *GPIOD) Close() error                         { return nil }

type RPIO struct{}

func OpenRPIO(outPin, pulsePin, buttonPin int) (*RPIO, error) {
	return nil, fmt.Errorf("hw: rpio unsupported on this platform")
}

func (r *RPIO) SetOutput(on bool) error              { return fmt.Errorf("hw: rpio unsupported") }
func (r *RPIO) Watch(onPulse, onButton func()) error { return fmt.Errorf("hw: rpio unsupported") }
func (r *RPIO) Close() error                         { return nil }
