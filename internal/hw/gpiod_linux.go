//go:build linux

package hw

import (
	"fmt"
	"time"

	"github.com/warthog618/go-gpiocdev"
	"go.uber.org/multierr"
)

const (
	gpiodConsumer  = "motorctl"
	buttonDebounce = 20 * time.Millisecond
)

// GPIOD drives the motor line and watches the pulse and button inputs
// through the GPIO character device.
type GPIOD struct {
	chip      *gpiocdev.Chip
	out       *gpiocdev.Line
	pulse     *gpiocdev.Line
	button    *gpiocdev.Line
	pulsePin  int
	buttonPin int
}

// OpenGPIOD requests the output line, driven low. Inputs are requested by
// Watch once their consumers exist.
func OpenGPIOD(chipPath string, outPin, pulsePin, buttonPin int) (*GPIOD, error) {
	if outPin <= 0 || pulsePin <= 0 {
		return nil, fmt.Errorf("hw: gpiod: invalid pins out=%d pulse=%d", outPin, pulsePin)
	}
	chip, err := gpiocdev.NewChip(chipPath, gpiocdev.WithConsumer(gpiodConsumer))
	if err != nil {
		return nil, fmt.Errorf("hw: gpiod: open %s: %w", chipPath, err)
	}
	out, err := chip.RequestLine(outPin, gpiocdev.AsOutput(0))
	if err != nil {
		_ = chip.Close()
		return nil, fmt.Errorf("hw: gpiod: request output line %d: %w", outPin, err)
	}
	return &GPIOD{chip: chip, out: out, pulsePin: pulsePin, buttonPin: buttonPin}, nil
}

func (g *GPIOD) SetOutput(on bool) error {
	if g == nil || g.out == nil {
		return fmt.Errorf("hw: gpiod: output not initialized")
	}
	v := 0
	if on {
		v = 1
	}
	return g.out.SetValue(v)
}

// Watch starts delivering rising pulse edges and debounced button presses.
// A zero button pin disables the button.
func (g *GPIOD) Watch(onPulse, onButton func()) error {
	pulse, err := g.chip.RequestLine(g.pulsePin,
		gpiocdev.AsInput,
		gpiocdev.WithRisingEdge,
		gpiocdev.WithEventHandler(func(gpiocdev.LineEvent) { onPulse() }))
	if err != nil {
		return fmt.Errorf("hw: gpiod: request pulse line %d: %w", g.pulsePin, err)
	}
	g.pulse = pulse

	if g.buttonPin <= 0 || onButton == nil {
		return nil
	}
	button, err := g.chip.RequestLine(g.buttonPin,
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		gpiocdev.WithFallingEdge,
		gpiocdev.WithDebounce(buttonDebounce),
		gpiocdev.WithEventHandler(func(gpiocdev.LineEvent) { onButton() }))
	if err != nil {
		return fmt.Errorf("hw: gpiod: request button line %d: %w", g.buttonPin, err)
	}
	g.button = button
	return nil
}

// Close drives the output low and releases every line.
func (g *GPIOD) Close() error {
	if g == nil {
		return nil
	}
	var err error
	if g.out != nil {
		err = multierr.Append(err, g.out.SetValue(0))
		err = multierr.Append(err, g.out.Close())
		g.out = nil
	}
	if g.pulse != nil {
		err = multierr.Append(err, g.pulse.Close())
		g.pulse = nil
	}
	if g.button != nil {
		err = multierr.Append(err, g.button.Close())
		g.button = nil
	}
	if g.chip != nil {
		err = multierr.Append(err, g.chip.Close())
		g.chip = nil
	}
	return err
}
