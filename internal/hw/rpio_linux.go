//go:build linux

package hw

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/stianeikeland/go-rpio/v4"
)

var (
	rpioOpen  = rpio.Open
	rpioClose = rpio.Close
)

const rpioPollInterval = 250 * time.Microsecond

// RPIO drives the pins through the memory-mapped BCM2835 registers. Edges
// are latched by the SoC edge detector and polled.
type RPIO struct {
	out    rpio.Pin
	pulse  rpio.Pin
	button rpio.Pin
	hasBtn bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func OpenRPIO(outPin, pulsePin, buttonPin int) (*RPIO, error) {
	if outPin <= 0 || pulsePin <= 0 {
		return nil, fmt.Errorf("hw: rpio: invalid pins out=%d pulse=%d", outPin, pulsePin)
	}
	if err := rpioOpen(); err != nil {
		return nil, fmt.Errorf("hw: rpio: open: %w", err)
	}
	r := &RPIO{
		out:    rpio.Pin(outPin),
		pulse:  rpio.Pin(pulsePin),
		button: rpio.Pin(buttonPin),
		hasBtn: buttonPin > 0,
	}
	r.out.Output()
	r.out.Low()
	return r, nil
}

func (r *RPIO) SetOutput(on bool) error {
	if on {
		r.out.High()
	} else {
		r.out.Low()
	}
	return nil
}

func (r *RPIO) Watch(onPulse, onButton func()) error {
	r.pulse.Input()
	r.pulse.Detect(rpio.RiseEdge)
	if r.hasBtn && onButton != nil {
		r.button.Input()
		r.button.PullUp()
		r.button.Detect(rpio.FallEdge)
	} else {
		onButton = nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.poll(ctx, onPulse, onButton)
	}()
	return nil
}

func (r *RPIO) poll(ctx context.Context, onPulse, onButton func()) {
	t := time.NewTicker(rpioPollInterval)
	defer t.Stop()
	var lastPress time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if r.pulse.EdgeDetected() {
				onPulse()
			}
			if onButton != nil && r.button.EdgeDetected() && now.Sub(lastPress) >= buttonDebounce {
				lastPress = now
				onButton()
			}
		}
	}
}

func (r *RPIO) Close() error {
	if r == nil {
		return nil
	}
	if r.cancel != nil {
		r.cancel()
		r.wg.Wait()
		r.cancel = nil
		r.pulse.Detect(rpio.NoEdge)
		if r.hasBtn {
			r.button.Detect(rpio.NoEdge)
		}
	}
	r.out.Low()
	if err := rpioClose(); err != nil {
		return fmt.Errorf("hw: rpio: close: %w", err)
	}
	return nil
}
