// Package hw provides the devices behind the control loop: wall-clock
// timers, the ADS1015 current ADC, GPIO backends and a simulated motor.
package hw

import (
	"fmt"
	"sync"
	"time"
)

// PhaseTimer is an auto-reload countdown built on time.AfterFunc. Each
// expiry calls onExpire and re-arms with the last reload value.
type PhaseTimer struct {
	onExpire func()

	mu     sync.Mutex
	t      *time.Timer
	gen    uint64
	reload time.Duration
}

func NewPhaseTimer(onExpire func()) *PhaseTimer {
	return &PhaseTimer{onExpire: onExpire}
}

// Arm restarts the countdown with reload milliseconds.
func (p *PhaseTimer) Arm(reload uint32) error {
	if reload == 0 {
		return fmt.Errorf("hw: phase timer reload must be > 0")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	p.gen++
	p.reload = time.Duration(reload) * time.Millisecond
	gen := p.gen
	p.t = time.AfterFunc(p.reload, func() { p.fire(gen) })
	return nil
}

func (p *PhaseTimer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	p.gen++
}

func (p *PhaseTimer) stopLocked() {
	if p.t != nil {
		p.t.Stop()
		p.t = nil
	}
}

func (p *PhaseTimer) fire(gen uint64) {
	p.mu.Lock()
	if gen != p.gen {
		// Re-armed or stopped after this expiry was scheduled.
		p.mu.Unlock()
		return
	}
	p.t = time.AfterFunc(p.reload, func() { p.fire(gen) })
	p.mu.Unlock()

	if p.onExpire != nil {
		p.onExpire()
	}
}

// Reload returns the current reload interval; zero when never armed.
func (p *PhaseTimer) Reload() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reload
}

// PulseClock is a free-running countdown in microsecond ticks. It counts
// down from its period, wraps, and is restarted on each pulse edge.
type PulseClock struct {
	period time.Duration
	now    func() time.Time

	mu   sync.Mutex
	last time.Time
}

func NewPulseClock(period time.Duration) *PulseClock {
	if period <= 0 {
		period = time.Second
	}
	c := &PulseClock{period: period, now: time.Now}
	c.last = c.now()
	return c
}

func (c *PulseClock) Restart() {
	c.mu.Lock()
	c.last = c.now()
	c.mu.Unlock()
}

func (c *PulseClock) Remaining() uint32 {
	c.mu.Lock()
	elapsed := c.now().Sub(c.last)
	c.mu.Unlock()
	if elapsed < 0 {
		elapsed = 0
	}
	elapsed %= c.period
	return uint32((c.period - elapsed) / time.Microsecond)
}

func (c *PulseClock) Period() uint32 {
	return uint32(c.period / time.Microsecond)
}
