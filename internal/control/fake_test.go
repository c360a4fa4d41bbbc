package control

import (
	"errors"
	"sync"
)

type fakeADC struct {
	mu    sync.Mutex
	value uint16
	err   error
	reads int
}

func (a *fakeADC) ReadADC() (uint16, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.reads++
	if a.err != nil {
		return 0, a.err
	}
	return a.value, nil
}

type fakeOutput struct {
	mu    sync.Mutex
	level bool
	sets  []bool
	err   error
}

func (o *fakeOutput) SetOutput(on bool) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err != nil {
		return o.err
	}
	o.level = on
	o.sets = append(o.sets, on)
	return nil
}

func (o *fakeOutput) Level() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.level
}

type fakePhaseTimer struct {
	mu        sync.Mutex
	reloads   []uint32
	armed     bool
	stops     int
	remaining uint32
}

func (t *fakePhaseTimer) Arm(reload uint32) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if reload == 0 {
		return errors.New("zero reload")
	}
	t.reloads = append(t.reloads, reload)
	t.armed = true
	t.remaining = reload
	return nil
}

// advance counts down one millisecond and reports an expiry, reloading
// with the last armed value.
func (t *fakePhaseTimer) advance() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.armed {
		return false
	}
	t.remaining--
	if t.remaining > 0 {
		return false
	}
	t.remaining = t.reloads[len(t.reloads)-1]
	return true
}

func (t *fakePhaseTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.armed = false
	t.stops++
}

func (t *fakePhaseTimer) Last() uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.reloads) == 0 {
		return 0
	}
	return t.reloads[len(t.reloads)-1]
}

// fakePulseTimer reports a fixed remaining count; restarts reset it to the
// full period.
type fakePulseTimer struct {
	period    uint32
	remaining uint32
	restarts  int
}

func (t *fakePulseTimer) Restart()          { t.restarts++; t.remaining = t.period }
func (t *fakePulseTimer) Remaining() uint32 { return t.remaining }
func (t *fakePulseTimer) Period() uint32    { return t.period }

type fakeHardware struct {
	adc   *fakeADC
	out   *fakeOutput
	phase *fakePhaseTimer
	pulse *fakePulseTimer
}

func newFakeHardware() *fakeHardware {
	return &fakeHardware{
		adc:   &fakeADC{value: 98},
		out:   &fakeOutput{},
		phase: &fakePhaseTimer{},
		pulse: &fakePulseTimer{period: 1000000, remaining: 1000000},
	}
}

func (f *fakeHardware) Hardware() Hardware {
	return Hardware{ADC: f.adc, Output: f.out, Phase: f.phase, Pulse: f.pulse}
}
