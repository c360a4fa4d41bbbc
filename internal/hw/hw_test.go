package hw

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestPhaseTimer_AutoReload(t *testing.T) {
	var n atomic.Int32
	p := NewPhaseTimer(func() { n.Add(1) })
	if err := p.Arm(2); err != nil {
		t.Fatalf("Arm: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for n.Load() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("expiries=%d want >= 3", n.Load())
		}
		time.Sleep(time.Millisecond)
	}

	p.Stop()
	time.Sleep(10 * time.Millisecond)
	stopped := n.Load()
	time.Sleep(30 * time.Millisecond)
	if got := n.Load(); got != stopped {
		t.Fatalf("expiries after Stop: %d -> %d", stopped, got)
	}
}

func TestPhaseTimer_RearmReplacesReload(t *testing.T) {
	var n atomic.Int32
	p := NewPhaseTimer(func() { n.Add(1) })
	if err := p.Arm(60000); err != nil {
		t.Fatalf("Arm: %v", err)
	}
	if err := p.Arm(1); err != nil {
		t.Fatalf("Arm: %v", err)
	}
	defer p.Stop()
	if p.Reload() != time.Millisecond {
		t.Fatalf("reload=%v want 1ms", p.Reload())
	}
	deadline := time.Now().Add(2 * time.Second)
	for n.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("re-armed timer never expired")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestPhaseTimer_ZeroReload(t *testing.T) {
	p := NewPhaseTimer(nil)
	if err := p.Arm(0); err == nil {
		t.Fatalf("expected error")
	}
}

func TestPulseClock_CountsDownAndWraps(t *testing.T) {
	t0 := time.Unix(1000, 0)
	now := t0
	c := NewPulseClock(time.Second)
	c.now = func() time.Time { return now }
	c.Restart()

	if c.Period() != 1_000_000 {
		t.Fatalf("period=%d", c.Period())
	}
	if got := c.Remaining(); got != 1_000_000 {
		t.Fatalf("remaining=%d want full period", got)
	}
	now = t0.Add(250 * time.Millisecond)
	if got := c.Remaining(); got != 750_000 {
		t.Fatalf("remaining=%d want 750000", got)
	}
	now = t0.Add(1250 * time.Millisecond)
	if got := c.Remaining(); got != 750_000 {
		t.Fatalf("wrapped remaining=%d want 750000", got)
	}
	c.Restart()
	if got := c.Remaining(); got != 1_000_000 {
		t.Fatalf("remaining after restart=%d", got)
	}
}

type fakeRegs struct {
	regs     map[byte]uint16
	readErr  error
	writeErr error
	osBit    bool
}

func (f *fakeRegs) ReadRegU16(reg byte) (uint16, error) {
	if f.readErr != nil {
		return 0, f.readErr
	}
	v := f.regs[reg]
	if reg == regConfig && f.osBit {
		v |= 0x8000
	}
	return v, nil
}

func (f *fakeRegs) WriteRegU16(reg byte, value uint16) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.regs[reg] = value
	return nil
}

func TestADS1015_ConfigAndRead(t *testing.T) {
	regs := &fakeRegs{regs: map[byte]uint16{}, osBit: true}
	a, err := newADS1015WithIO(regs)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if regs.regs[regConfig] != 0x42C3 {
		t.Fatalf("config=0x%04X want 0x42C3", regs.regs[regConfig])
	}

	regs.regs[regConversion] = 0x0620 // code 98
	if v, err := a.ReadADC(); err != nil || v != 98 {
		t.Fatalf("ReadADC=%d err=%v want 98", v, err)
	}
	regs.regs[regConversion] = 0x7FF0
	if v, _ := a.ReadADC(); v != 0x7FF {
		t.Fatalf("ReadADC=0x%X want 0x7FF", v)
	}
	regs.regs[regConversion] = 0xFFF0
	if v, _ := a.ReadADC(); v != 0 {
		t.Fatalf("negative reading=%d want 0", v)
	}

	regs.readErr = errors.New("nack")
	if _, err := a.ReadADC(); err == nil {
		t.Fatalf("expected read error")
	}
}

func TestADS1015_InitErrors(t *testing.T) {
	if _, err := newADS1015WithIO(&fakeRegs{regs: map[byte]uint16{}, writeErr: errors.New("nack")}); err == nil {
		t.Fatalf("expected write error")
	}
	if _, err := newADS1015WithIO(nil); err == nil {
		t.Fatalf("expected nil dev error")
	}
	if _, err := NewADS1015(nil); err == nil {
		t.Fatalf("expected nil dev error")
	}
}

type mismatchRegs struct{ fakeRegs }

func (m *mismatchRegs) ReadRegU16(reg byte) (uint16, error) { return 0x8583, nil }

func TestADS1015_ConfigMismatch(t *testing.T) {
	if _, err := newADS1015WithIO(&mismatchRegs{fakeRegs{regs: map[byte]uint16{}}}); err == nil {
		t.Fatalf("expected config mismatch error")
	}
}

func simConfig() SimConfig {
	return SimConfig{MaxRPM: 400, TimeConstant: 100 * time.Millisecond, StallCurrent: 900, Offset: 98}
}

func TestSimMotor_SpinsUpAndPulses(t *testing.T) {
	pulses := 0
	m := NewSimMotor(simConfig(), func() { pulses++ })

	if v, _ := m.ReadADC(); v != 98 {
		t.Fatalf("idle ADC=%d want offset 98", v)
	}
	_ = m.SetOutput(true)
	if v, _ := m.ReadADC(); v != 998 {
		t.Fatalf("start ADC=%d want 998", v)
	}

	for i := 0; i < 200; i++ {
		m.Step(10 * time.Millisecond)
	}
	if rpm := m.RPM(); rpm < 399 || rpm > 400 {
		t.Fatalf("rpm=%v want ~400", rpm)
	}
	// One edge per second per RPM: the 2 s ramp averages ~382 rpm.
	if pulses < 755 || pulses > 770 {
		t.Fatalf("pulses=%d want 755..770", pulses)
	}
	if uint64(pulses) != m.Edges() {
		t.Fatalf("pulses=%d edges=%d", pulses, m.Edges())
	}
	if v, _ := m.ReadADC(); v != 98+90 {
		t.Fatalf("running ADC=%d want friction floor 188", v)
	}

	_ = m.SetOutput(false)
	for i := 0; i < 300; i++ {
		m.Step(10 * time.Millisecond)
	}
	if m.RPM() != 0 {
		t.Fatalf("rpm=%v want coasted to 0", m.RPM())
	}
}

func TestSimMotor_LockedRotor(t *testing.T) {
	cfg := simConfig()
	cfg.Locked = true
	edges := 0
	m := NewSimMotor(cfg, func() { edges++ })
	_ = m.SetOutput(true)
	for i := 0; i < 100; i++ {
		m.Step(10 * time.Millisecond)
	}
	if edges != 0 || m.RPM() != 0 {
		t.Fatalf("locked rotor moved: edges=%d rpm=%v", edges, m.RPM())
	}
	if v, _ := m.ReadADC(); v != 998 {
		t.Fatalf("locked ADC=%d want 998", v)
	}
}
