package control

import (
	"errors"
	"testing"
)

func TestPWM_ComplementaryReloads(t *testing.T) {
	out := &fakeOutput{}
	timer := &fakePhaseTimer{}
	g := NewPWMGenerator(out, timer, 1000)

	if err := g.SetDuty(1000, 25); err != nil {
		t.Fatalf("SetDuty: %v", err)
	}
	if got := timer.Last(); got != 250 {
		t.Fatalf("first reload=%d want 250", got)
	}
	if !out.Level() {
		t.Fatalf("output low during on phase")
	}
	if g.Phase() != PhaseOn {
		t.Fatalf("phase=%s want on", g.Phase())
	}

	if err := g.OnPeriodElapsed(); err != nil {
		t.Fatalf("OnPeriodElapsed: %v", err)
	}
	if got := timer.Last(); got != 750 {
		t.Fatalf("second reload=%d want 750", got)
	}
	if out.Level() {
		t.Fatalf("output high during off phase")
	}
	if g.Phase() != PhaseOff {
		t.Fatalf("phase=%s want off", g.Phase())
	}
}

// measureDuty runs n phase expiries and integrates the time the line is high.
func measureDuty(t *testing.T, g *PWMGenerator, out *fakeOutput, timer *fakePhaseTimer, n int) float64 {
	t.Helper()
	var high, total uint32
	for i := 0; i < n; i++ {
		if err := g.OnPeriodElapsed(); err != nil {
			t.Fatalf("OnPeriodElapsed: %v", err)
		}
		d := timer.Last()
		total += d
		if out.Level() {
			high += d
		}
	}
	return float64(high) / float64(total)
}

func TestPWM_MeasuredDutyTwoCycles(t *testing.T) {
	for _, percent := range []float64{25, 10, 50, 73, 99} {
		out := &fakeOutput{}
		timer := &fakePhaseTimer{}
		g := NewPWMGenerator(out, timer, 1000)
		g.SetPercent(percent)

		duty := measureDuty(t, g, out, timer, 4)
		// One timer tick is 1 ms of a 1000 ms period.
		if diff := duty*100 - percent; diff > 0.1 || diff < -0.1 {
			t.Fatalf("percent=%v measured duty=%v", percent, duty*100)
		}
	}
}

func TestPWM_ZeroPercentForcesLow(t *testing.T) {
	out := &fakeOutput{level: true}
	timer := &fakePhaseTimer{}
	g := NewPWMGenerator(out, timer, 1000)

	if err := g.SetDuty(1000, 0); err != nil {
		t.Fatalf("SetDuty: %v", err)
	}
	if out.Level() {
		t.Fatalf("output high at 0%%")
	}
	if len(timer.reloads) != 0 {
		t.Fatalf("timer armed with zero-length phase: %v", timer.reloads)
	}
	// The complementary phase is the whole period, still low.
	if err := g.OnPeriodElapsed(); err != nil {
		t.Fatalf("OnPeriodElapsed: %v", err)
	}
	if out.Level() || timer.Last() != 1000 {
		t.Fatalf("level=%v reload=%d want low/1000", out.Level(), timer.Last())
	}
}

func TestPWM_FullPercentForcesHigh(t *testing.T) {
	out := &fakeOutput{}
	timer := &fakePhaseTimer{}
	g := NewPWMGenerator(out, timer, 1000)

	for i := 0; i < 4; i++ {
		if err := g.SetDuty(1000, 100); err != nil {
			t.Fatalf("SetDuty: %v", err)
		}
		if !out.Level() {
			t.Fatalf("call %d: output low at 100%%", i)
		}
	}
	// Only the on phases have a non-zero length.
	if len(timer.reloads) != 2 {
		t.Fatalf("reloads=%v want two", timer.reloads)
	}
}

func TestPWM_StartArmsFullPeriod(t *testing.T) {
	out := &fakeOutput{level: true}
	timer := &fakePhaseTimer{}
	g := NewPWMGenerator(out, timer, 500)
	if err := g.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if out.Level() {
		t.Fatalf("output high after start")
	}
	if timer.Last() != 500 || g.LastReload() != 500 {
		t.Fatalf("reload=%d want 500", timer.Last())
	}
}

func TestPWM_SetPercentClamps(t *testing.T) {
	g := NewPWMGenerator(&fakeOutput{}, &fakePhaseTimer{}, 0)
	if g.PeriodMs() != 1000 {
		t.Fatalf("period=%d want default 1000", g.PeriodMs())
	}
	g.SetPercent(140)
	if g.Percent() != 100 {
		t.Fatalf("percent=%v want 100", g.Percent())
	}
	g.SetPercent(-3)
	if g.Percent() != 0 {
		t.Fatalf("percent=%v want 0", g.Percent())
	}
}

func TestPWM_OutputErrorStillFlipsPhase(t *testing.T) {
	out := &fakeOutput{err: errors.New("line busy")}
	timer := &fakePhaseTimer{}
	g := NewPWMGenerator(out, timer, 1000)
	if err := g.SetDuty(1000, 40); err == nil {
		t.Fatalf("expected error")
	}
	if g.Phase() != PhaseOn || timer.Last() != 400 {
		t.Fatalf("phase=%s reload=%d want on/400", g.Phase(), timer.Last())
	}
}
