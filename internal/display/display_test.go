package display

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestFormatRPM(t *testing.T) {
	cases := []struct {
		rpm  int
		want string
	}{
		{0, "RPM:    0"},
		{7, "RPM:    7"},
		{250, "RPM:  250"},
		{1005, "RPM: 1005"},
		{-4, "RPM:    0"},
	}
	for _, tc := range cases {
		if got := FormatRPM(tc.rpm); got != tc.want {
			t.Fatalf("FormatRPM(%d)=%q want %q", tc.rpm, got, tc.want)
		}
	}
}

func TestFormatCurrent(t *testing.T) {
	cases := []struct {
		ma   float64
		want string
	}{
		{0, "Current:    0.0 mA"},
		{13.69, "Current:   13.6 mA"},
		{120.05, "Current:  120.0 mA"},
		{2048.5, "Current: 2048.5 mA"},
	}
	for _, tc := range cases {
		if got := FormatCurrent(tc.ma); got != tc.want {
			t.Fatalf("FormatCurrent(%v)=%q want %q", tc.ma, got, tc.want)
		}
	}
}

func TestGauge(t *testing.T) {
	if got := GaugeCells(GaugePercent(0, 350)); got != 0 {
		t.Fatalf("cells=%d want 0", got)
	}
	if got := GaugeCells(GaugePercent(175, 350)); got != GaugeWidth/2 {
		t.Fatalf("cells=%d want %d", got, GaugeWidth/2)
	}
	if got := GaugeCells(GaugePercent(350, 350)); got != GaugeWidth {
		t.Fatalf("cells=%d want %d", got, GaugeWidth)
	}
	if got := GaugeCells(GaugePercent(900, 350)); got != GaugeWidth {
		t.Fatalf("overrange cells=%d want %d", got, GaugeWidth)
	}
	if got := GaugePercent(10, 0); got != 0 {
		t.Fatalf("percent=%v want 0 for zero full scale", got)
	}
}

func TestLayout(t *testing.T) {
	f := Layout(Readout{AvgRPM: 70, AvgCurrent: 5.25, Setpoint: 80, Duty: 42, Stalled: true, Entry: "E_ __12"}, 350)
	if f.RPMText != "RPM:   70" {
		t.Fatalf("rpm=%q", f.RPMText)
	}
	if f.GaugeCells != 10 {
		t.Fatalf("cells=%d want 10", f.GaugeCells)
	}
	for _, want := range []string{"Set: 80", "Duty:  42%", "Entry: E_ __12", "STALLED"} {
		if !strings.Contains(f.StatusText, want) {
			t.Fatalf("status=%q missing %q", f.StatusText, want)
		}
	}
}

func TestConsole_Render(t *testing.T) {
	old := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = old })

	var buf bytes.Buffer
	c := NewConsole(&buf, 350)
	if err := c.Render(Readout{AvgRPM: 175, AvgCurrent: 12.3, Setpoint: 180, Duty: 55}); err != nil {
		t.Fatalf("Render: %v", err)
	}
	line := buf.String()
	want := "RPM:  175  Current:   12.3 mA  [" + strings.Repeat("#", 25) + strings.Repeat(".", 25) + "]  set=180 duty=55%\n"
	if line != want {
		t.Fatalf("line=%q\nwant=%q", line, want)
	}

	buf.Reset()
	if err := c.Render(Readout{Stalled: true}); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.HasSuffix(buf.String(), "STALLED\n") {
		t.Fatalf("line=%q want STALLED suffix", buf.String())
	}
}
