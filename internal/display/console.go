package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Console prints one line per readout. Colors are dropped automatically when
// the writer is not a terminal.
type Console struct {
	w         io.Writer
	fullScale float64

	label *color.Color
	value *color.Color
	bar   *color.Color
	alarm *color.Color
}

func NewConsole(w io.Writer, fullScale float64) *Console {
	return &Console{
		w:         w,
		fullScale: fullScale,
		label:     color.New(color.FgHiBlack),
		value:     color.New(color.FgHiWhite, color.Bold),
		bar:       color.New(color.FgBlue),
		alarm:     color.New(color.FgRed, color.Bold),
	}
}

func (c *Console) Render(r Readout) error {
	cells := GaugeCells(GaugePercent(r.AvgRPM, c.fullScale))
	gauge := "[" + c.bar.Sprint(strings.Repeat("#", cells)) + strings.Repeat(".", GaugeWidth-cells) + "]"

	line := c.value.Sprint(FormatRPM(r.AvgRPM)) + "  " +
		c.value.Sprint(FormatCurrent(r.AvgCurrent)) + "  " +
		gauge + "  " +
		c.label.Sprintf("set=%d duty=%.0f%%", r.Setpoint, r.Duty)
	if r.Entry != "" {
		line += c.label.Sprintf(" entry=%s", r.Entry)
	}
	if r.Stalled {
		line += " " + c.alarm.Sprint("STALLED")
	}
	_, err := fmt.Fprintln(c.w, line)
	return err
}

func (c *Console) Close() error { return nil }
