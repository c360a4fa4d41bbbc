// Package display renders the once-per-second motor readouts.
package display

import "fmt"

// GaugeWidth is the number of cells in a full-scale bar.
const GaugeWidth = 50

// Readout is what the display shows each second.
type Readout struct {
	AvgRPM     int
	AvgCurrent float64 // mA
	Setpoint   uint32
	Duty       float64
	Stalled    bool
	Entry      string // seven-segment text for the digits being typed
}

// Renderer draws a readout.
type Renderer interface {
	Render(r Readout) error
	Close() error
}

// blankLeading replaces leading zeros in a fixed-width number with spaces,
// keeping the last digit.
func blankLeading(s string) string {
	b := []byte(s)
	for i := 0; i < len(b)-1 && b[i] == '0'; i++ {
		b[i] = ' '
	}
	return string(b)
}

// FormatRPM renders "RPM: nnnn" with leading zeros blanked.
func FormatRPM(rpm int) string {
	if rpm < 0 {
		rpm = 0
	}
	return "RPM: " + blankLeading(fmt.Sprintf("%04d", rpm%10000))
}

// FormatCurrent renders "Current: nnnn.d mA" with leading zeros blanked.
// The tenths digit is truncated, not rounded.
func FormatCurrent(ma float64) string {
	if ma < 0 {
		ma = 0
	}
	whole := int(ma)
	tenths := int(ma*10) % 10
	return fmt.Sprintf("Current: %s.%d mA", blankLeading(fmt.Sprintf("%04d", whole%10000)), tenths)
}

// GaugePercent returns the bar fill for a speed as a percentage of full
// scale.
func GaugePercent(avgRPM int, fullScale float64) float64 {
	if fullScale <= 0 {
		return 0
	}
	return float64(avgRPM)/fullScale*100 + 0.05
}

// GaugeCells returns how many of GaugeWidth cells are filled.
func GaugeCells(percent float64) int {
	n := int(percent * GaugeWidth / 100)
	if n < 0 {
		return 0
	}
	if n > GaugeWidth {
		return GaugeWidth
	}
	return n
}
