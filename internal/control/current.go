package control

// SamplesPerReport is the number of 1 kHz ticks in one report window.
const SamplesPerReport = 1000

// CurrentConfig calibrates the current-sense channel.
type CurrentConfig struct {
	// Offset is the raw ADC code at zero current.
	Offset int
	// ScaleNum and ScaleDen form the sense amplifier divider: current =
	// average*ScaleNum/(2*ScaleDen).
	ScaleNum float64
	ScaleDen float64
}

// CurrentReading is one averaged window.
type CurrentReading struct {
	Average float64 // raw ADC codes, offset removed
	Current float64 // milliamps
}

// CurrentSampler averages ADC samples over SamplesPerReport ticks.
type CurrentSampler struct {
	cfg   CurrentConfig
	sum   int
	count int
}

func NewCurrentSampler(cfg CurrentConfig) *CurrentSampler {
	if cfg.ScaleNum == 0 {
		cfg.ScaleNum = 1000
	}
	if cfg.ScaleDen == 0 {
		cfg.ScaleDen = 3650
	}
	return &CurrentSampler{cfg: cfg}
}

// Accumulate adds one sample. It returns a reading and true on the sample
// that completes a window, after which the accumulator is empty.
func (c *CurrentSampler) Accumulate(raw uint16) (CurrentReading, bool) {
	c.sum += int(raw&0xFFF) - c.cfg.Offset
	c.count++
	if c.count < SamplesPerReport {
		return CurrentReading{}, false
	}

	avg := float64(c.sum) / SamplesPerReport
	c.sum = 0
	c.count = 0
	return CurrentReading{
		Average: avg,
		Current: avg * c.cfg.ScaleNum / (2 * c.cfg.ScaleDen),
	}, true
}

// Count returns the samples in the current window.
func (c *CurrentSampler) Count() int {
	return c.count
}
