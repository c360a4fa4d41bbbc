package control

import "sync/atomic"

// RpmEstimator turns pulse edges into a speed estimate once per control
// evaluation.
//
// OnPulseEdge may be called from any goroutine. Every other method belongs to
// the event loop.
type RpmEstimator struct {
	pulses atomic.Uint32

	// residue carries the negated timer fraction from the previous
	// evaluation so a partial pulse is not counted twice.
	residue float64

	sum   float64
	count int
}

func (e *RpmEstimator) OnPulseEdge() {
	e.pulses.Add(1)
}

// Pulses returns the edges counted since the last Finalize.
func (e *RpmEstimator) Pulses() uint32 {
	return e.pulses.Load()
}

// Finalize computes the rate for the evaluation that just ended and resets
// the pulse counter. fraction is the pulse timer's elapsed share.
func (e *RpmEstimator) Finalize(loopPeriodMs int, fraction float64) float64 {
	if loopPeriodMs <= 0 {
		return 0
	}
	count := e.pulses.Swap(0)
	e.residue += fraction
	rate := (1000.0 / float64(loopPeriodMs)) * (float64(count) + e.residue)
	e.residue = -fraction

	e.sum += rate
	e.count++
	return rate
}

// Residue is the fractional pulse carried into the next evaluation.
func (e *RpmEstimator) Residue() float64 {
	return e.residue
}

// TakeAverage returns the rounded mean of the estimates since the last call
// and starts a new window. An empty window averages to 0.
func (e *RpmEstimator) TakeAverage() int {
	if e.count == 0 {
		return 0
	}
	avg := int(e.sum/float64(e.count) + 0.5)
	e.sum = 0
	e.count = 0
	return avg
}

// Idle drops the accumulated residue so a quiet motor reads exactly zero.
func (e *RpmEstimator) Idle() {
	e.residue = 0
	e.pulses.Store(0)
}
