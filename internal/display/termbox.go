package display

import (
	"context"
	"fmt"
	"sync"

	"github.com/nsf/termbox-go"

	"motorctl/internal/keypad"
)

// Frame is a laid-out screen: text rows plus a gauge row.
type Frame struct {
	RPMText     string
	CurrentText string
	StatusText  string
	GaugeCells  int
}

// Layout computes the screen content for a readout.
func Layout(r Readout, fullScale float64) Frame {
	status := fmt.Sprintf("Set: %d  Duty: %3.0f%%", r.Setpoint, r.Duty)
	if r.Entry != "" {
		status += "  Entry: " + r.Entry
	}
	if r.Stalled {
		status += "  STALLED"
	}
	return Frame{
		RPMText:     FormatRPM(r.AvgRPM),
		CurrentText: FormatCurrent(r.AvgCurrent),
		StatusText:  status,
		GaugeCells:  GaugeCells(GaugePercent(r.AvgRPM, fullScale)),
	}
}

const (
	rowRPM     = 1
	rowGauge   = 3
	rowCurrent = 5
	rowStatus  = 7
	rowHelp    = 9
	gaugeX     = 2
)

// Termbox draws readouts on the terminal and turns key presses into keypad
// keys. Render may be called from any goroutine.
type Termbox struct {
	mu        sync.Mutex
	fullScale float64
}

func NewTermbox(fullScale float64) (*Termbox, error) {
	if err := termbox.Init(); err != nil {
		return nil, fmt.Errorf("display: termbox init: %w", err)
	}
	termbox.SetInputMode(termbox.InputEsc)
	return &Termbox{fullScale: fullScale}, nil
}

func writeText(x, y int, s string, fg termbox.Attribute) {
	for i, ch := range s {
		termbox.SetCell(x+i, y, ch, fg, termbox.ColorBlack)
	}
}

func (t *Termbox) Render(r Readout) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	f := Layout(r, t.fullScale)
	if err := termbox.Clear(termbox.ColorDefault, termbox.ColorBlack); err != nil {
		return err
	}
	writeText(1, rowRPM, f.RPMText, termbox.ColorWhite)

	// Gauge frame, then the fill.
	for x := 0; x < GaugeWidth+2; x++ {
		termbox.SetCell(gaugeX-1+x, rowGauge, ' ', termbox.ColorDefault, termbox.ColorWhite)
	}
	for x := 0; x < f.GaugeCells; x++ {
		termbox.SetCell(gaugeX+x, rowGauge, ' ', termbox.ColorDefault, termbox.ColorBlue)
	}

	writeText(1, rowCurrent, f.CurrentText, termbox.ColorWhite)
	fg := termbox.ColorWhite
	if r.Stalled {
		fg = termbox.ColorRed
	}
	writeText(1, rowStatus, f.StatusText, fg)
	writeText(1, rowHelp, "0-9 Enter: set speed   r: reset   q: quit", termbox.ColorWhite)
	return termbox.Flush()
}

// KeyActions receives terminal key presses.
type KeyActions struct {
	Key   func(k keypad.Key)
	Reset func()
	Quit  func()
}

var (
	pollEventFn = termbox.PollEvent
	interruptFn = termbox.Interrupt
)

// PollKeys blocks reading terminal events until ctx is canceled or the user
// quits. It returns only once the poll has been interrupted, so the
// interrupting goroutine never outlives it. A terminal error quits.
func (t *Termbox) PollKeys(ctx context.Context, a KeyActions) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-ctx.Done()
		// Blocks until the poll below takes it.
		interruptFn()
	}()

	quit := func() {
		if a.Quit != nil {
			a.Quit()
		}
		cancel()
	}
	for {
		ev := pollEventFn()
		switch ev.Type {
		case termbox.EventInterrupt:
			return
		case termbox.EventError:
			quit()
			continue
		case termbox.EventKey:
		default:
			continue
		}
		if ctx.Err() != nil {
			continue
		}
		switch {
		case ev.Key == termbox.KeyEnter:
			a.Key(keypad.KeyEnter)
		case ev.Key == termbox.KeyCtrlC || ev.Ch == 'q':
			quit()
		case ev.Key == termbox.KeyEsc || ev.Ch == 'r':
			a.Reset()
		case ev.Ch >= '0' && ev.Ch <= '9':
			a.Key(keypad.Key(ev.Ch))
		}
	}
}

func (t *Termbox) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	termbox.Close()
	return nil
}
