package keypad

import "sync"

// EntryState tracks whether digits are pending.
type EntryState uint8

const (
	// EntryEmpty has no pending digits; the lower display shows the last
	// committed value.
	EntryEmpty EntryState = iota
	// EntryTyping has at least one pending digit and shows E on the upper
	// display.
	EntryTyping
)

func (s EntryState) String() string {
	if s == EntryTyping {
		return "typing"
	}
	return "empty"
}

// MaxDigits is the width of the entry register.
const MaxDigits = 4

// Entry collects up to four digits; the newest digit is the least
// significant. Typing a fifth digit shifts the oldest out. The reset button
// and the keyboard may drive an Entry from different goroutines.
type Entry struct {
	mu     sync.Mutex
	state  EntryState
	digits [MaxDigits]rune // index 0 newest, 0 = empty slot
	seg    Segments
}

func NewEntry() *Entry {
	e := &Entry{}
	e.reset()
	return e
}

// Press applies one key. It returns the committed value and true when Enter
// completes an entry with at least one digit.
func (e *Entry) Press(k Key) (uint32, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch {
	case k == KeyEnter:
		if e.state != EntryTyping {
			return 0, false
		}
		v := e.value()
		e.digits = [MaxDigits]rune{}
		e.state = EntryEmpty
		e.seg.Upper = [2]byte{}
		return v, true
	case k >= '0' && k <= '9':
		copy(e.digits[1:], e.digits[:MaxDigits-1])
		e.digits[0] = rune(k)
		e.state = EntryTyping
		e.seg.Upper = [2]byte{SegmentBlank, SegmentE}
		for i, d := range e.digits {
			e.seg.Lower[i] = EncodeDigit(d)
		}
		return 0, false
	default:
		return 0, false
	}
}

func (e *Entry) value() uint32 {
	var v uint32
	mul := uint32(1)
	for _, d := range e.digits {
		if d != 0 {
			v += uint32(d-'0') * mul
		}
		mul *= 10
	}
	return v
}

// Reset discards pending digits and shows 0, as the reset button does.
func (e *Entry) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reset()
}

func (e *Entry) reset() {
	e.state = EntryEmpty
	e.digits = [MaxDigits]rune{}
	e.seg = Segments{}
	e.seg.Lower[0] = EncodeDigit('0')
}

func (e *Entry) State() EntryState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Pending returns the digits typed so far, oldest first.
func (e *Entry) Pending() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	b := make([]rune, 0, MaxDigits)
	for i := MaxDigits - 1; i >= 0; i-- {
		if e.digits[i] != 0 {
			b = append(b, e.digits[i])
		}
	}
	return string(b)
}

// Segments returns the current seven-segment feedback.
func (e *Entry) Segments() Segments {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.seg
}
