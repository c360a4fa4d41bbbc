// Package keypad turns keyboard input into committed speed setpoints and
// seven-segment feedback for the digits being typed.
package keypad

// PS/2 scan code set 2.
const (
	codeBreak = 0xF0
	codeEnter = 0x5A
)

var digitCodes = map[byte]rune{
	0x70: '0',
	0x69: '1',
	0x72: '2',
	0x7A: '3',
	0x6B: '4',
	0x73: '5',
	0x74: '6',
	0x6C: '7',
	0x75: '8',
	0x7D: '9',
}

// Key is a decoded keypad key.
type Key rune

const (
	KeyNone  Key = 0
	KeyEnter Key = '\n'
)

// KeyForCode translates a set-2 make code. Unknown codes return KeyNone.
func KeyForCode(code byte) Key {
	if code == codeEnter {
		return KeyEnter
	}
	if r, ok := digitCodes[code]; ok {
		return Key(r)
	}
	return KeyNone
}

// ScanDecoder acts on a key when it is released: the break prefix 0xF0 arms
// the decoder and the following code is translated. Make codes on their own
// are ignored, so auto-repeat does not produce extra digits.
type ScanDecoder struct {
	armed bool
}

// Feed consumes one byte from the keyboard. It returns the released key and
// true when a recognized key was released.
func (d *ScanDecoder) Feed(code byte) (Key, bool) {
	if code == codeBreak {
		d.armed = true
		return KeyNone, false
	}
	if !d.armed {
		return KeyNone, false
	}
	d.armed = false
	k := KeyForCode(code)
	return k, k != KeyNone
}
