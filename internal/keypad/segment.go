package keypad

// Common-cathode seven-segment patterns, bit 0 = segment a.
var segmentDigits = [10]byte{0x3F, 0x06, 0x5B, 0x4F, 0x66, 0x6D, 0x7D, 0x07, 0x7F, 0x6F}

const (
	// SegmentE lights the letter E.
	SegmentE byte = 0x79
	// SegmentBlank lights nothing.
	SegmentBlank byte = 0x00
)

// EncodeDigit returns the segment pattern for '0'..'9' and blank for
// anything else.
func EncodeDigit(r rune) byte {
	if r < '0' || r > '9' {
		return SegmentBlank
	}
	return segmentDigits[r-'0']
}

// Segments is the content of a six-digit display: Lower holds four digits
// (index 0 rightmost), Upper the two digits above it.
type Segments struct {
	Lower [4]byte
	Upper [2]byte
}

// Pack returns the lower display as a 32-bit register word, rightmost digit
// in the low byte.
func (s Segments) Pack() uint32 {
	return uint32(s.Lower[3])<<24 | uint32(s.Lower[2])<<16 | uint32(s.Lower[1])<<8 | uint32(s.Lower[0])
}

// PackUpper returns the upper display as a 16-bit register word.
func (s Segments) PackUpper() uint16 {
	return uint16(s.Upper[1])<<8 | uint16(s.Upper[0])
}

// String renders the display as text, '_' for blanks, upper digits first.
func (s Segments) String() string {
	b := make([]byte, 0, 7)
	for i := 1; i >= 0; i-- {
		b = append(b, decodeSegment(s.Upper[i]))
	}
	b = append(b, ' ')
	for i := 3; i >= 0; i-- {
		b = append(b, decodeSegment(s.Lower[i]))
	}
	return string(b)
}

func decodeSegment(v byte) byte {
	if v == SegmentE {
		return 'E'
	}
	for i, p := range segmentDigits {
		if p == v {
			return byte('0' + i)
		}
	}
	return '_'
}
