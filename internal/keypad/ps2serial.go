package keypad

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/tarm/serial"
)

var openPortFn = func(device string, baud int) (io.ReadCloser, error) {
	return serial.OpenPort(&serial.Config{Name: device, Baud: baud, ReadTimeout: 200 * time.Millisecond})
}

// Handler receives decoded keypad actions.
type Handler interface {
	// Commit receives a completed setpoint entry.
	Commit(setpoint uint32)
	// Feedback receives the segment display after every accepted key.
	Feedback(seg Segments)
}

// Reader feeds scan codes from a PS/2-to-UART bridge into an Entry.
type Reader struct {
	device string
	baud   int

	dec   ScanDecoder
	entry *Entry
	h     Handler
}

func NewReader(device string, baud int, entry *Entry, h Handler) *Reader {
	return &Reader{device: device, baud: baud, entry: entry, h: h}
}

// Run reads until ctx is canceled or the port fails.
func (r *Reader) Run(ctx context.Context) error {
	port, err := openPortFn(r.device, r.baud)
	if err != nil {
		return fmt.Errorf("keypad: open %s: %w", r.device, err)
	}
	go func() {
		<-ctx.Done()
		_ = port.Close()
	}()
	log.Printf("keypad: ps2 serial reader started device=%s baud=%d", r.device, r.baud)
	return r.consume(ctx, port, true)
}

// consume reads scan codes from src. A serial port with a read timeout
// reports an idle line as io.EOF, so eofIsIdle keeps reading past it.
func (r *Reader) consume(ctx context.Context, src io.Reader, eofIsIdle bool) error {
	buf := make([]byte, 64)
	for {
		n, err := src.Read(buf)
		for _, b := range buf[:n] {
			r.FeedCode(b)
		}
		if ctx.Err() != nil {
			return nil
		}
		switch {
		case err == nil:
		case errors.Is(err, io.EOF) && eofIsIdle:
		case errors.Is(err, io.EOF):
			return nil
		default:
			return fmt.Errorf("keypad: read %s: %w", r.device, err)
		}
	}
}

// FeedCode applies one scan code byte.
func (r *Reader) FeedCode(code byte) {
	k, ok := r.dec.Feed(code)
	if !ok {
		return
	}
	v, committed := r.entry.Press(k)
	if committed {
		r.h.Commit(v)
	}
	r.h.Feedback(r.entry.Segments())
}
