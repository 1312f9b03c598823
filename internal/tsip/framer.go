package tsip

const (
	// DLE opens every packet and doubles as the escape byte inside one.
	// DLE ETX terminates a packet.
	DLE = 0x10
	ETX = 0x03

	// maxFrame caps reassembly. The longest packet we care about (0x8F-AC)
	// is 68 payload bytes; anything past this is line noise that happened
	// to look like an open frame.
	maxFrame = 1024
)

type framerState int

const (
	stateIdle    framerState = iota // waiting for DLE
	stateInFrame                    // copying payload bytes
	stateEscape                     // last byte was DLE inside a frame
)

// Framer reassembles TSIP packets from a raw serial stream. It keeps the
// open frame across Feed calls, so reads may split a packet at any byte
// boundary. The zero value is ready to use.
type Framer struct {
	state framerState
	buf   []byte

	// Dropped counts payloads discarded for being empty or overrunning
	// maxFrame. Diagnostics only.
	Dropped uint64
}

// Feed consumes a chunk of serial bytes and returns the payloads of all
// packets completed by it, delimiters stripped and stuffed DLEs unescaped.
// Bytes seen outside a frame are discarded (resynchronization after noise).
func (f *Framer) Feed(p []byte) [][]byte {
	var frames [][]byte
	for _, b := range p {
		switch f.state {
		case stateIdle:
			if b == DLE {
				f.state = stateInFrame
				f.buf = f.buf[:0]
			}
		case stateInFrame:
			if b == DLE {
				f.state = stateEscape
			} else {
				f.buf = append(f.buf, b)
			}
		case stateEscape:
			if b == ETX {
				if len(f.buf) == 0 {
					f.Dropped++
				} else {
					frame := make([]byte, len(f.buf))
					copy(frame, f.buf)
					frames = append(frames, frame)
				}
				f.state = stateIdle
				f.buf = f.buf[:0]
				continue
			}
			// DLE DLE is a stuffed literal; any other byte after DLE is
			// also data per the reassembly rules the receiver documents.
			f.buf = append(f.buf, b)
			f.state = stateInFrame
		}
		if len(f.buf) > maxFrame {
			f.Dropped++
			f.buf = f.buf[:0]
			f.state = stateIdle
		}
	}
	return frames
}

// Reset discards any partially assembled frame.
func (f *Framer) Reset() {
	f.state = stateIdle
	f.buf = f.buf[:0]
}
