package tsip

import (
	"bytes"
	"testing"
)

// stuff wraps a payload in DLE/ETX framing with DLE byte-stuffing, the way
// the receiver transmits it.
func stuff(payload []byte) []byte {
	out := []byte{DLE}
	for _, b := range payload {
		if b == DLE {
			out = append(out, DLE)
		}
		out = append(out, b)
	}
	return append(out, DLE, ETX)
}

func TestFramer_SingleFrame(t *testing.T) {
	var f Framer
	payload := []byte{0x8F, 0xAC, 0x01, 0x02}
	frames := f.Feed(stuff(payload))
	if len(frames) != 1 {
		t.Fatalf("expected 1 frame, got %d", len(frames))
	}
	if !bytes.Equal(frames[0], payload) {
		t.Fatalf("payload mismatch: got % x", frames[0])
	}
}

func TestFramer_UnstuffsEscapedDLE(t *testing.T) {
	var f Framer
	payload := []byte{0x8F, DLE, 0x42, DLE, DLE}
	frames := f.Feed(stuff(payload))
	if len(frames) != 1 {
		t.Fatalf("expected 1 frame, got %d", len(frames))
	}
	if !bytes.Equal(frames[0], payload) {
		t.Fatalf("unstuff mismatch: got % x want % x", frames[0], payload)
	}
}

func TestFramer_SplitAcrossFeeds(t *testing.T) {
	payload := []byte{0x8F, 0xAB, DLE, 0x07, 0x09}
	raw := stuff(payload)

	// Splitting at every byte boundary must decode identically to one call.
	for cut := 0; cut <= len(raw); cut++ {
		var f Framer
		var frames [][]byte
		frames = append(frames, f.Feed(raw[:cut])...)
		frames = append(frames, f.Feed(raw[cut:])...)
		if len(frames) != 1 {
			t.Fatalf("cut=%d: expected 1 frame, got %d", cut, len(frames))
		}
		if !bytes.Equal(frames[0], payload) {
			t.Fatalf("cut=%d: payload mismatch: got % x", cut, frames[0])
		}
	}
}

func TestFramer_DiscardsNoiseBeforeStart(t *testing.T) {
	var f Framer
	payload := []byte{0x6D, 0x26}
	raw := append([]byte{0xFF, 0x00, 0x42, ETX}, stuff(payload)...)
	frames := f.Feed(raw)
	if len(frames) != 1 {
		t.Fatalf("expected 1 frame after noise, got %d", len(frames))
	}
	if !bytes.Equal(frames[0], payload) {
		t.Fatalf("payload mismatch: got % x", frames[0])
	}
}

func TestFramer_DropsEmptyFrame(t *testing.T) {
	var f Framer
	frames := f.Feed([]byte{DLE, DLE, ETX})
	if len(frames) != 0 {
		t.Fatalf("expected empty frame to be dropped, got %d frames", len(frames))
	}
	if f.Dropped != 1 {
		t.Fatalf("expected Dropped=1, got %d", f.Dropped)
	}
}

func TestFramer_MultipleFramesOneFeed(t *testing.T) {
	a := []byte{0x8F, 0xAB, 0x01}
	b := []byte{0x6D, 0x26, 0x02}
	raw := append(stuff(a), stuff(b)...)

	var f Framer
	frames := f.Feed(raw)
	if len(frames) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(frames))
	}
	if !bytes.Equal(frames[0], a) || !bytes.Equal(frames[1], b) {
		t.Fatalf("frames mismatch: % x / % x", frames[0], frames[1])
	}
}

func TestFramer_OverrunResyncs(t *testing.T) {
	var f Framer
	junk := make([]byte, maxFrame+64)
	for i := range junk {
		junk[i] = 0x55
	}
	frames := f.Feed(append([]byte{DLE}, junk...))
	if len(frames) != 0 {
		t.Fatalf("expected no frames from overrun, got %d", len(frames))
	}
	if f.Dropped == 0 {
		t.Fatalf("expected overrun to count as dropped")
	}

	// The framer must still pick up a clean frame afterwards.
	payload := []byte{0x8F, 0xAC, 0x00}
	frames = f.Feed(stuff(payload))
	if len(frames) != 1 || !bytes.Equal(frames[0], payload) {
		t.Fatalf("expected recovery frame, got %v", frames)
	}
}

func TestFramer_NeverLeaksDelimiters(t *testing.T) {
	// A payload made entirely of delimiter/escape bytes must survive the
	// round trip; stuffed DLEs come back as single literals.
	payload := []byte{DLE, DLE, ETX, DLE, 0x99, ETX, DLE}
	raw := stuff(payload)

	var f Framer
	frames := f.Feed(raw)
	if len(frames) != 1 {
		t.Fatalf("expected 1 frame, got %d", len(frames))
	}
	if !bytes.Equal(frames[0], payload) {
		t.Fatalf("escape handling mismatch: got % x want % x", frames[0], payload)
	}
}
