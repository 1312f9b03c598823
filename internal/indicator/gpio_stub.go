//go:build !linux

package indicator

// openLines on non-Linux hosts returns a no-op driver so the monitor can
// run on a development machine without GPIO hardware.
func openLines(disciplinedPin, connectedPin int) (Lines, error) {
	return noopLines{}, nil
}

type noopLines struct{}

func (noopLines) SetDisciplined(on bool) error { return nil }
func (noopLines) SetConnected(on bool) error   { return nil }
func (noopLines) Close() error                 { return nil }
