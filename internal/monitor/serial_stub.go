//go:build !linux

package monitor

import (
	"fmt"
	"os"
)

func openSerial(path string, baud int) (*os.File, error) {
	return nil, fmt.Errorf("tsip serial not supported on this platform")
}
