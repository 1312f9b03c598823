//go:build linux

package indicator

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/warthog618/go-gpiocdev"
)

// openLines requests the two BCM GPIOs as digital outputs through the
// Linux GPIO character device.
func openLines(disciplinedPin, connectedPin int) (Lines, error) {
	disc, err := requestOutput(disciplinedPin)
	if err != nil {
		return nil, err
	}
	conn, err := requestOutput(connectedPin)
	if err != nil {
		_ = disc.close()
		return nil, err
	}
	return &gpioLines{disciplined: disc, connected: conn}, nil
}

type gpioLine struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
}

func requestOutput(pin int) (*gpioLine, error) {
	// On Pi, line names are commonly "GPIO18", etc.
	lineName := fmt.Sprintf("GPIO%d", pin)

	chipCandidates := []string{"/dev/gpiochip0", "/dev/gpiochip4"}
	entries, _ := os.ReadDir("/dev")
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, "gpiochip") {
			chipCandidates = append(chipCandidates, filepath.Join("/dev", name))
		}
	}

	for _, chipPath := range chipCandidates {
		chip, err := gpiocdev.NewChip(chipPath)
		if err != nil {
			continue
		}
		offset, err := chip.FindLine(lineName)
		if err != nil {
			_ = chip.Close()
			continue
		}
		line, err := chip.RequestLine(offset, gpiocdev.AsOutput(0), gpiocdev.WithConsumer("thunderbolt-ng"))
		if err != nil {
			_ = chip.Close()
			continue
		}
		return &gpioLine{chip: chip, line: line}, nil
	}

	return nil, fmt.Errorf("indicator: gpio line %q not found (or busy)", lineName)
}

func (g *gpioLine) set(on bool) error {
	if g == nil || g.line == nil {
		return fmt.Errorf("indicator: gpio line not initialized")
	}
	v := 0
	if on {
		v = 1
	}
	return g.line.SetValue(v)
}

func (g *gpioLine) close() error {
	if g == nil || g.line == nil {
		return nil
	}
	_ = g.line.SetValue(0)
	err := g.line.Close()
	g.line = nil
	if g.chip != nil {
		_ = g.chip.Close()
		g.chip = nil
	}
	return err
}

type gpioLines struct {
	disciplined *gpioLine
	connected   *gpioLine
}

func (g *gpioLines) SetDisciplined(on bool) error { return g.disciplined.set(on) }
func (g *gpioLines) SetConnected(on bool) error   { return g.connected.set(on) }

func (g *gpioLines) Close() error {
	err1 := g.disciplined.close()
	err2 := g.connected.close()
	if err1 != nil {
		return err1
	}
	return err2
}
