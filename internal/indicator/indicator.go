// Package indicator drives the two panel outputs: a "disciplined" lamp
// and a "connected" lamp. It only consumes monitor state; all decisions
// live in the monitor's pure predicates.
package indicator

import (
	"context"
	"fmt"
	"log"
	"time"

	"thunderbolt-ng/internal/metrics"
	"thunderbolt-ng/internal/monitor"
)

// Lines is the pair of boolean outputs. Implementations must tolerate
// repeated writes of the same value.
type Lines interface {
	SetDisciplined(on bool) error
	SetConnected(on bool) error
	Close() error
}

type Config struct {
	Enable         bool
	DisciplinedPin int
	ConnectedPin   int
	Period         time.Duration
}

// Open returns the platform GPIO lines for the configured pins.
func Open(cfg Config) (Lines, error) {
	if cfg.DisciplinedPin <= 0 || cfg.ConnectedPin <= 0 {
		return nil, fmt.Errorf("indicator: invalid pins %d/%d", cfg.DisciplinedPin, cfg.ConnectedPin)
	}
	return openLines(cfg.DisciplinedPin, cfg.ConnectedPin)
}

// Service recomputes both outputs on a fixed tick. The tick is also the
// external check that lets "connected" decay to false when the receiver
// goes quiet; message arrival alone never turns it off.
type Service struct {
	mon    *monitor.Monitor
	out    Lines
	period time.Duration
}

func NewService(mon *monitor.Monitor, out Lines, period time.Duration) *Service {
	if period <= 0 {
		period = time.Second
	}
	return &Service{mon: mon, out: out, period: period}
}

func (s *Service) Run(ctx context.Context) {
	ticker := time.NewTicker(s.period)
	defer ticker.Stop()
	defer func() {
		// Dark panel on shutdown.
		_ = s.out.SetDisciplined(false)
		_ = s.out.SetConnected(false)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.tick(now.UTC())
		}
	}
}

func (s *Service) tick(now time.Time) {
	connected := s.mon.IsConnected(now)
	disciplined := s.mon.Disciplined()

	metrics.SetConnected(connected)
	metrics.SetDisciplined(disciplined)

	if err := s.out.SetConnected(connected); err != nil {
		log.Printf("indicator: connected line: %v", err)
	}
	if err := s.out.SetDisciplined(disciplined); err != nil {
		log.Printf("indicator: disciplined line: %v", err)
	}
}
