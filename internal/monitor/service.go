package monitor

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"thunderbolt-ng/internal/metrics"
	"thunderbolt-ng/internal/tsip"
)

// Config controls the serial ingest service.
//
// The Thunderbolt talks TSIP at 9600 8N1 on its serial port. Device may be
// empty to auto-detect a USB adapter. Source "replay" reads a raw capture
// file instead, which is how the pipeline is exercised on a bench without
// the receiver attached.
type Config struct {
	// Source selects ingest: "serial" (default) or "replay".
	Source string

	Device string
	Baud   int

	ReplayPath string
	ReplayLoop bool
}

// Service feeds the receiver's byte stream through the framer and decoder
// into a Monitor. Failures while reading degrade to stale status; they
// never stop the process.
type Service struct {
	cfg Config
	mon *Monitor

	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	closer io.Closer
}

func NewService(cfg Config, mon *Monitor) *Service {
	return &Service{cfg: cfg, mon: mon}
}

func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.mon == nil {
		return fmt.Errorf("monitor service not configured")
	}
	if ctx == nil {
		return fmt.Errorf("ctx is nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return nil
	}

	metrics.Register()

	src := strings.ToLower(strings.TrimSpace(s.cfg.Source))
	if src == "" {
		src = "serial"
	}
	if src == "replay" {
		return s.startReplayLocked(ctx)
	}
	return s.startSerialLocked(ctx)
}

func (s *Service) startSerialLocked(ctx context.Context) error {
	device := strings.TrimSpace(s.cfg.Device)
	if device == "" {
		device = autoDetectDevice()
		if device == "" {
			return fmt.Errorf("tsip serial auto-detect failed: no /dev/ttyUSB* or /dev/ttyACM* found")
		}
	}

	baud := s.cfg.Baud
	if baud == 0 {
		baud = 9600
	}

	f, err := openSerial(device, baud)
	if err != nil {
		return fmt.Errorf("tsip open failed device=%s baud=%d: %w", device, baud, err)
	}
	s.closer = f

	childCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() { _ = f.Close() }()

		log.Printf("tsip ingest device=%s baud=%d", device, baud)
		s.readLoop(childCtx, f)
	}()
	return nil
}

func (s *Service) startReplayLocked(ctx context.Context) error {
	path := strings.TrimSpace(s.cfg.ReplayPath)
	if path == "" {
		return fmt.Errorf("tsip replay requires a capture path")
	}

	childCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		log.Printf("tsip ingest replay path=%s loop=%v", path, s.cfg.ReplayLoop)
		for {
			f, err := os.Open(path)
			if err != nil {
				log.Printf("tsip replay open failed: %v", err)
				return
			}
			s.mu.Lock()
			s.closer = f
			s.mu.Unlock()

			s.readPaced(childCtx, f)
			_ = f.Close()

			if !s.cfg.ReplayLoop || childCtx.Err() != nil {
				return
			}
		}
	}()
	return nil
}

// readLoop pulls bytes as they arrive and pushes them through the
// framer/decoder into the monitor. One framer lives for the whole
// connection so packets may straddle reads.
func (s *Service) readLoop(ctx context.Context, r io.Reader) {
	var framer tsip.Framer
	buf := make([]byte, 256)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		n, err := r.Read(buf)
		if n > 0 {
			s.ingest(&framer, buf[:n])
		}
		if err != nil {
			if ctx.Err() == nil {
				log.Printf("tsip read stopped: %v", err)
			}
			return
		}
	}
}

// readPaced is readLoop throttled to roughly the live 1 Hz report rate,
// used for capture replay.
func (s *Service) readPaced(ctx context.Context, r io.Reader) {
	var framer tsip.Framer
	buf := make([]byte, 64)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		n, err := r.Read(buf)
		if n > 0 {
			s.ingest(&framer, buf[:n])
		}
		if err != nil {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(50 * time.Millisecond):
		}
	}
}

func (s *Service) ingest(framer *tsip.Framer, chunk []byte) {
	droppedBefore := framer.Dropped
	frames := framer.Feed(chunk)
	if d := framer.Dropped - droppedBefore; d > 0 {
		metrics.FramesDroppedTotal.Add(float64(d))
	}

	for _, frame := range frames {
		metrics.FramesTotal.Inc()
		rep, err := tsip.Decode(frame)
		if err != nil {
			// Truncated layouts are dropped, not surfaced; the transport
			// has no error correction and the next report is a second away.
			metrics.DecodeErrorsTotal.Inc()
			continue
		}
		if _, ok := rep.(tsip.Unrecognized); ok {
			metrics.UnrecognizedTotal.Inc()
		} else {
			metrics.ReportsAppliedTotal.Inc()
		}
		s.mon.Apply(time.Now().UTC(), rep)
	}
}

func (s *Service) Close() {
	if s == nil {
		return
	}
	s.mu.Lock()
	cancel := s.cancel
	closer := s.closer
	s.cancel = nil
	s.closer = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if closer != nil {
		_ = closer.Close()
	}
	s.wg.Wait()
}

func autoDetectDevice() string {
	candidates := []string{}
	for i := 0; i < 10; i++ {
		candidates = append(candidates, fmt.Sprintf("/dev/ttyUSB%d", i))
	}
	for i := 0; i < 10; i++ {
		candidates = append(candidates, fmt.Sprintf("/dev/ttyACM%d", i))
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
