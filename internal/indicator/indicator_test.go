package indicator

import (
	"sync"
	"testing"
	"time"

	"thunderbolt-ng/internal/monitor"
	"thunderbolt-ng/internal/tsip"
)

type fakeLines struct {
	mu          sync.Mutex
	disciplined bool
	connected   bool
}

func (f *fakeLines) SetDisciplined(on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disciplined = on
	return nil
}

func (f *fakeLines) SetConnected(on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = on
	return nil
}

func (f *fakeLines) Close() error { return nil }

func (f *fakeLines) state() (bool, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.disciplined, f.connected
}

func TestService_TickDrivesBothLines(t *testing.T) {
	mon := monitor.New(3 * time.Second)
	out := &fakeLines{}
	svc := NewService(mon, out, time.Second)

	t0 := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	// Fresh state: both off.
	svc.tick(t0)
	if d, c := out.state(); d || c {
		t.Fatalf("expected both lines off at startup, got %v/%v", d, c)
	}

	// Disciplined report: both on.
	mon.Apply(t0, tsip.TimingReport{DisciplineMode: tsip.DisciplineNormal})
	svc.tick(t0.Add(time.Second))
	if d, c := out.state(); !d || !c {
		t.Fatalf("expected both lines on, got %v/%v", d, c)
	}

	// Holdover report: connected stays on, disciplined drops.
	mon.Apply(t0.Add(2*time.Second), tsip.TimingReport{DisciplineMode: tsip.DisciplineAutoHold})
	svc.tick(t0.Add(3 * time.Second))
	if d, c := out.state(); d || !c {
		t.Fatalf("expected connected only, got %v/%v", d, c)
	}

	// Silence past the threshold: connected decays on the next tick even
	// though no message arrival drove the change.
	svc.tick(t0.Add(30 * time.Second))
	if _, c := out.state(); c {
		t.Fatalf("expected connected to decay after silence")
	}
}

func TestOpen_RejectsInvalidPins(t *testing.T) {
	if _, err := Open(Config{DisciplinedPin: 0, ConnectedPin: 3}); err == nil {
		t.Fatalf("expected error for invalid pin")
	}
}
