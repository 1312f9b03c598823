package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"thunderbolt-ng/internal/monitor"
	"thunderbolt-ng/internal/tsip"
)

func TestAPIStatus(t *testing.T) {
	mon := monitor.New(0)
	mon.Apply(time.Now().UTC(), tsip.TimingReport{
		ReceiverMode:   7,
		DisciplineMode: tsip.DisciplineNormal,
		MinorAlarms:    tsip.MinorNoSatellites,
	})

	ts := httptest.NewServer(Handler(mon))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/status")
	if err != nil {
		t.Fatalf("get status: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status code=%d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content-type=%q", ct)
	}

	var snap monitor.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if !snap.Connected {
		t.Fatalf("expected connected=true")
	}
	if snap.ReceiverMode != 7 || snap.MinorAlarms != 8 {
		t.Fatalf("snapshot mismatch: %+v", snap)
	}
	if !snap.Disciplined {
		t.Fatalf("expected disciplined=true")
	}
}

func TestAPIStatus_FieldNamesAreStable(t *testing.T) {
	mon := monitor.New(0)
	ts := httptest.NewServer(Handler(mon))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/status")
	if err != nil {
		t.Fatalf("get status: %v", err)
	}
	defer resp.Body.Close()

	var raw map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	// The page contract: these names must not change.
	for _, key := range []string{
		"connected", "receiver_mode", "discipline_mode", "holdover_duration",
		"gps_status", "minor_alarms", "critical_alarms", "latitude",
		"longitude", "altitude", "satellites", "fix_dim", "unixtime", "time",
	} {
		if _, ok := raw[key]; !ok {
			t.Fatalf("missing status field %q", key)
		}
	}
}

func TestAPIStatus_MethodNotAllowed(t *testing.T) {
	ts := httptest.NewServer(Handler(monitor.New(0)))
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/status", "text/plain", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status code=%d want 405", resp.StatusCode)
	}
}

func TestIndexPage(t *testing.T) {
	ts := httptest.NewServer(Handler(monitor.New(0)))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("get index: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status code=%d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "Thunderbolt") {
		t.Fatalf("index page missing title")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts := httptest.NewServer(Handler(monitor.New(0)))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("get metrics: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status code=%d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "tsip_frames_total") {
		t.Fatalf("metrics output missing tsip_frames_total")
	}
}

func TestAPIAbout(t *testing.T) {
	ts := httptest.NewServer(Handler(monitor.New(0)))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/about")
	if err != nil {
		t.Fatalf("get about: %v", err)
	}
	defer resp.Body.Close()

	var about AboutResponse
	if err := json.NewDecoder(resp.Body).Decode(&about); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if about.Service != "thunderbolt-ng" {
		t.Fatalf("service=%q", about.Service)
	}
	if about.GoVersion == "" {
		t.Fatalf("expected go_version")
	}
}
