package monitor

import (
	"sync"
	"time"

	"thunderbolt-ng/internal/tsip"
)

// DefaultStaleAfter is how long the monitor waits without a decoded
// message before reporting disconnected. The receiver emits reports at
// roughly 1 Hz, so five intervals tolerates a few dropped messages
// without flapping while still reading as "dead" quickly.
const DefaultStaleAfter = 5 * time.Second

// ModeUnknown is the startup sentinel for the mode/status bytes. The
// receiver never transmits it (receiver mode is 0-7, disciplining mode
// 0-6), so a snapshot showing it means no timing report has arrived yet.
const ModeUnknown = 0xFF

// Monitor owns the latest known value of every tracked field. It is the
// single writer boundary for the pipeline: the ingest goroutine calls
// Apply, everything else reads copies via Snapshot.
type Monitor struct {
	mu         sync.Mutex
	staleAfter time.Duration

	receiverMode   uint8
	disciplineMode uint8
	gpsStatus      uint8
	surveyProgress uint8
	holdoverSec    uint32
	minorAlarms    uint16
	criticalAlarms uint16

	ppsOffsetNs  float32
	oscOffsetPPB float32
	dacVoltage   float32
	tempC        float32

	latitude  float64 // radians
	longitude float64 // radians
	altitude  float64 // meters

	satellites uint8
	fixDim     uint8
	pdop       float32
	hdop       float32
	vdop       float32
	tdop       float32

	utc        time.Time
	lastUpdate time.Time
	seen       bool
}

func New(staleAfter time.Duration) *Monitor {
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	return &Monitor{
		staleAfter:     staleAfter,
		receiverMode:   ModeUnknown,
		disciplineMode: ModeUnknown,
		gpsStatus:      ModeUnknown,
	}
}

// Apply folds one decoded report into the status. Each report variant
// updates only the fields it carries; fields from other variants are left
// alone, so a position report never clears timing state. Every report,
// including Unrecognized, refreshes the liveness clock: a framed, decoded
// packet of any type proves the receiver is talking.
func (m *Monitor) Apply(now time.Time, rep tsip.Report) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch r := rep.(type) {
	case tsip.TimingReport:
		m.receiverMode = r.ReceiverMode
		m.disciplineMode = r.DisciplineMode
		m.surveyProgress = r.SurveyProgress
		m.holdoverSec = r.HoldoverSec
		m.criticalAlarms = r.CriticalAlarms
		m.minorAlarms = r.MinorAlarms
		m.gpsStatus = r.GPSStatus
		m.ppsOffsetNs = r.PPSOffsetNs
		m.oscOffsetPPB = r.OscOffsetPPB
		m.dacVoltage = r.DACVoltage
		m.tempC = r.TempC
		m.latitude = r.Latitude
		m.longitude = r.Longitude
		m.altitude = r.Altitude
	case tsip.TimeReport:
		m.utc = r.UTC
	case tsip.PositionReport:
		m.latitude = r.Latitude
		m.longitude = r.Longitude
		m.altitude = r.Altitude
	case tsip.SatelliteReport:
		m.satellites = r.SatellitesUsed
		m.fixDim = r.FixDimension
		m.pdop = r.PDOP
		m.hdop = r.HDOP
		m.vdop = r.VDOP
		m.tdop = r.TDOP
	case tsip.Unrecognized:
		// liveness only
	}

	m.lastUpdate = now
	m.seen = true
}

// IsConnected is a pure function of the last update time and the
// staleness threshold; the periodic caller supplies now, so a timer, a
// polling loop or a test drive it identically.
func (m *Monitor) IsConnected(now time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connectedLocked(now)
}

func (m *Monitor) connectedLocked(now time.Time) bool {
	return m.seen && now.Sub(m.lastUpdate) <= m.staleAfter
}

// Disciplined reports whether the oscillator is locked to GPS. No
// hysteresis: the receiver firmware already damps its disciplining mode.
func (m *Monitor) Disciplined() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.disciplineMode == tsip.DisciplineNormal
}

// Snapshot is the status-page view of the device. Field names are fixed;
// the page scales radians to degrees and meters to feet itself.
type Snapshot struct {
	Connected        bool    `json:"connected"`
	ReceiverMode     uint8   `json:"receiver_mode"`
	DisciplineMode   uint8   `json:"discipline_mode"`
	HoldoverDuration uint32  `json:"holdover_duration"`
	GPSStatus        uint8   `json:"gps_status"`
	MinorAlarms      uint16  `json:"minor_alarms"`
	CriticalAlarms   uint16  `json:"critical_alarms"`
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	Altitude         float64 `json:"altitude"`
	Satellites       uint8   `json:"satellites"`
	FixDim           uint8   `json:"fix_dim"`
	Unixtime         string  `json:"unixtime"`
	Time             string  `json:"time"`

	Disciplined    bool    `json:"disciplined"`
	SurveyProgress uint8   `json:"survey_progress"`
	PDOP           float32 `json:"pdop"`
	HDOP           float32 `json:"hdop"`
	VDOP           float32 `json:"vdop"`
	TDOP           float32 `json:"tdop"`
	TempC          float32 `json:"temperature_c"`
	DACVoltage     float32 `json:"dac_voltage"`
	PPSOffsetNs    float32 `json:"pps_offset_ns"`
	OscOffsetPPB   float32 `json:"osc_offset_ppb"`
	LastUpdateUTC  string  `json:"last_update_utc,omitempty"`
}

// Snapshot copies the current state out under the lock; readers never see
// a half-applied report.
func (m *Monitor) Snapshot(now time.Time) Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{
		Connected:        m.connectedLocked(now),
		ReceiverMode:     m.receiverMode,
		DisciplineMode:   m.disciplineMode,
		HoldoverDuration: m.holdoverSec,
		GPSStatus:        m.gpsStatus,
		MinorAlarms:      m.minorAlarms,
		CriticalAlarms:   m.criticalAlarms,
		Latitude:         m.latitude,
		Longitude:        m.longitude,
		Altitude:         m.altitude,
		Satellites:       m.satellites,
		FixDim:           m.fixDim,
		Disciplined:      m.disciplineMode == tsip.DisciplineNormal,
		SurveyProgress:   m.surveyProgress,
		PDOP:             m.pdop,
		HDOP:             m.hdop,
		VDOP:             m.vdop,
		TDOP:             m.tdop,
		TempC:            m.tempC,
		DACVoltage:       m.dacVoltage,
		PPSOffsetNs:      m.ppsOffsetNs,
		OscOffsetPPB:     m.oscOffsetPPB,
	}
	if !m.utc.IsZero() {
		snap.Unixtime = m.utc.Format("2006-01-02 15:04:05")
		snap.Time = m.utc.Format("15:04:05")
	}
	if m.seen {
		snap.LastUpdateUTC = m.lastUpdate.UTC().Format(time.RFC3339Nano)
	}
	return snap
}
