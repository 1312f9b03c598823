package tsip

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"
)

// Packet ids handled for status monitoring.
const (
	pktSatSelection = 0x6D
	pktPositionLLA  = 0x84
	pktSuperpacket  = 0x8F

	subPrimaryTiming   = 0xAB
	subSecondaryTiming = 0xAC
)

// ErrTooShort reports a frame whose payload is shorter than the fixed
// layout of its identified packet type.
var ErrTooShort = errors.New("tsip: frame too short")

// Report is one decoded TSIP packet. Concrete types are TimingReport,
// TimeReport, PositionReport, SatelliteReport and Unrecognized.
type Report interface {
	isReport()
}

// TimingReport is packet 0x8F-AC (secondary timing). All multi-byte fields
// are big-endian on the wire; angles are radians, altitude meters, exactly
// as the receiver encodes them.
type TimingReport struct {
	ReceiverMode   uint8
	DisciplineMode uint8
	SurveyProgress uint8 // percent, valid during self-survey
	HoldoverSec    uint32
	CriticalAlarms uint16
	MinorAlarms    uint16
	GPSStatus      uint8
	Activity       uint8 // disciplining activity code

	PPSOffsetNs  float32
	OscOffsetPPB float32
	DACValue     uint32
	DACVoltage   float32
	TempC        float32

	Latitude  float64 // radians
	Longitude float64 // radians
	Altitude  float64 // meters
}

// TimeReport is packet 0x8F-AB (primary timing). UTC is assembled from the
// broken-down date/time the receiver sends alongside the raw GPS
// time-of-week / week-number pair.
type TimeReport struct {
	TimeOfWeek  uint32 // GPS seconds of week
	WeekNumber  uint16
	UTCOffset   int16 // GPS-UTC leap seconds
	TimingFlags uint8
	UTC         time.Time
}

// PositionReport is packet 0x84 (double-precision LLA).
type PositionReport struct {
	Latitude  float64 // radians
	Longitude float64 // radians
	Altitude  float64 // meters
}

// SatelliteReport is packet 0x6D (satellite selection list).
type SatelliteReport struct {
	FixDimension   uint8 // 0 none, 1/2/3 = 1D/2D/3D
	SatellitesUsed uint8
	PDOP           float32
	HDOP           float32
	VDOP           float32
	TDOP           float32
	PRNs           []int8 // negative PRN = satellite rejected from solution
}

// Unrecognized is any packet id (or 0x8F subcode) outside the handled set.
// The receiver emits many of these routinely; they are not errors.
type Unrecognized struct {
	ID      uint8
	Subcode uint8 // meaningful only when ID is 0x8F
}

func (TimingReport) isReport()    {}
func (TimeReport) isReport()      {}
func (PositionReport) isReport()  {}
func (SatelliteReport) isReport() {}
func (Unrecognized) isReport()    {}

// Minimum payload lengths per handled packet, up to the last field we read.
const (
	minPrimaryTiming   = 18 // through the year field
	minSecondaryTiming = 61 // through the altitude double
	minPositionLLA     = 25 // through the altitude double
	minSatSelection    = 18 // bitmask + four DOP floats
)

// Decode interprets one framed payload. The first byte identifies the
// packet (0x8F adds a subcode byte). Payloads outside the handled set
// decode to Unrecognized; payloads shorter than their identified layout
// return ErrTooShort.
func Decode(frame []byte) (Report, error) {
	if len(frame) < 1 {
		return nil, fmt.Errorf("%w: empty payload", ErrTooShort)
	}
	switch frame[0] {
	case pktSuperpacket:
		if len(frame) < 2 {
			return nil, fmt.Errorf("%w: 0x8f without subcode", ErrTooShort)
		}
		switch frame[1] {
		case subPrimaryTiming:
			return decodePrimaryTiming(frame)
		case subSecondaryTiming:
			return decodeSecondaryTiming(frame)
		default:
			return Unrecognized{ID: frame[0], Subcode: frame[1]}, nil
		}
	case pktPositionLLA:
		return decodePositionLLA(frame)
	case pktSatSelection:
		return decodeSatSelection(frame)
	default:
		return Unrecognized{ID: frame[0]}, nil
	}
}

// 0x8F-AB layout (offsets include the id and subcode bytes):
//
//	 2: time of week (u32)
//	 6: week number (u16)
//	 8: UTC offset (s16)
//	10: timing flags
//	11: seconds, 12: minutes, 13: hours, 14: day, 15: month
//	16: year (u16)
func decodePrimaryTiming(frame []byte) (Report, error) {
	if len(frame) < minPrimaryTiming {
		return nil, fmt.Errorf("%w: 0x8f-ab len=%d", ErrTooShort, len(frame))
	}
	r := TimeReport{
		TimeOfWeek:  binary.BigEndian.Uint32(frame[2:6]),
		WeekNumber:  binary.BigEndian.Uint16(frame[6:8]),
		UTCOffset:   int16(binary.BigEndian.Uint16(frame[8:10])),
		TimingFlags: frame[10],
	}
	sec := int(frame[11])
	min := int(frame[12])
	hour := int(frame[13])
	day := int(frame[14])
	month := int(frame[15])
	year := int(binary.BigEndian.Uint16(frame[16:18]))
	r.UTC = time.Date(year, time.Month(month), day, hour, min, sec, 0, time.UTC)
	return r, nil
}

// 0x8F-AC layout (offsets include the id and subcode bytes):
//
//	 2: receiver mode        3: disciplining mode     4: self-survey %
//	 5: holdover sec (u32)   9: critical alarms (u16) 11: minor alarms (u16)
//	13: gps status          14: disciplining activity 15,16: spare
//	17: pps offset ns (f32) 21: 10 MHz offset ppb (f32)
//	25: dac value (u32)     29: dac voltage (f32)     33: temperature (f32)
//	37: latitude (f64 rad)  45: longitude (f64 rad)   53: altitude (f64 m)
func decodeSecondaryTiming(frame []byte) (Report, error) {
	if len(frame) < minSecondaryTiming {
		return nil, fmt.Errorf("%w: 0x8f-ac len=%d", ErrTooShort, len(frame))
	}
	return TimingReport{
		ReceiverMode:   frame[2],
		DisciplineMode: frame[3],
		SurveyProgress: frame[4],
		HoldoverSec:    binary.BigEndian.Uint32(frame[5:9]),
		CriticalAlarms: binary.BigEndian.Uint16(frame[9:11]),
		MinorAlarms:    binary.BigEndian.Uint16(frame[11:13]),
		GPSStatus:      frame[13],
		Activity:       frame[14],
		PPSOffsetNs:    beFloat32(frame[17:21]),
		OscOffsetPPB:   beFloat32(frame[21:25]),
		DACValue:       binary.BigEndian.Uint32(frame[25:29]),
		DACVoltage:     beFloat32(frame[29:33]),
		TempC:          beFloat32(frame[33:37]),
		Latitude:       beFloat64(frame[37:45]),
		Longitude:      beFloat64(frame[45:53]),
		Altitude:       beFloat64(frame[53:61]),
	}, nil
}

// 0x84 layout: latitude f64 at 1, longitude f64 at 9, altitude f64 at 17.
// The trailing clock bias and time-of-fix are not needed for status.
func decodePositionLLA(frame []byte) (Report, error) {
	if len(frame) < minPositionLLA {
		return nil, fmt.Errorf("%w: 0x84 len=%d", ErrTooShort, len(frame))
	}
	return PositionReport{
		Latitude:  beFloat64(frame[1:9]),
		Longitude: beFloat64(frame[9:17]),
		Altitude:  beFloat64(frame[17:25]),
	}, nil
}

// 0x6D layout: bitmask at 1 (bits 7-5 raw fix dimension, bits 3-0 count),
// PDOP/HDOP/VDOP/TDOP f32 from 2, then one signed PRN byte per satellite.
func decodeSatSelection(frame []byte) (Report, error) {
	if len(frame) < minSatSelection {
		return nil, fmt.Errorf("%w: 0x6d len=%d", ErrTooShort, len(frame))
	}
	bm := frame[1]
	r := SatelliteReport{
		SatellitesUsed: bm & 0x0F,
		PDOP:           beFloat32(frame[2:6]),
		HDOP:           beFloat32(frame[6:10]),
		VDOP:           beFloat32(frame[10:14]),
		TDOP:           beFloat32(frame[14:18]),
	}
	// Raw dimension codes observed from the receiver: 1 = 1D clock fix,
	// 3 = 2D, 4 = 3D. Anything else (no fix yet, survey states) maps to 0.
	switch (bm & 0xE0) >> 5 {
	case 1:
		r.FixDimension = 1
	case 3:
		r.FixDimension = 2
	case 4:
		r.FixDimension = 3
	default:
		r.FixDimension = 0
	}
	if n := len(frame) - minSatSelection; n > 0 {
		r.PRNs = make([]int8, n)
		for i := 0; i < n; i++ {
			r.PRNs[i] = int8(frame[minSatSelection+i])
		}
	}
	return r, nil
}

func beFloat32(b []byte) float32 {
	return math.Float32frombits(binary.BigEndian.Uint32(b))
}

func beFloat64(b []byte) float64 {
	return math.Float64frombits(binary.BigEndian.Uint64(b))
}
