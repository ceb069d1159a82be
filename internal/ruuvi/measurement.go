// Package ruuvi decodes Ruuvi Innovations BLE manufacturer-data
// advertisements (data formats 3 and 5) into typed Measurement records.
// The decoder is pure and stateless: it never touches the network, the
// clock (beyond stamping ObservedAt), or a logger (beyond one warning
// when it recovers from a panic) — callers decide what to do with a
// rejection.
package ruuvi

import (
	"fmt"
	"time"
)

// FormatTag identifies which Ruuvi wire format a Measurement was decoded
// from.
type FormatTag uint8

const (
	Format3 FormatTag = 3
	Format5 FormatTag = 5
)

func (f FormatTag) String() string {
	switch f {
	case Format3:
		return "FORMAT_3"
	case Format5:
		return "FORMAT_5"
	default:
		return fmt.Sprintf("FORMAT_UNKNOWN(%d)", uint8(f))
	}
}

// Measurement is the decoder's output: a typed, unit-converted view of one
// advertisement. Optional scalars are pointers so "sensor reported no
// reading" is distinguishable from "reading was zero."
type Measurement struct {
	FormatTag  FormatTag
	MACAddress string // "" until the scan source or FORMAT_5 payload fills it

	TemperatureC *float64
	HumidityPct  *float64
	PressureHPa  *float64

	AccelXG *float64
	AccelYG *float64
	AccelZG *float64

	BatteryV       *float64
	TxPowerDBm     *int
	MovementCount  *uint8
	Sequence       *uint16
	RSSIDBm        *int // left unset by the decoder; filled by the scan source

	ObservedAt time.Time
}

func f64(v float64) *float64 { return &v }
func i(v int) *int           { return &v }
func u8(v uint8) *uint8      { return &v }
func u16(v uint16) *uint16   { return &v }
