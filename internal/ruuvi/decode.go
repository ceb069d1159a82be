package ruuvi

import (
	"time"

	"github.com/chrissnell/ruuvitel/internal/constants"
	"github.com/chrissnell/ruuvitel/internal/log"
)

const (
	format3MinLen = 14
	format5MinLen = 24
)

// Decode parses one manufacturer-data payload into a Measurement. It is
// pure and stateless: its side effects are stamping ObservedAt with the
// current time and, on a recovered panic, one warning log. A frame this decoder can't make sense of is never
// an error the caller must propagate — it's a rejection, reported as
// (nil, err) with err wrapping one of the sentinels in errors.go.
//
// Decode never panics. Any unexpected condition (which shouldn't happen
// given the length checks below, but malformed input is malformed input)
// degrades to a rejection rather than a crash.
func Decode(manufacturerID uint16, payload []byte) (m *Measurement, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Warnf("ruuvi: recovered from panic decoding payload: %v", r)
			m, err = nil, ErrUnknownFormat
		}
	}()

	if manufacturerID != constants.RuuviManufacturerID {
		return nil, ErrNotOurs
	}
	if len(payload) < 1 {
		return nil, ErrTooShort
	}

	switch FormatTag(payload[0]) {
	case Format3:
		return decodeFormat3(payload)
	case Format5:
		return decodeFormat5(payload)
	default:
		return nil, ErrUnknownFormat
	}
}

func stamp(m *Measurement) *Measurement {
	m.ObservedAt = time.Now()
	return m
}
