package ruuvi

import "errors"

// ErrNotOurs is returned when the advertisement's manufacturer ID isn't
// Ruuvi's. Callers typically treat this as "ignore silently," not a fault.
var ErrNotOurs = errors.New("ruuvi: manufacturer id is not ruuvi's")

// ErrTooShort is returned when the payload is shorter than its format tag
// requires.
var ErrTooShort = errors.New("ruuvi: payload too short for its format tag")

// ErrUnknownFormat is returned when payload[0] names a tag this decoder
// doesn't understand.
var ErrUnknownFormat = errors.New("ruuvi: unknown format tag")
