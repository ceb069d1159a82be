package config

import "errors"

// ErrConfigInvalid is returned by Load when one or more fields fail
// validation. Use errors.Is to detect it; the accompanying message lists
// every failing field, not just the first.
var ErrConfigInvalid = errors.New("config: invalid configuration")
