package blescan

import "errors"

// ErrScannerBusy is returned by Stream when called while a scan is
// already in progress, without an intervening Stop.
var ErrScannerBusy = errors.New("blescan: scanner already running")

// ErrScannerInit is returned when adapter initialization exhausts its
// retry budget.
var ErrScannerInit = errors.New("blescan: could not initialize adapter")
