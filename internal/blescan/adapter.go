package blescan

import "tinygo.org/x/bluetooth"

// ResolveAdapter maps a configured adapter_id to a concrete adapter.
// tinygo.org/x/bluetooth only exposes one addressable adapter per host
// (bluetooth.DefaultAdapter); any adapter_id value other than "auto" is
// accepted for forward compatibility with multi-adapter hosts but
// currently resolves to the same default, since the underlying library
// has no concept of adapter enumeration to select among.
func ResolveAdapter(adapterID string) *bluetooth.Adapter {
	return bluetooth.DefaultAdapter
}
