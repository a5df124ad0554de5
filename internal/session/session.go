// Package session declares the device-family-independent contract
// every dive computer session implements, mirroring the way the
// teacher keeps poller and writer behind small interfaces so the
// orchestration layer never imports a concrete device family.
package session

import "context"

// DiveFunc receives one dive's raw profile bytes and the fingerprint
// bytes extracted from it. Returning cont=false stops Foreach before
// visiting older dives; returning a non-nil err aborts Foreach with
// that error.
type DiveFunc func(raw, fingerprint []byte) (cont bool, err error)

// Progress reports ringbuffer traversal progress: current counts
// bytes already visited, maximum is the traversal's total span.
// Either family may call this zero or more times per Foreach.
type Progress func(current, maximum uint32)

// Session is the device-family-independent surface cmd/divedump and
// any other outer driver program against. familya.Session and
// familyb.Session both implement it.
type Session interface {
	// Version returns the raw model/firmware identification bytes the
	// device reports.
	Version(ctx context.Context) ([]byte, error)

	// SerialNumber returns the device's serial number bytes, when the
	// family and model expose one.
	SerialNumber(ctx context.Context) ([]byte, error)

	// SetFingerprint configures the fingerprint Foreach stops at: the
	// first dive whose extracted fingerprint equals fp is not visited,
	// nor is anything older. A nil or empty fp disables early stop.
	SetFingerprint(fp []byte) error

	// Dump returns the entire profile ringbuffer's raw contents in
	// address order (Family A rounds the window out to whole packets).
	// The bytes are not rotated to start at the ring's wrap point.
	Dump(ctx context.Context) ([]byte, error)

	// Foreach walks dives newest-first, calling fn for each one until
	// fn returns cont=false, the configured fingerprint is reached, or
	// the ringbuffer is exhausted. progress may be nil.
	Foreach(ctx context.Context, fn DiveFunc, progress Progress) error

	// Close releases the session's transport.
	Close() error
}
