// internal/status/snapshot.go
package status

// Snapshot represents exactly what the writer is allowed to persist
// about a device's last download attempt.
type Snapshot struct {
	DeviceName     string
	Health         uint16
	LastErrorCode  uint16
	SecondsInError uint16
}
