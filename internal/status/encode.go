// internal/status/encode.go
package status

import "encoding/binary"

// Encode converts a Snapshot into a full device status block.
// Layout is locked. No IO. No side effects.
func Encode(s Snapshot) []byte {
	block := make([]byte, BlockSize)

	binary.BigEndian.PutUint16(block[0:2], s.Health)
	binary.BigEndian.PutUint16(block[2:4], s.LastErrorCode)
	binary.BigEndian.PutUint16(block[4:6], s.SecondsInError)

	name := s.DeviceName
	if len(name) > DeviceNameMaxChars {
		name = name[:DeviceNameMaxChars]
	}
	copy(block[6:], name)

	return block
}
