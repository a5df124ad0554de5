// Package frameb implements wire Variant F2: an XOR-checksummed,
// length-prefixed frame shared by request and response. This is the
// Family B (Suunto-style) framing.
package frameb

import (
	"github.com/diveio/divewire/internal/protocol"
	"github.com/diveio/divewire/internal/protocol/checksum"
)

// Function codes for responses: 0x05 answers reads (and the version
// query, which piggybacks on the read response shape), 0x06
// acknowledges writes. The maximum-depth-reset acknowledgement carries
// FCResetMaxDepth instead.
const (
	FCRead  byte = 0x05
	FCWrite byte = 0x06
)

func appendXOR(cmd []byte) []byte {
	crc := checksum.XOR(cmd, 0)
	return append(cmd, crc)
}

// BuildVersion builds the fixed version-query command.
func BuildVersion() []byte {
	return appendXOR([]byte{0x0F, 0x00, 0x00})
}

// BuildRead builds a read command for count bytes starting at addr.
func BuildRead(addr uint16, count byte) []byte {
	return appendXOR([]byte{0x05, 0x00, 0x03, byte(addr >> 8), byte(addr), count})
}

// BuildWrite builds a write command storing payload at addr.
func BuildWrite(addr uint16, payload []byte) []byte {
	count := byte(len(payload))
	cmd := make([]byte, 0, 6+len(payload)+1)
	cmd = append(cmd, 0x06, 0x00, count+3, byte(addr>>8), byte(addr), count)
	cmd = append(cmd, payload...)
	return appendXOR(cmd)
}

// FCResetMaxDepth is the function code for the maximum-depth-reset
// command and its acknowledgement.
const FCResetMaxDepth byte = 0x20

// BuildResetMaxDepth builds the fixed maximum-depth-reset command.
func BuildResetMaxDepth() []byte {
	return appendXOR([]byte{FCResetMaxDepth, 0x00, 0x00})
}

// Verify validates a response frame [fc, 0x00, plen, echo..., payload...,
// xor] where echo is skip bytes of header fields the device mirrors
// back (e.g. the address/count of a read) and payload is payloadLen
// bytes. It returns the payload.
func Verify(frame []byte, fc byte, skip, payloadLen int) ([]byte, error) {
	const op = "frameb.Verify"

	want := 3 + skip + payloadLen + 1
	if len(frame) != want {
		return nil, protocol.New(protocol.KindProtocol, op)
	}
	if frame[0] != fc || frame[1] != 0x00 {
		return nil, protocol.New(protocol.KindProtocol, op)
	}

	plen := int(frame[2])
	if plen != skip+payloadLen {
		return nil, protocol.New(protocol.KindProtocol, op)
	}

	crc := frame[len(frame)-1]
	wantCRC := checksum.XOR(frame[:len(frame)-1], 0)
	if crc != wantCRC {
		return nil, protocol.New(protocol.KindProtocol, op)
	}

	return frame[3+skip : 3+skip+payloadLen], nil
}

// VerifyVersion validates a version response carrying size bytes.
func VerifyVersion(frame []byte, size int) ([]byte, error) {
	return Verify(frame, FCRead, 0, size)
}

// VerifyRead validates a read response carrying count bytes, echoing
// back the 3-byte addr/count header the request sent.
func VerifyRead(frame []byte, count int) ([]byte, error) {
	return Verify(frame, FCRead, 3, count)
}

// VerifyWrite validates a write acknowledgement (no payload).
func VerifyWrite(frame []byte) error {
	_, err := Verify(frame, FCWrite, 0, 0)
	return err
}

// VerifyResetMaxDepth validates the maximum-depth-reset acknowledgement.
func VerifyResetMaxDepth(frame []byte) error {
	_, err := Verify(frame, FCResetMaxDepth, 0, 0)
	return err
}
