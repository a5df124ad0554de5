// Package framea implements wire Variant F1: a fixed-layout command
// frame and a checksummed response frame of the form
// [header, payload..., crc], crc = sum(payload) mod 256. This is the
// Family A (Oceanic-style) framing.
package framea

import (
	"github.com/diveio/divewire/internal/protocol"
	"github.com/diveio/divewire/internal/protocol/checksum"
)

// Response headers. HeaderHandshake only appears during the initial
// handshake exchange; every other response uses HeaderData.
const (
	HeaderData      byte = 0x5A
	HeaderHandshake byte = 0xA5
)

// BuildHandshake builds the fixed handshake command.
func BuildHandshake() []byte { return []byte{0xA8, 0x99, 0x00} }

// BuildVersion builds the fixed version-read command.
func BuildVersion() []byte { return []byte{0x84, 0x00} }

// BuildRead builds a packet-indexed read command. index is the
// packet index (address / packet size), not a byte address.
func BuildRead(index uint16) []byte {
	return []byte{0xB1, byte(index >> 8), byte(index), 0x00}
}

// BuildQuit builds the fixed disconnect command.
func BuildQuit() []byte { return []byte{0x6A, 0x05, 0xA5, 0x00} }

// Verify validates a [header, payload..., crc] response frame holding
// exactly payloadLen payload bytes and returns the payload.
func Verify(frame []byte, payloadLen int, header byte) ([]byte, error) {
	const op = "framea.Verify"

	if len(frame) != payloadLen+2 {
		return nil, protocol.New(protocol.KindProtocol, op)
	}
	if frame[0] != header {
		return nil, protocol.New(protocol.KindProtocol, op)
	}

	payload := frame[1 : 1+payloadLen]
	crc := frame[len(frame)-1]
	want := checksum.Sum(payload, 0)
	if crc != want {
		return nil, protocol.New(protocol.KindProtocol, op)
	}

	return payload, nil
}

// VerifyQuit validates the single-byte quit acknowledgement.
func VerifyQuit(frame []byte) error {
	const op = "framea.VerifyQuit"
	if len(frame) != 1 || frame[0] != HeaderHandshake {
		return protocol.New(protocol.KindProtocol, op)
	}
	return nil
}
