// Package familya implements the paired logbook/profile ringbuffer
// device family (wire variant F1), grounded on the Oceanic Atom 2
// download protocol: a fixed handshake, a packet-indexed read
// command, and two ringbuffers linked by 16-bit packed pointers
// inside each logbook entry.
package familya

import (
	"context"

	"github.com/diveio/divewire/internal/catalog"
	"github.com/diveio/divewire/internal/memory"
	"github.com/diveio/divewire/internal/protocol"
	"github.com/diveio/divewire/internal/protocol/framea"
	"github.com/diveio/divewire/internal/session"
	"github.com/diveio/divewire/internal/transfer"
	"github.com/diveio/divewire/internal/transport"
)

// Session implements session.Session for the paired-ringbuffer
// family. It is not safe for concurrent use.
type Session struct {
	tr          transport.Transport
	layout      catalog.Layout
	mem         *memory.Reader
	fingerprint []byte
}

var _ session.Session = (*Session)(nil)

// Open performs the handshake and returns a ready Session.
func Open(ctx context.Context, tr transport.Transport, layout catalog.Layout) (*Session, error) {
	const op = "familya.Open"
	if layout.Family != catalog.FamilyA {
		return nil, protocol.New(protocol.KindInvalidArgs, op)
	}

	s := &Session{tr: tr, layout: layout}
	s.mem = memory.New(s.readPacket, layout.PacketSize, 0)

	if _, err := transfer.Do(ctx, tr, framea.BuildHandshake(), 3, s.verifyHandshake); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Session) verifyHandshake(frame []byte) ([]byte, error) {
	return framea.Verify(frame, 1, framea.HeaderHandshake)
}

// readPacket is the memory.ChunkReader backing s.mem: address must be
// packet-aligned, and length must equal exactly one packet.
func (s *Session) readPacket(ctx context.Context, address uint32, length int) ([]byte, error) {
	const op = "familya.Session.readPacket"
	if length != s.layout.PacketSize {
		return nil, protocol.New(protocol.KindInvalidArgs, op)
	}

	index := address / uint32(s.layout.PacketSize)
	cmd := framea.BuildRead(uint16(index))
	verify := func(frame []byte) ([]byte, error) {
		return framea.Verify(frame, s.layout.PacketSize, framea.HeaderData)
	}
	return transfer.Do(ctx, s.tr, cmd, s.layout.PacketSize+2, verify)
}

// Version returns the raw version page. Its wire payload is one
// packet wide, mirroring the way the read command reports data.
func (s *Session) Version(ctx context.Context) ([]byte, error) {
	verify := func(frame []byte) ([]byte, error) {
		return framea.Verify(frame, s.layout.PacketSize, framea.HeaderData)
	}
	return transfer.Do(ctx, s.tr, framea.BuildVersion(), s.layout.PacketSize+2, verify)
}

// SerialNumber is not exposed by this wire variant.
func (s *Session) SerialNumber(ctx context.Context) ([]byte, error) {
	return nil, protocol.New(protocol.KindUnsupported, "familya.Session.SerialNumber")
}

// SetFingerprint configures the 8-byte logbook-entry fingerprint
// Foreach stops at.
func (s *Session) SetFingerprint(fp []byte) error {
	s.fingerprint = append([]byte(nil), fp...)
	return nil
}

// Dump returns the profile ringbuffer window, rounded out to whole
// packets since reads on this family must be packet-aligned.
func (s *Session) Dump(ctx context.Context) ([]byte, error) {
	ps := uint32(s.layout.PacketSize)
	begin := (s.layout.ProfileBegin / ps) * ps
	end := ((s.layout.ProfileEnd + ps - 1) / ps) * ps
	return s.mem.Read(ctx, begin, int(end-begin))
}

// Close sends the disconnect command and closes the transport.
func (s *Session) Close() error {
	const op = "familya.Session.Close"
	if _, err := transfer.Do(context.Background(), s.tr, framea.BuildQuit(), 1, verifyQuit); err != nil {
		_ = s.tr.Close()
		return err
	}
	if err := s.tr.Close(); err != nil {
		return protocol.Wrap(protocol.KindIO, op, err)
	}
	return nil
}

func verifyQuit(frame []byte) ([]byte, error) {
	if err := framea.VerifyQuit(frame); err != nil {
		return nil, err
	}
	return frame, nil
}
