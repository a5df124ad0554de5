// Package familyb implements the single-ringbuffer, linked-list chain
// device family (wire variant F2), grounded on the Suunto common2
// download protocol: an XOR-checksummed frame, a prev/next pointer pair
// stored in the first four bytes of each dive, and backward chain
// traversal.
package familyb

import (
	"context"

	"github.com/diveio/divewire/internal/catalog"
	"github.com/diveio/divewire/internal/memory"
	"github.com/diveio/divewire/internal/protocol"
	"github.com/diveio/divewire/internal/protocol/frameb"
	"github.com/diveio/divewire/internal/session"
	"github.com/diveio/divewire/internal/transfer"
	"github.com/diveio/divewire/internal/transport"
)

// headerSize is the fixed width of the last/count/end/begin pointer
// quartet stored at layout.HeaderAddress: four little-endian uint16s.
const headerSize = 8

// versionSize is the payload width of the version response.
const versionSize = 4

// Session implements session.Session for the single-ringbuffer,
// chain-linked family. It is not safe for concurrent use.
type Session struct {
	tr          transport.Transport
	layout      catalog.Layout
	mem         *memory.Reader
	fingerprint []byte
}

var _ session.Session = (*Session)(nil)

// Open returns a ready Session. There is no handshake exchange for
// this family; the first real command is whatever the caller issues.
func Open(ctx context.Context, tr transport.Transport, layout catalog.Layout) (*Session, error) {
	const op = "familyb.Open"
	if layout.Family != catalog.FamilyB {
		return nil, protocol.New(protocol.KindInvalidArgs, op)
	}

	s := &Session{tr: tr, layout: layout}
	s.mem = memory.New(s.readChunk, layout.PacketSize, layout.MinRead)
	return s, nil
}

// readChunk is the memory.ChunkReader backing s.mem: one read command
// carrying up to one packet's worth of payload.
func (s *Session) readChunk(ctx context.Context, address uint32, length int) ([]byte, error) {
	cmd := frameb.BuildRead(uint16(address), byte(length))
	verify := func(frame []byte) ([]byte, error) {
		return frameb.VerifyRead(frame, length)
	}
	return transfer.Do(ctx, s.tr, cmd, 3+3+length+1, verify)
}

func (s *Session) Version(ctx context.Context) ([]byte, error) {
	verify := func(frame []byte) ([]byte, error) {
		return frameb.VerifyVersion(frame, versionSize)
	}
	return transfer.Do(ctx, s.tr, frameb.BuildVersion(), 3+versionSize+1, verify)
}

// SerialNumber reads the minimum reliable chunk at the model's serial
// address and returns its logical serial_size prefix, the way the
// original always over-reads to SZ_MINIMUM bytes and keeps only the
// leading uint32.
func (s *Session) SerialNumber(ctx context.Context) ([]byte, error) {
	n := s.layout.MinRead
	if n < s.layout.SerialSize {
		n = s.layout.SerialSize
	}
	data, err := s.mem.Chunk(ctx, s.layout.SerialOffset, n)
	if err != nil {
		return nil, err
	}
	return data[:s.layout.SerialSize], nil
}

// SetFingerprint configures the fingerprint Foreach stops at.
func (s *Session) SetFingerprint(fp []byte) error {
	s.fingerprint = append([]byte(nil), fp...)
	return nil
}

// Dump returns the entire profile ringbuffer, address order, starting
// at rb_profile_begin.
func (s *Session) Dump(ctx context.Context) ([]byte, error) {
	l := s.layout
	return s.mem.Read(ctx, l.ProfileBegin, int(l.ProfileEnd-l.ProfileBegin))
}

// ResetMaxDepth clears the device's recorded maximum depth.
func (s *Session) ResetMaxDepth(ctx context.Context) error {
	verify := func(frame []byte) ([]byte, error) {
		return frame, frameb.VerifyResetMaxDepth(frame)
	}
	_, err := transfer.Do(ctx, s.tr, frameb.BuildResetMaxDepth(), 4, verify)
	return err
}

// Close closes the transport; this family has no disconnect command.
func (s *Session) Close() error {
	const op = "familyb.Session.Close"
	if err := s.tr.Close(); err != nil {
		return protocol.Wrap(protocol.KindIO, op, err)
	}
	return nil
}
