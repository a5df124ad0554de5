package familya

import (
	"bytes"
	"context"

	"github.com/diveio/divewire/internal/protocol"
	"github.com/diveio/divewire/internal/protocol/ringbuf"
	"github.com/diveio/divewire/internal/session"
)

// logbookEntrySize is half a packet: each logbook page packs two
// fixed-size entries back to back.
func (s *Session) logbookEntrySize() uint32 { return uint32(s.layout.PacketSize) / 2 }

// ptLogbookFirst and ptLogbookLast unpack the 16-bit little-endian
// pointers at offset 4 and 6 of the pointer page.
func ptLogbookFirst(x []byte) uint32 { return uint32(x[4]) + uint32(x[5])<<8 }
func ptLogbookLast(x []byte) uint32  { return uint32(x[6]) + uint32(x[7])<<8 }

// ptProfileFirst and ptProfileLast unpack the 12-bit packed profile
// pointers stored inside a logbook entry, in packet-index units.
func ptProfileFirst(x []byte) uint32 { return uint32(x[5]) + uint32(x[6]&0x0F)<<8 }
func ptProfileLast(x []byte) uint32  { return uint32(x[6]>>4) + uint32(x[7])<<4 }

// Foreach walks the logbook ringbuffer backwards (most recent dive
// first); each logbook entry's packed pointers locate that dive's
// slice of the profile ringbuffer.
func (s *Session) Foreach(ctx context.Context, fn session.DiveFunc, progress session.Progress) error {
	const op = "familya.Session.Foreach"
	l := s.layout
	packetSize := uint32(l.PacketSize)
	entrySize := s.logbookEntrySize()

	pointers, err := s.mem.Read(ctx, l.PointerAddress, l.PacketSize)
	if err != nil {
		return err
	}

	logbookFirst := ptLogbookFirst(pointers)
	logbookLast := ptLogbookLast(pointers)

	if logbookFirst == l.LogbookEmpty && logbookLast == l.LogbookEmpty {
		return nil
	}
	if (logbookFirst == l.LogbookEmpty) != (logbookLast == l.LogbookEmpty) {
		return protocol.New(protocol.KindDataFormat, op)
	}
	if logbookFirst < l.LogbookBegin || logbookFirst >= l.LogbookEnd ||
		logbookLast < l.LogbookBegin || logbookLast >= l.LogbookEnd {
		return protocol.New(protocol.KindDataFormat, op)
	}

	logbookCount := ringbuf.Distance(logbookFirst, logbookLast, l.LogbookBegin, l.LogbookEnd, false)/entrySize + 1

	logbookPageOffset := logbookFirst % packetSize
	logbookPageFirst := (logbookFirst / packetSize) * packetSize
	logbookPageLast := (logbookLast / packetSize) * packetSize
	logbookPageLen := ringbuf.Distance(logbookPageFirst, logbookPageLast, l.LogbookBegin, l.LogbookEnd, false) + packetSize

	logbooks, err := s.mem.ReadRingbuffer(ctx, logbookPageFirst, logbookPageLen, l.LogbookBegin, l.LogbookEnd)
	if err != nil {
		return err
	}

	// maximum must cover both ringbuffers (§4's progress-accounting
	// supplement): the logbook entries plus every dive's profile span.
	// Every entry is already in logbooks, so the profile pointers can
	// be unpacked ahead of the traversal without extra transport I/O.
	maximum := logbookCount * entrySize
	scan := logbookPageOffset + (logbookCount-1)*entrySize
	for i := uint32(0); i < logbookCount; i++ {
		entry := logbooks[scan : scan+entrySize]
		profileFirst := ptProfileFirst(entry) * packetSize
		profileLast := ptProfileLast(entry) * packetSize
		maximum += ringbuf.Distance(profileFirst, profileLast, l.ProfileBegin, l.ProfileEnd, false) + packetSize
		scan -= entrySize
	}

	var visited uint32

	cursor := logbookPageOffset + (logbookCount-1)*entrySize
	for i := uint32(0); i < logbookCount; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		entry := logbooks[cursor : cursor+entrySize]

		profileFirst := ptProfileFirst(entry) * packetSize
		profileLast := ptProfileLast(entry) * packetSize
		if profileFirst < l.ProfileBegin || profileFirst >= l.ProfileEnd ||
			profileLast < l.ProfileBegin || profileLast >= l.ProfileEnd {
			return protocol.New(protocol.KindDataFormat, op)
		}
		profileLen :=ringbuf.Distance(profileFirst, profileLast, l.ProfileBegin, l.ProfileEnd, false) + packetSize

		profileBody, err := s.mem.ReadRingbuffer(ctx, profileFirst, profileLen, l.ProfileBegin, l.ProfileEnd)
		if err != nil {
			return err
		}

		fingerprint := append([]byte(nil), entry[:8]...)
		profile := append(append([]byte(nil), fingerprint...), profileBody...)

		visited += entrySize + uint32(len(profileBody))
		if progress != nil {
			progress(visited, maximum)
		}

		if len(s.fingerprint) > 0 && bytes.Equal(fingerprint, s.fingerprint) {
			return nil
		}

		cont, err := fn(profile, fingerprint)
		if err != nil {
			return err
		}
		if !cont {
			return nil
		}

		cursor -= entrySize
	}

	return nil
}
