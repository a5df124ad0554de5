package familyb

import (
	"bytes"
	"context"

	"github.com/diveio/divewire/internal/catalog"
	"github.com/diveio/divewire/internal/protocol"
	"github.com/diveio/divewire/internal/protocol/ringbuf"
	"github.com/diveio/divewire/internal/session"
)

// helO2Model is the model byte that shifts the fingerprint offset by
// six bytes; grounded directly on the original's "// HelO2" comment.
const helO2Model = 0x15

func le16(b []byte) uint32 { return uint32(b[0]) + uint32(b[1])<<8 }

func inProfileRange(v uint32, l catalog.Layout) bool {
	return v >= l.ProfileBegin && v < l.ProfileEnd
}

// Foreach walks the single profile ringbuffer backwards following the
// prev/next pointers stored in the first four bytes of each dive, filling
// a scratch buffer from the high end down so that a dive's trailing
// package never needs to be re-read for the next dive.
func (s *Session) Foreach(ctx context.Context, fn session.DiveFunc, progress session.Progress) error {
	const op = "familyb.Session.Foreach"
	l := s.layout

	version, err := s.Version(ctx)
	if err != nil {
		return err
	}
	model := version[0]

	if _, err := s.SerialNumber(ctx); err != nil {
		return err
	}

	header, err := s.mem.Chunk(ctx, l.HeaderAddress, headerSize)
	if err != nil {
		return err
	}

	last := le16(header[0:2])
	count := le16(header[2:4])
	end := le16(header[4:6])
	begin := le16(header[6:8])
	if !inProfileRange(last, l) || !inProfileRange(end, l) || !inProfileRange(begin, l) {
		return protocol.New(protocol.KindDataFormat, op)
	}

	data := make([]byte, l.ProfileEnd-l.ProfileBegin+uint32(l.MinRead))

	remaining := ringbuf.Distance(begin, end, l.ProfileBegin, l.ProfileEnd, count != 0)

	serialSize := l.MinRead
	if serialSize < l.SerialSize {
		serialSize = l.SerialSize
	}
	maximum := remaining + headerSize + versionSize + uint32(serialSize)

	var visited uint32
	visited += versionSize
	visited += uint32(serialSize)
	visited += headerSize
	if progress != nil {
		progress(visited, maximum)
	}

	available := uint32(0)
	current := last
	previous := end
	address := previous
	offset := remaining + uint32(l.MinRead)

	var latched error

	for remaining > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		size := ringbuf.Distance(current, previous, l.ProfileBegin, l.ProfileEnd, true)
		if size < 4 || size > remaining {
			return protocol.New(protocol.KindDataFormat, op)
		}

		nbytes := available
		for nbytes < size {
			if address == l.ProfileBegin {
				address = l.ProfileEnd
			}

			length := uint32(l.PacketSize)
			if l.ProfileBegin+length > address {
				length = address - l.ProfileBegin
			}
			if nbytes+length > remaining {
				length = remaining - nbytes
			}

			offset -= length
			address -= length

			extra := uint32(0)
			if length < uint32(l.MinRead) {
				extra = uint32(l.MinRead) - length
			}

			chunk, err := s.mem.Chunk(ctx, address-extra, int(length+extra))
			if err != nil {
				return err
			}
			copy(data[offset-extra:], chunk)

			visited += length
			if progress != nil {
				progress(visited, maximum)
			}

			nbytes += length
		}

		remaining -= size
		available = nbytes - size

		p := data[offset+available:]
		prev := le16(p[0:2])
		next := le16(p[2:4])
		if !inProfileRange(prev, l) || !inProfileRange(next, l) {
			return protocol.New(protocol.KindDataFormat, op)
		}
		if next != previous && next != current {
			return protocol.New(protocol.KindDataFormat, op)
		}

		if next != current {
			fpOffset := uint32(l.FingerprintOffset)
			if model == helO2Model {
				fpOffset += 6
			}
			fp := p[fpOffset : fpOffset+uint32(l.FingerprintSize)]

			if len(s.fingerprint) > 0 && bytes.Equal(fp, s.fingerprint) {
				return nil
			}

			raw := p[4:size]
			cont, err := fn(raw, fp)
			if err != nil {
				return err
			}
			if !cont {
				return nil
			}
		} else {
			latched = protocol.New(protocol.KindDataFormat, op)
		}

		previous = current
		current = prev
	}

	return latched
}
