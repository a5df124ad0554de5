// Package memory splits arbitrary (address, length) reads into
// packet-sized chunks and linearizes reads that wrap around a
// ringbuffer's [begin, end) window (§4.3).
package memory

import (
	"context"

	"github.com/diveio/divewire/internal/protocol"
)

// ChunkReader issues exactly one device-level read of length bytes
// starting at address. Each device family supplies its own, built on
// top of that family's framing and transfer.Do.
type ChunkReader func(ctx context.Context, address uint32, length int) ([]byte, error)

// Reader turns a family's ChunkReader into the two operations every
// extractor needs: a linear chunked read and a ring-wrapped read.
type Reader struct {
	chunk      ChunkReader
	packetSize int
	// minRead is 0 for families with no minimum-read requirement
	// (Family A); non-zero enables the short-chunk padding rule
	// (Family B).
	minRead int
}

// New builds a Reader. packetSize is the maximum payload per chunk;
// minRead, when non-zero, is the minimum reliable chunk size.
func New(chunk ChunkReader, packetSize, minRead int) *Reader {
	return &Reader{chunk: chunk, packetSize: packetSize, minRead: minRead}
}

// Chunk issues a single device-level read with no splitting, padding,
// or alignment check. Extractors that need precise control over where
// bytes land in a scratch buffer (Family B's backward fill) use this
// directly instead of Read.
func (r *Reader) Chunk(ctx context.Context, address uint32, length int) ([]byte, error) {
	return r.chunk(ctx, address, length)
}

// Read performs a linear read of length bytes starting at address.
//
// With minRead == 0 (Family A), address and length must both be
// multiples of packetSize; the read is split into exact packetSize
// chunks.
//
// With minRead > 0 (Family B), there is no alignment precondition;
// chunks are up to packetSize bytes, and any chunk shorter than
// minRead is widened by reading minRead bytes starting
// minRead-len earlier, keeping only the trailing len bytes.
func (r *Reader) Read(ctx context.Context, address uint32, length int) ([]byte, error) {
	if r.minRead == 0 {
		return r.readAligned(ctx, address, length)
	}
	return r.readPadded(ctx, address, length)
}

func (r *Reader) readAligned(ctx context.Context, address uint32, length int) ([]byte, error) {
	const op = "memory.Reader.Read"
	if address%uint32(r.packetSize) != 0 || length%r.packetSize != 0 {
		return nil, protocol.New(protocol.KindInvalidArgs, op)
	}

	out := make([]byte, 0, length)
	for nbytes := 0; nbytes < length; nbytes += r.packetSize {
		chunk, err := r.chunk(ctx, address, r.packetSize)
		if err != nil {
			return nil, err
		}
		out = append(out, chunk...)
		address += uint32(r.packetSize)
	}
	return out, nil
}

func (r *Reader) readPadded(ctx context.Context, address uint32, length int) ([]byte, error) {
	out := make([]byte, 0, length)
	nbytes := 0
	for nbytes < length {
		remain := length - nbytes
		chunkLen := r.packetSize
		if chunkLen > remain {
			chunkLen = remain
		}

		readAddr := address
		readLen := chunkLen
		if chunkLen < r.minRead {
			extra := r.minRead - chunkLen
			readAddr = address - uint32(extra)
			readLen = r.minRead
		}

		data, err := r.chunk(ctx, readAddr, readLen)
		if err != nil {
			return nil, err
		}
		out = append(out, data[len(data)-chunkLen:]...)

		address += uint32(chunkLen)
		nbytes += chunkLen
	}
	return out, nil
}

// ReadRingbuffer reads length bytes starting at address from the
// circular region [begin, end), splitting into two linear reads when
// the requested range crosses end and concatenating the pieces in
// wire order.
func (r *Reader) ReadRingbuffer(ctx context.Context, address, length, begin, end uint32) ([]byte, error) {
	const op = "memory.Reader.ReadRingbuffer"
	if address < begin || address >= end {
		return nil, protocol.New(protocol.KindInvalidArgs, op)
	}
	if length > end-begin {
		return nil, protocol.New(protocol.KindInvalidArgs, op)
	}

	if address+length > end {
		a := end - address
		b := length - a

		head, err := r.Read(ctx, address, int(a))
		if err != nil {
			return nil, err
		}
		tail, err := r.Read(ctx, begin, int(b))
		if err != nil {
			return nil, err
		}
		return append(head, tail...), nil
	}

	return r.Read(ctx, address, int(length))
}
