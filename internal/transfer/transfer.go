// Package transfer issues one framed command and receives one framed
// response over a Transport, retrying on timeout or protocol error up
// to a bounded count (§4.2).
package transfer

import (
	"context"

	"github.com/diveio/divewire/internal/protocol"
	"github.com/diveio/divewire/internal/transport"
)

// MaxRetries is the number of retries allowed after the first attempt,
// for a total of MaxRetries+1 attempts.
const MaxRetries = 2

// Verify validates a raw response frame and extracts its payload.
type Verify func(frame []byte) ([]byte, error)

// Do writes cmd, drains the write side, reads exactly respLen bytes,
// and runs verify against them. Timeouts and protocol errors are
// retried up to MaxRetries times; I/O errors are returned immediately.
func Do(ctx context.Context, tr transport.Transport, cmd []byte, respLen int, verify Verify) ([]byte, error) {
	const op = "transfer.Do"

	var lastErr error
	for attempt := 0; attempt <= MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if _, err := tr.Write(cmd); err != nil {
			return nil, err
		}
		if err := tr.Drain(); err != nil {
			return nil, err
		}

		resp := make([]byte, respLen)
		n, err := readFull(tr, resp)
		if err != nil {
			if !protocol.Retryable(err) {
				return nil, err
			}
			lastErr = err
			continue
		}
		if n != respLen {
			lastErr = protocol.New(protocol.KindTimeout, op)
			continue
		}

		payload, verr := verify(resp)
		if verr != nil {
			if !protocol.Retryable(verr) {
				return nil, verr
			}
			lastErr = verr
			continue
		}

		return payload, nil
	}

	return nil, lastErr
}

// readFull reads until buf is full or an error (including a timeout)
// interrupts the read.
func readFull(tr transport.Transport, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := tr.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
		if n == 0 {
			return total, protocol.New(protocol.KindTimeout, "transfer.readFull")
		}
	}
	return total, nil
}
