// Package transporttest provides a scripted, in-memory transport.Transport
// for exercising the framing, transfer, memory and extractor packages
// without a real serial line, the same role the teacher's fakeClient
// types play for poller/writer tests.
package transporttest

import (
	"io"
	"testing"
	"time"

	"github.com/diveio/divewire/internal/protocol"
	"github.com/diveio/divewire/internal/transport"
)

type response struct {
	data []byte
	err  error
}

// Fake is a scripted transport.Transport. Queue responses with
// QueueRead/QueueReadErr in the order the device under test will
// consume them; every Write is recorded for later inspection.
type Fake struct {
	t         testing.TB
	Written   [][]byte
	responses []response
	idx       int
}

// New returns a Fake bound to t; any unscripted Read fails the test.
func New(t testing.TB) *Fake {
	return &Fake{t: t}
}

// QueueRead schedules data as the result of the next Read call.
func (f *Fake) QueueRead(data []byte) {
	f.responses = append(f.responses, response{data: data})
}

// QueueReadErr schedules err as the result of the next Read call.
func (f *Fake) QueueReadErr(err error) {
	f.responses = append(f.responses, response{err: err})
}

// ErrTimeout is a convenience KindTimeout error for QueueReadErr.
func ErrTimeout() error { return protocol.New(protocol.KindTimeout, "transporttest") }

// ErrIO is a convenience KindIO error for QueueReadErr.
func ErrIO() error { return protocol.New(protocol.KindIO, "transporttest") }

func (f *Fake) Write(p []byte) (int, error) {
	f.Written = append(f.Written, append([]byte(nil), p...))
	return len(p), nil
}

func (f *Fake) Read(p []byte) (int, error) {
	if f.idx >= len(f.responses) {
		f.t.Fatalf("transporttest: unscripted Read call (call #%d)", f.idx+1)
		return 0, io.EOF
	}
	r := f.responses[f.idx]
	f.idx++
	if r.err != nil {
		return 0, r.err
	}
	n := copy(p, r.data)
	return n, nil
}

func (f *Fake) Drain() error                                          { return nil }
func (f *Fake) Flush(which transport.FlushSide) error                 { return nil }
func (f *Fake) SetTimeout(d time.Duration) error                      { return nil }
func (f *Fake) Configure(int, int, transport.Parity, int, transport.FlowControl) error { return nil }
func (f *Fake) Sleep(d time.Duration)                                 {}
func (f *Fake) Close() error                                          { return nil }

// AllRead reports whether every scripted response has been consumed.
func (f *Fake) AllRead() bool { return f.idx == len(f.responses) }
