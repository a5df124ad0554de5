package transport

import (
	"fmt"
	"sync"
	"time"

	goserial "github.com/goburrow/serial"

	"github.com/diveio/divewire/internal/protocol"
)

// Serial is the real Transport, backed by github.com/goburrow/serial.
// goburrow/serial applies its Config only at open time, so Configure
// and SetTimeout close and reopen the underlying port; every other
// call is a thin pass-through.
type Serial struct {
	mu   sync.Mutex
	name string
	cfg  goserial.Config
	port goserial.Port
}

// OpenSerial opens name (e.g. "/dev/ttyUSB0", "COM3") with the 3000ms
// read timeout every device family in this module uses (§5).
func OpenSerial(name string) (*Serial, error) {
	s := &Serial{
		name: name,
		cfg: goserial.Config{
			Address:  name,
			BaudRate: 9600,
			DataBits: 8,
			StopBits: 1,
			Parity:   "N",
			Timeout:  3000 * time.Millisecond,
		},
	}
	if err := s.reopen(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Serial) reopen() error {
	const op = "transport.Serial.reopen"
	if s.port != nil {
		_ = s.port.Close()
	}
	port, err := goserial.Open(&s.cfg)
	if err != nil {
		return protocol.Wrap(protocol.KindIO, op, err)
	}
	s.port = port
	return nil
}

func (s *Serial) Write(p []byte) (int, error) {
	const op = "transport.Serial.Write"
	n, err := s.port.Write(p)
	if err != nil {
		return n, protocol.Wrap(protocol.KindIO, op, err)
	}
	return n, nil
}

func (s *Serial) Read(p []byte) (int, error) {
	const op = "transport.Serial.Read"
	n, err := s.port.Read(p)
	if err != nil {
		if isTimeout(err) {
			return n, protocol.Wrap(protocol.KindTimeout, op, err)
		}
		return n, protocol.Wrap(protocol.KindIO, op, err)
	}
	return n, nil
}

// Drain is a no-op: goburrow/serial performs synchronous, unbuffered
// writes, so there is nothing left in flight by the time Write returns.
func (s *Serial) Drain() error { return nil }

// Flush is a no-op: goburrow/serial exposes no OS-level queue-purge
// primitive on any platform it supports.
func (s *Serial) Flush(which FlushSide) error { return nil }

func (s *Serial) SetTimeout(d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.Timeout = d
	return s.reopen()
}

func (s *Serial) Configure(baud, dataBits int, parity Parity, stopBits int, flow FlowControl) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cfg.BaudRate = baud
	s.cfg.DataBits = dataBits
	s.cfg.StopBits = stopBits
	switch parity {
	case ParityOdd:
		s.cfg.Parity = "O"
	case ParityEven:
		s.cfg.Parity = "E"
	default:
		s.cfg.Parity = "N"
	}
	// goburrow/serial does not expose flow control; every supported
	// family in this module runs with flow control disabled anyway.
	return s.reopen()
}

func (s *Serial) Sleep(d time.Duration) { time.Sleep(d) }

func (s *Serial) Close() error {
	const op = "transport.Serial.Close"
	if s.port == nil {
		return nil
	}
	if err := s.port.Close(); err != nil {
		return protocol.Wrap(protocol.KindIO, op, err)
	}
	return nil
}

// timeoutError is the subset of net.Error this module relies on to
// distinguish a deadline expiry from a harder I/O failure.
type timeoutError interface {
	Timeout() bool
}

func isTimeout(err error) bool {
	te, ok := err.(timeoutError)
	return ok && te.Timeout()
}

var _ fmt.Stringer = (*Serial)(nil)

func (s *Serial) String() string { return fmt.Sprintf("serial(%s)", s.name) }
