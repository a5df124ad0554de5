// internal/writer/ingest/client.go
package ingest

import (
	"errors"
	"fmt"
	"io"
	"net"
	"time"
)

const (
	magicHi byte = 0x52 // 'R'
	magicLo byte = 0x49 // 'I'

	versionV1 byte = 0x02

	respOK       byte = 0x00
	respRejected byte = 0x01
)

// EndpointClient is a raw dive-dump ingest client (stateless, one
// packet per connection).
type EndpointClient struct {
	endpoint string
	timeout  time.Duration
}

// Config is minimal transport config.
type Config struct {
	Endpoint string
	Timeout  time.Duration
}

func NewEndpointClient(cfg Config) (*EndpointClient, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("writer ingest: endpoint required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}
	return &EndpointClient{endpoint: cfg.Endpoint, timeout: cfg.Timeout}, nil
}

func (c *EndpointClient) Close() error { return nil }

// Send delivers one dive's raw bytes, tagged with the device id and
// its sequence within the download cycle.
//
// Implements writer.ingestClient.
//
// Packet layout (header is exactly 3 + 1 + len(deviceID) + 2 + 4 bytes):
//   0-1  Magic "RI"
//   2    Version (0x02)
//   3    DeviceID length
//   4..  DeviceID (ASCII)
//   ..   Seq (2, big-endian)
//   ..   Payload length (4, big-endian)
//   ..   Payload
func (c *EndpointClient) Send(deviceID string, seq uint16, payload []byte) error {
	pkt := buildPacketV1(deviceID, seq, payload)

	conn, err := net.DialTimeout("tcp", c.endpoint, c.timeout)
	if err != nil {
		return fmt.Errorf("writer ingest: dial: %w", err)
	}
	defer conn.Close()

	_ = conn.SetWriteDeadline(time.Now().Add(c.timeout))
	if err := writeAll(conn, pkt); err != nil {
		return fmt.Errorf("writer ingest: write: %w", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(c.timeout))
	var resp [1]byte
	if _, err := io.ReadFull(conn, resp[:]); err != nil {
		return fmt.Errorf("writer ingest: read status: %w", err)
	}

	switch resp[0] {
	case respOK:
		return nil
	case respRejected:
		return errors.New("writer ingest: rejected")
	default:
		return fmt.Errorf("writer ingest: unknown status 0x%02x", resp[0])
	}
}

func buildPacketV1(deviceID string, seq uint16, payload []byte) []byte {
	id := []byte(deviceID)
	if len(id) > 255 {
		id = id[:255]
	}

	header := make([]byte, 4+len(id)+2+4)
	header[0] = magicHi
	header[1] = magicLo
	header[2] = versionV1
	header[3] = byte(len(id))
	copy(header[4:], id)

	putU16(header[4+len(id):], seq)
	putU32(header[4+len(id)+2:], uint32(len(payload)))

	return append(header, payload...)
}

func writeAll(w io.Writer, b []byte) error {
	for len(b) > 0 {
		n, err := w.Write(b)
		if err != nil {
			return err
		}
		b = b[n:]
	}
	return nil
}

func putU16(dst []byte, v uint16) {
	dst[0] = byte(v >> 8)
	dst[1] = byte(v)
}

func putU32(dst []byte, v uint32) {
	dst[0] = byte(v >> 24)
	dst[1] = byte(v >> 16)
	dst[2] = byte(v >> 8)
	dst[3] = byte(v)
}
