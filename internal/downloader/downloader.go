// Package downloader is a clock-driven download cycle, the same
// shape as the teacher's poller but yielding dive-computer downloads
// instead of Modbus register snapshots.
package downloader

import (
	"context"
	"time"

	"github.com/diveio/divewire/internal/protocol"
	"github.com/diveio/divewire/internal/session"
)

// Opener connects to one device and returns a ready Session. The
// downloader depends on this capability only, never a concrete
// family package.
type Opener interface {
	Open(ctx context.Context) (session.Session, error)
}

// Config is the minimal runtime config a downloader needs.
type Config struct {
	DeviceID string
	Interval time.Duration

	// Fingerprint, when non-empty, stops Foreach at the first
	// already-seen dive. Callers persist the newest fingerprint
	// between runs and feed it back in here.
	Fingerprint []byte
}

// Downloader is a dumb, clock-driven download cycle.
type Downloader struct {
	cfg    Config
	opener Opener
}

// New creates a downloader with immutable config.
func New(cfg Config, opener Opener) (*Downloader, error) {
	const op = "downloader.New"
	if cfg.DeviceID == "" {
		return nil, protocol.New(protocol.KindInvalidArgs, op)
	}
	if cfg.Interval <= 0 {
		return nil, protocol.New(protocol.KindInvalidArgs, op)
	}
	return &Downloader{cfg: cfg, opener: opener}, nil
}

// DownloadOnce performs exactly one download cycle: open, walk every
// dive not yet seen, close. Any failure aborts the cycle and is
// reported on the result, not returned as an error; dives delivered
// before the failure remain in Result.Dives.
func (d *Downloader) DownloadOnce(ctx context.Context) Result {
	res := Result{DeviceID: d.cfg.DeviceID, At: time.Now()}

	s, err := d.opener.Open(ctx)
	if err != nil {
		res.Err = err
		return res
	}
	defer s.Close()

	if len(d.cfg.Fingerprint) > 0 {
		if err := s.SetFingerprint(d.cfg.Fingerprint); err != nil {
			res.Err = err
			return res
		}
	}

	err = s.Foreach(ctx, func(raw, fp []byte) (bool, error) {
		res.Dives = append(res.Dives, raw)
		res.Fingerprints = append(res.Fingerprints, append([]byte(nil), fp...))
		return true, nil
	}, nil)
	if err != nil {
		res.Err = err
		return res
	}

	return res
}
