// internal/writer/writer.go
package writer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/diveio/divewire/internal/downloader"
	"github.com/diveio/divewire/internal/status"
)

// ingestClient is the exact contract the writer uses to forward a dive
// to a remote sink. IMPORTANT: there must be no other version of this
// interface anywhere.
type ingestClient interface {
	Send(deviceID string, seq uint16, payload []byte) error
}

type writerImpl struct {
	plan   Plan
	ingest ingestClient // nil disables remote forwarding

	errSince time.Time
}

// New builds a Writer. ingest may be nil if plan.IngestEndpoint is
// unset.
func New(plan Plan, ingest ingestClient) Writer {
	return &writerImpl{plan: plan, ingest: ingest}
}

func (w *writerImpl) Write(res downloader.Result) error {
	var errs []string

	// ------------------------------------------------------------
	// DUMP WRITES (unchanged behavior when the cycle succeeded)
	// ------------------------------------------------------------

	if res.Err == nil {
		if err := os.MkdirAll(w.plan.DumpDir, 0o755); err != nil {
			errs = append(errs, fmt.Sprintf("writer: mkdir dump dir: %v", err))
		}

		for i, dive := range res.Dives {
			name := fmt.Sprintf("%s-%04d.bin", w.plan.DeviceID, i)
			path := filepath.Join(w.plan.DumpDir, name)
			if err := os.WriteFile(path, dive, 0o644); err != nil {
				errs = append(errs, fmt.Sprintf("writer: write %s: %v", path, err))
				continue
			}

			if w.ingest != nil {
				if err := w.ingest.Send(w.plan.DeviceID, uint16(i), dive); err != nil {
					errs = append(errs, fmt.Sprintf("writer: ingest seq=%d: %v", i, err))
				}
			}
		}
	}

	// ------------------------------------------------------------
	// STATUS SIDECAR (always written, success or failure)
	// ------------------------------------------------------------

	snap := status.Snapshot{DeviceName: w.plan.DeviceID}
	if res.Err == nil {
		snap.Health = status.HealthOK
		w.errSince = time.Time{}
	} else {
		snap.Health = status.HealthError
		snap.LastErrorCode = 1
		if w.errSince.IsZero() {
			w.errSince = res.At
		}
		seconds := res.At.Sub(w.errSince).Seconds()
		if seconds > 65535 {
			seconds = 65535
		}
		snap.SecondsInError = uint16(seconds)
	}

	statusPath := filepath.Join(w.plan.DumpDir, w.plan.DeviceID+".status")
	if err := os.WriteFile(statusPath, status.Encode(snap), 0o644); err != nil {
		errs = append(errs, fmt.Sprintf("writer: write status %s: %v", statusPath, err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, " | "))
	}
	return nil
}
