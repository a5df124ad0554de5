// internal/downloader/runner.go
package downloader

import (
	"context"
	"time"
)

// Run starts the ticker loop and emits Result on the provided channel.
// One goroutine per device. No overlap, no retries beyond what
// DownloadOnce already does through internal/transfer.
func (d *Downloader) Run(ctx context.Context, out chan<- Result) {
	ticker := time.NewTicker(d.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			out <- d.DownloadOnce(ctx)
		}
	}
}
