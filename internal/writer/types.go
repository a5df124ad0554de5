// internal/writer/types.go
package writer

import "github.com/diveio/divewire/internal/downloader"

// Plan is the fully-built write plan for one device.
type Plan struct {
	DeviceID string
	DumpDir  string

	// IngestEndpoint, when set, is a second destination each dive is
	// forwarded to over internal/writer/ingest, in addition to the
	// local dump file.
	IngestEndpoint string
}

// Writer persists a download result.
type Writer interface {
	Write(res downloader.Result) error
}
