// internal/writer/builder.go
package writer

import (
	cfg "github.com/diveio/divewire/internal/config"
	"github.com/diveio/divewire/internal/writer/ingest"
)

// BuildPlan converts one device config into a Writer Plan.
func BuildPlan(d cfg.DeviceConfig, dumpDir string) Plan {
	return Plan{
		DeviceID:       d.ID,
		DumpDir:        dumpDir,
		IngestEndpoint: "",
	}
}

// BuildIngestClient creates the optional remote ingest sink for a
// plan. It returns a nil client, nil error when the plan has no
// ingest endpoint configured.
func BuildIngestClient(plan Plan) (*ingest.EndpointClient, error) {
	if plan.IngestEndpoint == "" {
		return nil, nil
	}
	return ingest.NewEndpointClient(ingest.Config{Endpoint: plan.IngestEndpoint})
}
