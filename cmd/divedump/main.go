// cmd/divedump/main.go is a minimal demonstration driver: it reads a
// device list from a YAML config, downloads every dive not yet seen
// from each one concurrently, writes the raw dumps to .bin files, and
// prints the decoded fields and sample counts for each dive to
// stdout. The write plan it builds has no ingest endpoint, so dives
// are not forwarded to a remote sink.
package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/diveio/divewire/internal/catalog"
	"github.com/diveio/divewire/internal/config"
	"github.com/diveio/divewire/internal/decoder"
	"github.com/diveio/divewire/internal/downloader"
	"github.com/diveio/divewire/internal/familya"
	"github.com/diveio/divewire/internal/familyb"
	"github.com/diveio/divewire/internal/session"
	"github.com/diveio/divewire/internal/transport"
	"github.com/diveio/divewire/internal/writer"
	"github.com/diveio/divewire/internal/writer/ingest"
)

func main() {
	configPath := flag.String("config", "divedump.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	if err := setupLogging(cfg.LogFile); err != nil {
		log.Fatalf("log setup failed: %v", err)
	}

	cat, err := catalog.Default()
	if err != nil {
		log.Fatalf("catalog load failed: %v", err)
	}

	ctx := context.Background()
	g, gctx := errgroup.WithContext(ctx)

	for _, d := range cfg.Devices {
		d := d
		g.Go(func() error {
			return runDevice(gctx, cat, d, cfg.DumpDir)
		})
	}

	if err := g.Wait(); err != nil {
		log.Fatalf("download failed: %v", err)
	}
}

func setupLogging(path string) error {
	rotator := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10,
		MaxAge:     28,
		MaxBackups: 3,
	}
	log.SetOutput(io.MultiWriter(os.Stdout, rotator))
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	return nil
}

// serialOpener connects to one device's serial port and wraps it in
// the correct family's session, per downloader.Opener.
type serialOpener struct {
	dev    config.DeviceConfig
	layout catalog.Layout
}

func (o *serialOpener) Open(ctx context.Context) (session.Session, error) {
	tr, err := transport.OpenSerial(o.dev.Port)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", o.dev.Port, err)
	}
	if o.dev.Baud != 0 && o.dev.Baud != 9600 {
		if err := tr.Configure(o.dev.Baud, 8, transport.ParityNone, 1, transport.FlowNone); err != nil {
			tr.Close()
			return nil, fmt.Errorf("configure %s: %w", o.dev.Port, err)
		}
	}

	switch o.layout.Family {
	case catalog.FamilyA:
		s, err := familya.Open(ctx, tr, o.layout)
		if err != nil {
			tr.Close()
			return nil, err
		}
		return s, nil
	case catalog.FamilyB:
		s, err := familyb.Open(ctx, tr, o.layout)
		if err != nil {
			tr.Close()
			return nil, err
		}
		return s, nil
	default:
		tr.Close()
		return nil, fmt.Errorf("model %q: unknown family %q", o.dev.Model, o.layout.Family)
	}
}

func runDevice(ctx context.Context, cat *catalog.Catalog, dev config.DeviceConfig, dumpDir string) error {
	layout, ok := cat.Lookup(dev.Model)
	if !ok {
		return fmt.Errorf("device %s: unknown model %q", dev.ID, dev.Model)
	}

	fp := loadFingerprint(dev.FingerprintStore)

	dl, err := downloader.New(downloader.Config{
		DeviceID:    dev.ID,
		Interval:    time.Hour, // unused by DownloadOnce, only New's validation requires it
		Fingerprint: fp,
	}, &serialOpener{dev: dev, layout: layout})
	if err != nil {
		return fmt.Errorf("device %s: %w", dev.ID, err)
	}

	res := dl.DownloadOnce(ctx)
	if res.Err != nil {
		return fmt.Errorf("device %s: download: %w", dev.ID, res.Err)
	}

	plan := writer.BuildPlan(dev, dumpDir)
	ingestClient, err := writer.BuildIngestClient(plan)
	if err != nil {
		return fmt.Errorf("device %s: ingest client: %w", dev.ID, err)
	}

	w := newWriter(plan, ingestClient)
	if err := w.Write(res); err != nil {
		return fmt.Errorf("device %s: write: %w", dev.ID, err)
	}

	if len(res.Fingerprints) > 0 {
		saveFingerprint(dev.FingerprintStore, res.Fingerprints[0])
	}

	printDecoded(dev.ID, res)
	return nil
}

// newWriter avoids the typed-nil trap: BuildIngestClient returns a
// concrete *ingest.EndpointClient that is nil when no endpoint is
// configured. Boxing that nil pointer straight into writer.New's
// interface parameter would produce a non-nil interface wrapping a
// nil pointer, defeating writer's "if w.ingest != nil" check. The nil
// check here happens on the concrete pointer, before it is boxed.
func newWriter(plan writer.Plan, client *ingest.EndpointClient) writer.Writer {
	if client == nil {
		return writer.New(plan, nil)
	}
	return writer.New(plan, client)
}

func printDecoded(deviceID string, res downloader.Result) {
	for i, raw := range res.Dives {
		p := decoder.NewParser(raw, 0, res.At)
		fields, err := p.Fields()
		if err != nil {
			log.Printf("%s: dive %d: decode fields: %v", deviceID, i, err)
			continue
		}

		samples := 0
		if err := p.Samples(func(decoder.Sample) { samples++ }); err != nil {
			log.Printf("%s: dive %d: decode samples: %v", deviceID, i, err)
		}

		fmt.Printf("%s dive %d: duration=%s maxdepth=%.1fm o2=%.0f%% samples=%d\n",
			deviceID, i, fields.DiveTime, fields.MaxDepth, fields.GasMix.Oxygen*100, samples)
	}
}

func loadFingerprint(path string) []byte {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	fp, err := hex.DecodeString(string(data))
	if err != nil {
		return nil
	}
	return fp
}

func saveFingerprint(path string, fp []byte) {
	if path == "" || len(fp) == 0 {
		return
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		log.Printf("fingerprint store %s: mkdir: %v", path, err)
		return
	}
	if err := os.WriteFile(path, []byte(hex.EncodeToString(fp)), 0o644); err != nil {
		log.Printf("fingerprint store %s: write: %v", path, err)
	}
}
