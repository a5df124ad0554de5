// Package decoder parses a downloaded dive's raw bytes into
// structured fields and a sample stream, grounded on the Uwatec
// Memomouse record format: a device-clock timestamp reconciled
// against the host's clock, a model byte that selects an optional
// trailing gas-mix section, and a flat array of 2-byte depth samples.
package decoder

import (
	"time"

	"github.com/diveio/divewire/internal/protocol"
)

// GasMix is a single breathing gas, fractions summing to 1.0.
type GasMix struct {
	Helium   float64
	Oxygen   float64
	Nitrogen float64
}

// Fields holds the header fields decodable from a raw dive record
// without walking its sample stream.
type Fields struct {
	DiveTime time.Duration
	MaxDepth float64 // meters
	GasMix   GasMix

	// IsAir mirrors the original's is_air flag: computed from the
	// model byte but never used to steer gas-mix decoding. Kept for
	// callers that want model-family parity with the source device.
	IsAir bool
}

// Parser decodes one raw dive record. Create with NewParser and call
// Datetime/Fields/Samples; a Parser holds no other state.
type Parser struct {
	data    []byte
	devtime uint32
	systime time.Time
}

// NewParser returns a Parser over raw, reconciling the device's
// internal clock (devtime, device ticks at the moment of download)
// against the host's wall clock (systime, the moment of download).
func NewParser(raw []byte, devtime uint32, systime time.Time) *Parser {
	return &Parser{data: raw, devtime: devtime, systime: systime}
}

func le32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func be16(b []byte) uint32 {
	return uint32(b[0])<<8 | uint32(b[1])
}

// Datetime reconstructs the dive's start time from the record's
// device-clock timestamp: ticks = systime - (devtime-timestamp)/2,
// the device reporting in half-second ticks.
func (p *Parser) Datetime() (time.Time, error) {
	const op = "decoder.Parser.Datetime"
	if len(p.data) < 11+4 {
		return time.Time{}, protocol.New(protocol.KindDataFormat, op)
	}

	timestamp := le32(p.data[11:15])
	delta := (int64(p.devtime) - int64(timestamp)) / 2
	return p.systime.Add(-time.Duration(delta) * time.Second), nil
}

// classify reports the model-byte-derived flags the header and
// sample decoders both need. is_air is computed for parity with the
// source device but, faithfully, never changes gas-mix decoding: it
// overlaps with is_nitrox for plenty of real model bytes.
func classify(model byte) (isNitrox, isOxygen, isAir bool) {
	isNitrox = model&0xF0 == 0xF0
	isOxygen = model&0xF0 == 0xA0
	isAir = (model&0xF0)%4 == 0
	return
}

// sampleHeader is the byte offset the flat sample array starts at,
// which grows by the extra per-model header fields.
func sampleHeader(isNitrox, isOxygen bool) int {
	header := 22
	if isNitrox {
		header += 2
	}
	if isOxygen {
		header += 3
	}
	return header
}

// Fields decodes every header field the record carries.
func (p *Parser) Fields() (Fields, error) {
	const op = "decoder.Parser.Fields"
	data := p.data
	if len(data) < 18 {
		return Fields{}, protocol.New(protocol.KindDataFormat, op)
	}

	model := data[3]
	isNitrox, isOxygen, isAir := classify(model)
	header := sampleHeader(isNitrox, isOxygen)

	diveMinutes := 0
	if data[4]&0x04 != 0 {
		diveMinutes = 100
	}
	diveMinutes += bcd2dec(data[5])

	maxDepth := float64((be16(data[6:8])&0xFFC0)>>6) * 10.0 / 64.0

	// The oxygen-cell byte lives at a fixed offset in the header
	// regardless of model; header+18 only gates whether the record
	// carries that optional block at all.
	const oxygenByteOffset = 41
	oxygen := 0.21
	if len(data) >= header+18 && len(data) > oxygenByteOffset {
		b := data[oxygenByteOffset]
		switch {
		case isOxygen:
			oxygen = float64(b) / 100.0
		case isNitrox:
			if b&0x0F != 0 {
				oxygen = (20.0 + 2*float64(b&0x0F)) / 100.0
			} else {
				oxygen = 0.21
			}
		}
	}

	return Fields{
		DiveTime: time.Duration(diveMinutes) * time.Minute,
		MaxDepth: maxDepth,
		GasMix: GasMix{
			Helium:   0.0,
			Oxygen:   oxygen,
			Nitrogen: 1.0 - oxygen,
		},
		IsAir: isAir,
	}, nil
}

func bcd2dec(b byte) int {
	return int(b>>4)*10 + int(b&0x0F)
}
