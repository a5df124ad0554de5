package decoder

import "github.com/diveio/divewire/internal/protocol"

// SampleKind distinguishes the payload carried by a Sample.
type SampleKind int

const (
	SampleTime SampleKind = iota
	SampleDepth
	SampleEvent
	SampleVendor
)

// EventType enumerates the warning bits packed into each depth word.
type EventType int

const (
	EventDecoStop EventType = iota
	EventRBT
	EventAscent
	EventCeiling
	EventWorkload
	EventTransmitter
)

var eventByBit = [6]EventType{
	EventDecoStop, EventRBT, EventAscent, EventCeiling, EventWorkload, EventTransmitter,
}

// Sample is one record in a dive's profile stream, emitted in the
// order the device recorded them.
type Sample struct {
	Kind   SampleKind
	Time   int // seconds into the dive
	Depth  float64
	Event  EventType
	Vendor []byte
}

// Samples walks the record's profile stream, calling fn once per
// sample in device order. Every 20-second step emits a TIME sample
// followed by a DEPTH sample, then one EVENT sample per warning bit
// set on that step's depth word. On whole minutes a VENDOR sample is
// also emitted, consuming one extra byte from the stream (two when
// the record carries an oxygen-cell reading).
func (p *Parser) Samples(fn func(Sample)) error {
	const op = "decoder.Parser.Samples"
	data := p.data
	if len(data) < 4 {
		return protocol.New(protocol.KindDataFormat, op)
	}

	model := data[3]
	isNitrox, isOxygen, _ := classify(model)
	header := sampleHeader(isNitrox, isOxygen)

	t := 20
	offset := header + 18

	for offset+2 <= len(data) {
		value := be16(data[offset : offset+2])
		depth := float64((value&0xFFC0)>>6) * 10.0 / 64.0
		warnings := value & 0x3F
		offset += 2

		fn(Sample{Kind: SampleTime, Time: t})
		fn(Sample{Kind: SampleDepth, Time: t, Depth: depth})

		for bit := 0; bit < 6; bit++ {
			if warnings&(1<<uint(bit)) != 0 {
				fn(Sample{Kind: SampleEvent, Time: t, Event: eventByBit[bit]})
			}
		}

		if t%60 == 0 {
			n := 1
			if isOxygen {
				n = 2
			}
			if offset+n > len(data) {
				return protocol.New(protocol.KindDataFormat, op)
			}
			fn(Sample{Kind: SampleVendor, Time: t, Vendor: append([]byte(nil), data[offset:offset+n]...)})
			offset += n
		}

		t += 20
	}

	return nil
}
