package familyb

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/diveio/divewire/internal/catalog"
	"github.com/diveio/divewire/internal/protocol"
	"github.com/diveio/divewire/internal/protocol/checksum"
	"github.com/diveio/divewire/internal/session"
	"github.com/diveio/divewire/internal/transport"
)

// fakeDeviceB emulates a Suunto common2-style device: version is a
// fixed 4-byte answer, everything else is served out of a flat memory
// image the way fakeDevice does for the paired-ringbuffer family.
type fakeDeviceB struct {
	mem      []byte
	version  []byte
	pending  []byte
	lastResp []byte
}

func newFakeDeviceB(mem []byte, version []byte) *fakeDeviceB {
	return &fakeDeviceB{mem: mem, version: version}
}

func (f *fakeDeviceB) Write(p []byte) (int, error) {
	f.pending = append([]byte(nil), p...)
	f.lastResp = f.respond(f.pending)
	return len(p), nil
}

func (f *fakeDeviceB) Read(p []byte) (int, error) {
	n := copy(p, f.lastResp)
	f.lastResp = f.lastResp[n:]
	return n, nil
}

func (f *fakeDeviceB) Drain() error                                                          { return nil }
func (f *fakeDeviceB) Flush(transport.FlushSide) error                                       { return nil }
func (f *fakeDeviceB) SetTimeout(time.Duration) error                                         { return nil }
func (f *fakeDeviceB) Configure(int, int, transport.Parity, int, transport.FlowControl) error { return nil }
func (f *fakeDeviceB) Sleep(time.Duration)                                                    {}
func (f *fakeDeviceB) Close() error                                                           { return nil }

func (f *fakeDeviceB) respond(cmd []byte) []byte {
	switch cmd[0] {
	case 0x0F:
		return frameResponse(0x05, nil, f.version)
	case 0x20:
		return frameResponse(0x20, nil, nil)
	case 0x05:
		addr := uint32(cmd[3])<<8 | uint32(cmd[4])
		count := uint32(cmd[5])
		skip := []byte{cmd[3], cmd[4], cmd[5]}
		return frameResponse(0x05, skip, f.mem[addr:addr+count])
	}
	return nil
}

func frameResponse(fc byte, skip, payload []byte) []byte {
	out := []byte{fc, 0x00, byte(len(skip) + len(payload))}
	out = append(out, skip...)
	out = append(out, payload...)
	crc := checksum.XOR(out, 0)
	return append(out, crc)
}

func putLE16(mem []byte, addr uint32, v uint32) {
	mem[addr] = byte(v)
	mem[addr+1] = byte(v >> 8)
}

func testLayoutB(t *testing.T) catalog.Layout {
	c, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog.Default() err = %v", err)
	}
	l, ok := c.Lookup("suunto-vyper2")
	if !ok {
		t.Fatal("missing suunto-vyper2 in default catalog")
	}
	return l
}

// buildTwoDiveImage lays out two chained dives: an older one occupying
// [0x0200,0x0220) and a newer one occupying [0x0220,0x0240), linked by
// prev/next trailer pointers at the start of each dive's region.
func buildTwoDiveImage(t *testing.T, l catalog.Layout) []byte {
	mem := make([]byte, l.ProfileEnd)

	const (
		sentinel = 0x0100
		dive1    = 0x0200
		dive2    = 0x0220
		end      = 0x0240
	)

	putLE16(mem, l.HeaderAddress+0, dive2)   // last
	putLE16(mem, l.HeaderAddress+2, 2)       // count
	putLE16(mem, l.HeaderAddress+4, end)     // end
	putLE16(mem, l.HeaderAddress+6, dive1)   // begin

	putLE16(mem, dive1+0, sentinel) // prev
	putLE16(mem, dive1+2, dive2)    // next
	for i := uint32(4); i < 0x20; i++ {
		mem[dive1+i] = 0xAA
	}
	copy(mem[dive1+0x15:dive1+0x19], []byte{0xF1, 0xF2, 0xF3, 0xF4})

	putLE16(mem, dive2+0, dive1) // prev
	putLE16(mem, dive2+2, end)   // next
	for i := uint32(4); i < 0x20; i++ {
		mem[dive2+i] = 0xBB
	}
	copy(mem[dive2+0x15:dive2+0x19], []byte{0xE1, 0xE2, 0xE3, 0xE4})

	return mem
}

// buildWrappingDiveImage lays out a single dive whose region straddles
// the physical end of the profile ringbuffer: its trailer and the
// first two bytes of its sample data sit at [rb_profile_end-6,
// rb_profile_end), and the rest of its data continues from
// rb_profile_begin. The backward fill in Foreach must cross the wrap
// boundary mid-read to reassemble it.
func buildWrappingDiveImage(t *testing.T, l catalog.Layout) []byte {
	mem := make([]byte, l.ProfileEnd)

	const (
		tailBytes = 6  // prev(2) + next(2) + 2 bytes of sample data
		headBytes = 26 // the remaining 26 bytes of sample data
	)
	diveStart := l.ProfileEnd - tailBytes
	nextAddr := l.ProfileBegin + headBytes

	putLE16(mem, l.HeaderAddress+0, diveStart) // last
	putLE16(mem, l.HeaderAddress+2, 1)         // count
	putLE16(mem, l.HeaderAddress+4, nextAddr)  // end
	putLE16(mem, l.HeaderAddress+6, diveStart) // begin

	putLE16(mem, diveStart+0, l.ProfileBegin) // prev: sentinel, no earlier dive
	putLE16(mem, diveStart+2, nextAddr)       // next
	mem[diveStart+4] = 0xCC                   // sample data, last 2 bytes before the wrap
	mem[diveStart+5] = 0xCC

	for i := uint32(0); i < headBytes; i++ {
		mem[l.ProfileBegin+i] = 0xCC
	}
	copy(mem[l.ProfileBegin+15:l.ProfileBegin+19], []byte{0xD1, 0xD2, 0xD3, 0xD4})

	return mem
}

func openTestSession(t *testing.T, mem []byte, l catalog.Layout) *Session {
	dev := newFakeDeviceB(mem, []byte{0x01, 0x00, 0x00, 0x00})
	s, err := Open(context.Background(), dev, l)
	if err != nil {
		t.Fatalf("Open() err = %v", err)
	}
	return s
}

func TestForeachWalksChainNewestFirst(t *testing.T) {
	l := testLayoutB(t)
	mem := buildTwoDiveImage(t, l)
	s := openTestSession(t, mem, l)

	var fingerprints [][]byte
	var raws [][]byte
	err := s.Foreach(context.Background(), func(raw, fp []byte) (bool, error) {
		fingerprints = append(fingerprints, append([]byte(nil), fp...))
		raws = append(raws, append([]byte(nil), raw...))
		return true, nil
	}, nil)
	if err != nil {
		t.Fatalf("Foreach() err = %v", err)
	}

	if len(fingerprints) != 2 {
		t.Fatalf("Foreach() delivered %d dives, want 2", len(fingerprints))
	}
	if fingerprints[0][0] != 0xE1 {
		t.Fatalf("first dive fingerprint = % x, want newest (0xE1...)", fingerprints[0])
	}
	if fingerprints[1][0] != 0xF1 {
		t.Fatalf("second dive fingerprint = % x, want oldest (0xF1...)", fingerprints[1])
	}
	if len(raws[0]) != 0x20-4 || raws[0][0] != 0xBB {
		t.Fatalf("newest raw = % x", raws[0])
	}
	if len(raws[1]) != 0x20-4 || raws[1][0] != 0xAA {
		t.Fatalf("oldest raw = % x", raws[1])
	}
}

func TestForeachWrapsAtProfileBegin(t *testing.T) {
	l := testLayoutB(t)
	mem := buildWrappingDiveImage(t, l)
	s := openTestSession(t, mem, l)

	var fingerprints [][]byte
	var raws [][]byte
	err := s.Foreach(context.Background(), func(raw, fp []byte) (bool, error) {
		fingerprints = append(fingerprints, append([]byte(nil), fp...))
		raws = append(raws, append([]byte(nil), raw...))
		return true, nil
	}, nil)
	if err != nil {
		t.Fatalf("Foreach() err = %v", err)
	}
	if len(fingerprints) != 1 {
		t.Fatalf("Foreach() delivered %d dives, want 1", len(fingerprints))
	}
	if fingerprints[0][0] != 0xD1 {
		t.Fatalf("fingerprint = % x, want wrapped dive (0xD1...)", fingerprints[0])
	}

	// The delivered buffer must be the linearised
	// [...end-of-range bytes...][...begin-of-range bytes...]
	// concatenation, not whatever order the backward chunk reads
	// happened to land in.
	want := append(append([]byte(nil), mem[l.ProfileEnd-2:l.ProfileEnd]...), mem[l.ProfileBegin:l.ProfileBegin+26]...)
	if !bytes.Equal(raws[0], want) {
		t.Fatalf("raw = % x, want % x", raws[0], want)
	}
}

func TestForeachStopsAtConfiguredFingerprint(t *testing.T) {
	l := testLayoutB(t)
	mem := buildTwoDiveImage(t, l)
	s := openTestSession(t, mem, l)

	if err := s.SetFingerprint([]byte{0xE1, 0xE2, 0xE3, 0xE4}); err != nil {
		t.Fatalf("SetFingerprint() err = %v", err)
	}

	calls := 0
	err := s.Foreach(context.Background(), func(raw, fp []byte) (bool, error) {
		calls++
		return true, nil
	}, nil)
	if err != nil {
		t.Fatalf("Foreach() err = %v", err)
	}
	if calls != 0 {
		t.Fatalf("Foreach() delivered %d dives, want 0 (newest already seen)", calls)
	}
}

func TestForeachRejectsOutOfRangeHeaderPointer(t *testing.T) {
	l := testLayoutB(t)
	mem := buildTwoDiveImage(t, l)
	putLE16(mem, l.HeaderAddress+0, l.ProfileEnd) // last, out of range

	s := openTestSession(t, mem, l)
	err := s.Foreach(context.Background(), func(raw, fp []byte) (bool, error) {
		return true, nil
	}, nil)
	if err == nil {
		t.Fatal("Foreach() expected error for out-of-range header pointer")
	}
	if kind, ok := protocol.KindOf(err); !ok || kind != protocol.KindDataFormat {
		t.Fatalf("Foreach() err kind = %v, want KindDataFormat", kind)
	}
}

func TestForeachLatchesButDoesNotStopOnIncompleteDive(t *testing.T) {
	l := testLayoutB(t)
	mem := buildTwoDiveImage(t, l)

	// Self-link the newest dive (next == current) to mark it
	// incomplete; the older dive must still be delivered.
	putLE16(mem, 0x0220+2, 0x0220)

	s := openTestSession(t, mem, l)

	var fingerprints [][]byte
	err := s.Foreach(context.Background(), func(raw, fp []byte) (bool, error) {
		fingerprints = append(fingerprints, append([]byte(nil), fp...))
		return true, nil
	}, nil)
	if err == nil {
		t.Fatal("Foreach() expected the latched data-format error on exhaustion")
	}
	if len(fingerprints) != 1 || fingerprints[0][0] != 0xF1 {
		t.Fatalf("fingerprints = % x, want exactly the oldest dive", fingerprints)
	}
}

func TestResetMaxDepth(t *testing.T) {
	l := testLayoutB(t)
	mem := buildTwoDiveImage(t, l)
	s := openTestSession(t, mem, l)

	if err := s.ResetMaxDepth(context.Background()); err != nil {
		t.Fatalf("ResetMaxDepth() err = %v", err)
	}
}

var _ session.Session = (*Session)(nil)
