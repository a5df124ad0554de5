package downloader

import (
	"context"
	"errors"
	"testing"

	"github.com/diveio/divewire/internal/session"
)

type fakeSession struct {
	dives       [][]byte
	fps         [][]byte
	foreachErr  error
	openErr     error
	fingerprint []byte
	closed      bool
}

func (s *fakeSession) Version(ctx context.Context) ([]byte, error)      { return nil, nil }
func (s *fakeSession) SerialNumber(ctx context.Context) ([]byte, error) { return nil, nil }
func (s *fakeSession) SetFingerprint(fp []byte) error {
	s.fingerprint = fp
	return nil
}
func (s *fakeSession) Dump(ctx context.Context) ([]byte, error) { return nil, nil }
func (s *fakeSession) Foreach(ctx context.Context, fn session.DiveFunc, progress session.Progress) error {
	if s.foreachErr != nil {
		return s.foreachErr
	}
	for i, d := range s.dives {
		cont, err := fn(d, s.fps[i])
		if err != nil {
			return err
		}
		if !cont {
			break
		}
	}
	return nil
}
func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

type fakeOpener struct {
	s   *fakeSession
	err error
}

func (o *fakeOpener) Open(ctx context.Context) (session.Session, error) {
	if o.err != nil {
		return nil, o.err
	}
	return o.s, nil
}

func TestDownloadOnce_Success(t *testing.T) {
	s := &fakeSession{
		dives: [][]byte{[]byte("newest"), []byte("oldest")},
		fps:   [][]byte{{0xB0}, {0xA0}},
	}
	d, err := New(Config{DeviceID: "d1", Interval: 1000}, &fakeOpener{s: s})
	if err != nil {
		t.Fatalf("New() err = %v", err)
	}

	res := d.DownloadOnce(context.Background())
	if res.Err != nil {
		t.Fatalf("DownloadOnce() err = %v", res.Err)
	}
	if len(res.Dives) != 2 {
		t.Fatalf("Dives = %d, want 2", len(res.Dives))
	}
	if !s.closed {
		t.Fatal("session was not closed")
	}
}

func TestDownloadOnce_OpenFailure(t *testing.T) {
	d, err := New(Config{DeviceID: "d1", Interval: 1000}, &fakeOpener{err: errors.New("no device")})
	if err != nil {
		t.Fatalf("New() err = %v", err)
	}

	res := d.DownloadOnce(context.Background())
	if res.Err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestDownloadOnce_ConfiguresFingerprint(t *testing.T) {
	s := &fakeSession{dives: [][]byte{}, fps: [][]byte{}}
	d, err := New(Config{DeviceID: "d1", Interval: 1000, Fingerprint: []byte{0xAA}}, &fakeOpener{s: s})
	if err != nil {
		t.Fatalf("New() err = %v", err)
	}

	if res := d.DownloadOnce(context.Background()); res.Err != nil {
		t.Fatalf("DownloadOnce() err = %v", res.Err)
	}
	if len(s.fingerprint) != 1 || s.fingerprint[0] != 0xAA {
		t.Fatalf("fingerprint = % x, want [0xAA]", s.fingerprint)
	}
}

func TestNew_RejectsMissingDeviceID(t *testing.T) {
	if _, err := New(Config{Interval: 1000}, &fakeOpener{}); err == nil {
		t.Fatal("expected error for missing device id")
	}
}
