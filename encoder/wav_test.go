package encoder

import (
	"encoding/binary"
	"testing"
)

func TestWavEncoderHeader(t *testing.T) {
	e := NewWav()
	block := make([]int16, 1000)
	for i := range block {
		block[i] = int16(i % 256)
	}
	if err := e.EncodeBlock(block); err != nil {
		t.Fatal(err)
	}
	if err := e.Close(); err != nil {
		t.Fatal(err)
	}

	out := e.Bytes()
	if len(out) != wavHeaderSize+2000 {
		t.Fatalf("len = %d, want %d", len(out), wavHeaderSize+2000)
	}
	if string(out[0:4]) != "RIFF" || string(out[8:12]) != "WAVE" {
		t.Errorf("bad magic: %q %q", out[0:4], out[8:12])
	}
	if got := binary.LittleEndian.Uint32(out[24:28]); got != SampleRate {
		t.Errorf("sample rate = %d, want %d", got, SampleRate)
	}
	if got := binary.LittleEndian.Uint32(out[40:44]); got != 2000 {
		t.Errorf("data size = %d, want 2000", got)
	}
	if e.TotalFrames() != 1000 {
		t.Errorf("TotalFrames = %d, want 1000", e.TotalFrames())
	}
}

func TestWavEncoderCloseIdempotent(t *testing.T) {
	e := NewWav()
	e.EncodeBlock([]int16{1, 2, 3})
	if err := e.Close(); err != nil {
		t.Fatal(err)
	}
	first := len(e.Bytes())
	if err := e.Close(); err != nil {
		t.Fatal(err)
	}
	if len(e.Bytes()) != first {
		t.Error("second Close changed output")
	}
}

func TestNewEncoder(t *testing.T) {
	for _, format := range []string{"wav", "flac"} {
		t.Run(format, func(t *testing.T) {
			enc, err := New(format)
			if err != nil {
				t.Fatalf("New(%q): %v", format, err)
			}
			if enc == nil {
				t.Fatalf("New(%q) returned nil", format)
			}
		})
	}
	t.Run("unknown", func(t *testing.T) {
		if _, err := New("ogg"); err == nil {
			t.Error("expected error for unknown format")
		}
	})
}
