package encoder

import "fmt"

// Fixed capture preset: mono 16-bit speech audio. Every recording in a
// process uses the same preset so uploaded artifacts are uniform.
const (
	SampleRate    = 16000
	Channels      = 1
	BitsPerSample = 16
	BlockSize     = 4096
)

type Encoder interface {
	EncodeBlock(block []int16) error
	Close() error
	Bytes() []byte
	TotalFrames() uint64
}

// New returns an encoder for the named container format.
func New(format string) (Encoder, error) {
	switch format {
	case "flac":
		return NewFlac()
	case "wav":
		return NewWav(), nil
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

// Ext maps a format name to the file extension recordings are saved with.
func Ext(format string) string {
	return format
}
