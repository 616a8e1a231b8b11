package audio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// wavFormatPCM is the WAVE format tag for integer PCM
const wavFormatPCM = 1

// ErrFormatMismatch is returned when clips with different sample rates,
// channel counts or bit depths are concatenated.
var ErrFormatMismatch = errors.New("audio format mismatch")

// Buffer holds interleaved integer PCM samples.
type Buffer struct {
	SampleRate int
	Channels   int
	BitDepth   int
	Data       []int
}

// Frames returns the number of sample frames (one sample per channel).
func (b *Buffer) Frames() int {
	if b.Channels <= 0 {
		return 0
	}
	return len(b.Data) / b.Channels
}

// Duration returns the playback length of the buffer.
func (b *Buffer) Duration() time.Duration {
	if b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(b.Frames()) * time.Second / time.Duration(b.SampleRate)
}

// Empty reports whether the buffer has no format yet. An empty buffer adopts
// the format of the first buffer appended to it.
func (b *Buffer) Empty() bool {
	return b.SampleRate == 0 && len(b.Data) == 0
}

// FramesFor converts a duration into a whole number of frames at the
// buffer's sample rate.
func (b *Buffer) FramesFor(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	whole := int64(d / time.Second)
	frac := int64(d % time.Second)
	rate := int64(b.SampleRate)
	return int(whole*rate + frac*rate/int64(time.Second))
}

// Append concatenates other onto b.
func (b *Buffer) Append(other *Buffer) error {
	if b.Empty() {
		b.SampleRate = other.SampleRate
		b.Channels = other.Channels
		b.BitDepth = other.BitDepth
	} else if !b.sameFormat(other) {
		return fmt.Errorf("%w: %d Hz/%d ch/%d bit vs %d Hz/%d ch/%d bit", ErrFormatMismatch,
			b.SampleRate, b.Channels, b.BitDepth, other.SampleRate, other.Channels, other.BitDepth)
	}
	b.Data = append(b.Data, other.Data...)
	return nil
}

func (b *Buffer) sameFormat(other *Buffer) bool {
	return b.SampleRate == other.SampleRate && b.Channels == other.Channels && b.BitDepth == other.BitDepth
}

// ReadWAV decodes a PCM WAV file into memory.
func ReadWAV(path string) (*Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%s: not a valid wav file", path)
	}
	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	return &Buffer{
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		BitDepth:   int(dec.BitDepth),
		Data:       pcm.Data,
	}, nil
}

// headChunkFrames is how many frames ReadWAVHead decodes per read
const headChunkFrames = 4096

// ReadWAVHead decodes at most the first d of a PCM WAV file. The rest of the
// file is never decoded.
func ReadWAVHead(path string, d time.Duration) (*Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%s: not a valid wav file", path)
	}
	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	out := &Buffer{
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		BitDepth:   int(dec.BitDepth),
	}
	if out.Channels <= 0 {
		return nil, fmt.Errorf("%s: wav header has no channels", path)
	}

	remaining := out.FramesFor(d)
	chunk := &goaudio.IntBuffer{
		Format:         dec.Format(),
		Data:           make([]int, headChunkFrames*out.Channels),
		SourceBitDepth: out.BitDepth,
	}
	for remaining > 0 {
		want := min(remaining, headChunkFrames)
		chunk.Data = chunk.Data[:want*out.Channels]
		n, err := dec.PCMBuffer(chunk)
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		// drop a trailing partial frame
		n -= n % out.Channels
		if n == 0 {
			break
		}
		out.Data = append(out.Data, chunk.Data[:n]...)
		remaining -= n / out.Channels
		if err != nil {
			break
		}
	}
	return out, nil
}

// WriteWAV encodes b to path. A partially written file is removed on failure.
func WriteWAV(path string, b *Buffer) (err error) {
	if b.SampleRate <= 0 || b.Channels <= 0 || b.BitDepth <= 0 {
		return fmt.Errorf("write %s: buffer has no audio format", path)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()

	enc := wav.NewEncoder(f, b.SampleRate, b.BitDepth, b.Channels, wavFormatPCM)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: b.Channels, SampleRate: b.SampleRate},
		Data:           b.Data,
		SourceBitDepth: b.BitDepth,
	}
	// Write runs even for an empty buffer so the header is emitted.
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalize %s: %w", path, err)
	}
	return nil
}
