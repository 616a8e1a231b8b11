package model

import "time"

// Clip describes a WAV file produced by transcoding, trimming or assembly
type Clip struct {
	Index      int
	Path       string
	SampleRate int
	Channels   int
	BitDepth   int
	Frames     int
	Size       int64
}

// Duration returns the playback length derived from frame count and sample rate
func (c Clip) Duration() time.Duration {
	if c.SampleRate <= 0 {
		return 0
	}
	return time.Duration(c.Frames) * time.Second / time.Duration(c.SampleRate)
}

