// Package audio decodes, slices, concatenates and encodes PCM WAV clips, and
// implements the trimming and assembly stages on top of them.
package audio
