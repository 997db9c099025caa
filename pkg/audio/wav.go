// Package audio decodes, mixes and encodes 16-bit PCM WAV audio.
package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

var (
	ErrNotWAV            = errors.New("not a RIFF/WAVE stream")
	ErrUnsupportedFormat = errors.New("unsupported wav format")
)

// Format describes interleaved 16-bit PCM audio
type Format struct {
	SampleRate int
	Channels   int
}

// DefaultFormat is the format of dubbed tracks
var DefaultFormat = Format{SampleRate: 24000, Channels: 1}

// Clip is decoded PCM audio
type Clip struct {
	Format  Format
	Samples []int16 // Interleaved by channel
}

// Frames returns the number of sample frames in the clip
func (c *Clip) Frames() int {
	if c.Format.Channels == 0 {
		return 0
	}
	return len(c.Samples) / c.Format.Channels
}

// Duration returns the clip length in seconds
func (c *Clip) Duration() float64 {
	if c.Format.SampleRate == 0 {
		return 0
	}
	return float64(c.Frames()) / float64(c.Format.SampleRate)
}

// Decode parses a 16-bit PCM WAV file
func Decode(data []byte) (*Clip, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, ErrNotWAV
	}

	var (
		format    Format
		haveFmt   bool
		pcm       []byte
		offset    = 12
		bitsPerSm uint16
	)
	for offset+8 <= len(data) {
		id := string(data[offset : offset+4])
		size := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		body := offset + 8
		// streamed encoders leave the size unset
		if size < 0 || body+size > len(data) || uint32(size) == math.MaxUint32 {
			size = len(data) - body
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, fmt.Errorf("%w: short fmt chunk", ErrUnsupportedFormat)
			}
			audioFormat := binary.LittleEndian.Uint16(data[body : body+2])
			format.Channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			format.SampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			bitsPerSm = binary.LittleEndian.Uint16(data[body+14 : body+16])
			// 0xFFFE is WAVE_FORMAT_EXTENSIBLE, accepted when it carries plain PCM
			if audioFormat != 1 && audioFormat != 0xFFFE {
				return nil, fmt.Errorf("%w: encoding %d", ErrUnsupportedFormat, audioFormat)
			}
			haveFmt = true
		case "data":
			pcm = data[body : body+size]
		}

		offset = body + size
		if size%2 == 1 {
			offset++
		}
	}

	if !haveFmt || pcm == nil {
		return nil, fmt.Errorf("%w: missing fmt or data chunk", ErrUnsupportedFormat)
	}
	if bitsPerSm != 16 {
		return nil, fmt.Errorf("%w: %d bits per sample", ErrUnsupportedFormat, bitsPerSm)
	}
	if format.Channels < 1 || format.SampleRate < 1 {
		return nil, fmt.Errorf("%w: %d channels at %d Hz", ErrUnsupportedFormat, format.Channels, format.SampleRate)
	}

	samples := make([]int16, len(pcm)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(pcm[2*i:]))
	}
	// drop a trailing partial frame
	samples = samples[:len(samples)-len(samples)%format.Channels]
	return &Clip{Format: format, Samples: samples}, nil
}

// Encode writes samples as a 16-bit PCM WAV stream
func Encode(w io.Writer, format Format, samples []int16) error {
	dataSize := uint32(len(samples) * 2)
	blockAlign := uint16(format.Channels * 2)

	header := []interface{}{
		[]byte("RIFF"), 36 + dataSize, []byte("WAVE"),
		[]byte("fmt "), uint32(16), uint16(1), uint16(format.Channels),
		uint32(format.SampleRate), uint32(format.SampleRate) * uint32(blockAlign), blockAlign, uint16(16),
		[]byte("data"), dataSize,
	}
	for _, v := range header {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	return binary.Write(w, binary.LittleEndian, samples)
}

// Convert returns the clip in the target format, remixing channels and
// resampling linearly when needed
func (c *Clip) Convert(target Format) *Clip {
	if c.Format == target {
		return c
	}

	frames := c.Frames()
	mono := make([]float64, frames)
	for f := 0; f < frames; f++ {
		var sum float64
		for ch := 0; ch < c.Format.Channels; ch++ {
			sum += float64(c.Samples[f*c.Format.Channels+ch])
		}
		mono[f] = sum / float64(c.Format.Channels)
	}

	outFrames := frames
	if c.Format.SampleRate != target.SampleRate && frames > 0 {
		outFrames = int(math.Round(float64(frames) * float64(target.SampleRate) / float64(c.Format.SampleRate)))
	}

	out := make([]int16, outFrames*target.Channels)
	ratio := float64(c.Format.SampleRate) / float64(target.SampleRate)
	for f := 0; f < outFrames; f++ {
		pos := float64(f) * ratio
		i := int(pos)
		v := 0.0
		if i < frames {
			v = mono[i]
			if i+1 < frames {
				v += (mono[i+1] - mono[i]) * (pos - float64(i))
			}
		}
		for ch := 0; ch < target.Channels; ch++ {
			out[f*target.Channels+ch] = clamp16(v)
		}
	}
	return &Clip{Format: target, Samples: out}
}

// Timeline mixes clips at absolute positions into one track
type Timeline struct {
	format  Format
	samples []int32
}

// NewTimeline creates a silent track of the given length in seconds
func NewTimeline(format Format, seconds float64) *Timeline {
	frames := 0
	if seconds > 0 {
		frames = int(math.Ceil(seconds * float64(format.SampleRate)))
	}
	return &Timeline{format: format, samples: make([]int32, frames*format.Channels)}
}

// Place mixes clip into the track starting at the given second, extending the track if needed.
// Overlapping audio is summed and clipped on encode.
func (t *Timeline) Place(at float64, clip *Clip) {
	if at < 0 {
		at = 0
	}
	c := clip.Convert(t.format)
	start := int(math.Round(at*float64(t.format.SampleRate))) * t.format.Channels
	end := start + len(c.Samples)
	if end > len(t.samples) {
		grown := make([]int32, end)
		copy(grown, t.samples)
		t.samples = grown
	}
	for i, s := range c.Samples {
		t.samples[start+i] += int32(s)
	}
}

// Duration returns the track length in seconds
func (t *Timeline) Duration() float64 {
	return float64(len(t.samples)/t.format.Channels) / float64(t.format.SampleRate)
}

// Encode writes the mixed track as WAV
func (t *Timeline) Encode(w io.Writer) error {
	out := make([]int16, len(t.samples))
	for i, s := range t.samples {
		out[i] = clamp16(float64(s))
	}
	return Encode(w, t.format, out)
}

// Bytes returns the mixed track as an in-memory WAV file
func (t *Timeline) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(44 + len(t.samples)*2)
	if err := t.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func clamp16(v float64) int16 {
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(math.Round(v))
}
