package audio

import (
	"bytes"
	"math"
	"testing"
)

func encodeClip(t *testing.T, format Format, samples []int16) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := Encode(&buf, format, samples); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	return buf.Bytes()
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	format := Format{SampleRate: 8000, Channels: 2}
	samples := []int16{1, -1, 300, -300, math.MaxInt16, math.MinInt16}

	clip, err := Decode(encodeClip(t, format, samples))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if clip.Format != format {
		t.Fatalf("format = %+v, want %+v", clip.Format, format)
	}
	if clip.Frames() != 3 {
		t.Fatalf("frames = %d, want 3", clip.Frames())
	}
	for i := range samples {
		if clip.Samples[i] != samples[i] {
			t.Fatalf("sample %d = %d, want %d", i, clip.Samples[i], samples[i])
		}
	}
}

func TestDecodeRejectsNonWAV(t *testing.T) {
	if _, err := Decode([]byte("ID3 not a wav file")); err != ErrNotWAV {
		t.Fatalf("expected ErrNotWAV, got %v", err)
	}
}

func TestTimelinePlaceMixesAndClips(t *testing.T) {
	format := Format{SampleRate: 10, Channels: 1}
	timeline := NewTimeline(format, 1)

	loud := &Clip{Format: format, Samples: []int16{30000, 30000, 30000}}
	timeline.Place(0.1, loud)
	timeline.Place(0.2, loud)

	data, err := timeline.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	mixed, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(mixed.Samples) != 10 {
		t.Fatalf("expected the track to keep its 1s length, got %d samples", len(mixed.Samples))
	}
	if mixed.Samples[0] != 0 || mixed.Samples[1] != 30000 {
		t.Fatalf("unexpected placement %v", mixed.Samples)
	}
	if mixed.Samples[2] != math.MaxInt16 {
		t.Fatalf("overlap should clip to max, got %d", mixed.Samples[2])
	}
}

func TestTimelineGrowsPastEnd(t *testing.T) {
	format := Format{SampleRate: 10, Channels: 1}
	timeline := NewTimeline(format, 0.5)
	timeline.Place(0.4, &Clip{Format: format, Samples: []int16{1, 2, 3}})
	if got := timeline.Duration(); got != 0.7 {
		t.Fatalf("duration = %v, want 0.7", got)
	}
}

func TestConvertResamplesAndDownmixes(t *testing.T) {
	clip := &Clip{Format: Format{SampleRate: 20, Channels: 2}, Samples: []int16{100, 300, 100, 300, 100, 300, 100, 300}}
	out := clip.Convert(Format{SampleRate: 10, Channels: 1})
	if out.Frames() != 2 {
		t.Fatalf("frames = %d, want 2", out.Frames())
	}
	for _, s := range out.Samples {
		if s != 200 {
			t.Fatalf("expected downmixed value 200, got %d", s)
		}
	}
}
