package stages

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/johnquangdev/dubbing-service/internal/domain/entities"
	"github.com/johnquangdev/dubbing-service/internal/usecase/pipeline"
	"github.com/johnquangdev/dubbing-service/pkg/ai"
	"github.com/johnquangdev/dubbing-service/pkg/jobcontext"
)

// minSegmentDuration keeps zero-length utterances valid, in seconds
const minSegmentDuration = 0.001

// Transcriber produces a diarized transcript of an audio URL
type Transcriber interface {
	Transcribe(ctx context.Context, audioURL, language string) (*ai.TranscriptResult, error)
}

// Transcription turns speech into speakers and ordered segments
type Transcription struct {
	source      *AudioSource
	transcriber Transcriber
	logger      *zap.Logger
}

var _ pipeline.Executor = (*Transcription)(nil)

// NewTranscription creates the transcription stage
func NewTranscription(source *AudioSource, transcriber Transcriber, logger *zap.Logger) *Transcription {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Transcription{source: source, transcriber: transcriber, logger: logger}
}

// Execute implements pipeline.Executor
func (s *Transcription) Execute(ctx context.Context, in pipeline.StageInput) (*pipeline.StageResult, error) {
	lang := in.Job.SourceLanguage()
	if lang == "" {
		return nil, permanent(errors.New("source language is not known"))
	}

	url, err := s.source.URL(ctx, in.Video)
	if err != nil {
		return nil, err
	}
	report(in, 0.2)

	transcript, err := s.transcriber.Transcribe(ctx, url, lang)
	if err != nil {
		return nil, classify(err)
	}
	report(in, 0.9)

	speakers, segments := buildTranscript(in, transcript.Utterances)
	if len(segments) == 0 {
		s.logger.Warn("🔇 No speech found in the audio",
			append(jobcontext.Fields(ctx), zap.String("transcript_id", transcript.TranscriptID))...,
		)
	}

	s.logger.Info("📝 Transcript received",
		append(jobcontext.Fields(ctx),
			zap.String("transcript_id", transcript.TranscriptID),
			zap.Int("speakers", len(speakers)),
			zap.Int("segments", len(segments)),
		)...,
	)
	return &pipeline.StageResult{
		Speakers:   speakers,
		Segments:   segments,
		ExternalID: transcript.TranscriptID,
	}, nil
}

// buildTranscript converts utterances into segments continuing after in.Segments
// and aggregates speaker turns into speakers with cumulative speaking time
func buildTranscript(in pipeline.StageInput, utterances []ai.Utterance) ([]entities.Speaker, []entities.TranscriptSegment) {
	sorted := make([]ai.Utterance, len(utterances))
	copy(sorted, utterances)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].StartMs < sorted[j].StartMs })

	order := len(in.Segments)
	var minStart float64
	if order > 0 {
		minStart = in.Segments[order-1].StartTime
	}

	var (
		speakers []entities.Speaker
		segments []entities.TranscriptSegment
		index    = make(map[string]int)
	)
	for _, u := range sorted {
		text := strings.TrimSpace(u.Text)
		if text == "" {
			continue
		}
		start := math.Max(float64(u.StartMs)/1000, minStart)
		end := float64(u.EndMs) / 1000
		if end-start < minSegmentDuration {
			end = start + minSegmentDuration
		}

		seg := entities.TranscriptSegment{
			JobID:        in.Job.ID,
			StartTime:    start,
			EndTime:      end,
			OriginalText: text,
			Confidence:   math.Min(math.Max(u.Confidence, 0), 1),
			SegmentOrder: order,
		}
		if u.Speaker != "" {
			label := speakerLabel(u.Speaker)
			i, ok := index[label]
			if !ok {
				i = len(speakers)
				index[label] = i
				speakers = append(speakers, entities.NewSpeaker(in.Job.ID, label, entities.SpeakerGenderUnknown, 0))
			}
			speakers[i].TotalSpeakingTime += end - start
			seg.SpeakerLabel = label
		}
		segments = append(segments, seg)
		order++
	}
	return speakers, segments
}

func speakerLabel(raw string) string {
	if strings.HasPrefix(raw, "Speaker_") {
		return raw
	}
	return "Speaker_" + raw
}
