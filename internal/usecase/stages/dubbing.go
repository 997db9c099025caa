package stages

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/johnquangdev/dubbing-service/internal/domain/entities"
	"github.com/johnquangdev/dubbing-service/internal/usecase/pipeline"
	"github.com/johnquangdev/dubbing-service/pkg/audio"
	"github.com/johnquangdev/dubbing-service/pkg/jobcontext"
)

const (
	defaultSynthesisParallelism = 4
	// share of the stage spent on synthesis, the rest is mixing and upload
	synthesisShare = 0.9
)

// Synthesizer renders text as WAV speech
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
}

// Voices maps speaker genders onto synthesis voices
type Voices struct {
	Male   string
	Female string
}

// Dubbing synthesizes translated segments and mixes them into one track
type Dubbing struct {
	synth       Synthesizer
	media       MediaStore
	voices      Voices
	format      audio.Format
	parallelism int
	logger      *zap.Logger
}

var _ pipeline.Executor = (*Dubbing)(nil)

// NewDubbing creates the dubbing stage
func NewDubbing(synth Synthesizer, media MediaStore, voices Voices, logger *zap.Logger) *Dubbing {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dubbing{
		synth:       synth,
		media:       media,
		voices:      voices,
		format:      audio.DefaultFormat,
		parallelism: defaultSynthesisParallelism,
		logger:      logger,
	}
}

// Execute implements pipeline.Executor. A job without segments gets a silent
// track as long as its video.
func (s *Dubbing) Execute(ctx context.Context, in pipeline.StageInput) (*pipeline.StageResult, error) {
	for _, seg := range in.Segments {
		if !seg.IsTranslated() {
			return nil, permanent(fmt.Errorf("%w: segment %d has no translation", entities.ErrValidation, seg.SegmentOrder))
		}
	}

	voices := s.assignVoices(in.Speakers)
	clips := make([]*audio.Clip, len(in.Segments))
	var done atomic.Int32

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism)
	for i := range in.Segments {
		seg := in.Segments[i]
		voice := s.voices.Female
		if seg.SpeakerID != nil {
			if v, ok := voices[*seg.SpeakerID]; ok {
				voice = v
			}
		}

		g.Go(func() error {
			data, err := s.synth.Synthesize(gctx, *seg.TranslatedText, voice)
			if err != nil {
				return classify(fmt.Errorf("segment %d: %w", seg.SegmentOrder, err))
			}
			clip, err := audio.Decode(data)
			if err != nil {
				return permanent(fmt.Errorf("segment %d: synthesized audio: %w", seg.SegmentOrder, err))
			}
			clips[i] = clip
			report(in, synthesisShare*float64(done.Add(1))/float64(len(in.Segments)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	duration := 0.0
	if in.Video != nil {
		duration = in.Video.Duration
	}
	track := audio.NewTimeline(s.format, duration)
	for i, seg := range in.Segments {
		track.Place(seg.StartTime, clips[i])
	}
	wav, err := track.Bytes()
	if err != nil {
		return nil, permanent(fmt.Errorf("failed to encode dubbed track: %w", err))
	}

	path, err := s.media.StoreDubbedAudio(ctx, in.Job.ID, wav)
	if err != nil {
		return nil, transient(fmt.Errorf("failed to store dubbed audio: %w", err))
	}
	report(in, 1)

	s.logger.Info("🎙️ Dubbed track stored",
		append(jobcontext.Fields(ctx),
			zap.String("path", path),
			zap.Int("segments", len(in.Segments)),
			zap.Float64("duration", track.Duration()),
		)...,
	)
	return &pipeline.StageResult{AudioPath: path}, nil
}

// assignVoices picks a voice per speaker. Speakers of unknown gender alternate
// between the male and female voice.
func (s *Dubbing) assignVoices(speakers []entities.Speaker) map[uuid.UUID]string {
	out := make(map[uuid.UUID]string, len(speakers))
	for i, sp := range speakers {
		switch sp.Gender {
		case entities.SpeakerGenderMale:
			out[sp.ID] = s.voices.Male
		case entities.SpeakerGenderFemale:
			out[sp.ID] = s.voices.Female
		default:
			if i%2 == 0 {
				out[sp.ID] = s.voices.Male
			} else {
				out[sp.ID] = s.voices.Female
			}
		}
	}
	return out
}
