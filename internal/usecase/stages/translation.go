package stages

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/johnquangdev/dubbing-service/internal/domain/entities"
	"github.com/johnquangdev/dubbing-service/internal/usecase/pipeline"
	"github.com/johnquangdev/dubbing-service/pkg/ai"
	"github.com/johnquangdev/dubbing-service/pkg/jobcontext"
)

const defaultBatchSize = 20

// Translator translates a batch of texts, answering in the same order
type Translator interface {
	Translate(ctx context.Context, sourceLang, targetLang string, texts []string) ([]string, error)
}

// Translation fills in translated text for every untranslated segment
type Translation struct {
	translator Translator
	batchSize  int
	logger     *zap.Logger
}

var _ pipeline.Executor = (*Translation)(nil)

// NewTranslation creates the translation stage
func NewTranslation(translator Translator, batchSize int, logger *zap.Logger) *Translation {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Translation{translator: translator, batchSize: batchSize, logger: logger}
}

// Execute implements pipeline.Executor
func (s *Translation) Execute(ctx context.Context, in pipeline.StageInput) (*pipeline.StageResult, error) {
	source := in.Job.SourceLanguage()
	if source == "" {
		return nil, permanent(errors.New("source language is not known"))
	}

	pending := make([]entities.TranscriptSegment, 0, len(in.Segments))
	for _, seg := range in.Segments {
		if !seg.IsTranslated() {
			pending = append(pending, seg)
		}
	}
	if len(pending) == 0 {
		return &pipeline.StageResult{}, nil
	}

	batches := (len(pending) + s.batchSize - 1) / s.batchSize
	translations := make([]entities.SegmentTranslation, 0, len(pending))
	for b := 0; b < batches; b++ {
		lo := b * s.batchSize
		hi := min(lo+s.batchSize, len(pending))
		batch := pending[lo:hi]

		texts := make([]string, len(batch))
		for i, seg := range batch {
			texts[i] = seg.OriginalText
		}

		out, err := s.translator.Translate(ctx, source, in.Job.TargetLanguage, texts)
		if err != nil {
			return nil, classify(fmt.Errorf("batch %d/%d: %w", b+1, batches, err))
		}
		if len(out) != len(batch) {
			return nil, transient(fmt.Errorf("batch %d/%d: %w: got %d, want %d", b+1, batches, ai.ErrTranslationMismatch, len(out), len(batch)))
		}
		for i, text := range out {
			text = strings.TrimSpace(text)
			if text == "" {
				return nil, transient(fmt.Errorf("empty translation for segment %d", batch[i].SegmentOrder))
			}
			translations = append(translations, entities.SegmentTranslation{
				SegmentID:      batch[i].ID,
				TranslatedText: text,
			})
		}
		report(in, float64(b+1)/float64(batches))
	}

	s.logger.Info("🈯 Segments translated",
		append(jobcontext.Fields(ctx),
			zap.String("from", source),
			zap.String("to", in.Job.TargetLanguage),
			zap.Int("segments", len(translations)),
			zap.Int("batches", batches),
		)...,
	)
	return &pipeline.StageResult{Translations: translations}, nil
}
