package stages

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/johnquangdev/dubbing-service/internal/domain/entities"
	"github.com/johnquangdev/dubbing-service/internal/usecase/pipeline"
	"github.com/johnquangdev/dubbing-service/pkg/ai"
	"github.com/johnquangdev/dubbing-service/pkg/jobcontext"
)

// LanguageDetector identifies the spoken language of an audio URL
type LanguageDetector interface {
	DetectLanguage(ctx context.Context, audioURL string) (*ai.DetectedLanguage, error)
}

// LanguageDetection determines the source language of a job
type LanguageDetection struct {
	source   *AudioSource
	detector LanguageDetector
	logger   *zap.Logger
}

var _ pipeline.Executor = (*LanguageDetection)(nil)

// NewLanguageDetection creates the language detection stage
func NewLanguageDetection(source *AudioSource, detector LanguageDetector, logger *zap.Logger) *LanguageDetection {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LanguageDetection{source: source, detector: detector, logger: logger}
}

// Execute implements pipeline.Executor
func (s *LanguageDetection) Execute(ctx context.Context, in pipeline.StageInput) (*pipeline.StageResult, error) {
	// a language set by hand wins over detection
	if lang := in.Job.SourceLanguage(); lang != "" {
		code, err := checkLanguagePair(lang, in.Job.TargetLanguage)
		if err != nil {
			return nil, err
		}
		return &pipeline.StageResult{SourceLanguage: code}, nil
	}

	url, err := s.source.URL(ctx, in.Video)
	if err != nil {
		return nil, err
	}
	report(in, 0.3)

	detected, err := s.detector.DetectLanguage(ctx, url)
	if err != nil {
		return nil, classify(err)
	}
	report(in, 0.9)

	code, err := checkLanguagePair(detected.Code, in.Job.TargetLanguage)
	if err != nil {
		return nil, err
	}

	s.logger.Info("🌐 Source language detected",
		append(jobcontext.Fields(ctx),
			zap.String("reported", detected.Code),
			zap.String("language", code),
			zap.String("target", in.Job.TargetLanguage),
		)...,
	)
	return &pipeline.StageResult{SourceLanguage: code, ExternalID: detected.TranscriptID}, nil
}

// checkLanguagePair normalizes the source code and rejects pairs that cannot be dubbed
func checkLanguagePair(source, target string) (string, error) {
	code := entities.NormalizeLanguageCode(source)
	if code == "" {
		return "", permanent(errors.New("no spoken language detected"))
	}
	if !entities.IsSupportedLanguage(code) {
		return "", permanent(fmt.Errorf("%w: source language %q", entities.ErrUnsupportedLanguage, source))
	}
	if code == entities.NormalizeLanguageCode(target) {
		return "", permanent(fmt.Errorf("source language %q is the same as the target language", code))
	}
	return code, nil
}
