package ai

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	aai "github.com/AssemblyAI/assemblyai-go-sdk"

	"github.com/johnquangdev/dubbing-service/pkg/config"
)

const defaultDetectionSampleMs = 60_000

// AssemblyAIClient wraps the official SDK for language detection and diarized transcription
type AssemblyAIClient struct {
	client   *aai.Client
	sampleMs int64
}

// NewAssemblyAIClient creates an AssemblyAI client using the provided config.
// If cfg is nil, falls back to environment variables.
func NewAssemblyAIClient(cfg *config.AssemblyAIConfig) *AssemblyAIClient {
	var apiKey, baseURL string
	sampleMs := int64(defaultDetectionSampleMs)
	if cfg != nil {
		apiKey = cfg.APIKey
		baseURL = cfg.BaseURL
		if cfg.DetectionSampleMs > 0 {
			sampleMs = cfg.DetectionSampleMs
		}
	}
	if apiKey == "" {
		apiKey = os.Getenv("ASSEMBLYAI_API_KEY")
	}

	opts := []aai.ClientOption{aai.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, aai.WithBaseURL(baseURL))
	}
	return &AssemblyAIClient{
		client:   aai.NewClientWithOptions(opts...),
		sampleMs: sampleMs,
	}
}

// DetectedLanguage is the outcome of a language detection pass
type DetectedLanguage struct {
	TranscriptID string
	Code         string // As reported by AssemblyAI, e.g. "en_us"
}

// Utterance is one diarized speaker turn
type Utterance struct {
	Speaker    string
	Text       string
	StartMs    int64
	EndMs      int64
	Confidence float64
}

// TranscriptResult is a completed diarized transcript
type TranscriptResult struct {
	TranscriptID string
	Language     string
	Utterances   []Utterance // Sorted by start time
}

// Upload streams media to AssemblyAI and returns a URL usable as audio_url
func (c *AssemblyAIClient) Upload(ctx context.Context, r io.Reader) (string, error) {
	uploadURL, err := c.client.Upload(ctx, r)
	if err != nil {
		return "", fmt.Errorf("failed to upload to AssemblyAI: %w", err)
	}
	return uploadURL, nil
}

// DetectLanguage runs automatic language detection over the beginning of the audio
func (c *AssemblyAIClient) DetectLanguage(ctx context.Context, audioURL string) (*DetectedLanguage, error) {
	params := &aai.TranscriptOptionalParams{
		LanguageDetection: aai.Bool(true),
		AudioEndAt:        aai.Int64(c.sampleMs),
	}

	transcript, err := c.client.Transcripts.TranscribeFromURL(ctx, audioURL, params)
	if err != nil {
		return nil, fmt.Errorf("failed to detect language: %w", err)
	}
	if err := transcriptError(transcript); err != nil {
		return nil, err
	}
	if transcript.LanguageCode == "" {
		return nil, fmt.Errorf("%w: no language detected", ErrTranscriptFailed)
	}

	return &DetectedLanguage{
		TranscriptID: aai.ToString(transcript.ID),
		Code:         string(transcript.LanguageCode),
	}, nil
}

// Transcribe produces a speaker-labelled transcript in the given language
func (c *AssemblyAIClient) Transcribe(ctx context.Context, audioURL, language string) (*TranscriptResult, error) {
	params := &aai.TranscriptOptionalParams{
		LanguageCode:  aai.TranscriptLanguageCode(language),
		SpeakerLabels: aai.Bool(true),
	}

	transcript, err := c.client.Transcripts.TranscribeFromURL(ctx, audioURL, params)
	if err != nil {
		return nil, fmt.Errorf("failed to transcribe: %w", err)
	}
	if err := transcriptError(transcript); err != nil {
		return nil, err
	}

	result := &TranscriptResult{
		TranscriptID: aai.ToString(transcript.ID),
		Language:     string(transcript.LanguageCode),
		Utterances:   make([]Utterance, 0, len(transcript.Utterances)),
	}
	for _, utt := range transcript.Utterances {
		u := Utterance{
			Speaker:    aai.ToString(utt.Speaker),
			Text:       aai.ToString(utt.Text),
			StartMs:    aai.ToInt64(utt.Start),
			EndMs:      aai.ToInt64(utt.End),
			Confidence: aai.ToFloat64(utt.Confidence),
		}
		if u.Text == "" || u.EndMs <= u.StartMs {
			continue
		}
		result.Utterances = append(result.Utterances, u)
	}
	sort.SliceStable(result.Utterances, func(i, j int) bool {
		return result.Utterances[i].StartMs < result.Utterances[j].StartMs
	})
	return result, nil
}

func transcriptError(t aai.Transcript) error {
	if t.Status != aai.TranscriptStatusError {
		return nil
	}
	msg := "AssemblyAI transcription failed"
	if t.Error != nil {
		msg = *t.Error
	}
	return fmt.Errorf("%w: %s", ErrTranscriptFailed, msg)
}
