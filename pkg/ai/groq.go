package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/johnquangdev/dubbing-service/pkg/config"
)

// GroqClient is a minimal client for Groq chat completions and speech synthesis
type GroqClient struct {
	apiKey    string
	baseURL   string
	chatModel string
	ttsModel  string
	client    *http.Client
}

// NewGroqClient creates a Groq client using values from the provided config.
// Pass a nil config to fall back to environment variables.
func NewGroqClient(cfg *config.GroqConfig) *GroqClient {
	var apiKey string
	if cfg != nil {
		apiKey = cfg.APIKey
	}
	if apiKey == "" {
		apiKey = os.Getenv("GROQ_API_KEY")
	}

	var base string
	if cfg != nil && cfg.BaseURL != "" {
		base = cfg.BaseURL
	} else {
		base = os.Getenv("GROQ_API_URL")
		if base == "" {
			base = "https://api.groq.com"
		}
	}

	chatModel, ttsModel := "llama-3.3-70b-versatile", "playai-tts"
	if cfg != nil && cfg.ChatModel != "" {
		chatModel = cfg.ChatModel
	}
	if cfg != nil && cfg.TTSModel != "" {
		ttsModel = cfg.TTSModel
	}

	return &GroqClient{
		apiKey:    apiKey,
		baseURL:   base,
		chatModel: chatModel,
		ttsModel:  ttsModel,
		client:    &http.Client{Timeout: 2 * time.Minute},
	}
}

// ChatRequest is the shape for chat completion requests
type ChatRequest struct {
	Model          string            `json:"model,omitempty"`
	Messages       []ChatMessage     `json:"messages,omitempty"`
	Temperature    float64           `json:"temperature"`
	MaxTokens      int               `json:"max_tokens,omitempty"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

// ChatMessage is one message of a chat completion
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatResponse is a minimal response shape
type ChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// SpeechRequest is the payload for /openai/v1/audio/speech
type SpeechRequest struct {
	Model          string `json:"model"`
	Input          string `json:"input"`
	Voice          string `json:"voice"`
	ResponseFormat string `json:"response_format"`
}

// Translate translates texts from sourceLang to targetLang, preserving order
func (g *GroqClient) Translate(ctx context.Context, sourceLang, targetLang string, texts []string) ([]string, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	prompt, err := translationPrompt(sourceLang, targetLang, texts)
	if err != nil {
		return nil, err
	}

	reqBody := ChatRequest{
		Model: g.chatModel,
		Messages: []ChatMessage{
			{Role: "system", Content: translationSystemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature:    0.2,
		MaxTokens:      8000,
		ResponseFormat: map[string]string{"type": "json_object"},
	}

	var cr ChatResponse
	if err := g.postJSON(ctx, "/openai/v1/chat/completions", reqBody, &cr); err != nil {
		return nil, err
	}
	if len(cr.Choices) == 0 {
		return nil, fmt.Errorf("%w from groq", ErrEmptyResponse)
	}
	return parseTranslations(cr.Choices[0].Message.Content, len(texts))
}

// Synthesize renders text with the given voice and returns WAV bytes
func (g *GroqClient) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	reqBody := SpeechRequest{
		Model:          g.ttsModel,
		Input:          text,
		Voice:          voice,
		ResponseFormat: "wav",
	}

	resp, err := g.do(ctx, "/openai/v1/audio/speech", reqBody)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read speech audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("%w from groq speech", ErrEmptyResponse)
	}
	return audio, nil
}

func (g *GroqClient) postJSON(ctx context.Context, path string, body, out interface{}) error {
	resp, err := g.do(ctx, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(out)
}

func (g *GroqClient) do(ctx context.Context, path string, body interface{}) (*http.Response, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{Service: "groq", StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(msg))}
	}
	return resp, nil
}
