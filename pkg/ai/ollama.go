package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/johnquangdev/dubbing-service/pkg/config"
)

// OllamaClient translates through a local Ollama model
type OllamaClient struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewOllamaClient creates an Ollama client
func NewOllamaClient(cfg *config.OllamaConfig) *OllamaClient {
	baseURL, model := "http://localhost:11434", "llama3.1"
	if cfg != nil && cfg.BaseURL != "" {
		baseURL = cfg.BaseURL
	}
	if cfg != nil && cfg.Model != "" {
		model = cfg.Model
	}
	return &OllamaClient{
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: 20 * time.Minute},
	}
}

// Translate translates texts from sourceLang to targetLang, preserving order
func (o *OllamaClient) Translate(ctx context.Context, sourceLang, targetLang string, texts []string) ([]string, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	prompt, err := translationPrompt(sourceLang, targetLang, texts)
	if err != nil {
		return nil, err
	}

	reqData := map[string]interface{}{
		"model":  o.model,
		"system": translationSystemPrompt,
		"prompt": prompt,
		"format": "json",
		"stream": false,
		"options": map[string]interface{}{
			"temperature": 0.0,
			"num_ctx":     8192,
		},
	}
	payload, err := json.Marshal(reqData)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{Service: "ollama", StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(msg))}
	}

	var ollamaResp struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&ollamaResp); err != nil {
		return nil, fmt.Errorf("failed to decode ollama response: %w", err)
	}
	return parseTranslations(ollamaResp.Response, len(texts))
}
