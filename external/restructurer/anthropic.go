package restructurer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/foxseedlab/koenote/internal/repository"
	"github.com/foxseedlab/koenote/internal/restructurer"
)

const (
	defaultEndpoint  = "https://api.anthropic.com/v1/messages"
	anthropicVersion = "2023-06-01"
	maxOutputTokens  = 4096
)

const systemPromptMinimal = `You clean up voice memo transcripts. Fix punctuation,
casing and obvious transcription mistakes, but keep the speaker's original
structure and wording. Do not add, remove or reorder information. Respond
with JSON only: {"title": "...", "note": "..."}. The title summarizes the
memo in at most 60 characters.`

const systemPromptNarrative = `You rewrite voice memo transcripts as flowing prose.
Reorganize sentences into readable paragraphs without adding or removing any
facts. Respond with JSON only: {"title": "...", "note": "..."}. The title
summarizes the memo in at most 60 characters.`

type AnthropicConfig struct {
	APIKey   string
	Model    string
	Endpoint string
}

type AnthropicRestructurer struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

func NewAnthropicRestructurer(cfg AnthropicConfig) restructurer.Restructurer {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	return &AnthropicRestructurer{
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		endpoint: endpoint,
		client:   &http.Client{},
	}
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

type noteOutput struct {
	Title string `json:"title"`
	Note  string `json:"note"`
}

func (r *AnthropicRestructurer) Restructure(ctx context.Context, input restructurer.Input) (*restructurer.Result, error) {
	system := systemPromptMinimal
	if input.Style == repository.StyleNarrative {
		system = systemPromptNarrative
	}
	if input.Language != "" {
		system += fmt.Sprintf(" Write the title and note in the language %q.", input.Language)
	}

	reqBody := anthropicRequest{
		Model:     r.model,
		MaxTokens: maxOutputTokens,
		System:    system,
		Messages: []anthropicMessage{
			{Role: "user", Content: "Here is the transcript:\n\n" + input.Transcript},
		},
	}
	b, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", r.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling anthropic API: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("anthropic API error (HTTP %d): %s", resp.StatusCode, string(respBody))
	}

	var apiResp anthropicResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("parsing anthropic response: %w", err)
	}
	if len(apiResp.Content) == 0 {
		return nil, fmt.Errorf("anthropic response has no content blocks")
	}

	return parseNoteOutput(apiResp.Content[0].Text)
}

// parseNoteOutput accepts the JSON object the prompt asks for, tolerating
// surrounding prose or markdown fences the model sometimes adds.
func parseNoteOutput(text string) (*restructurer.Result, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("model output contains no JSON object")
	}

	var out noteOutput
	if err := json.Unmarshal([]byte(text[start:end+1]), &out); err != nil {
		return nil, fmt.Errorf("parsing model output: %w", err)
	}
	out.Title = strings.TrimSpace(out.Title)
	out.Note = strings.TrimSpace(out.Note)
	if out.Title == "" || out.Note == "" {
		return nil, fmt.Errorf("model output missing title or note")
	}
	return &restructurer.Result{Title: out.Title, Note: out.Note}, nil
}
