package restructurer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/foxseedlab/koenote/internal/repository"
	"github.com/foxseedlab/koenote/internal/restructurer"
)

func newTestRestructurer(url string) restructurer.Restructurer {
	return NewAnthropicRestructurer(AnthropicConfig{
		APIKey:   "test-key",
		Model:    "claude-haiku-4-5",
		Endpoint: url,
	})
}

func modelReply(text string) string {
	b, _ := json.Marshal(map[string]any{
		"content": []map[string]string{{"type": "text", "text": text}},
	})
	return string(b)
}

func TestRestructure_Success(t *testing.T) {
	var gotSystem string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "test-key" {
			t.Fatalf("missing api key header")
		}
		var req anthropicRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		gotSystem = req.System
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(modelReply(`{"title":"Groceries","note":"Buy milk and eggs."}`)))
	}))
	defer server.Close()

	result, err := newTestRestructurer(server.URL).Restructure(context.Background(), restructurer.Input{
		Transcript: "buy milk and eggs",
		Language:   "en",
		Style:      repository.StyleMinimal,
	})
	if err != nil {
		t.Fatalf("restructure: %v", err)
	}
	if result.Title != "Groceries" || result.Note != "Buy milk and eggs." {
		t.Fatalf("unexpected result: %+v", result)
	}
	if !strings.Contains(gotSystem, "keep the speaker's original") {
		t.Fatalf("expected minimal prompt, got %q", gotSystem)
	}
}

func TestRestructure_NarrativePrompt(t *testing.T) {
	var gotSystem string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req anthropicRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		gotSystem = req.System
		_, _ = w.Write([]byte(modelReply(`{"title":"T","note":"N"}`)))
	}))
	defer server.Close()

	if _, err := newTestRestructurer(server.URL).Restructure(context.Background(), restructurer.Input{
		Transcript: "text",
		Style:      repository.StyleNarrative,
	}); err != nil {
		t.Fatalf("restructure: %v", err)
	}
	if !strings.Contains(gotSystem, "flowing prose") {
		t.Fatalf("expected narrative prompt, got %q", gotSystem)
	}
}

func TestRestructure_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	if _, err := newTestRestructurer(server.URL).Restructure(context.Background(), restructurer.Input{Transcript: "x"}); err == nil {
		t.Fatal("expected error for upstream 503")
	}
}

func TestRestructure_ToleratesMarkdownFences(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(modelReply("```json\n{\"title\":\"T\",\"note\":\"N\"}\n```")))
	}))
	defer server.Close()

	result, err := newTestRestructurer(server.URL).Restructure(context.Background(), restructurer.Input{Transcript: "x"})
	if err != nil {
		t.Fatalf("restructure: %v", err)
	}
	if result.Title != "T" || result.Note != "N" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestRestructure_RejectsIncompleteOutput(t *testing.T) {
	for _, text := range []string{
		`{"title":"","note":"N"}`,
		`{"title":"T","note":""}`,
		`no json here`,
	} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(modelReply(text)))
		}))
		if _, err := newTestRestructurer(server.URL).Restructure(context.Background(), restructurer.Input{Transcript: "x"}); err == nil {
			t.Fatalf("expected error for output %q", text)
		}
		server.Close()
	}
}
