package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"treecare/internal/config"
)

func TestOpenAIClient_GenerateChat(t *testing.T) {
	var got chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"model": "llama-test",
			"choices": [{"message": {"content": "Water deeply once a week."}}],
			"usage": {"prompt_tokens": 42, "completion_tokens": 7, "total_tokens": 49}
		}`))
	}))
	defer server.Close()

	client := NewOpenAIClient(server.URL, "llama-test", "secret", 5*time.Second)
	resp, err := client.GenerateChat(context.Background(), ChatPrompt{System: "be brief", User: "how often?"})
	require.NoError(t, err)

	assert.Equal(t, "Water deeply once a week.", resp.Content)
	assert.Equal(t, 42, resp.Usage.PromptTokens)
	assert.Equal(t, 7, resp.Usage.CompletionTokens)
	assert.Equal(t, "llama-test", resp.Usage.Model)

	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "how often?", got.Messages[1].Content)
	assert.Nil(t, got.ResponseFormat)
}

func TestOpenAIClient_GenerateContentAsksForJSON(t *testing.T) {
	var got chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"choices": [{"message": {"content": "{\"name\":\"Oak\"}"}}]}`))
	}))
	defer server.Close()

	client := NewOpenAIClient(server.URL, "m", "k", time.Second)
	resp, err := client.GenerateContent(context.Background(), "extract")
	require.NoError(t, err)

	assert.JSONEq(t, `{"name":"Oak"}`, resp.Content)
	assert.Equal(t, "json_object", got.ResponseFormat["type"])
	assert.Equal(t, "m", resp.Usage.Model, "falls back to configured model")
}

func TestOpenAIClient_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{name: "HTTPError", status: http.StatusTooManyRequests, body: `{"error":"rate"}`, wantErr: "status=429"},
		{name: "NoChoices", status: http.StatusOK, body: `{"choices": []}`, wantErr: "no content generated"},
		{name: "BadJSON", status: http.StatusOK, body: `{`, wantErr: "failed to decode response"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := NewOpenAIClient(server.URL, "m", "k", time.Second).GenerateChat(context.Background(), ChatPrompt{User: "hi"})
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	cfg := config.DefaultConfig()
	cfg.LLM.APIKey = ""
	_, err := New(ctx, cfg)
	assert.ErrorContains(t, err, "no API key")

	cfg.LLM.APIKey = "k"
	client, err := New(ctx, cfg)
	require.NoError(t, err)
	openai, ok := client.(*OpenAIClient)
	require.True(t, ok)
	assert.Equal(t, groqAPIURL, openai.baseURL)
	assert.Equal(t, groqModel, openai.model)

	cfg.LLM.Provider = "openai"
	cfg.LLM.Model = "gpt-custom"
	client, err = New(ctx, cfg)
	require.NoError(t, err)
	assert.Equal(t, "gpt-custom", client.(*OpenAIClient).model)

	cfg.LLM.Provider = "llamafile"
	_, err = New(ctx, cfg)
	assert.ErrorContains(t, err, "unknown llm provider")
}

type countingGenerator struct{ calls int }

func (g *countingGenerator) GenerateContent(ctx context.Context, prompt string) (ContentResponse, error) {
	g.calls++
	return ContentResponse{Content: `{"echo":"` + prompt + `"}`}, nil
}

func TestCachedTextGenerator(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache", "llm.json")
	real := &countingGenerator{}

	cached, err := NewCachedTextGenerator(real, path, nil)
	require.NoError(t, err)

	first, err := cached.GenerateContent(ctx, "a")
	require.NoError(t, err)
	second, err := cached.GenerateContent(ctx, "a")
	require.NoError(t, err)

	assert.Equal(t, first.Content, second.Content)
	assert.Equal(t, 1, real.calls)

	// A fresh wrapper reads the persisted cache.
	reloaded, err := NewCachedTextGenerator(real, path, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.Len())
	_, err = reloaded.GenerateContent(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 1, real.calls)
}
