package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nyukimin/codegen_multiLLM/internal/adapter/config"
	"github.com/Nyukimin/codegen_multiLLM/internal/domain/llm"
)

func completionJSON(content interface{}) []byte {
	choices := []map[string]interface{}{}
	if content != nil {
		choices = append(choices, map[string]interface{}{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]interface{}{"role": "assistant", "content": content},
		})
	}
	b, _ := json.Marshal(map[string]interface{}{
		"id":      "chatcmpl-123",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "gpt-test",
		"choices": choices,
	})
	return b
}

func TestNewOpenAIProvider(t *testing.T) {
	t.Setenv(config.EnvOpenAIAPIKey, "env-key")

	provider, err := NewOpenAIProvider(config.BackendOptions{Model: "gpt-4"})
	require.NoError(t, err)

	if provider.Name() != "openai-gpt-4" {
		t.Errorf("Expected name 'openai-gpt-4', got '%s'", provider.Name())
	}
}

func TestNewDeepSeekProvider_Defaults(t *testing.T) {
	t.Setenv(config.EnvDeepSeekAPIKey, "env-key")

	provider, err := NewDeepSeekProvider(config.BackendOptions{})
	require.NoError(t, err)

	if provider.Name() != "deepseek-deepseek-chat" {
		t.Errorf("Expected name 'deepseek-deepseek-chat', got '%s'", provider.Name())
	}
}

func TestNewProvider_MissingKey(t *testing.T) {
	t.Setenv(config.EnvOpenAIAPIKey, "")
	t.Setenv(config.EnvDeepSeekAPIKey, "")

	_, err := NewOpenAIProvider(config.BackendOptions{})
	require.Error(t, err)
	assert.True(t, llm.IsConfigurationError(err))
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")

	_, err = NewDeepSeekProvider(config.BackendOptions{})
	require.Error(t, err)
	assert.True(t, llm.IsConfigurationError(err))
	assert.Contains(t, err.Error(), "DEEPSEEK_API_KEY")
}

func TestNewProvider_FileKeyIsLowestPriority(t *testing.T) {
	t.Setenv(config.EnvOpenAIAPIKey, "")

	gotAuth := make(chan string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth <- r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write(completionJSON("x"))
	}))
	defer server.Close()

	p, err := NewOpenAIProvider(config.BackendOptions{
		BaseURL: server.URL + "/v1/",
		File:    config.BackendConfig{APIKey: "file-key"},
	})
	require.NoError(t, err)

	_, err = p.GenerateCode(context.Background(), llm.GenerationRequest{Prompt: "p", Language: "python"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer file-key", <-gotAuth)
}

func TestOpenAIProviderGenerateCode_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("Expected path '/v1/chat/completions', got '%s'", r.URL.Path)
		}

		// Authorizationヘッダー確認
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-api-key" {
			t.Errorf("Expected 'Bearer test-api-key', got '%s'", auth)
		}

		// リクエストボディ検証
		var reqBody map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
			t.Errorf("Failed to decode request: %v", err)
			return
		}

		assert.Equal(t, "gpt-test", reqBody["model"])
		assert.EqualValues(t, 2048, reqBody["max_tokens"])

		messages, _ := reqBody["messages"].([]interface{})
		if assert.Len(t, messages, 2) {
			system := messages[0].(map[string]interface{})
			assert.Equal(t, "system", system["role"])
			assert.Equal(t, llm.CloudSystemPrompt("go"), system["content"])

			user := messages[1].(map[string]interface{})
			assert.Equal(t, "user", user["role"])
			assert.Equal(t, "hello world", user["content"])
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write(completionJSON("```go\nfmt.Println(\"hi\")\n```"))
	}))
	defer server.Close()

	p, err := NewOpenAIProvider(config.BackendOptions{
		APIKey:  "test-api-key",
		BaseURL: server.URL + "/v1/",
		Model:   "gpt-test",
	})
	require.NoError(t, err)

	code, err := p.GenerateCode(context.Background(), llm.GenerationRequest{Prompt: "hello world", Language: "go"})
	require.NoError(t, err)
	assert.Equal(t, `fmt.Println("hi")`, code)
}

func TestOpenAIProviderGenerateCode_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(completionJSON(nil))
	}))
	defer server.Close()

	p, err := NewOpenAIProvider(config.BackendOptions{APIKey: "k", BaseURL: server.URL + "/v1/"})
	require.NoError(t, err)

	_, err = p.GenerateCode(context.Background(), llm.GenerationRequest{Prompt: "p", Language: "python"})
	apiErr, ok := llm.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, llm.KindEmptyResponse, apiErr.Kind)
}

func TestOpenAIProviderGenerateCode_EmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(completionJSON(""))
	}))
	defer server.Close()

	p, err := NewOpenAIProvider(config.BackendOptions{APIKey: "k", BaseURL: server.URL + "/v1/"})
	require.NoError(t, err)

	_, err = p.GenerateCode(context.Background(), llm.GenerationRequest{Prompt: "p", Language: "python"})
	apiErr, ok := llm.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, llm.KindMissingField, apiErr.Kind)
}

func TestDeepSeekProviderGenerateCode_StatusErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		wantKind llm.ErrorKind
	}{
		{"rate limit", http.StatusTooManyRequests, llm.KindRateLimit},
		{"unauthorized", http.StatusUnauthorized, llm.KindStatus},
		{"server error", http.StatusInternalServerError, llm.KindStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&hits, 1)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"error": {"message": "boom", "type": "server_error"}}`))
			}))
			defer server.Close()

			p, err := NewDeepSeekProvider(config.BackendOptions{APIKey: "k", BaseURL: server.URL + "/v1/"})
			require.NoError(t, err)

			_, err = p.GenerateCode(context.Background(), llm.GenerationRequest{Prompt: "p", Language: "python"})
			apiErr, ok := llm.AsAPIError(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantKind, apiErr.Kind)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, llm.ProviderDeepSeek, apiErr.Provider)
			assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
		})
	}
}

func TestOpenAIProviderGenerateCode_ConnectionError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	p, err := NewOpenAIProvider(config.BackendOptions{APIKey: "k", BaseURL: url + "/v1/"})
	require.NoError(t, err)

	_, err = p.GenerateCode(context.Background(), llm.GenerationRequest{Prompt: "p", Language: "python"})
	apiErr, ok := llm.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, llm.KindConnection, apiErr.Kind)
}
