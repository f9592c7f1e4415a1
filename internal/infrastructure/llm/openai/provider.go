package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/Nyukimin/codegen_multiLLM/internal/adapter/config"
	"github.com/Nyukimin/codegen_multiLLM/internal/domain/codeblock"
	"github.com/Nyukimin/codegen_multiLLM/internal/domain/llm"
	"github.com/Nyukimin/codegen_multiLLM/internal/infrastructure/llm/transport"
	"github.com/Nyukimin/codegen_multiLLM/pkg/logger"
)

const (
	DefaultOpenAIModel     = "gpt-4o-mini"
	DefaultDeepSeekModel   = "deepseek-chat"
	DefaultDeepSeekBaseURL = "https://api.deepseek.com/v1"

	requestTimeout = 120 * time.Second
)

// backend はOpenAI互換クラウドごとの差分
type backend struct {
	provider     string
	label        string
	envKey       string
	defaultModel string
	defaultBase  string // 空ならSDKの既定
}

var (
	openAIBackend = backend{
		provider:     llm.ProviderOpenAI,
		label:        "OpenAI API",
		envKey:       config.EnvOpenAIAPIKey,
		defaultModel: DefaultOpenAIModel,
	}

	// DeepSeek APIはOpenAI互換のため、同じクライアントで扱う
	deepSeekBackend = backend{
		provider:     llm.ProviderDeepSeek,
		label:        "DeepSeek API",
		envKey:       config.EnvDeepSeekAPIKey,
		defaultModel: DefaultDeepSeekModel,
		defaultBase:  DefaultDeepSeekBaseURL,
	}
)

// OpenAIProvider はChat Completions APIのアダプター
type OpenAIProvider struct {
	backend backend
	model   string
	client  openai.Client
}

// NewOpenAIProvider はOpenAI向けのプロバイダーを作成
func NewOpenAIProvider(opts config.BackendOptions) (*OpenAIProvider, error) {
	return newProvider(openAIBackend, opts)
}

// NewDeepSeekProvider はDeepSeek向けのプロバイダーを作成
func NewDeepSeekProvider(opts config.BackendOptions) (*OpenAIProvider, error) {
	return newProvider(deepSeekBackend, opts)
}

func newProvider(b backend, opts config.BackendOptions) (*OpenAIProvider, error) {
	apiKey, ok := config.ResolveRequired(opts.APIKey, b.envKey, opts.File.APIKey)
	if !ok {
		return nil, llm.NewConfigurationError(b.provider,
			fmt.Sprintf("%s key not provided or found in %s environment variable", b.label, b.envKey), nil)
	}

	clientOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
		option.WithHTTPClient(&http.Client{Timeout: requestTimeout}),
	}

	if baseURL := config.FirstNonEmpty(opts.BaseURL, opts.File.BaseURL, b.defaultBase); baseURL != "" {
		u, err := url.Parse(baseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			if err == nil {
				err = fmt.Errorf("invalid base URL %q: scheme and host are required", baseURL)
			}
			return nil, llm.NewConfigurationError(b.provider, fmt.Sprintf("failed to initialize %s client", b.label), err)
		}
		clientOpts = append(clientOpts, option.WithBaseURL(baseURL))
	}

	return &OpenAIProvider{
		backend: b,
		model:   config.FirstNonEmpty(opts.Model, opts.File.Model, b.defaultModel),
		client:  openai.NewClient(clientOpts...),
	}, nil
}

// Name はプロバイダー名を返す
func (p *OpenAIProvider) Name() string {
	return fmt.Sprintf("%s-%s", p.backend.provider, p.model)
}

// Model はモデル名を返す
func (p *OpenAIProvider) Model() string { return p.model }

// GenerateCode はChat Completions APIを1回呼び出し、先頭の選択肢からコードを抽出する
func (p *OpenAIProvider) GenerateCode(ctx context.Context, req llm.GenerationRequest) (string, error) {
	component := "provider." + p.backend.provider

	logger.InfoCF(component, "LLM request sent", map[string]interface{}{
		"model":          p.model,
		"language":       req.Language,
		"prompt_preview": transport.TruncateForLog(req.Prompt, 200),
	})

	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(llm.CloudSystemPrompt(req.Language)),
			openai.UserMessage(req.Prompt),
		},
		MaxTokens: openai.Int(llm.DefaultMaxTokens),
	})
	if err != nil {
		apiErr := p.classifyError(err)
		logger.WarnCF(component, "LLM request failed", map[string]interface{}{
			"model":       p.model,
			"kind":        string(apiErr.Kind),
			"status_code": apiErr.StatusCode,
			"error":       err.Error(),
		})
		return "", apiErr
	}

	if len(resp.Choices) == 0 {
		return "", llm.NewAPIError(p.backend.provider, llm.KindEmptyResponse,
			p.backend.label+" returned no choices or empty choices array", nil)
	}

	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", llm.NewAPIError(p.backend.provider, llm.KindMissingField,
			p.backend.label+" response missing message content", nil)
	}

	logger.InfoCF(component, "LLM response received", map[string]interface{}{
		"model":         p.model,
		"content_len":   len(content),
		"finish_reason": resp.Choices[0].FinishReason,
	})

	return codeblock.Extract(content, req.Language), nil
}

func (p *OpenAIProvider) classifyError(err error) *llm.APIError {
	var sdkErr *openai.Error
	if errors.As(err, &sdkErr) {
		var apiErr *llm.APIError
		if sdkErr.StatusCode == http.StatusTooManyRequests {
			apiErr = llm.NewAPIError(p.backend.provider, llm.KindRateLimit, p.backend.label+" rate limit exceeded", err)
		} else {
			apiErr = llm.NewAPIError(p.backend.provider, llm.KindStatus,
				fmt.Sprintf("%s status error (status %d)", p.backend.label, sdkErr.StatusCode), err)
		}
		apiErr.StatusCode = sdkErr.StatusCode
		return apiErr
	}
	return transport.SendError(p.backend.provider, p.backend.label, "", err)
}
