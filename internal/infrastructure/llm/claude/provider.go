package claude

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/Nyukimin/codegen_multiLLM/internal/adapter/config"
	"github.com/Nyukimin/codegen_multiLLM/internal/domain/codeblock"
	"github.com/Nyukimin/codegen_multiLLM/internal/domain/llm"
	"github.com/Nyukimin/codegen_multiLLM/internal/infrastructure/llm/transport"
	"github.com/Nyukimin/codegen_multiLLM/pkg/logger"
)

const (
	DefaultModel = "claude-sonnet-4-20250514"

	requestTimeout = 120 * time.Second
	logComponent   = "provider.claude"
	apiLabel       = "Claude API"
)

// ClaudeProvider はAnthropic Messages APIのアダプター
type ClaudeProvider struct {
	model  string
	client anthropic.Client
}

// NewClaudeProvider は新しいClaudeProviderを作成
// APIキーが見つからない場合は通信前に ConfigurationError を返す
func NewClaudeProvider(opts config.BackendOptions) (*ClaudeProvider, error) {
	apiKey, ok := config.ResolveRequired(opts.APIKey, config.EnvAnthropicAPIKey, opts.File.APIKey)
	if !ok {
		return nil, llm.NewConfigurationError(llm.ProviderClaude,
			"Anthropic API key not provided or found in ANTHROPIC_API_KEY environment variable", nil)
	}

	clientOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
		option.WithHTTPClient(&http.Client{Timeout: requestTimeout}),
	}

	if baseURL := config.FirstNonEmpty(opts.BaseURL, opts.File.BaseURL); baseURL != "" {
		if err := validateBaseURL(baseURL); err != nil {
			return nil, llm.NewConfigurationError(llm.ProviderClaude, "failed to initialize Anthropic client", err)
		}
		clientOpts = append(clientOpts, option.WithBaseURL(baseURL))
	}

	return &ClaudeProvider{
		model:  config.FirstNonEmpty(opts.Model, opts.File.Model, DefaultModel),
		client: anthropic.NewClient(clientOpts...),
	}, nil
}

// Name はプロバイダー名を返す
func (p *ClaudeProvider) Name() string {
	return fmt.Sprintf("claude-%s", p.model)
}

// Model はモデル名を返す
func (p *ClaudeProvider) Model() string { return p.model }

// GenerateCode はMessages APIを1回呼び出し、先頭のテキストブロックからコードを抽出する
func (p *ClaudeProvider) GenerateCode(ctx context.Context, req llm.GenerationRequest) (string, error) {
	logger.InfoCF(logComponent, "LLM request sent", map[string]interface{}{
		"model":          p.model,
		"language":       req.Language,
		"prompt_preview": transport.TruncateForLog(req.Prompt, 200),
	})

	msg, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: llm.DefaultMaxTokens,
		System: []anthropic.TextBlockParam{
			{Text: llm.CloudSystemPrompt(req.Language)},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	})
	if err != nil {
		apiErr := classifyError(err)
		logger.WarnCF(logComponent, "LLM request failed", map[string]interface{}{
			"model":       p.model,
			"kind":        string(apiErr.Kind),
			"status_code": apiErr.StatusCode,
			"error":       err.Error(),
		})
		return "", apiErr
	}

	if len(msg.Content) == 0 {
		return "", llm.NewAPIError(llm.ProviderClaude, llm.KindEmptyResponse,
			"Claude API returned an empty or unexpected response content", nil)
	}

	// 先頭ブロックのみを対象とする
	block := msg.Content[0]
	if block.Type != "text" {
		apiErr := llm.NewAPIError(llm.ProviderClaude, llm.KindMissingField,
			"Claude API response content block does not have text", nil)
		apiErr.Detail = "block type: " + block.Type
		return "", apiErr
	}

	logger.InfoCF(logComponent, "LLM response received", map[string]interface{}{
		"model":       p.model,
		"content_len": len(block.Text),
		"stop_reason": string(msg.StopReason),
	})

	return codeblock.Extract(block.Text, req.Language), nil
}

// classifyError はSDKのエラーを APIError に変換する
func classifyError(err error) *llm.APIError {
	var sdkErr *anthropic.Error
	if errors.As(err, &sdkErr) {
		var apiErr *llm.APIError
		if sdkErr.StatusCode == http.StatusTooManyRequests {
			apiErr = llm.NewAPIError(llm.ProviderClaude, llm.KindRateLimit, "Claude API rate limit exceeded", err)
		} else {
			apiErr = llm.NewAPIError(llm.ProviderClaude, llm.KindStatus,
				fmt.Sprintf("Claude API status error (status %d)", sdkErr.StatusCode), err)
		}
		apiErr.StatusCode = sdkErr.StatusCode
		return apiErr
	}
	return transport.SendError(llm.ProviderClaude, apiLabel, "", err)
}

func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid base URL %q: scheme and host are required", raw)
	}
	return nil
}
