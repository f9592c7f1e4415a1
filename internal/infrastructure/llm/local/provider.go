package local

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Nyukimin/codegen_multiLLM/internal/adapter/config"
	"github.com/Nyukimin/codegen_multiLLM/internal/domain/codeblock"
	"github.com/Nyukimin/codegen_multiLLM/internal/domain/llm"
	"github.com/Nyukimin/codegen_multiLLM/internal/infrastructure/llm/transport"
	"github.com/Nyukimin/codegen_multiLLM/pkg/logger"
)

const (
	DefaultBaseURL = "http://localhost:1234/v1" // LM Studio の既定
	DefaultModel   = "local-model"

	// noKeySentinel はAuthorizationヘッダーを送らないことを示すキー値
	noKeySentinel = "not-needed"

	requestTimeout = 120 * time.Second
	snippetLen     = 200
	logComponent   = "provider.local"
	apiLabel       = "local LLM API"
)

// Provider はOpenAI互換APIを公開するローカルサーバー（Ollama, LM Studio など）のアダプター
type Provider struct {
	baseURL  string
	endpoint string
	model    string
	apiKey   string
	client   *http.Client
}

// NewProvider は新しいProviderを作成
// 優先順位: 明示指定 > 環境変数 > 設定ファイル > 既定値
func NewProvider(opts config.BackendOptions) (*Provider, error) {
	rawBase := config.Resolve(opts.BaseURL, config.EnvLocalAPIBase, config.FirstNonEmpty(opts.File.BaseURL, DefaultBaseURL))
	baseURL := config.CanonicalizeLocalBaseURL(rawBase)

	return &Provider{
		baseURL:  baseURL,
		endpoint: config.JoinEndpoint(baseURL, "/chat/completions"),
		model:    config.Resolve(opts.Model, config.EnvLocalModel, config.FirstNonEmpty(opts.File.Model, DefaultModel)),
		apiKey:   config.Resolve(opts.APIKey, config.EnvLocalAPIKey, config.FirstNonEmpty(opts.File.APIKey, noKeySentinel)),
		client: &http.Client{
			Timeout: requestTimeout, // ローカルモデルは初回ロードが遅いため長め
		},
	}, nil
}

// SetHTTPClient はHTTPクライアントを差し替える（テスト用）
func (p *Provider) SetHTTPClient(client *http.Client) {
	p.client = client
}

// Name はプロバイダー名を返す
func (p *Provider) Name() string {
	return fmt.Sprintf("local-%s", p.model)
}

// BaseURL は正規化済みのベースURLを返す
func (p *Provider) BaseURL() string { return p.baseURL }

// Endpoint はチャット補完エンドポイントを返す
func (p *Provider) Endpoint() string { return p.endpoint }

// Model はモデル名を返す
func (p *Provider) Model() string { return p.model }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices *[]chatChoice `json:"choices"`
}

type chatChoice struct {
	Message *struct {
		Content *string `json:"content"`
	} `json:"message"`
}

// GenerateCode はローカルサーバーにチャット補完を1回要求し、コードを抽出して返す
func (p *Provider) GenerateCode(ctx context.Context, req llm.GenerationRequest) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: llm.LocalSystemPrompt(req.Language)},
			{Role: "user", Content: req.Prompt},
		},
		Temperature: llm.DefaultTemperature,
		MaxTokens:   llm.DefaultMaxTokens,
	})
	if err != nil {
		return "", llm.NewAPIError(llm.ProviderLocal, llm.KindUnexpected, "failed to marshal local LLM request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", llm.NewAPIError(llm.ProviderLocal, llm.KindUnexpected, "failed to create local LLM request", err)
	}
	p.setHeaders(httpReq)
	httpReq.Header.Set("Content-Type", "application/json")

	logger.InfoCF(logComponent, "LLM request sent", map[string]interface{}{
		"endpoint":       p.endpoint,
		"model":          p.model,
		"language":       req.Language,
		"prompt_preview": transport.TruncateForLog(req.Prompt, 200),
	})

	resp, err := p.client.Do(httpReq)
	if err != nil {
		logger.WarnCF(logComponent, "LLM request failed (no response received)", map[string]interface{}{
			"endpoint":   p.endpoint,
			"error":      err.Error(),
			"is_timeout": transport.IsTimeoutError(err),
		})
		return "", p.sendError(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", p.sendError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.WarnCF(logComponent, "LLM response non-OK", map[string]interface{}{
			"status_code":  resp.StatusCode,
			"body_preview": transport.TruncateForLog(string(respBody), 200),
		})
		return "", p.statusError(resp.StatusCode, respBody)
	}

	content, err := p.parseResponse(respBody)
	if err != nil {
		logger.WarnCF(logComponent, "LLM response parse failed", map[string]interface{}{
			"error":        err.Error(),
			"body_preview": transport.TruncateForLog(string(respBody), 300),
		})
		return "", err
	}

	logger.InfoCF(logComponent, "LLM response received", map[string]interface{}{
		"model":       p.model,
		"content_len": len(content),
	})

	return codeblock.Extract(content, req.Language), nil
}

// HealthCheck はサーバーの /models に到達できるかを確認する
func (p *Provider) HealthCheck(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, config.JoinEndpoint(p.baseURL, "/models"), nil)
	if err != nil {
		return llm.NewAPIError(llm.ProviderLocal, llm.KindUnexpected, "failed to create health check request", err)
	}
	p.setHeaders(httpReq)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return p.sendError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return p.statusError(resp.StatusCode, body)
	}
	return nil
}

func (p *Provider) setHeaders(req *http.Request) {
	if p.apiKey != "" && p.apiKey != noKeySentinel {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}
}

// parseResponse は choices[0].message.content を取り出す
func (p *Provider) parseResponse(body []byte) (string, error) {
	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		apiErr := llm.NewAPIError(llm.ProviderLocal, llm.KindDecode, "failed to decode JSON response from local LLM API", err)
		apiErr.Detail = "response text: " + transport.Snippet(string(body), snippetLen)
		return "", apiErr
	}

	if parsed.Choices == nil {
		return "", llm.NewAPIError(llm.ProviderLocal, llm.KindMissingField, "local LLM API response missing choices", nil)
	}
	if len(*parsed.Choices) == 0 {
		return "", llm.NewAPIError(llm.ProviderLocal, llm.KindEmptyResponse, "local LLM API returned empty choices array", nil)
	}

	first := (*parsed.Choices)[0]
	if first.Message == nil {
		return "", llm.NewAPIError(llm.ProviderLocal, llm.KindMissingField, "local LLM API response missing message", nil)
	}
	if first.Message.Content == nil || *first.Message.Content == "" {
		return "", llm.NewAPIError(llm.ProviderLocal, llm.KindMissingField, "local LLM API response missing message content", nil)
	}

	return *first.Message.Content, nil
}

func (p *Provider) sendError(err error) *llm.APIError {
	return transport.SendError(llm.ProviderLocal, apiLabel, p.endpoint, err)
}

// statusError はJSONボディならそのまま、そうでなければ生テキストを詳細に含める
func (p *Provider) statusError(status int, body []byte) *llm.APIError {
	detail := string(bytes.TrimSpace(body))
	var compact bytes.Buffer
	if json.Valid(body) && json.Compact(&compact, body) == nil {
		detail = compact.String()
	}

	apiErr := llm.NewAPIError(llm.ProviderLocal, llm.KindStatus, fmt.Sprintf("local LLM API HTTP error (status %d)", status), nil)
	apiErr.StatusCode = status
	apiErr.Detail = fmt.Sprintf("%s from %s", detail, p.endpoint)
	return apiErr
}
