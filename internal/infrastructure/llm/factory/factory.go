// Package factory はバックエンド名から CodeGenerator を構築する
package factory

import (
	"fmt"

	"github.com/Nyukimin/codegen_multiLLM/internal/adapter/config"
	"github.com/Nyukimin/codegen_multiLLM/internal/domain/llm"
	"github.com/Nyukimin/codegen_multiLLM/internal/infrastructure/llm/claude"
	"github.com/Nyukimin/codegen_multiLLM/internal/infrastructure/llm/local"
	"github.com/Nyukimin/codegen_multiLLM/internal/infrastructure/llm/openai"
)

// APIKeyEnv はバックエンドごとのAPIキー環境変数名
var APIKeyEnv = map[string]string{
	llm.ProviderClaude:   config.EnvAnthropicAPIKey,
	llm.ProviderOpenAI:   config.EnvOpenAIAPIKey,
	llm.ProviderDeepSeek: config.EnvDeepSeekAPIKey,
	llm.ProviderLocal:    config.EnvLocalAPIKey,
}

// New は名前（別名可）に対応するアダプターを作成する
// 未知の名前は ConfigurationError
func New(name string, opts config.BackendOptions) (llm.CodeGenerator, error) {
	canonical, ok := llm.CanonicalProviderName(name)
	if !ok {
		return nil, llm.NewConfigurationError(name,
			fmt.Sprintf("unknown LLM service %q (available: %v)", name, llm.ProviderNames()), nil)
	}

	var (
		gen llm.CodeGenerator
		err error
	)

	// 型付き nil をインターフェースに入れないよう、成功時のみ代入する
	switch canonical {
	case llm.ProviderClaude:
		var p *claude.ClaudeProvider
		if p, err = claude.NewClaudeProvider(opts); err == nil {
			gen = p
		}
	case llm.ProviderOpenAI:
		var p *openai.OpenAIProvider
		if p, err = openai.NewOpenAIProvider(opts); err == nil {
			gen = p
		}
	case llm.ProviderDeepSeek:
		var p *openai.OpenAIProvider
		if p, err = openai.NewDeepSeekProvider(opts); err == nil {
			gen = p
		}
	default:
		var p *local.Provider
		if p, err = local.NewProvider(opts); err == nil {
			gen = p
		}
	}

	if err != nil {
		return nil, err
	}
	return gen, nil
}

// FromConfig は設定ファイルの値を最下位の層として組み込んでアダプターを作成する
func FromConfig(cfg *config.Config, name string, explicit config.BackendOptions) (llm.CodeGenerator, error) {
	if name == "" {
		name = cfg.Provider
	}
	explicit.File = cfg.Backend(name)
	return New(name, explicit)
}
