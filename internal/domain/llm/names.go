package llm

import (
	"sort"
	"strings"
)

// バックエンド名
const (
	ProviderClaude   = "claude"
	ProviderOpenAI   = "openai"
	ProviderDeepSeek = "deepseek"
	ProviderLocal    = "local"
)

var providerAliases = map[string]string{
	"claude":    ProviderClaude,
	"anthropic": ProviderClaude,
	"openai":    ProviderOpenAI,
	"gpt":       ProviderOpenAI,
	"deepseek":  ProviderDeepSeek,
	"local":     ProviderLocal,
	"ollama":    ProviderLocal,
	"lmstudio":  ProviderLocal,
}

// CanonicalProviderName は別名を正規のバックエンド名に変換する
func CanonicalProviderName(name string) (string, bool) {
	canonical, ok := providerAliases[strings.ToLower(strings.TrimSpace(name))]
	return canonical, ok
}

// ProviderNames は正規のバックエンド名を昇順で返す
func ProviderNames() []string {
	seen := make(map[string]bool)
	names := make([]string, 0, len(providerAliases))
	for _, canonical := range providerAliases {
		if seen[canonical] {
			continue
		}
		seen[canonical] = true
		names = append(names, canonical)
	}
	sort.Strings(names)
	return names
}
