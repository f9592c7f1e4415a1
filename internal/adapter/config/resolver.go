package config

import (
	"net/url"
	"os"
	"strings"
)

// バックエンド設定の環境変数名
const (
	EnvAnthropicAPIKey = "ANTHROPIC_API_KEY"
	EnvOpenAIAPIKey    = "OPENAI_API_KEY"
	EnvDeepSeekAPIKey  = "DEEPSEEK_API_KEY"
	EnvLocalAPIBase    = "LOCAL_LLM_API_BASE"
	EnvLocalModel      = "LOCAL_LLM_MODEL"
	EnvLocalAPIKey     = "LOCAL_LLM_API_KEY"
)

// defaultVersionSegment はローカルサーバーのベースURLに補うAPIバージョン
const defaultVersionSegment = "/v1"

var (
	localHosts = map[string]bool{
		"localhost": true,
		"127.0.0.1": true,
		"0.0.0.0":   true,
		"::1":       true,
		"envhost":   true,
	}

	// LM Studio (1234) と Ollama (11434) の既定ポート
	localPorts = map[string]bool{
		"1234":  true,
		"11434": true,
	}
)

// Resolve は explicit > 環境変数 > def の順で最初の空でない値を返す
func Resolve(explicit, envName, def string) string {
	if explicit != "" {
		return explicit
	}
	if envName != "" {
		if v := os.Getenv(envName); v != "" {
			return v
		}
	}
	return def
}

// ResolveRequired は既定値を持たない設定（APIキーなど）を解決する
// すべての層が空なら false を返す
func ResolveRequired(explicit, envName, fallback string) (string, bool) {
	v := Resolve(explicit, envName, fallback)
	return v, v != ""
}

// CanonicalizeLocalBaseURL はローカルサーバーのベースURLに /v1 を補う
// ローカルと判定できないURLや、既にバージョン付きのURLはそのまま返す
func CanonicalizeLocalBaseURL(raw string) string {
	if !isLocalURL(raw) {
		return raw
	}

	trimmed := strings.TrimRight(raw, "/")
	if hasVersionSuffix(trimmed) {
		return raw
	}
	return trimmed + defaultVersionSegment
}

// JoinEndpoint はベースURLとサブパスを区切り文字の重複なしに連結する
func JoinEndpoint(base, subPath string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(subPath, "/")
}

func hasVersionSuffix(base string) bool {
	return strings.HasSuffix(base, "/v1") ||
		strings.Contains(base, "/api/v1") ||
		strings.Contains(base, "/openai/v1")
}

// isLocalURL はホスト名またはポートがローカル開発環境の慣例に一致するかを判定
func isLocalURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		// スキームなし（"localhost:1234" など）は文字列で判定
		lower := strings.ToLower(raw)
		for host := range localHosts {
			if strings.Contains(lower, host) {
				return true
			}
		}
		for port := range localPorts {
			if strings.Contains(lower, ":"+port) {
				return true
			}
		}
		return false
	}

	return localHosts[strings.ToLower(u.Hostname())] || localPorts[u.Port()]
}

// BackendOptions はアダプター構築時の入力
type BackendOptions struct {
	APIKey  string // 明示指定（CLI引数など）。最優先
	BaseURL string
	Model   string
	File    BackendConfig // 設定ファイル値。環境変数より優先度が低い
}

// FirstNonEmpty は最初の空でない値を返す
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
