// Package transport はLLMバックエンド共通の送信エラー判定とログ補助を提供する
package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/Nyukimin/codegen_multiLLM/internal/domain/llm"
)

// IsTimeoutError はタイムアウト起因のエラーかを判定
func IsTimeoutError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "context deadline exceeded")
}

// IsConnectionError は応答を受け取る前の接続失敗かを判定
// タイムアウトは IsTimeoutError で先に判定すること
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

// TruncateForLog はログ出力用に文字列を maxLen バイトで切り詰める
func TruncateForLog(s string, maxLen int) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// Snippet はエラーメッセージ用に先頭 maxRunes 文字を返す
func Snippet(s string, maxRunes int) string {
	r := []rune(s)
	if len(r) <= maxRunes {
		return s
	}
	return string(r[:maxRunes]) + "..."
}

// SendError は応答を受け取れなかった失敗を APIError に分類する
// label はメッセージの主語（例: "Claude API"）、target は接続先（空なら省略）
func SendError(provider, label, target string, err error) *llm.APIError {
	switch {
	case IsTimeoutError(err):
		return llm.NewAPIError(provider, llm.KindTimeout, label+" request timed out", err)
	case errors.Is(err, context.Canceled):
		return llm.NewAPIError(provider, llm.KindUnexpected, label+" request canceled", err)
	case IsConnectionError(err):
		msg := label + " connection error"
		if target != "" {
			msg = fmt.Sprintf("%s at %s", msg, target)
		}
		return llm.NewAPIError(provider, llm.KindConnection, msg, err)
	default:
		return llm.NewAPIError(provider, llm.KindUnexpected, "unexpected error while calling "+label, err)
	}
}
