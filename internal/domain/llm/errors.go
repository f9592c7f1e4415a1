package llm

import (
	"errors"
	"fmt"
)

// ErrorKind はAPIErrorの分類タグ
type ErrorKind string

const (
	KindConnection    ErrorKind = "connection"
	KindTimeout       ErrorKind = "timeout"
	KindRateLimit     ErrorKind = "rate_limit"
	KindStatus        ErrorKind = "status"
	KindDecode        ErrorKind = "decode"
	KindMissingField  ErrorKind = "missing_field"
	KindEmptyResponse ErrorKind = "empty_response"
	KindUnexpected    ErrorKind = "unexpected"
)

// ConfigurationError は必須設定の欠落やクライアント初期化失敗を表す
// 常にネットワークアクセスより前に返される
type ConfigurationError struct {
	Provider string
	Message  string
	Err      error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// APIError はネットワーク呼び出し中または後の失敗を表す
type APIError struct {
	Provider   string
	Kind       ErrorKind
	StatusCode int    // KindStatus / KindRateLimit のみ
	Message    string
	Detail     string // レスポンスボディなどの補足
	Err        error
}

func (e *APIError) Error() string {
	msg := e.Message
	if e.Detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Detail)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// NewConfigurationError はConfigurationErrorを作成
func NewConfigurationError(provider, message string, err error) *ConfigurationError {
	return &ConfigurationError{Provider: provider, Message: message, Err: err}
}

// NewAPIError はAPIErrorを作成
func NewAPIError(provider string, kind ErrorKind, message string, err error) *APIError {
	return &APIError{Provider: provider, Kind: kind, Message: message, Err: err}
}

// IsConfigurationError はerrチェーンにConfigurationErrorが含まれるかを判定
func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}

// AsAPIError はerrチェーンからAPIErrorを取り出す
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
