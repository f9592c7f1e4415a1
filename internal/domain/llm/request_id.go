package llm

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RequestID は1回のコード生成呼び出しを追跡する識別子
type RequestID struct {
	value string
}

// NewRequestID は新しいRequestIDを生成
func NewRequestID() RequestID {
	// フォーマット: gen-YYYYMMDD-HHMMSS-{UUID先頭8文字}
	now := time.Now()
	return RequestID{
		value: fmt.Sprintf("gen-%s-%s", now.Format("20060102-150405"), uuid.New().String()[:8]),
	}
}

// RequestIDFromString は外部から渡された識別子（X-Request-Id など）を取り込む
func RequestIDFromString(s string) RequestID {
	return RequestID{value: s}
}

// String は文字列表現を返す
func (r RequestID) String() string {
	return r.value
}

// IsZero はゼロ値かを判定
func (r RequestID) IsZero() bool {
	return r.value == ""
}
