package llm

import "context"

// 生成パラメータ（全バックエンド共通）
const (
	DefaultMaxTokens   = 2048
	DefaultTemperature = 0.7
)

// GenerationRequest はコード生成リクエスト（1回の呼び出しごとに作成）
type GenerationRequest struct {
	Prompt   string
	Language string // 自由形式のラベル（例: "python"）
}

// CodeGenerator はコード生成バックエンドの抽象化
// 実装は構築後に設定を変更しないため、並行呼び出しで共有してよい
type CodeGenerator interface {
	GenerateCode(ctx context.Context, req GenerationRequest) (string, error)
	Name() string
}
