package generator

import (
	"context"
	"time"

	"github.com/Nyukimin/codegen_multiLLM/internal/domain/llm"
	"github.com/Nyukimin/codegen_multiLLM/pkg/logger"
)

const logComponent = "generator"

type requestIDKey struct{}

// WithRequestID は呼び出し元で採番した識別子をコンテキストに載せる
func WithRequestID(ctx context.Context, id llm.RequestID) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext はコンテキストの識別子を返す。なければ新規に採番する
func RequestIDFromContext(ctx context.Context) llm.RequestID {
	if id, ok := ctx.Value(requestIDKey{}).(llm.RequestID); ok && !id.IsZero() {
		return id
	}
	return llm.NewRequestID()
}

// Service は選択済みのバックエンドにコード生成を委譲する
type Service struct {
	provider llm.CodeGenerator
}

// NewService は新しいServiceを作成
func NewService(provider llm.CodeGenerator) *Service {
	return &Service{provider: provider}
}

// Provider はバックエンドを返す
func (s *Service) Provider() llm.CodeGenerator {
	return s.provider
}

// GenerateCode はプロンプトと言語からコードを生成する
// バックエンドは1回だけ呼び出し、エラーは変換せずそのまま返す
func (s *Service) GenerateCode(ctx context.Context, prompt, language string) (string, error) {
	requestID := RequestIDFromContext(ctx)
	start := time.Now()

	logger.InfoCF(logComponent, "Code generation started", map[string]interface{}{
		"request_id": requestID.String(),
		"provider":   s.provider.Name(),
		"language":   language,
	})

	code, err := s.provider.GenerateCode(ctx, llm.GenerationRequest{
		Prompt:   prompt,
		Language: language,
	})
	if err != nil {
		logger.ErrorCF(logComponent, "Code generation failed", map[string]interface{}{
			"request_id":  requestID.String(),
			"provider":    s.provider.Name(),
			"error":       err.Error(),
			"duration_ms": time.Since(start).Milliseconds(),
		})
		return "", err
	}

	logger.InfoCF(logComponent, "Code generation finished", map[string]interface{}{
		"request_id":  requestID.String(),
		"provider":    s.provider.Name(),
		"code_len":    len(code),
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return code, nil
}
