package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/Nyukimin/codegen_multiLLM/internal/application/generator"
	"github.com/Nyukimin/codegen_multiLLM/internal/domain/llm"
	"github.com/Nyukimin/codegen_multiLLM/pkg/logger"
)

// maxBodyBytes はリクエストボディの上限
const maxBodyBytes = 1 << 20

// Generator はコード生成ユースケースのインターフェース
type Generator interface {
	GenerateCode(ctx context.Context, prompt, language string) (string, error)
	Provider() llm.CodeGenerator
}

// HealthChecker はバックエンドへの疎通確認を提供するアダプターが実装する
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Handler はコード生成APIのハンドラー
type Handler struct {
	generator       Generator
	defaultLanguage string
}

// NewHandler は新しいHandlerを作成
func NewHandler(gen Generator, defaultLanguage string) *Handler {
	if defaultLanguage == "" {
		defaultLanguage = "python"
	}
	return &Handler{
		generator:       gen,
		defaultLanguage: defaultLanguage,
	}
}

// GenerateRequest は POST /v1/generate のリクエストボディ
type GenerateRequest struct {
	Prompt   string `json:"prompt"`
	Language string `json:"language"`
}

// GenerateResponse は生成結果
type GenerateResponse struct {
	Code      string `json:"code"`
	Language  string `json:"language"`
	Provider  string `json:"provider"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse はエラー応答
type ErrorResponse struct {
	Error      string `json:"error"`
	Kind       string `json:"kind,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`
	RequestID  string `json:"request_id,omitempty"`
}

// Generate はコード生成を処理
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	var req GenerateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON body", RequestID: reqID})
		return
	}

	if strings.TrimSpace(req.Prompt) == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "prompt is required", RequestID: reqID})
		return
	}

	language := strings.TrimSpace(req.Language)
	if language == "" {
		language = h.defaultLanguage
	}

	ctx := r.Context()
	if reqID != "" {
		ctx = generator.WithRequestID(ctx, llm.RequestIDFromString(reqID))
	}

	code, err := h.generator.GenerateCode(ctx, req.Prompt, language)
	if err != nil {
		h.writeError(w, reqID, err)
		return
	}

	writeJSON(w, http.StatusOK, GenerateResponse{
		Code:      code,
		Language:  language,
		Provider:  h.generator.Provider().Name(),
		RequestID: reqID,
	})
}

// Health はヘルスチェック
// バックエンドが疎通確認に対応している場合のみ問い合わせる
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	provider := h.generator.Provider()
	body := map[string]string{
		"status":   "ok",
		"provider": provider.Name(),
	}

	if checker, ok := provider.(HealthChecker); ok {
		if err := checker.HealthCheck(r.Context()); err != nil {
			logger.WarnCF("httpapi", "Backend health check failed", map[string]interface{}{
				"provider": provider.Name(),
				"error":    err.Error(),
			})
			body["status"] = "unavailable"
			body["error"] = err.Error()
			writeJSON(w, http.StatusServiceUnavailable, body)
			return
		}
	}

	writeJSON(w, http.StatusOK, body)
}

// Backends は利用可能なバックエンド名を返す
func (h *Handler) Backends(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"backends": llm.ProviderNames(),
		"active":   h.generator.Provider().Name(),
	})
}

func (h *Handler) writeError(w http.ResponseWriter, reqID string, err error) {
	if apiErr, ok := llm.AsAPIError(err); ok {
		writeJSON(w, http.StatusBadGateway, ErrorResponse{
			Error:      apiErr.Error(),
			Kind:       string(apiErr.Kind),
			StatusCode: apiErr.StatusCode,
			RequestID:  reqID,
		})
		return
	}

	if llm.IsConfigurationError(err) {
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:     err.Error(),
			Kind:      "configuration",
			RequestID: reqID,
		})
		return
	}

	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:     err.Error(),
		RequestID: reqID,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}
