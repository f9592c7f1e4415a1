// Package httpapi はコード生成をHTTPで公開する
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Nyukimin/codegen_multiLLM/pkg/logger"
)

// NewRouter はルーティングとミドルウェアを設定したルーターを作成
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.Health)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/generate", h.Generate) // POST /v1/generate
		r.Get("/backends", h.Backends)  // GET /v1/backends
	})

	return r
}

// requestLogger はアクセスログを pkg/logger に出力する
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		logger.InfoCF("httpapi", "HTTP request", map[string]interface{}{
			"request_id":  middleware.GetReqID(r.Context()),
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      ww.Status(),
			"bytes":       ww.BytesWritten(),
			"duration_ms": time.Since(start).Milliseconds(),
		})
	})
}
