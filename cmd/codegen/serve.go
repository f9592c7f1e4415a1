package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Nyukimin/codegen_multiLLM/internal/adapter/httpapi"
	"github.com/Nyukimin/codegen_multiLLM/pkg/logger"
)

const (
	// WriteTimeout はバックエンドの120秒タイムアウトより長くする
	serverWriteTimeout = 130 * time.Second
	shutdownTimeout    = 5 * time.Second
)

func newServeCmd(a *app) *cobra.Command {
	var (
		flags backendFlags
		host  string
		port  int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve code generation over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := flags.buildService(a.cfg)
			if err != nil {
				return err
			}

			if host == "" {
				host = a.cfg.Server.Host
			}
			if port == 0 {
				port = a.cfg.Server.Port
			}

			handler := httpapi.NewHandler(svc, a.cfg.Language)
			srv := &http.Server{
				Addr:              fmt.Sprintf("%s:%d", host, port),
				Handler:           httpapi.NewRouter(handler),
				ReadHeaderTimeout: 10 * time.Second,
				WriteTimeout:      serverWriteTimeout,
				IdleTimeout:       60 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return serve(ctx, srv, svc.Provider().Name())
		},
	}

	flags.bind(cmd)
	cmd.Flags().StringVar(&host, "host", "", "Listen host (default: config server.host)")
	cmd.Flags().IntVar(&port, "port", 0, "Listen port (default: config server.port)")

	return cmd
}

// serve はコンテキストがキャンセルされるまでサーバーを動かし、グレースフルに停止する
func serve(ctx context.Context, srv *http.Server, providerName string) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.InfoCF("server", "Starting codegen server", map[string]interface{}{
			"addr":     srv.Addr,
			"provider": providerName,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.InfoCF("server", "Shutting down server", nil)

		shutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		return nil
	})

	return g.Wait()
}
