package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Nyukimin/codegen_multiLLM/internal/adapter/config"
	"github.com/Nyukimin/codegen_multiLLM/internal/domain/llm"
	"github.com/Nyukimin/codegen_multiLLM/pkg/logger"
)

// Version はビルド時に -ldflags で上書きされる
var Version = "dev"

// app はサブコマンド間で共有する状態
type app struct {
	configPath string
	envFile    string
	logLevel   string
	cfg        *config.Config
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "codegen",
		Short:         "Generate source code with interchangeable LLM backends",
		Long:          "codegen turns a natural language prompt into clean source code using Claude, OpenAI, DeepSeek or a local OpenAI-compatible server.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to config YAML (default: $CODEGEN_CONFIG or ./codegen.yaml if present)")
	rootCmd.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before resolving settings")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level override (debug, info, warn, error)")

	rootCmd.AddCommand(
		newGenerateCmd(a),
		newServeCmd(a),
		newBackendsCmd(),
		newExtractCmd(),
	)

	return rootCmd
}

// load は .env と設定ファイルを読み込み、ロガーを初期化する
func (a *app) load() error {
	// .env がなくてもエラーにしない
	if a.envFile != "" {
		_ = godotenv.Load(a.envFile)
	}

	cfg, err := config.LoadConfig(resolveConfigPath(a.configPath))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	level := cfg.Log.Level
	if a.logLevel != "" {
		level = a.logLevel
	}
	logger.Init(level, cfg.Log.Format)

	a.cfg = cfg
	return nil
}

func resolveConfigPath(flagValue string) string {
	return config.Resolve(flagValue, "CODEGEN_CONFIG", "./codegen.yaml")
}

// run はコマンドを実行し、終了コードを返す
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	rootCmd := newRootCmd(&app{})
	rootCmd.SetArgs(args)
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.Execute(); err != nil {
		reportError(stderr, err)
		return 1
	}
	return 0
}

// reportError はエラー種別ごとにメッセージとヒントを出力する
func reportError(w io.Writer, err error) {
	var cfgErr *llm.ConfigurationError
	if errors.As(err, &cfgErr) {
		fmt.Fprintf(w, "Configuration Error: %v\n", err)
		if hint := configurationHint(cfgErr); hint != "" {
			fmt.Fprintln(w, hint)
		}
		return
	}

	if apiErr, ok := llm.AsAPIError(err); ok {
		fmt.Fprintf(w, "API Error: %v\n", err)
		if apiErr.Provider == llm.ProviderLocal && apiErr.Kind == llm.KindConnection {
			fmt.Fprintln(w, localServerHint)
		}
		return
	}

	fmt.Fprintf(w, "Error: %v\n", err)
}

const localServerHint = "Hint: Ensure your local LLM server is running and accessible, or set LOCAL_LLM_API_BASE or use --local-url."

func configurationHint(err *llm.ConfigurationError) string {
	msg := err.Error()
	for _, env := range []string{config.EnvAnthropicAPIKey, config.EnvOpenAIAPIKey, config.EnvDeepSeekAPIKey} {
		if strings.Contains(msg, env) {
			return fmt.Sprintf("Hint: Set the %s environment variable or use the --api-key option.", env)
		}
	}
	if strings.Contains(msg, config.EnvLocalAPIBase) {
		return localServerHint
	}
	return ""
}
