package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Nyukimin/codegen_multiLLM/internal/adapter/config"
	"github.com/Nyukimin/codegen_multiLLM/internal/application/generator"
	"github.com/Nyukimin/codegen_multiLLM/internal/domain/llm"
	"github.com/Nyukimin/codegen_multiLLM/internal/infrastructure/llm/claude"
	"github.com/Nyukimin/codegen_multiLLM/internal/infrastructure/llm/factory"
	"github.com/Nyukimin/codegen_multiLLM/internal/infrastructure/llm/local"
	"github.com/Nyukimin/codegen_multiLLM/internal/infrastructure/llm/openai"
)

// backendFlags はバックエンド選択と接続設定のフラグ
// 空の値は「未指定」として環境変数・設定ファイル・既定値に委ねる
type backendFlags struct {
	service       string
	claudeModel   string
	openaiModel   string
	deepseekModel string
	localURL      string
	localModel    string
	apiKey        string
}

func (f *backendFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.service, "service", "", fmt.Sprintf("LLM service to use %v (default: config provider, local)", llm.ProviderNames()))
	cmd.Flags().StringVar(&f.claudeModel, "claude-model", "", fmt.Sprintf("Claude model (default: %s)", claude.DefaultModel))
	cmd.Flags().StringVar(&f.openaiModel, "openai-model", "", fmt.Sprintf("OpenAI model (default: %s)", openai.DefaultOpenAIModel))
	cmd.Flags().StringVar(&f.deepseekModel, "deepseek-model", "", fmt.Sprintf("DeepSeek model (default: %s)", openai.DefaultDeepSeekModel))
	cmd.Flags().StringVar(&f.localURL, "local-url", "", fmt.Sprintf("Base URL for the local LLM API (default: $%s or %s)", config.EnvLocalAPIBase, local.DefaultBaseURL))
	cmd.Flags().StringVar(&f.localModel, "local-model", "", fmt.Sprintf("Model name for the local LLM (default: $%s or %s)", config.EnvLocalModel, local.DefaultModel))
	cmd.Flags().StringVar(&f.apiKey, "api-key", "", "API key for the selected service (overrides environment variables)")
}

// serviceName はフラグ > 設定ファイルの順でバックエンド名を決める
func (f *backendFlags) serviceName(cfg *config.Config) string {
	return config.FirstNonEmpty(f.service, cfg.Provider, llm.ProviderLocal)
}

// options は選択されたバックエンドに対応するフラグ値だけを取り出す
func (f *backendFlags) options(service string) config.BackendOptions {
	opts := config.BackendOptions{APIKey: f.apiKey}

	canonical, _ := llm.CanonicalProviderName(service)
	switch canonical {
	case llm.ProviderClaude:
		opts.Model = f.claudeModel
	case llm.ProviderOpenAI:
		opts.Model = f.openaiModel
	case llm.ProviderDeepSeek:
		opts.Model = f.deepseekModel
	case llm.ProviderLocal:
		opts.BaseURL = f.localURL
		opts.Model = f.localModel
	}
	return opts
}

// buildService は設定とフラグからユースケースを組み立てる
func (f *backendFlags) buildService(cfg *config.Config) (*generator.Service, error) {
	name := f.serviceName(cfg)
	provider, err := factory.FromConfig(cfg, name, f.options(name))
	if err != nil {
		return nil, err
	}
	return generator.NewService(provider), nil
}

func newGenerateCmd(a *app) *cobra.Command {
	var (
		flags    backendFlags
		language string
		quiet    bool
	)

	cmd := &cobra.Command{
		Use:   "generate <prompt>",
		Short: "Generate code for a natural language prompt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt := args[0]
			lang := config.FirstNonEmpty(language, a.cfg.Language)

			svc, err := flags.buildService(a.cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !quiet {
				fmt.Fprintf(out, "Using %s service\n", svc.Provider().Name())
				fmt.Fprintf(out, "Generating %s code for prompt: '%s'\n", lang, prompt)
			}

			code, err := svc.GenerateCode(cmd.Context(), prompt, lang)
			if err != nil {
				return err
			}

			if quiet {
				fmt.Fprintln(out, code)
				return nil
			}

			fmt.Fprintln(out)
			fmt.Fprintln(out, "--- Generated Code ---")
			fmt.Fprintln(out, code)
			fmt.Fprintln(out, "--- End of Code ---")
			return nil
		},
	}

	flags.bind(cmd)
	cmd.Flags().StringVar(&language, "language", "", "Programming language for the generated code (default: config language, python)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Print only the generated code")

	return cmd
}
