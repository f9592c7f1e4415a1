package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Nyukimin/codegen_multiLLM/internal/domain/llm"
	"github.com/Nyukimin/codegen_multiLLM/internal/infrastructure/llm/claude"
	"github.com/Nyukimin/codegen_multiLLM/internal/infrastructure/llm/factory"
	"github.com/Nyukimin/codegen_multiLLM/internal/infrastructure/llm/local"
	"github.com/Nyukimin/codegen_multiLLM/internal/infrastructure/llm/openai"
)

var defaultModels = map[string]string{
	llm.ProviderClaude:   claude.DefaultModel,
	llm.ProviderOpenAI:   openai.DefaultOpenAIModel,
	llm.ProviderDeepSeek: openai.DefaultDeepSeekModel,
	llm.ProviderLocal:    local.DefaultModel,
}

func newBackendsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "List available LLM backends",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			writer := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(writer, "NAME\tKEY ENV\tDEFAULT MODEL")
			fmt.Fprintln(writer, "----\t-------\t-------------")

			for _, name := range llm.ProviderNames() {
				fmt.Fprintf(writer, "%s\t%s\t%s\n", name, factory.APIKeyEnv[name], defaultModels[name])
			}

			if err := writer.Flush(); err != nil {
				return err
			}

			fmt.Fprintln(out)
			fmt.Fprintln(out, "Usage: codegen generate <prompt> --service <name>")
			return nil
		},
	}
}
