package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Nyukimin/codegen_multiLLM/internal/domain/codeblock"
)

// newExtractCmd はLLMの生応答からコードを取り出す（デバッグ用）
func newExtractCmd() *cobra.Command {
	var (
		language string
		all      bool
	)

	cmd := &cobra.Command{
		Use:   "extract [file]",
		Short: "Extract code from a raw LLM response (stdin or file)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				raw []byte
				err error
			)
			if len(args) == 1 && args[0] != "-" {
				raw, err = os.ReadFile(args[0])
			} else {
				raw, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return fmt.Errorf("failed to read input: %w", err)
			}

			out := cmd.OutOrStdout()
			if !all {
				fmt.Fprintln(out, codeblock.Extract(string(raw), language))
				return nil
			}

			blocks := codeblock.FindAll(string(raw))
			if len(blocks) == 0 {
				fmt.Fprintln(out, "No fenced code blocks found")
				return nil
			}
			for i, b := range blocks {
				label := b.Language
				if label == "" {
					label = "(untagged)"
				}
				fmt.Fprintf(out, "--- Block %d: %s ---\n%s\n", i+1, label, b.Code)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&language, "language", "python", "Language tag to look for")
	cmd.Flags().BoolVar(&all, "all-blocks", false, "List every fenced block with its tag")

	return cmd
}
