package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/helixir/research-desk/internal/agents"
)

func newAskCmd(c *cli) *cobra.Command {
	var (
		system      string
		model       string
		temperature float64
		maxTokens   int
	)

	cmd := &cobra.Command{
		Use:   "ask [prompt]",
		Short: "Send a prompt to the active LLM agent",
		Long: `Send a single-turn prompt to the active agent. The prompt is read from the
arguments, or from stdin when none are given. Provider failures are printed
inline as "[AI Error: ...]".`,
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt := strings.Join(args, " ")
			if prompt == "" {
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read prompt: %w", err)
				}
				prompt = string(b)
			}
			if strings.TrimSpace(prompt) == "" {
				return fmt.Errorf("prompt is required")
			}

			req := agents.Request{
				System:    system,
				User:      prompt,
				Model:     model,
				MaxTokens: maxTokens,
			}
			if cmd.Flags().Changed("temperature") {
				req.Temperature = &temperature
			}

			desk, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer desk.Close()

			fmt.Fprintln(cmd.OutOrStdout(), desk.Agents.ProcessQuery(cmd.Context(), req))
			return nil
		},
	}

	cmd.Flags().StringVarP(&system, "system", "s", "", "system prompt (default: agents.system_prompt)")
	cmd.Flags().StringVarP(&model, "model", "m", "", "model override (default: the agent's selected model)")
	cmd.Flags().Float64VarP(&temperature, "temperature", "t", 0, "sampling temperature")
	cmd.Flags().IntVar(&maxTokens, "max-tokens", 0, "completion token limit")
	return cmd
}
