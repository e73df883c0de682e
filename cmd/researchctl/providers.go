package main

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/helixir/research-desk/internal/app"
)

func newProvidersCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "providers",
		Short: "Inspect and manage stored agents and retrievers",
	}
	cmd.AddCommand(
		newProvidersListCmd(c),
		newProvidersSeedCmd(c),
		newProvidersActivateCmd(c),
		newRetrieverToggleCmd(c, "enable", true),
		newRetrieverToggleCmd(c, "disable", false),
	)
	return cmd
}

func newProvidersListCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List agents and retrievers with their state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			desk, err := c.open(ctx)
			if err != nil {
				return err
			}
			defer desk.Close()

			agentList, err := desk.Store.ListAgents(ctx)
			if err != nil {
				return fmt.Errorf("list agents: %w", err)
			}
			retrieverList, err := desk.Store.ListRetrievers(ctx)
			if err != nil {
				return fmt.Errorf("list retrievers: %w", err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "AGENT\tACTIVE\tKEY\tMODEL")
			for i := range agentList {
				a := &agentList[i]
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", a.Slug, yesNo(a.IsActive), yesNo(a.HasKey()), a.SelectedModel)
			}
			fmt.Fprintln(w)
			fmt.Fprintln(w, "RETRIEVER\tACTIVE\tKEY\tTYPE")
			for i := range retrieverList {
				r := &retrieverList[i]
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Slug, yesNo(r.IsActive), yesNo(r.HasKey()), r.Type)
			}
			return w.Flush()
		},
	}
}

func newProvidersSeedCmd(c *cli) *cobra.Command {
	var activate string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create missing providers and store keys from the environment",
		Long: `Create every known agent and retriever that is missing from the store and
save keys found in RESEARCHDESK_KEYS_<SLUG>. Existing keys are only replaced
when the environment supplies a new one.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			desk, err := c.open(ctx)
			if err != nil {
				return err
			}
			defer desk.Close()

			report, err := app.Seed(ctx, desk.Store, c.cfg.Keys, activate)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "seeded %d agents and %d retrievers\n", len(report.Agents), len(report.Retrievers))
			if len(c.cfg.Keys) > 0 {
				slugs := make([]string, 0, len(c.cfg.Keys))
				for slug := range c.cfg.Keys {
					slugs = append(slugs, slug)
				}
				sort.Strings(slugs)
				fmt.Fprintf(out, "keys stored for: %v\n", slugs)
			}
			if report.Activated != "" {
				fmt.Fprintf(out, "active agent: %s\n", report.Activated)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&activate, "activate", "", "agent slug to make active")
	return cmd
}

func newProvidersActivateCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "activate <agent>",
		Short: "Make one agent the only active agent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			desk, err := c.open(ctx)
			if err != nil {
				return err
			}
			defer desk.Close()

			if err := desk.Store.ActivateAgent(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "active agent: %s\n", args[0])
			return nil
		},
	}
}

func newRetrieverToggleCmd(c *cli, verb string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <retriever>",
		Short: fmt.Sprintf("Mark a retriever as %sd for default searches", verb),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			desk, err := c.open(ctx)
			if err != nil {
				return err
			}
			defer desk.Close()

			if err := desk.Store.SetRetrieverActive(ctx, args[0], active); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "retriever %s %sd\n", args[0], verb)
			return nil
		},
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
