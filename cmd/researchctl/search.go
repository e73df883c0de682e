package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/helixir/research-desk/internal/domain"
	"github.com/helixir/research-desk/internal/retrievers"
)

func newSearchCmd(c *cli) *cobra.Command {
	var (
		retriever  string
		maxResults int
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "search <query> [query...]",
		Short: "Search the active (or named) retriever",
		Long: `Run one or more queries through the search dispatcher. Each argument is a
separate query. Failures are logged and produce an empty result set.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if maxResults < 0 || maxResults > retrievers.MaxResultsLimit {
				return fmt.Errorf("--max-results must be between 0 and %d", retrievers.MaxResultsLimit)
			}

			desk, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer desk.Close()

			results := desk.Search.ProcessSearch(cmd.Context(), args, retrievers.Options{
				Retriever:  retriever,
				MaxResults: maxResults,
			})

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(results)
			}
			printResources(cmd, results)
			return nil
		},
	}

	cmd.Flags().StringVarP(&retriever, "retriever", "r", "", "retriever slug (default: the active retrievers)")
	cmd.Flags().IntVarP(&maxResults, "max-results", "n", 0, "results per query (default: config search.default_max_results)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print resources as JSON")
	return cmd
}

func printResources(cmd *cobra.Command, results []domain.Resource) {
	out := cmd.OutOrStdout()
	if len(results) == 0 {
		fmt.Fprintln(out, "no results")
		return
	}
	for i, r := range results {
		fmt.Fprintf(out, "%d. %s\n", i+1, r.Title)
		if r.Author != "" {
			fmt.Fprintf(out, "   %s\n", r.Author)
		}
		if r.PublishedDate != "" {
			fmt.Fprintf(out, "   published %s\n", r.PublishedDate)
		}
		if r.URL != "" {
			fmt.Fprintf(out, "   %s\n", r.URL)
		}
		if s := strings.TrimSpace(r.Summary); s != "" {
			fmt.Fprintf(out, "   %s\n", truncate(s, 240))
		}
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
