package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/recallkit/recall/internal/core/domain"
)

var (
	searchNamespaces []string
	searchTopK       int
	searchMinScore   float64
	searchJSON       bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search memories across namespaces",
	Long: `Embeds the query once and searches every requested namespace
concurrently. Results are merged, ranked by similarity score and
truncated to the top-k globally. Namespaces that do not exist
contribute no results.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringSliceVar(&searchNamespaces, "namespaces", []string{"user_info", "world_facts"}, "namespaces to search")
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "n", 0, "maximum results (0 uses the configured default)")
	searchCmd.Flags().Float64Var(&searchMinScore, "min-score", -1, "minimum similarity score (negative uses the configured default)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	if memoryService == nil {
		return errors.New("memory service not configured")
	}

	results, err := memoryService.Search(context.Background(), query, searchNamespaces, searchTopK, searchMinScore)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, results)
	}
	return outputSearchText(cmd, results)
}

func outputSearchJSON(cmd *cobra.Command, results []domain.SearchResult) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchText(cmd *cobra.Command, results []domain.SearchResult) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i, r := range results {
		cmd.Printf("  [%d] %s (%.2f, %s)\n", i+1, r.Text, r.Score, r.Namespace)
	}
	cmd.Println()
	return nil
}
