package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	resetPreserve []string
	resetForce    bool
	clearForce    bool
)

var nsCmd = &cobra.Command{
	Use:   "ns",
	Short: "Manage namespaces",
}

var nsEnsureCmd = &cobra.Command{
	Use:   "ensure [name]",
	Short: "Create a namespace if it does not exist",
	Long: `Ensures the namespace exists with the configured vector dimension and
distance metric. A namespace whose stored dimension no longer matches
the configuration is dropped and recreated, losing its contents.`,
	Args: cobra.ExactArgs(1),
	RunE: runNsEnsure,
}

var nsClearCmd = &cobra.Command{
	Use:   "clear [name]",
	Short: "Delete all points in a namespace",
	Args:  cobra.ExactArgs(1),
	RunE:  runNsClear,
}

var nsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear every namespace except the preserved ones",
	RunE:  runNsReset,
}

var nsStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show all namespaces with schema and point counts",
	RunE:  runNsStatus,
}

func init() {
	nsClearCmd.Flags().BoolVar(&clearForce, "force", false, "skip confirmation")
	nsResetCmd.Flags().StringSliceVar(&resetPreserve, "preserve", nil, "namespaces to keep (default from config)")
	nsResetCmd.Flags().BoolVar(&resetForce, "force", false, "skip confirmation")

	nsCmd.AddCommand(nsEnsureCmd)
	nsCmd.AddCommand(nsClearCmd)
	nsCmd.AddCommand(nsResetCmd)
	nsCmd.AddCommand(nsStatusCmd)
	rootCmd.AddCommand(nsCmd)
}

func runNsEnsure(cmd *cobra.Command, args []string) error {
	name := args[0]

	if memoryService == nil {
		return errors.New("memory service not configured")
	}

	if err := memoryService.EnsureNamespace(context.Background(), name); err != nil {
		return fmt.Errorf("ensure failed: %w", err)
	}
	cmd.Printf("Namespace %s is ready.\n", name)
	return nil
}

func runNsClear(cmd *cobra.Command, args []string) error {
	name := args[0]

	if memoryService == nil {
		return errors.New("memory service not configured")
	}
	if !clearForce {
		return fmt.Errorf("clearing %s deletes all its points; re-run with --force", name)
	}

	if err := memoryService.ClearNamespace(context.Background(), name); err != nil {
		return fmt.Errorf("clear failed: %w", err)
	}
	cmd.Printf("Namespace %s cleared.\n", name)
	return nil
}

func runNsReset(cmd *cobra.Command, _ []string) error {
	if memoryService == nil {
		return errors.New("memory service not configured")
	}
	if !resetForce {
		return errors.New("reset clears every non-preserved namespace; re-run with --force")
	}

	if err := memoryService.ResetAll(context.Background(), resetPreserve); err != nil {
		return fmt.Errorf("reset failed: %w", err)
	}
	cmd.Println("All namespaces reset.")
	return nil
}

func runNsStatus(cmd *cobra.Command, _ []string) error {
	if memoryService == nil {
		return errors.New("memory service not configured")
	}

	infos, err := memoryService.Status(context.Background())
	if err != nil {
		return fmt.Errorf("status failed: %w", err)
	}
	if len(infos) == 0 {
		cmd.Println("No namespaces.")
		return nil
	}

	cmd.Printf("%-20s %10s %10s %8s\n", "NAMESPACE", "DIMENSION", "DISTANCE", "POINTS")
	for _, info := range infos {
		cmd.Printf("%-20s %10d %10s %8d\n", info.Name, info.Dimension, info.Distance, info.Points)
	}
	return nil
}
