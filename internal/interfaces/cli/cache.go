package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// DefaultPruneAge is the age past which prune removes files.
const DefaultPruneAge = 7 * 24 * time.Hour

func (a *app) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Maintain the PDF cache",
	}
	cmd.AddCommand(a.cachePruneCommand())
	return cmd
}

func (a *app) cachePruneCommand() *cobra.Command {
	var olderThan time.Duration
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete cached PDFs and scratch HTML older than --older-than",
		Long: `Delete cached PDFs and materialized HTML files whose modification time is
older than --older-than. Files inside the freshness window are never needed
past it, so any age at or above the configured cache TTL is safe.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withServices(cmd, func(svc *Services) error {
				report, err := svc.Maintenance.Prune(cmd.Context(), olderThan)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %d PDF(s) and %d HTML file(s)\n", report.PDFs, report.HTMLFiles)
				return nil
			})
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", DefaultPruneAge, "minimum file age to delete")
	return cmd
}
