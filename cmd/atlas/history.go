package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	sqliteAdapter "github.com/aretw0/atlas/pkg/adapters/sqlite"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List archived builds",
	Long:  `Lists the builds recorded in the --archive database, newest first.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if settings.Archive == "" {
			return errors.New("no archive configured (set --archive or ATLAS_ARCHIVE)")
		}
		limit, _ := cmd.Flags().GetInt("limit")

		archive, err := sqliteAdapter.Open(settings.Archive)
		if err != nil {
			return err
		}
		defer archive.Close()

		records, err := archive.List(cmd.Context(), limit)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No builds recorded")
			return nil
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tCREATED\tVERSION\tNODES\tENDINGS\tWARNINGS\tHASH\t")
		for _, r := range records {
			hash := r.Hash
			if len(hash) > 12 {
				hash = hash[:12]
			}
			if r.Unchanged {
				hash += " (unchanged)"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%s\t\n",
				r.ID, r.CreatedAt.Format(time.RFC3339), r.Version, r.Nodes, r.Endings, r.Warnings, hash)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().Int("limit", 20, "Maximum number of builds to list (0 for all)")
}
