package main

import (
	"fmt"
	"os"

	fileAdapter "github.com/aretw0/atlas/pkg/adapters/file"
	"github.com/aretw0/atlas/pkg/report"
	"github.com/spf13/cobra"
)

var mergeCmd = &cobra.Command{
	Use:   "merge <chunk.json|dir>...",
	Short: "Merge chunk documents into one document",
	Long: `Concatenates the nodes of several chunk documents in argument order and
assembles the result. Directories expand to their narrative_tree_chunk*.json
files. An id defined by more than one chunk is an error.
The document is not written while another agent holds the edit lock.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		takeLock, wait := lockFlags(cmd)

		chunks, err := fileAdapter.ReadChunks(args...)
		if err != nil {
			return err
		}

		if !dryRun {
			release, err := guardWrite(cmd.Context(), "merge "+settings.Out, takeLock, wait)
			if err != nil {
				return err
			}
			defer release()
		}

		engine, cleanup, err := newEngine()
		if err != nil {
			return err
		}
		defer cleanup()

		res, stats, err := engine.Merge(cmd.Context(), chunks)
		if err != nil {
			printViolations(os.Stderr, err)
			return err
		}
		printWarnings(res)

		w := cmd.OutOrStdout()
		for _, c := range stats {
			fmt.Fprintf(w, "%-32s nodes=%-4d endings=%-3d cross-chunk links=%d\n", c.Name, c.Tally.Total, c.Tally.Endings, c.Links)
		}
		fmt.Fprintln(w)

		if !dryRun {
			if err := fileAdapter.WriteDocument(settings.Out, res.Document); err != nil {
				return err
			}
			logger.Info("merged document written", "path", settings.Out, "chunks", len(chunks))
		}
		report.Print(w, res.Summary)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mergeCmd)
	mergeCmd.Flags().Bool("dry-run", false, "Validate and report without writing the document")
	addLockFlags(mergeCmd)
}
