package main

import (
	"fmt"
	"os"

	fileAdapter "github.com/aretw0/atlas/pkg/adapters/file"
	"github.com/aretw0/atlas/pkg/report"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export <dir>",
	Short: "Write the document as one file per node",
	Long: `Splits an assembled document into a node-per-file authoring tree: one
Markdown file per node with its fields as frontmatter, plus a manifest holding
the document header and token configuration.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("doc")
		if path == "" {
			path = settings.Out
		}
		doc, err := fileAdapter.ReadDocument(path)
		if err != nil {
			return err
		}

		engine, cleanup, err := newEngine()
		if err != nil {
			return err
		}
		defer cleanup()

		if err := engine.Export(cmd.Context(), doc, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d nodes to %s\n", len(doc.Nodes), args[0])
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <dir>",
	Short: "Assemble a node-per-file tree into a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		takeLock, wait := lockFlags(cmd)
		release, err := guardWrite(cmd.Context(), "import "+args[0], takeLock, wait)
		if err != nil {
			return err
		}
		defer release()

		engine, cleanup, err := newEngine()
		if err != nil {
			return err
		}
		defer cleanup()

		res, err := engine.Import(cmd.Context(), args[0])
		if err != nil {
			printViolations(os.Stderr, err)
			return err
		}
		printWarnings(res)

		if err := fileAdapter.WriteDocument(settings.Out, res.Document); err != nil {
			return err
		}
		logger.Info("document written", "path", settings.Out, "nodes", len(res.Document.Nodes))
		report.Print(cmd.OutOrStdout(), res.Summary)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	exportCmd.Flags().String("doc", "", "Document to export (defaults to --out)")
	addLockFlags(importCmd)
}
