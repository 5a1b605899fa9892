package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/aretw0/atlas/pkg/validator"
	fileAdapter "github.com/aretw0/atlas/pkg/adapters/file"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [document.json|dir]",
	Short: "Check an assembled document for consistency",
	Long: `Validates an existing document (the configured output by default) or a
node-per-file directory written by 'atlas export'. Exits with code 2 when a
fatal violation is found.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		path := documentPath(args)

		engine, cleanup, err := newEngine()
		if err != nil {
			return err
		}
		defer cleanup()

		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		if info.IsDir() {
			res, err := engine.Import(cmd.Context(), path)
			if err != nil {
				printViolations(os.Stderr, err)
				return err
			}
			return printReport(cmd, res.Report, asJSON)
		}

		doc, err := fileAdapter.ReadDocument(path)
		if err != nil {
			return err
		}
		rep := engine.Validate(doc)
		if err := printReport(cmd, rep, asJSON); err != nil {
			return err
		}
		if verr := rep.Err(); verr != nil {
			printViolations(os.Stderr, verr)
			return verr
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().Bool("json", false, "Print the validation report as JSON")
}

func printReport(cmd *cobra.Command, rep *validator.Report, asJSON bool) error {
	w := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep.View())
	}
	for _, v := range rep.Warnings() {
		logger.Warn(v.Error(), "kind", v.Kind())
	}
	if rep.OK() {
		fmt.Fprintf(w, "Document is valid (%d nodes, %d warnings)\n", rep.Tally.Total, len(rep.Warnings()))
	}
	return nil
}
