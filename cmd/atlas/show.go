package main

import (
	"fmt"
	"os"

	"github.com/aretw0/atlas/internal/presentation/tui"
	fileAdapter "github.com/aretw0/atlas/pkg/adapters/file"
	"github.com/aretw0/atlas/pkg/domain"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <node-id>",
	Short: "Render one node as it reads in the story",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("doc")
		if path == "" {
			path = settings.Out
		}
		doc, err := fileAdapter.ReadDocument(path)
		if err != nil {
			return err
		}
		n, ok := doc.Node(args[0])
		if !ok {
			return &domain.UnknownIDError{ID: args[0]}
		}

		render := tui.NewRenderer(os.Stdout)
		out, err := render(tui.NodeMarkdown(n))
		if err != nil {
			return fmt.Errorf("render %s: %w", n.ID, err)
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().String("doc", "", "Document to read (defaults to --out)")
}
