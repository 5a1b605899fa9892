package main

import (
	"fmt"

	"github.com/aretw0/atlas/internal/presentation/graph"
	fileAdapter "github.com/aretw0/atlas/pkg/adapters/file"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph [document.json]",
	Short: "Export the narrative graph visualization",
	Long:  `Outputs a Mermaid diagram (graph TD) of the document. Unreachable nodes are highlighted.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := fileAdapter.ReadDocument(documentPath(args))
		if err != nil {
			return err
		}

		engine, cleanup, err := newEngine()
		if err != nil {
			return err
		}
		defer cleanup()

		rep := engine.Validate(doc)
		output := graph.GenerateMermaid(doc, &graph.GraphOverlay{Unreachable: rep.Unreachable()})
		fmt.Fprint(cmd.OutOrStdout(), output)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
