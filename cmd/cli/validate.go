package cli

import (
	"fmt"
	"os"

	"github.com/flowdeck/flowdeck/pkg/domain"
	"github.com/flowdeck/flowdeck/pkg/engine"

	"github.com/spf13/cobra"
)

func NewValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <workflow.json>",
		Short: "Validate a workflow file",
		Long:  `Check a workflow definition file against the wire schema and verify the graph compiles: no dangling edges, no duplicate ids, no cycles.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(args[0])
		},
	}

	return cmd
}

func runValidate(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read workflow file: %w", err)
	}

	def, err := domain.ParseWorkflowDefinition(raw)
	if err != nil {
		return err
	}

	graph, err := engine.Compile(def)
	if err != nil {
		return err
	}

	fmt.Printf("%s: valid, %d nodes, %d edges\n", path, len(graph.Order), len(def.Edges))

	return nil
}
