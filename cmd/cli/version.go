package cli

import (
	"encoding/json"
	"fmt"

	"github.com/flowdeck/flowdeck/internal/version"

	"github.com/spf13/cobra"
)

func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and build information",
		RunE: func(cmd *cobra.Command, args []string) error {
			encoded, err := json.MarshalIndent(version.Get(), "", "  ")
			if err != nil {
				return err
			}

			fmt.Println(string(encoded))

			return nil
		},
	}
}
