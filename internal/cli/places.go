package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pampasroute/internal/config"
)

// placesCommand creates the places command.
func (c *CLI) placesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "places",
		Short: "List the places of the coordinate table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			table, err := cfg.Table()
			if err != nil {
				return err
			}
			fmt.Println(placesTable(table.Places()))
			printDetail("%d places", table.Len())
			return nil
		},
	}
}
