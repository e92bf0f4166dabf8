package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pampasroute/pkg/errors"
	"github.com/matzehuels/pampasroute/pkg/route"
	"github.com/matzehuels/pampasroute/pkg/view"
)

// computeCommand creates the compute command.
func (c *CLI) computeCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:               "compute <start> <destination>",
		Short:             "Compute the route between two places",
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: c.completePlaces,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := c.newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if asJSON {
				res, err := a.computer.Compute(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				return route.EncodeResult(os.Stdout, res)
			}

			ctrl := a.controller(newTermUI(ctx, os.Stderr), nil)
			_, err = ctrl.Compute(ctx, args[0], args[1])
			if errors.Temporary(err) {
				printDetail("Is the backend running at %s?", a.computer.BaseURL())
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result in the backend wire format")
	return cmd
}

// loadResult fills ctrl with a route, either from a saved result file
// (the backend wire format) or by asking the backend for args[0] → args[1].
func loadResult(ctx context.Context, ctrl *view.Controller, input string, args []string) error {
	if input == "" {
		if len(args) != 2 {
			return errors.New(errors.ErrCodeInvalidInput, "give a start and a destination, or --input")
		}
		_, err := ctrl.Compute(ctx, args[0], args[1])
		return err
	}

	f, err := os.Open(input)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Wrap(errors.ErrCodeFileNotFound, err, "result file %s", input)
		}
		return err
	}
	defer f.Close()

	res, err := route.DecodeResponse(f)
	if err != nil {
		return err
	}
	ctrl.SetResult(ctx, res, res.Start(), res.End())
	return nil
}
