package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/hapkiduki/boxpack/internal/application/dto"
)

type fitOptions struct {
	rotate bool
	format string
}

func (c *CLI) fitCommand() *cobra.Command {
	var opts fitOptions
	cmd := &cobra.Command{
		Use:   "fit FILE",
		Short: "Check whether a box fits inside a container",
		Long: `Fit reads a TOML or JSON file with a box and a container and reports
whether the box, margins included, fits inside the container as given.
With --rotate it also reports whether any axis-aligned turn fits.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runFit(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.rotate, "rotate", "r", false, "also try every axis-aligned rotation")
	cmd.Flags().StringVarP(&opts.format, "format", "f", formatText, "output format: text or json")
	return cmd
}

func (c *CLI) runFit(ctx context.Context, path string, opts fitOptions) error {
	if err := checkFormat(opts.format); err != nil {
		return err
	}

	var req dto.FitRequest
	if err := readInput(path, &req); err != nil {
		return err
	}
	req.AllowRotation = req.AllowRotation || opts.rotate

	resp, err := c.svc.CheckFit(ctx, req)
	if err != nil {
		return err
	}

	if opts.format == formatJSON {
		return c.writeJSON(resp)
	}
	renderFit(c.out, resp)
	return nil
}
