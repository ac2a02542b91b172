package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hapkiduki/boxpack/internal/application/dto"
)

// Output formats.
const (
	formatText = "text"
	formatJSON = "json"
)

// ErrUnknownFormat is returned for an unsupported --format value.
var ErrUnknownFormat = errors.New("unknown output format (want text or json)")

type packOptions struct {
	name      string
	normalize float64
	format    string
}

func (c *CLI) packCommand() *cobra.Command {
	var opts packOptions
	cmd := &cobra.Command{
		Use:   "pack FILE",
		Short: "Pack the items of a box file into one container",
		Long: `Pack reads a TOML or JSON file holding a list of items and stacks
them into a single container, longest side first. Items may carry
margins and nested children; an item with pack = true is sized from
its own children.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("normalize") {
				unit := opts.normalize
				return c.runPack(cmd.Context(), args[0], opts, &unit)
			}
			return c.runPack(cmd.Context(), args[0], opts, nil)
		},
	}

	cmd.Flags().StringVarP(&opts.name, "name", "n", "", "layout name (default: name in file, then file name)")
	cmd.Flags().Float64Var(&opts.normalize, "normalize", 0, "scale the container so its largest side equals this unit")
	cmd.Flags().StringVarP(&opts.format, "format", "f", formatText, "output format: text or json")
	return cmd
}

func (c *CLI) runPack(ctx context.Context, path string, opts packOptions, normalize *float64) error {
	if err := checkFormat(opts.format); err != nil {
		return err
	}

	var req dto.PackRequest
	if err := readInput(path, &req); err != nil {
		return err
	}
	switch {
	case opts.name != "":
		req.Name = opts.name
	case req.Name == "":
		req.Name = baseName(path)
	}
	if normalize != nil {
		req.Normalize = normalize
	}

	c.log.Debug("Packing", "file", path, "items", len(req.Items))
	resp, err := c.svc.Pack(ctx, req)
	if err != nil {
		return err
	}

	if opts.format == formatJSON {
		return c.writeJSON(resp)
	}
	renderLayout(c.out, resp)
	return nil
}

func checkFormat(format string) error {
	if format != formatText && format != formatJSON {
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return nil
}

func (c *CLI) writeJSON(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
