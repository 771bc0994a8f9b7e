package cli

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/m365ops/m365ctl/internal/convert"
)

type ConvertOptions struct {
	DPI int
}

func DefaultConvertOptions() *ConvertOptions {
	return &ConvertOptions{
		DPI: 300,
	}
}

func NewCmdConvert() *cobra.Command {
	o := DefaultConvertOptions()
	cmd := &cobra.Command{
		Use:   "convert SRC.svg DST.(png|pdf|eps)",
		Short: "Convert an SVG file using the wrapped converter tool.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Validate(args); err != nil {
				return err
			}
			return o.Run(cmd.Context(), args)
		},
		SilenceUsage: true,
	}
	o.Bind(cmd.Flags())
	return cmd
}

func (o *ConvertOptions) Bind(fs *pflag.FlagSet) {
	fs.IntVarP(&o.DPI, "dpi", "", o.DPI, "Raster resolution for png output.")
}

func (o *ConvertOptions) Validate(args []string) error {
	return nil
}

func (o *ConvertOptions) Run(ctx context.Context, args []string) error {
	converter, err := convert.NewConverter(zap.S())
	if err != nil {
		return err
	}
	return converter.Convert(ctx, args[0], args[1], o.DPI)
}
