package cli

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/m365ops/m365ctl/internal/archive"
)

type CompressOptions struct {
	Level int
}

func DefaultCompressOptions() *CompressOptions {
	return &CompressOptions{
		Level: 5,
	}
}

func NewCmdCompress() *cobra.Command {
	o := DefaultCompressOptions()
	cmd := &cobra.Command{
		Use:   "compress SRC_DIR DST.(zip|7z)",
		Short: "Compress a directory using the wrapped archiver tool.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.Run(cmd.Context(), args)
		},
		SilenceUsage: true,
	}
	o.Bind(cmd.Flags())
	return cmd
}

func (o *CompressOptions) Bind(fs *pflag.FlagSet) {
	fs.IntVarP(&o.Level, "level", "l", o.Level, "Compression level (0-9).")
}

func (o *CompressOptions) Run(ctx context.Context, args []string) error {
	archiver, err := archive.NewArchiver(zap.S())
	if err != nil {
		return err
	}
	return archiver.Compress(ctx, args[0], args[1], o.Level)
}
