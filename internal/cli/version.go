package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/m365ops/m365ctl/pkg/version"
)

type VersionOptions struct{}

func DefaultVersionOptions() *VersionOptions {
	return &VersionOptions{}
}

func NewCmdVersion() *cobra.Command {
	o := DefaultVersionOptions()
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print m365ctl version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.Run(cmd.Context(), args)
		},
	}
	return cmd
}

func (o *VersionOptions) Run(ctx context.Context, args []string) error {
	fmt.Printf("m365ctl version: %s\n", version.Get().String())
	return nil
}
