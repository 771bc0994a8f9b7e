package cli

import (
	"context"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/m365ops/m365ctl/internal/updates"
)

type CheckUpdateOptions struct {
	Feed        string
	Installed   string
	DownloadDir string
}

func DefaultCheckUpdateOptions() *CheckUpdateOptions {
	return &CheckUpdateOptions{}
}

func NewCmdCheckUpdate() *cobra.Command {
	o := DefaultCheckUpdateOptions()
	cmd := &cobra.Command{
		Use:   "check-update PRODUCT --installed VERSION --feed URL",
		Short: "Check a release feed for a newer version and optionally download it.",
		Args:  cobra.ExactArgs(1),
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

func (o *CheckUpdateOptions) Bind(fs *pflag.FlagSet) {
	fs.StringVarP(&o.Feed, "feed", "", o.Feed, "URL of the JSON release feed.")
	fs.StringVarP(&o.Installed, "installed", "i", o.Installed, "Currently installed version.")
	fs.StringVarP(&o.DownloadDir, "download", "d", o.DownloadDir, "Download the artifact into this directory when an update is available.")
}

func (o *CheckUpdateOptions) Validate(args []string) error {
	if o.Feed == "" {
		return fmt.Errorf("--feed is required")
	}
	if o.Installed == "" {
		return fmt.Errorf("--installed is required")
	}
	return nil
}

func (o *CheckUpdateOptions) Run(ctx context.Context, args []string) error {
	checker := updates.NewChecker(o.Feed, &http.Client{}, zap.S())

	info, err := checker.Check(ctx, args[0], o.Installed)
	if err != nil {
		return err
	}
	if !info.UpdateAvailable {
		fmt.Printf("%s %s is up to date.\n", info.Product, info.InstalledVersion)
		return nil
	}

	fmt.Printf("%s: %s -> %s\n", info.Product, info.InstalledVersion, info.LatestVersion)
	if o.DownloadDir == "" {
		return nil
	}
	path, err := checker.Download(ctx, info.Release, o.DownloadDir)
	if err != nil {
		return err
	}
	fmt.Printf("Downloaded %s\n", path)
	return nil
}
