package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/m365ops/m365ctl/internal/client"
)

type ConfigureOptions struct {
	ConfigFilePath   string
	Server           string
	ComplianceServer string
	TokenFile        string
}

func DefaultConfigureOptions() *ConfigureOptions {
	return &ConfigureOptions{
		ConfigFilePath: client.DefaultConfigPath(),
	}
}

func NewCmdConfigure() *cobra.Command {
	o := DefaultConfigureOptions()
	cmd := &cobra.Command{
		Use:   "configure --server URL --token-file PATH",
		Short: "Write the client config file.",
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

func (o *ConfigureOptions) Bind(fs *pflag.FlagSet) {
	fs.StringVarP(&o.ConfigFilePath, "config", "c", o.ConfigFilePath, "Path of the config file to write.")
	fs.StringVarP(&o.Server, "server", "s", o.Server, "Management API base URL.")
	fs.StringVarP(&o.ComplianceServer, "compliance-server", "", o.ComplianceServer, "Compliance API base URL (defaults to --server).")
	fs.StringVarP(&o.TokenFile, "token-file", "t", o.TokenFile, "Path of the file holding the bearer token.")
}

func (o *ConfigureOptions) Validate(args []string) error {
	if o.Server == "" {
		return fmt.Errorf("--server is required")
	}
	if o.TokenFile == "" {
		return fmt.Errorf("--token-file is required")
	}
	return nil
}

func (o *ConfigureOptions) Run(ctx context.Context, args []string) error {
	if err := client.WriteConfig(o.ConfigFilePath, o.Server, o.ComplianceServer, o.TokenFile); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", o.ConfigFilePath)
	return nil
}
