package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/m365ops/m365ctl/internal/client"
)

type GlobalOptions struct {
	ConfigFilePath string
}

func DefaultGlobalOptions() GlobalOptions {
	return GlobalOptions{
		ConfigFilePath: client.DefaultConfigPath(),
	}
}

func (o *GlobalOptions) Bind(fs *pflag.FlagSet) {
	fs.StringVarP(&o.ConfigFilePath, "config", "c", o.ConfigFilePath, "Path to the client config file")
}

func (o *GlobalOptions) Complete(cmd *cobra.Command, args []string) error {
	return nil
}

func (o *GlobalOptions) Validate(args []string) error {
	return nil
}

// Session connects once per command run; the caller owns the Close.
func (o *GlobalOptions) Session() (*client.Session, error) {
	return client.ConnectFromConfigFile(o.ConfigFilePath)
}
