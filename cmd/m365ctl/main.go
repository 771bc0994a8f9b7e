package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/m365ops/m365ctl/internal/cli"
	"github.com/m365ops/m365ctl/internal/config"
	"github.com/m365ops/m365ctl/pkg/log"
)

func main() {
	cfg, err := config.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "reading configuration: %v\n", err)
		os.Exit(1)
	}

	logger := log.InitLog(cfg.LogLevel)
	defer func() { _ = logger.Sync() }()
	undo := zap.ReplaceGlobals(logger)
	defer undo()

	command := NewM365CtlCommand()
	if err := command.Execute(); err != nil {
		os.Exit(1)
	}
}

func NewM365CtlCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "m365ctl [flags] [options]",
		Short: "m365ctl is the tenant administration toolbox.",
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
			os.Exit(1)
		},
	}
	cmd.AddCommand(cli.NewCmdGet())
	cmd.AddCommand(cli.NewCmdDedupe())
	cmd.AddCommand(cli.NewCmdPreview())
	cmd.AddCommand(cli.NewCmdPurge())
	cmd.AddCommand(cli.NewCmdConvert())
	cmd.AddCommand(cli.NewCmdCompress())
	cmd.AddCommand(cli.NewCmdCheckUpdate())
	cmd.AddCommand(cli.NewCmdCleanupModules())
	cmd.AddCommand(cli.NewCmdDetect())
	cmd.AddCommand(cli.NewCmdRemediate())
	cmd.AddCommand(cli.NewCmdConfigure())
	cmd.AddCommand(cli.NewCmdVersion())

	return cmd
}
