package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/m365ops/m365ctl/internal/modcleanup"
)

type CleanupModulesOptions struct {
	DryRun bool
}

func DefaultCleanupModulesOptions() *CleanupModulesOptions {
	return &CleanupModulesOptions{}
}

func NewCmdCleanupModules() *cobra.Command {
	o := DefaultCleanupModulesOptions()
	cmd := &cobra.Command{
		Use:   "cleanup-modules ROOT",
		Short: "Remove superseded module versions, keeping the highest per module.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.Run(cmd.Context(), args)
		},
		SilenceUsage: true,
	}
	o.Bind(cmd.Flags())
	return cmd
}

func (o *CleanupModulesOptions) Bind(fs *pflag.FlagSet) {
	fs.BoolVarP(&o.DryRun, "dry-run", "n", false, "List what would be removed without deleting anything.")
}

func (o *CleanupModulesOptions) Run(ctx context.Context, args []string) error {
	modules, err := modcleanup.Scan(args[0])
	if err != nil {
		return err
	}
	plan := modcleanup.BuildPlan(modules)
	for mod, skipped := range plan.Skipped {
		zap.S().Warnf("module %s: skipping non-version directories %v", mod, skipped)
	}
	if len(plan.Remove) == 0 {
		fmt.Println("No superseded module versions found.")
		return nil
	}

	report, err := modcleanup.Execute(plan, o.DryRun, zap.S())
	if err != nil {
		return fmt.Errorf("cleanup finished with failures: %w", err)
	}
	if o.DryRun {
		fmt.Printf("%d version(s) would be removed.\n", len(plan.Remove))
		return nil
	}
	fmt.Printf("Removed %d superseded version(s).\n", len(report.Removed))
	return nil
}
