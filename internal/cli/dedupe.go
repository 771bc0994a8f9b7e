package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/m365ops/m365ctl/internal/export"
	"github.com/m365ops/m365ctl/internal/graph"
)

type DedupeOptions struct {
	GlobalOptions
	outputOptions

	Delete bool
}

func DefaultDedupeOptions() *DedupeOptions {
	return &DedupeOptions{
		GlobalOptions: DefaultGlobalOptions(),
	}
}

func NewCmdDedupe() *cobra.Command {
	o := DefaultDedupeOptions()
	cmd := &cobra.Command{
		Use:   "dedupe apps",
		Short: "Find duplicate app records, keeping the highest version per name.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Complete(cmd, args); err != nil {
				return err
			}
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

func (o *DedupeOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)
	o.outputOptions.Bind(fs)

	fs.BoolVarP(&o.Delete, "delete", "", false, "Delete the stale duplicates instead of only listing them.")
}

func (o *DedupeOptions) Validate(args []string) error {
	if err := o.GlobalOptions.Validate(args); err != nil {
		return err
	}
	if err := validateKind(args[0], []string{AppsKind}); err != nil {
		return err
	}
	return o.outputOptions.Validate()
}

func (o *DedupeOptions) Run(ctx context.Context, args []string) error {
	session, err := o.Session()
	if err != nil {
		return fmt.Errorf("connecting: %w", err)
	}
	defer session.Close()

	c := graph.NewFromSession(session)
	apps, err := c.ListApps(ctx)
	if err != nil {
		return fmt.Errorf("listing apps: %w", err)
	}

	sets := graph.FindDuplicates(apps)
	if len(sets) == 0 {
		fmt.Println("No duplicate app records found.")
		return nil
	}

	if err := o.render(sets, "Duplicates", duplicatesTable(sets)); err != nil {
		return err
	}
	if !o.Delete {
		return nil
	}

	// Per-item policy: a failed delete is logged and the loop moves on.
	failed := 0
	for _, set := range sets {
		for _, stale := range set.Stale {
			if err := c.DeleteApp(ctx, stale.ID); err != nil {
				zap.S().Warnf("deleting %s %s (%s): %v", set.DisplayName, stale.Version, stale.ID, err)
				failed++
				continue
			}
			zap.S().Infof("deleted %s %s (%s)", set.DisplayName, stale.Version, stale.ID)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d duplicate record(s) could not be deleted", failed)
	}
	return nil
}

func duplicatesTable(sets []graph.DuplicateSet) export.Table {
	table := export.Table{Headers: []string{"NAME", "KEEP", "STALE ID", "STALE VERSION"}}
	for _, set := range sets {
		for _, stale := range set.Stale {
			table.Rows = append(table.Rows, []string{set.DisplayName, set.Keep.Version, stale.ID, stale.Version})
		}
	}
	return table
}
