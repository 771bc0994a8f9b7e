package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	api "github.com/m365ops/m365ctl/api/v1alpha1"
	"github.com/m365ops/m365ctl/internal/export"
	"github.com/m365ops/m365ctl/internal/graph"
)

const (
	AppsKind    = "apps"
	DevicesKind = "devices"
	MembersKind = "members"
)

var listableKinds = []string{AppsKind, DevicesKind, MembersKind}

type GetOptions struct {
	GlobalOptions
	outputOptions

	Group string
}

func DefaultGetOptions() *GetOptions {
	return &GetOptions{
		GlobalOptions: DefaultGlobalOptions(),
	}
}

func NewCmdGet() *cobra.Command {
	o := DefaultGetOptions()
	cmd := &cobra.Command{
		Use:   "get (apps | devices | members)",
		Short: "Display tenant resources.",
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

func (o *GetOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)
	o.outputOptions.Bind(fs)

	fs.StringVarP(&o.Group, "group", "g", o.Group, "Group display name (required for members).")
}

func (o *GetOptions) Validate(args []string) error {
	if err := o.GlobalOptions.Validate(args); err != nil {
		return err
	}
	if err := validateKind(args[0], listableKinds); err != nil {
		return err
	}
	if args[0] == MembersKind && o.Group == "" {
		return fmt.Errorf("--group is required when listing members")
	}
	return o.outputOptions.Validate()
}

func (o *GetOptions) Run(ctx context.Context, args []string) error {
	session, err := o.Session()
	if err != nil {
		return fmt.Errorf("connecting: %w", err)
	}
	defer session.Close()

	c := graph.NewFromSession(session)

	switch args[0] {
	case AppsKind:
		apps, err := c.ListApps(ctx)
		if err != nil {
			return fmt.Errorf("listing apps: %w", err)
		}
		return o.render(apps, "Apps", appsTable(apps))
	case DevicesKind:
		devices, err := c.ListDevices(ctx)
		if err != nil {
			return fmt.Errorf("listing devices: %w", err)
		}
		return o.render(devices, "Devices", devicesTable(devices))
	case MembersKind:
		group, err := c.FindGroupByName(ctx, o.Group)
		if err != nil {
			return err
		}
		members, err := c.ListGroupMembers(ctx, group.ID)
		if err != nil {
			return fmt.Errorf("listing members of %s: %w", o.Group, err)
		}
		return o.render(members, "Members", membersTable(members))
	default:
		return fmt.Errorf("unsupported resource kind: %s", args[0])
	}
}

func appsTable(apps []api.ManagedApp) export.Table {
	table := export.Table{Headers: []string{"ID", "NAME", "VERSION", "PUBLISHER"}}
	for _, a := range apps {
		table.Rows = append(table.Rows, []string{a.ID, a.DisplayName, a.Version, a.Publisher})
	}
	return table
}

func devicesTable(devices []api.ManagedDevice) export.Table {
	table := export.Table{Headers: []string{"ID", "NAME", "OS", "OS VERSION", "USER", "COMPLIANCE", "LAST SYNC"}}
	for _, d := range devices {
		table.Rows = append(table.Rows, []string{
			d.ID, d.DeviceName, d.OperatingSystem, d.OSVersion,
			d.UserPrincipalName, d.ComplianceState, d.LastSyncAt.Format(time.RFC3339),
		})
	}
	return table
}

func membersTable(members []api.GroupMember) export.Table {
	table := export.Table{Headers: []string{"ID", "NAME", "UPN", "MAIL"}}
	for _, m := range members {
		table.Rows = append(table.Rows, []string{m.ID, m.DisplayName, m.UserPrincipalName, m.Mail})
	}
	return table
}
