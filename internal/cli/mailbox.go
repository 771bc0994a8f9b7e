package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/thoas/go-funk"
	"go.uber.org/zap"

	api "github.com/m365ops/m365ctl/api/v1alpha1"
	"github.com/m365ops/m365ctl/internal/compliance"
	"github.com/m365ops/m365ctl/internal/config"
)

const cutoffLayout = "2006-01-02"

var legalPurgeTypes = []string{string(api.PurgeSoftDelete), string(api.PurgeHardDelete)}

type mailboxOptions struct {
	GlobalOptions

	Before string
	cutoff time.Time
}

func (o *mailboxOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)

	fs.StringVarP(&o.Before, "before", "b", o.Before, "Cutoff date (YYYY-MM-DD); only items received on or before it are matched.")
}

func (o *mailboxOptions) Validate(args []string) error {
	if err := o.GlobalOptions.Validate(args); err != nil {
		return err
	}
	if o.Before == "" {
		return fmt.Errorf("--before is required")
	}
	cutoff, err := time.Parse(cutoffLayout, o.Before)
	if err != nil {
		return fmt.Errorf("invalid cutoff date %q (want YYYY-MM-DD)", o.Before)
	}
	o.cutoff = cutoff
	return nil
}

func (o *mailboxOptions) driver() (*compliance.Driver, func(), error) {
	cfg, err := config.New()
	if err != nil {
		return nil, nil, err
	}
	session, err := o.Session()
	if err != nil {
		return nil, nil, fmt.Errorf("connecting: %w", err)
	}
	driver := compliance.NewDriver(
		compliance.NewFromSession(session),
		zap.S(),
		compliance.WithPollInterval(cfg.PollInterval),
		compliance.WithFetchRetryCap(cfg.FetchRetryCap),
	)
	return driver, session.Close, nil
}

type PreviewOptions struct {
	mailboxOptions
}

func DefaultPreviewOptions() *PreviewOptions {
	return &PreviewOptions{
		mailboxOptions: mailboxOptions{GlobalOptions: DefaultGlobalOptions()},
	}
}

func NewCmdPreview() *cobra.Command {
	o := DefaultPreviewOptions()
	cmd := &cobra.Command{
		Use:   "preview MAILBOX --before DATE",
		Short: "Preview mailbox items matching the cutoff without deleting anything.",
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

func (o *PreviewOptions) Run(ctx context.Context, args []string) error {
	driver, closeSession, err := o.driver()
	if err != nil {
		return err
	}
	defer closeSession()

	search, action, err := driver.Preview(ctx, args[0], o.cutoff)
	if err != nil {
		return err
	}
	fmt.Printf("Search %s: %s, %d item(s) matched\n", search.Name, search.Status, search.ItemCount)
	if action != nil && action.Results != "" {
		fmt.Println(action.Results)
	}
	return nil
}

type PurgeOptions struct {
	mailboxOptions

	PurgeType string
}

func DefaultPurgeOptions() *PurgeOptions {
	return &PurgeOptions{
		mailboxOptions: mailboxOptions{GlobalOptions: DefaultGlobalOptions()},
		PurgeType:      string(api.PurgeSoftDelete),
	}
}

func NewCmdPurge() *cobra.Command {
	o := DefaultPurgeOptions()
	cmd := &cobra.Command{
		Use:   "purge MAILBOX --before DATE",
		Short: "Repeatedly search and purge mailbox items until none remain.",
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

func (o *PurgeOptions) Bind(fs *pflag.FlagSet) {
	o.mailboxOptions.Bind(fs)

	fs.StringVarP(&o.PurgeType, "purge-type", "", o.PurgeType, fmt.Sprintf("Purge mode. One of: (%s).", strings.Join(legalPurgeTypes, ", ")))
}

func (o *PurgeOptions) Validate(args []string) error {
	if err := o.mailboxOptions.Validate(args); err != nil {
		return err
	}
	if !funk.Contains(legalPurgeTypes, o.PurgeType) {
		return fmt.Errorf("purge type must be one of %s", strings.Join(legalPurgeTypes, ", "))
	}
	return nil
}

func (o *PurgeOptions) Run(ctx context.Context, args []string) error {
	driver, closeSession, err := o.driver()
	if err != nil {
		return err
	}
	defer closeSession()

	report, err := driver.Purge(ctx, args[0], o.cutoff, api.PurgeType(o.PurgeType))
	if err != nil {
		return err
	}
	fmt.Printf("Purged %d item(s) from %s in %d round(s) (search %s)\n",
		report.ItemsPurged, args[0], report.Rounds, report.SearchName)
	return nil
}
