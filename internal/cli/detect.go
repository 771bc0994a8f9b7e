package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/m365ops/m365ctl/internal/config"
	"github.com/m365ops/m365ctl/internal/detect"
)

type detectOptions struct {
	Name        string
	Globs       []string
	Executables []string
}

func (o *detectOptions) Bind(fs *pflag.FlagSet) {
	fs.StringVarP(&o.Name, "name", "", "unwanted-software", "Indicator name used in reports and the remediation log.")
	fs.StringArrayVarP(&o.Globs, "glob", "g", nil, "File glob marking the software as present. Repeatable.")
	fs.StringArrayVarP(&o.Executables, "exe", "e", nil, "Executable name, resolved against PATH, marking the software as present. Repeatable.")
}

func (o *detectOptions) Validate(args []string) error {
	if len(o.Globs) == 0 && len(o.Executables) == 0 {
		return fmt.Errorf("at least one --glob or --exe is required")
	}
	return nil
}

func (o *detectOptions) detector() *detect.Detector {
	return detect.NewDetector([]detect.Indicator{{
		Name:        o.Name,
		Globs:       o.Globs,
		Executables: o.Executables,
	}}, zap.S())
}

type DetectOptions struct {
	detectOptions
}

func DefaultDetectOptions() *DetectOptions {
	return &DetectOptions{}
}

// NewCmdDetect exits 0 on a clean device and 1 when any indicator matches,
// which is the contract the device-management integration keys on.
func NewCmdDetect() *cobra.Command {
	o := DefaultDetectOptions()
	cmd := &cobra.Command{
		Use:   "detect (--glob PATTERN | --exe NAME) ...",
		Short: "Detect unwanted software by file and executable indicators.",
		Args:  cobra.NoArgs,
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

func (o *DetectOptions) Run(ctx context.Context, args []string) error {
	findings, err := o.detector().Detect()
	if err != nil {
		return err
	}
	if len(findings) == 0 {
		fmt.Println("No indicators found.")
		return nil
	}
	for _, f := range findings {
		fmt.Printf("%s: %s\n", f.Indicator, f.Path)
	}
	return fmt.Errorf("%d indicator(s) found", len(findings))
}

type RemediateOptions struct {
	detectOptions

	LogFile string
}

func DefaultRemediateOptions() *RemediateOptions {
	return &RemediateOptions{}
}

func NewCmdRemediate() *cobra.Command {
	o := DefaultRemediateOptions()
	cmd := &cobra.Command{
		Use:   "remediate (--glob PATTERN | --exe NAME) ...",
		Short: "Remove unwanted software artifacts, logging every action.",
		Args:  cobra.NoArgs,
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

func (o *RemediateOptions) Bind(fs *pflag.FlagSet) {
	o.detectOptions.Bind(fs)

	fs.StringVarP(&o.LogFile, "log-file", "", o.LogFile, "Append-only remediation log. Defaults to M365CTL_REMEDIATION_LOG.")
}

func (o *RemediateOptions) Run(ctx context.Context, args []string) error {
	logFile := o.LogFile
	if logFile == "" {
		cfg, err := config.New()
		if err != nil {
			return err
		}
		logFile = cfg.RemediationLog
	}
	rlog, err := detect.OpenRemediationLog(logFile)
	if err != nil {
		return err
	}
	defer rlog.Close()

	detector := o.detector()
	findings, err := detector.Detect()
	if err != nil {
		return err
	}
	if len(findings) == 0 {
		fmt.Println("Nothing to remediate.")
		return nil
	}

	report, err := detector.Remediate(findings, rlog)
	if err != nil {
		return fmt.Errorf("%d artifact(s) could not be removed: %w", len(report.Failed), err)
	}
	fmt.Printf("Removed %d artifact(s).\n", len(report.Removed))
	return nil
}
