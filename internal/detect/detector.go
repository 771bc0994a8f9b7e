// Package detect locates and removes unwanted software artifacts. The
// detect/remediate pair is wired into device-management compliance: exit
// code 0 means clean, 1 means findings remain (or the run itself failed).
package detect

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"

	"go.uber.org/zap"
)

// Indicator names a piece of unwanted software and the traces that betray
// its presence: file globs and executable names resolved against PATH.
type Indicator struct {
	Name        string
	Globs       []string
	Executables []string
}

// Finding is one matched artifact.
type Finding struct {
	Indicator string
	Path      string
}

type Detector struct {
	indicators []Indicator
	log        *zap.SugaredLogger
}

func NewDetector(indicators []Indicator, log *zap.SugaredLogger) *Detector {
	return &Detector{indicators: indicators, log: log}
}

// Detect evaluates every indicator. A malformed glob pattern is a
// precondition failure; an executable that does not resolve, or an empty
// result set, is not an error.
func (d *Detector) Detect() ([]Finding, error) {
	var findings []Finding
	for _, indicator := range d.indicators {
		for _, glob := range indicator.Globs {
			matches, err := filepath.Glob(glob)
			if err != nil {
				return nil, fmt.Errorf("indicator %s: bad pattern %q: %w", indicator.Name, glob, err)
			}
			for _, m := range matches {
				findings = append(findings, Finding{Indicator: indicator.Name, Path: m})
			}
		}
		for _, name := range indicator.Executables {
			path, err := exec.LookPath(name)
			if err != nil {
				continue
			}
			findings = append(findings, Finding{Indicator: indicator.Name, Path: path})
		}
	}
	sort.Slice(findings, func(i, j int) bool { return findings[i].Path < findings[j].Path })
	return findings, nil
}

// Report summarizes a remediation run.
type Report struct {
	Removed []Finding
	Failed  []Finding
}

// Remediate removes every finding, logging each action to the remediation
// log. A failing item does not stop the loop; the combined error and the
// Failed list tell the caller whether the device is now compliant.
func (d *Detector) Remediate(findings []Finding, rlog *RemediationLog) (Report, error) {
	report := Report{}
	var errs []error
	for _, finding := range findings {
		if err := os.RemoveAll(finding.Path); err != nil {
			d.log.Warnf("removing %s (%s): %v", finding.Path, finding.Indicator, err)
			rlog.Record("FAILED %s (%s): %v", finding.Path, finding.Indicator, err)
			report.Failed = append(report.Failed, finding)
			errs = append(errs, fmt.Errorf("%s: %w", finding.Path, err))
			continue
		}
		d.log.Infof("removed %s (%s)", finding.Path, finding.Indicator)
		rlog.Record("removed %s (%s)", finding.Path, finding.Indicator)
		report.Removed = append(report.Removed, finding)
	}
	return report, errors.Join(errs...)
}
