// Package modcleanup removes superseded versions from a module install
// tree laid out as <root>/<module>/<version>/.
package modcleanup

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	version "github.com/hashicorp/go-version"
	"go.uber.org/zap"
)

// VersionDir is one versioned install of a module.
type VersionDir struct {
	Raw    string
	Parsed *version.Version
	Path   string
}

// Module groups every installed version of one module.
type Module struct {
	Name     string
	Versions []VersionDir
	// Skipped holds directory names that do not parse as versions; they are
	// never touched.
	Skipped []string
}

// Removal is one directory the plan wants gone.
type Removal struct {
	Module  string
	Version string
	Path    string
}

// Plan is what a cleanup run would do.
type Plan struct {
	Keep    map[string]string
	Remove  []Removal
	Skipped map[string][]string
}

// Scan walks the module root and collects versioned installs. A missing
// root is a precondition failure.
func Scan(root string) ([]Module, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("reading module root: %w", err)
	}

	var modules []Module
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		mod := Module{Name: entry.Name()}
		versionEntries, err := os.ReadDir(filepath.Join(root, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading module %s: %w", entry.Name(), err)
		}
		for _, ve := range versionEntries {
			if !ve.IsDir() {
				continue
			}
			v, err := version.NewVersion(ve.Name())
			if err != nil {
				mod.Skipped = append(mod.Skipped, ve.Name())
				continue
			}
			mod.Versions = append(mod.Versions, VersionDir{
				Raw:    ve.Name(),
				Parsed: v,
				Path:   filepath.Join(root, entry.Name(), ve.Name()),
			})
		}
		modules = append(modules, mod)
	}
	return modules, nil
}

// BuildPlan keeps the highest version per module and marks the rest for
// removal, oldest first.
func BuildPlan(modules []Module) Plan {
	plan := Plan{Keep: map[string]string{}, Skipped: map[string][]string{}}
	for _, mod := range modules {
		if len(mod.Skipped) > 0 {
			plan.Skipped[mod.Name] = mod.Skipped
		}
		if len(mod.Versions) == 0 {
			continue
		}
		versions := append([]VersionDir(nil), mod.Versions...)
		sort.Slice(versions, func(i, j int) bool {
			return versions[i].Parsed.LessThan(versions[j].Parsed)
		})
		plan.Keep[mod.Name] = versions[len(versions)-1].Raw
		for _, old := range versions[:len(versions)-1] {
			plan.Remove = append(plan.Remove, Removal{
				Module:  mod.Name,
				Version: old.Raw,
				Path:    old.Path,
			})
		}
	}
	return plan
}

// Report summarizes an executed cleanup.
type Report struct {
	Removed []Removal
	Failed  []Removal
}

// Execute applies the plan. Individual removal failures are logged and do
// not stop the loop; a combined error is returned at the end if any item
// failed. With dryRun set nothing is deleted.
func Execute(plan Plan, dryRun bool, log *zap.SugaredLogger) (Report, error) {
	report := Report{}
	var errs []error
	for _, removal := range plan.Remove {
		if dryRun {
			log.Infof("would remove %s %s (%s)", removal.Module, removal.Version, removal.Path)
			continue
		}
		if err := os.RemoveAll(removal.Path); err != nil {
			log.Warnf("removing %s %s: %v", removal.Module, removal.Version, err)
			report.Failed = append(report.Failed, removal)
			errs = append(errs, fmt.Errorf("%s %s: %w", removal.Module, removal.Version, err))
			continue
		}
		log.Infof("removed %s %s", removal.Module, removal.Version)
		report.Removed = append(report.Removed, removal)
	}
	return report, errors.Join(errs...)
}
