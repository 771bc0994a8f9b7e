// Package toolrunner resolves and runs the wrapped external executables
// (image converter, archiver). Success is judged by the output artifact on
// disk, not the exit code: at least one wrapped tool is known to report a
// non-zero exit code on successful runs, so the exit code is recorded but
// never trusted on its own.
package toolrunner

import (
	"context"
	"os"
	"os/exec"

	"github.com/pkg/errors"
)

// Tool describes an external executable and where it is usually installed.
type Tool struct {
	// Name is the bare executable name used for the PATH fallback.
	Name string
	// ProbePaths are absolute candidate locations checked, in order, before
	// falling back to a PATH lookup.
	ProbePaths []string
}

// Resolve returns the path of the first probe location that exists, falling
// back to a PATH lookup. A tool that cannot be found anywhere is a
// precondition failure for the caller.
func (t Tool) Resolve() (string, error) {
	for _, p := range t.ProbePaths {
		info, err := os.Stat(p)
		if err == nil && !info.IsDir() {
			return p, nil
		}
	}
	path, err := exec.LookPath(t.Name)
	if err != nil {
		return "", errors.Wrapf(err, "%s not found in known install locations or PATH", t.Name)
	}
	return path, nil
}

// Result records one external tool run.
type Result struct {
	ExitCode int
	Output   string
}

// Run executes the tool and verifies that artifact exists and is non-empty
// afterwards. The artifact check is authoritative; a non-zero exit code with
// a good artifact is a success, and the exit code is only surfaced in the
// error when the artifact is missing.
func Run(ctx context.Context, path string, args []string, artifact string) (Result, error) {
	cmd := exec.CommandContext(ctx, path, args...)
	output, runErr := cmd.CombinedOutput()
	result := Result{ExitCode: -1, Output: string(output)}
	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
	}

	info, statErr := os.Stat(artifact)
	switch {
	case statErr == nil && info.Size() > 0:
		return result, nil
	case runErr != nil:
		return result, errors.Wrapf(runErr, "%s failed (exit %d) and produced no output at %s", path, result.ExitCode, artifact)
	case statErr == nil:
		return result, errors.Errorf("%s produced an empty artifact at %s", path, artifact)
	default:
		return result, errors.Errorf("%s exited %d but produced no artifact at %s", path, result.ExitCode, artifact)
	}
}
