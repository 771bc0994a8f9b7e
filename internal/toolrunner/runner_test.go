package toolrunner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolvePrefersProbePaths(t *testing.T) {
	tmpDir := t.TempDir()
	probed := filepath.Join(tmpDir, "converter")
	require.NoError(t, os.WriteFile(probed, []byte("#!/bin/sh\n"), 0755))

	tool := Tool{
		Name:       "sh", // would resolve via PATH if probing failed
		ProbePaths: []string{filepath.Join(tmpDir, "missing"), probed},
	}
	path, err := tool.Resolve()
	require.NoError(t, err)
	require.Equal(t, probed, path)
}

func TestResolveFallsBackToPath(t *testing.T) {
	tool := Tool{
		Name:       "sh",
		ProbePaths: []string{"/nonexistent/location/sh"},
	}
	path, err := tool.Resolve()
	require.NoError(t, err)
	require.NotEmpty(t, path)
}

func TestResolveMissingTool(t *testing.T) {
	tool := Tool{Name: "definitely-not-a-real-tool-xyz"}
	_, err := tool.Resolve()
	require.Error(t, err)
}

func TestRunJudgesByArtifact(t *testing.T) {
	tmpDir := t.TempDir()
	artifact := filepath.Join(tmpDir, "out.dat")

	// Exit 0 and a non-empty artifact: success.
	result, err := Run(context.Background(), "sh", []string{"-c", "echo data > " + artifact}, artifact)
	require.NoError(t, err)
	require.Equal(t, 0, result.ExitCode)
}

func TestRunNonZeroExitWithArtifactSucceeds(t *testing.T) {
	tmpDir := t.TempDir()
	artifact := filepath.Join(tmpDir, "out.dat")

	// The wrapped archiver reports non-zero on success; the artifact decides.
	result, err := Run(context.Background(), "sh", []string{"-c", "echo data > " + artifact + "; exit 2"}, artifact)
	require.NoError(t, err)
	require.Equal(t, 2, result.ExitCode)
}

func TestRunMissingArtifactFails(t *testing.T) {
	tmpDir := t.TempDir()
	artifact := filepath.Join(tmpDir, "out.dat")

	_, err := Run(context.Background(), "sh", []string{"-c", "true"}, artifact)
	require.Error(t, err)
	require.Contains(t, err.Error(), "no artifact")
}

func TestRunEmptyArtifactFails(t *testing.T) {
	tmpDir := t.TempDir()
	artifact := filepath.Join(tmpDir, "out.dat")
	require.NoError(t, os.WriteFile(artifact, nil, 0644))

	_, err := Run(context.Background(), "sh", []string{"-c", "true"}, artifact)
	require.Error(t, err)
	require.Contains(t, err.Error(), "empty artifact")
}
