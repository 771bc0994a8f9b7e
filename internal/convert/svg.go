// Package convert wraps the external vector-image converter.
package convert

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/m365ops/m365ctl/internal/toolrunner"
)

var converterTool = toolrunner.Tool{
	Name: "inkscape",
	ProbePaths: []string{
		`C:\Program Files\Inkscape\bin\inkscape.exe`,
		`C:\Program Files (x86)\Inkscape\bin\inkscape.exe`,
		"/usr/bin/inkscape",
		"/usr/local/bin/inkscape",
	},
}

var outputFormats = map[string]bool{
	".png": true,
	".pdf": true,
	".eps": true,
}

type Converter struct {
	toolPath string
	log      *zap.SugaredLogger
}

// NewConverter resolves the converter executable up front so a missing tool
// fails before any work starts.
func NewConverter(log *zap.SugaredLogger) (*Converter, error) {
	path, err := converterTool.Resolve()
	if err != nil {
		return nil, err
	}
	return &Converter{toolPath: path, log: log}, nil
}

// Convert renders src into the format implied by dst's extension. Extensions
// are validated up front; the run itself is judged by the output artifact.
func (c *Converter) Convert(ctx context.Context, src, dst string, dpi int) error {
	if !strings.EqualFold(filepath.Ext(src), ".svg") {
		return fmt.Errorf("input %s is not an .svg file", src)
	}
	ext := strings.ToLower(filepath.Ext(dst))
	if !outputFormats[ext] {
		return fmt.Errorf("unsupported output format %q (want .png, .pdf or .eps)", ext)
	}

	args := []string{"--export-filename=" + dst}
	if ext == ".png" && dpi > 0 {
		args = append(args, fmt.Sprintf("--export-dpi=%d", dpi))
	}
	args = append(args, src)

	c.log.Infof("converting %s -> %s", src, dst)
	result, err := toolrunner.Run(ctx, c.toolPath, args, dst)
	if err != nil {
		return err
	}
	c.log.Debugf("converter exited %d", result.ExitCode)
	return nil
}
