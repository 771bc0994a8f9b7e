package detect

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
)

// RemediationLog is the append-only audit trail of remediation actions.
// Unlike the process log it survives across runs, one timestamped line per
// action. A nil receiver is a no-op so callers can leave it unconfigured.
type RemediationLog struct {
	file *os.File
	path string
}

func OpenRemediationLog(path string) (*RemediationLog, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening remediation log %s: %w", path, err)
	}
	return &RemediationLog{file: f, path: path}, nil
}

func (l *RemediationLog) Record(format string, args ...any) {
	if l == nil {
		return
	}
	line := fmt.Sprintf("[%s] %s\n", time.Now().Format(time.RFC3339), fmt.Sprintf(format, args...))
	if _, err := l.file.WriteString(line); err != nil {
		zap.S().Named("remediation").Errorf("failed to write to log file %s: %v", l.path, err)
	}
}

func (l *RemediationLog) Close() {
	if l == nil {
		return
	}
	if err := l.file.Sync(); err != nil {
		zap.S().Named("remediation").Errorf("failed to flush the log file: %v", err)
	}
	if err := l.file.Close(); err != nil {
		zap.S().Named("remediation").Errorf("failed to close log file %s: %v", l.path, err)
	}
}
