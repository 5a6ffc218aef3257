// Package runlog writes the per-run command-execution log and the external
// API call log. Both files live under the configured logs directory with
// timestamped names; failing to open either degrades to a warning, never an
// error, so the run itself is unaffected.
package runlog

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const timestampLayout = "20060102_150405"

// RunLogs bundles the two per-run log files.
type RunLogs struct {
	logger  *slog.Logger
	command *os.File
	api     *os.File
}

// Open creates the logs directory and both per-run files. A nil return field
// means that file could not be opened; all methods tolerate that.
func Open(logsDir string, logger *slog.Logger) *RunLogs {
	if logger == nil {
		logger = slog.Default()
	}
	r := &RunLogs{logger: logger}
	if logsDir == "" {
		return r
	}
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		logger.Warn("runlog.dir.create_failed", "dir", logsDir, "error", err)
		return r
	}
	stamp := time.Now().Format(timestampLayout)

	cmdPath := filepath.Join(logsDir, "command_execution_"+stamp+".log")
	if f, err := os.Create(cmdPath); err != nil {
		logger.Warn("runlog.command.open_failed", "path", cmdPath, "error", err)
	} else {
		r.command = f
	}

	apiPath := filepath.Join(logsDir, "api_calls_"+stamp+".log")
	if f, err := os.Create(apiPath); err != nil {
		logger.Warn("runlog.api.open_failed", "path", apiPath, "error", err)
	} else {
		r.api = f
	}
	return r
}

// Command records the invocation that started this run.
func (r *RunLogs) Command(args []string) {
	if r == nil || r.command == nil {
		return
	}
	fmt.Fprintf(r.command, "Command Execution Log\n%s\n", strings.Repeat("=", 50))
	fmt.Fprintf(r.command, "Timestamp: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(r.command, "Command: recipe-press %s\n", strings.Join(args, " "))
	fmt.Fprintf(r.command, "%s\n\n", strings.Repeat("=", 50))
}

// Event appends a free-form line to the command log.
func (r *RunLogs) Event(format string, args ...any) {
	if r == nil || r.command == nil {
		return
	}
	fmt.Fprintf(r.command, "[%s] ", time.Now().Format(time.RFC3339))
	fmt.Fprintf(r.command, format+"\n", args...)
}

// APICall records one external HTTP call, capturing rate-limit headers when
// the service provides them.
func (r *RunLogs) APICall(requestID, method, url string, status int, elapsed time.Duration, headers http.Header) {
	if r == nil || r.api == nil {
		return
	}
	fmt.Fprintf(r.api, "[%s] req_id=%s %s %s status=%d elapsed_ms=%d",
		time.Now().Format(time.RFC3339), requestID, method, url, status, elapsed.Milliseconds())
	for _, h := range []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"} {
		if v := headers.Get(h); v != "" {
			fmt.Fprintf(r.api, " %s=%s", strings.ToLower(h), v)
		}
	}
	fmt.Fprintln(r.api)
}

// Close flushes and closes both files.
func (r *RunLogs) Close() {
	if r == nil {
		return
	}
	if r.command != nil {
		if err := r.command.Close(); err != nil {
			r.logger.Warn("runlog.command.close_failed", "error", err)
		}
	}
	if r.api != nil {
		if err := r.api.Close(); err != nil {
			r.logger.Warn("runlog.api.close_failed", "error", err)
		}
	}
}
