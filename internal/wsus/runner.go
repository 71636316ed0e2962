package wsus

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/text/encoding/unicode"

	"github.com/kidoz/zabbix-wsus-go/internal/config"
)

// Runner executes a PowerShell script and returns its standard output.
type Runner interface {
	Run(ctx context.Context, script string) (string, error)
}

// LocalRunner runs scripts with the PowerShell binary on this machine. This
// is the usual layout: the agent lives on the WSUS server itself.
type LocalRunner struct {
	path    string
	timeout time.Duration
	log     *slog.Logger
}

// NewLocalRunner creates a runner for the configured PowerShell binary.
func NewLocalRunner(cfg *config.Config, log *slog.Logger) *LocalRunner {
	return &LocalRunner{
		path:    cfg.WSUS.PowerShellPath,
		timeout: time.Duration(cfg.WSUS.Timeout) * time.Second,
		log:     log,
	}
}

// Run executes script via -EncodedCommand, so no quoting of the script body
// is needed.
func (r *LocalRunner) Run(ctx context.Context, script string) (string, error) {
	encoded, err := EncodeCommand(script)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	r.log.Debug("Running local PowerShell script", "path", r.path, "bytes", len(script))

	cmd := exec.CommandContext(ctx, //nolint:gosec // G204: binary comes from config, script is passed encoded
		r.path,
		"-NoProfile",
		"-NonInteractive",
		"-ExecutionPolicy", "Bypass",
		"-EncodedCommand", encoded,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("powershell failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	return stdout.String(), nil
}

// EncodeCommand renders script the way powershell.exe -EncodedCommand
// expects it: UTF-16LE, base64.
func EncodeCommand(script string) (string, error) {
	utf16le, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder().String(script)
	if err != nil {
		return "", fmt.Errorf("failed to encode script as UTF-16LE: %w", err)
	}
	return base64.StdEncoding.EncodeToString([]byte(utf16le)), nil
}
