package zabbix

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"log/slog"

	"github.com/kidoz/zabbix-wsus-go/internal/config"
)

// senderTimeout bounds a single zabbix_sender run.
const senderTimeout = 60 * time.Second

// Sender wraps zabbix_sender for pushing values to trapper items
type Sender struct {
	cfg *config.Config
	log *slog.Logger
}

// SenderData represents one value to be sent to Zabbix
type SenderData struct {
	Host  string
	Key   string
	Value string
}

// NewSender creates a new Zabbix sender
func NewSender(cfg *config.Config, log *slog.Logger) *Sender {
	return &Sender{
		cfg: cfg,
		log: log,
	}
}

// Send pushes data to Zabbix using zabbix_sender
func (s *Sender) Send(ctx context.Context, data []SenderData) error {
	if len(data) == 0 {
		return nil
	}

	input := senderInput(data)

	s.log.Debug("Sending data to Zabbix", slog.Int("items", len(data)))

	ctx, cancel := context.WithTimeout(ctx, senderTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, //nolint:gosec // G204: args come from validated config, not user input
		s.cfg.Zabbix.SenderPath,
		"-z", s.cfg.Zabbix.ServerFQDN,
		"-p", strconv.Itoa(s.cfg.Zabbix.ServerPort),
		"-i", "-", // read from stdin
	)
	cmd.Stdin = strings.NewReader(input)

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("zabbix_sender failed: %w: %s", err, out.String())
	}

	s.log.Debug("zabbix_sender completed", slog.String("output", out.String()))
	return nil
}

// SendValue sends a single value to a trapper item
func (s *Sender) SendValue(ctx context.Context, host, key, value string) error {
	return s.Send(ctx, []SenderData{{Host: host, Key: key, Value: value}})
}

// senderInput renders data in zabbix_sender's "<host> <key> <value>" input format.
func senderInput(data []SenderData) string {
	lines := make([]string, 0, len(data))
	for _, d := range data {
		lines = append(lines, quoteSenderField(d.Host)+" "+quoteSenderField(d.Key)+" "+quoteSenderField(d.Value))
	}
	return strings.Join(lines, "\n")
}

var senderEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)

// quoteSenderField quotes a field when it holds whitespace, quotes or is empty.
func quoteSenderField(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t\n\"\\") {
		return s
	}
	return `"` + senderEscaper.Replace(s) + `"`
}
