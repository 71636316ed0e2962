package wsus

import (
	"fmt"
	"log/slog"

	"go.uber.org/fx"

	"github.com/kidoz/zabbix-wsus-go/internal/config"
)

// Module provides the WSUS source for fx injection.
var Module = fx.Module("wsus",
	fx.Provide(
		ProvideRunner,
		NewClient,
		ProvideSource,
	),
)

// ProvideRunner selects the script runner for the configured transport.
func ProvideRunner(cfg *config.Config, log *slog.Logger) (Runner, error) {
	switch cfg.WSUS.Transport {
	case config.TransportLocal:
		return NewLocalRunner(cfg, log), nil
	case config.TransportWinRM:
		return NewWinRMRunner(cfg, log)
	default:
		return nil, fmt.Errorf("unsupported WSUS transport %q", cfg.WSUS.Transport)
	}
}

// ProvideSource exposes the client through the Source interface.
func ProvideSource(c *Client) Source {
	return c
}
