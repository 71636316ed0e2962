package cmd

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/kidoz/zabbix-wsus-go/internal/config"
	"github.com/kidoz/zabbix-wsus-go/internal/query"
	"github.com/kidoz/zabbix-wsus-go/internal/zabbix"
)

func initDispatcher(cfg *config.Config, log *slog.Logger) (*query.Dispatcher, error) {
	var d *query.Dispatcher
	app := fx.New(
		fx.NopLogger,
		fx.Supply(cfg, log),
		query.Module,
		fx.Populate(&d),
	)
	if err := app.Err(); err != nil {
		return nil, err
	}
	return d, nil
}

func initSender(cfg *config.Config, log *slog.Logger) (*zabbix.Sender, error) {
	var s *zabbix.Sender
	app := fx.New(
		fx.NopLogger,
		fx.Supply(cfg, log),
		zabbix.Module,
		fx.Populate(&s),
	)
	if err := app.Err(); err != nil {
		return nil, err
	}
	return s, nil
}
