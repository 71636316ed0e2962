package query

import (
	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/kidoz/zabbix-wsus-go/internal/wsus"
)

// Module provides the dispatcher and its WSUS source for fx injection.
var Module = fx.Module("query",
	fx.Provide(
		NewDispatcher,
		ProvideClock,
	),
	wsus.Module,
)

// ProvideClock returns the wall clock.
func ProvideClock() clock.Clock {
	return clock.New()
}
