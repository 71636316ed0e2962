package zabbix

import "go.uber.org/fx"

// Module provides the zabbix_sender wrapper for fx injection.
var Module = fx.Module("zabbix",
	fx.Provide(NewSender),
)
