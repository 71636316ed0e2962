package main

import (
	"fmt"
	"os"

	"golang.zabbix.com/sdk/plugin"
	"golang.zabbix.com/sdk/plugin/container"

	"github.com/kidoz/zabbix-wsus-go/internal/agent2"
)

func main() {
	p := agent2.NewPlugin()

	err := plugin.RegisterMetrics(
		p, agent2.PluginName,
		agent2.KeyDiscovery, "Returns LLD JSON for a WSUS object kind.",
		agent2.KeyGet, "Returns a WSUS object property, or a listing without a key.",
		agent2.KeyCount, "Returns the number of WSUS objects of a kind.",
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to register metrics: %s\n", err)
		os.Exit(1)
	}

	h, err := container.NewHandler(agent2.PluginName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create handler: %s\n", err)
		os.Exit(1)
	}

	if err := h.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "plugin execution failed: %s\n", err)
		os.Exit(1)
	}
}
