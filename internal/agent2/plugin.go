package agent2

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"golang.zabbix.com/sdk/plugin"

	"github.com/kidoz/zabbix-wsus-go/internal/config"
	"github.com/kidoz/zabbix-wsus-go/internal/query"
	"github.com/kidoz/zabbix-wsus-go/internal/wsus"
)

// PluginName is the name used in Plugins.<name>.* agent options.
const PluginName = "WSUS"

// Item keys served by the plugin.
const (
	KeyDiscovery = "wsus.discovery"
	KeyGet       = "wsus.get"
	KeyCount     = "wsus.count"
)

// DispatcherFactory connects to WSUS for one request.
type DispatcherFactory func(cfg *config.Config) (*query.Dispatcher, error)

// WSUSPlugin implements Configurator and Exporter for Zabbix Agent 2.
// Every request opens its own WSUS connection; nothing is cached.
type WSUSPlugin struct {
	plugin.Base

	cfg           *config.Config
	newDispatcher DispatcherFactory
}

// NewPlugin creates a new WSUSPlugin instance.
func NewPlugin() *WSUSPlugin {
	return &WSUSPlugin{
		cfg:           config.DefaultConfig(),
		newDispatcher: connect,
	}
}

// connect builds a dispatcher over a live WSUS connection.
func connect(cfg *config.Config) (*query.Dispatcher, error) {
	// Plugin logging goes through p.Base (SDK logger).
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	runner, err := wsus.ProvideRunner(cfg, log)
	if err != nil {
		return nil, err
	}
	client, err := wsus.NewClient(cfg, runner, log)
	if err != nil {
		return nil, err
	}
	return query.NewDispatcher(client, clock.New(), log), nil
}

// --- Configurator ---

// Configure is called by Agent 2 to pass config options.
func (p *WSUSPlugin) Configure(globalOptions *plugin.GlobalOptions, privateOptions any) {
	// privateOptions is a map[string]string from the agent2 config file
	// (Plugins.WSUS.* keys).
	opts, ok := privateOptions.(map[string]string)
	if !ok {
		if privateOptions != nil {
			p.Errf("unexpected privateOptions type: %T", privateOptions)
		}
		opts = nil
	}

	cfg, err := configFromOptions(opts)
	if err != nil {
		p.Errf("invalid plugin options, using defaults where unparsable: %s", err)
	}
	if _, set := opts["Timeout"]; !set && globalOptions != nil && globalOptions.Timeout > 0 {
		cfg.WSUS.Timeout = globalOptions.Timeout
	}

	p.cfg = cfg
}

// Validate checks the plugin options.
func (p *WSUSPlugin) Validate(privateOptions any) error {
	opts, ok := privateOptions.(map[string]string)
	if !ok && privateOptions != nil {
		return fmt.Errorf("unexpected privateOptions type: %T", privateOptions)
	}
	cfg, err := configFromOptions(opts)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("Plugins.%s: %w", PluginName, err)
	}
	return nil
}

// configFromOptions maps Plugins.WSUS.* options onto the default config.
// Unparsable numbers and booleans are reported together.
func configFromOptions(opts map[string]string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	var errs []error

	str := func(key string, dst *string) {
		if v, ok := opts[key]; ok {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v, ok := opts[key]; ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("Plugins.%s.%s: %q is not a number", PluginName, key, v))
				return
			}
			*dst = n
		}
	}
	flag := func(key string, dst *bool) {
		if v, ok := opts[key]; ok {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("Plugins.%s.%s: %q is not a boolean", PluginName, key, v))
				return
			}
			*dst = b
		}
	}

	str("Server", &cfg.WSUS.Server)
	num("Port", &cfg.WSUS.Port)
	flag("UseSSL", &cfg.WSUS.UseSSL)
	str("Transport", &cfg.WSUS.Transport)
	str("PowerShellPath", &cfg.WSUS.PowerShellPath)
	num("Timeout", &cfg.WSUS.Timeout)
	str("WinRMHost", &cfg.WinRM.Host)
	num("WinRMPort", &cfg.WinRM.Port)
	flag("WinRMHTTPS", &cfg.WinRM.HTTPS)
	flag("WinRMInsecure", &cfg.WinRM.Insecure)
	str("WinRMUser", &cfg.WinRM.User)
	str("WinRMPassword", &cfg.WinRM.Password)
	str("WinRMDomain", &cfg.WinRM.Domain)
	str("ErrorCode", &cfg.Output.ErrorCode)

	cfg.WSUS.Transport = strings.ToLower(cfg.WSUS.Transport)
	return cfg, errors.Join(errs...)
}

// --- Exporter ---

// Export handles item key requests from Agent 2:
//
//	wsus.discovery[object]
//	wsus.get[object,<key>,<id>]
//	wsus.count[object,<id>]
func (p *WSUSPlugin) Export(key string, params []string, _ plugin.ContextProvider) (any, error) {
	req, err := requestFor(key, params)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(p.cfg.WSUS.Timeout)*time.Second)
	defer cancel()

	d, err := p.newDispatcher(p.cfg)
	if err != nil {
		return p.terminal(err)
	}

	// Listings are for humans; items get unlimited width.
	out, err := d.Run(ctx, req, query.Options{ErrorCode: p.cfg.Output.ErrorCode})
	if err != nil {
		return p.terminal(err)
	}
	return out, nil
}

// terminal turns connection and empty-collection failures into the
// configured error code, when there is one.
func (p *WSUSPlugin) terminal(err error) (any, error) {
	if p.cfg.Output.ErrorCode != "" && (errors.Is(err, wsus.ErrConnection) || errors.Is(err, query.ErrEmptyCollection)) {
		return p.cfg.Output.ErrorCode, nil
	}
	return nil, err
}

// requestFor maps an item key and its parameters onto a query request.
// An empty id parameter means no filter.
func requestFor(key string, params []string) (query.Request, error) {
	param := func(i int) string {
		if i < len(params) {
			return params[i]
		}
		return ""
	}
	optional := func(i int) *string {
		if v := param(i); v != "" {
			return &v
		}
		return nil
	}

	switch key {
	case KeyDiscovery:
		if len(params) > 1 {
			return query.Request{}, fmt.Errorf("%s accepts one parameter", key)
		}
		return query.NewRequest(string(query.ActionDiscovery), param(0), "", nil, false)
	case KeyGet:
		if len(params) > 3 {
			return query.Request{}, fmt.Errorf("%s accepts at most three parameters", key)
		}
		return query.NewRequest(string(query.ActionGet), param(0), param(1), optional(2), false)
	case KeyCount:
		if len(params) > 2 {
			return query.Request{}, fmt.Errorf("%s accepts at most two parameters", key)
		}
		return query.NewRequest(string(query.ActionCount), param(0), "", optional(1), false)
	default:
		return query.Request{}, fmt.Errorf("unknown key: %s", key)
	}
}
