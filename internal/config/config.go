package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"gopkg.in/ini.v1"
)

// Transport names accepted in wsus.transport.
const (
	TransportLocal = "local"
	TransportWinRM = "winrm"
)

// EnvPrefix prefixes environment overrides, e.g. ZWSUS_WSUS_SERVER.
const EnvPrefix = "ZWSUS_"

// configSearchPaths lists config file paths to try, in priority order.
var configSearchPaths = []string{
	"/etc/zwsus.yaml",
	"/etc/zwsus.conf",
	`C:\Program Files\Zabbix Agent\zwsus.yaml`,
	`C:\Program Files\Zabbix Agent\zwsus.conf`,
}

// FindConfigPath returns the first existing config file from the search paths,
// or "" when there is none. The tool runs fine on defaults.
func FindConfigPath() string {
	for _, path := range configSearchPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// Config holds all configuration values
type Config struct {
	WSUS      WSUSConfig      `koanf:"wsus"`
	WinRM     WinRMConfig     `koanf:"winrm"`
	Output    OutputConfig    `koanf:"output"`
	Zabbix    ZabbixConfig    `koanf:"zabbix"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
}

// WSUSConfig describes how to reach the WSUS administration API
type WSUSConfig struct {
	Server         string `koanf:"server"`
	Port           int    `koanf:"port"`
	UseSSL         bool   `koanf:"use_ssl"`
	Transport      string `koanf:"transport"`
	PowerShellPath string `koanf:"powershell_path"`
	Timeout        int    `koanf:"timeout"`
}

// WinRMConfig holds settings for the remote PowerShell transport
type WinRMConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	HTTPS    bool   `koanf:"https"`
	Insecure bool   `koanf:"insecure"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	Domain   string `koanf:"domain"`
}

// OutputConfig holds rendering defaults; CLI flags override them per call
type OutputConfig struct {
	ErrorCode    string `koanf:"error_code"`
	ConsoleCP    string `koanf:"console_cp"`
	ConsoleWidth int    `koanf:"console_width"`
	Pretty       bool   `koanf:"pretty"`
}

// ZabbixConfig holds zabbix_sender settings used by --send-host/--send-key
type ZabbixConfig struct {
	ServerFQDN string `koanf:"server_fqdn"`
	ServerPort int    `koanf:"server_port"`
	SenderPath string `koanf:"sender_path"`
}

// TelemetryConfig holds OpenTelemetry settings
type TelemetryConfig struct {
	Enabled      bool   `koanf:"enabled"`
	OTLPEndpoint string `koanf:"otlp_endpoint"`
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		WSUS: WSUSConfig{
			Server:         "localhost",
			Port:           8530,
			UseSSL:         false,
			Transport:      TransportLocal,
			PowerShellPath: "powershell.exe",
			Timeout:        30,
		},
		WinRM: WinRMConfig{
			Port: 5985,
		},
		Output: OutputConfig{
			ConsoleWidth: 255,
		},
		Zabbix: ZabbixConfig{
			ServerFQDN: "localhost",
			ServerPort: 10051,
			SenderPath: "zabbix_sender",
		},
		Telemetry: TelemetryConfig{
			Enabled: false,
		},
	}
}

// Load reads configuration from a file, auto-detecting format by extension.
// .yaml/.yml → YAML (Koanf), .conf/.ini or anything else → INI.
// An empty path means defaults only. Environment variables (ZWSUS_ prefix)
// always override file values.
func Load(path string) (*Config, error) {
	if path == "" {
		return loadDefaultsOnly()
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".yaml", ".yml":
		return loadYAML(path)
	default:
		return loadINI(path)
	}
}

func loadDefaultsOnly() (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, err
	}
	if err := loadEnvOverrides(k); err != nil {
		return nil, err
	}

	return unmarshalAndValidate(k)
}

// loadYAML loads config from a YAML file with Koanf.
func loadYAML(path string) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, err
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config file: %w", err)
	}

	if err := loadEnvOverrides(k); err != nil {
		return nil, err
	}

	return unmarshalAndValidate(k)
}

// loadINI loads config from an INI file.
func loadINI(path string) (*Config, error) {
	iniFile, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse INI config file: %w", err)
	}

	m, warnings := iniToMap(iniFile)
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "WARNING: %s\n", w)
	}

	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, err
	}

	if err := k.Load(confmap.Provider(m, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load INI values: %w", err)
	}

	if err := loadEnvOverrides(k); err != nil {
		return nil, err
	}

	return unmarshalAndValidate(k)
}

// LoadINIWithWarnings reads an INI file without env overrides, for the
// migrate-config command. Unrecognized keys are reported as warnings.
func LoadINIWithWarnings(path string) (*Config, []string, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil, fmt.Errorf("config file not found: %s", path)
	}

	iniFile, err := ini.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse INI config file: %w", err)
	}

	m, warnings := iniToMap(iniFile)

	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, nil, err
	}

	if err := k.Load(confmap.Provider(m, "."), nil); err != nil {
		return nil, nil, fmt.Errorf("failed to load INI values: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, warnings, nil
}

// iniKeyMap maps INI keys to koanf key paths. Entries are looked up first as
// "section.key" and then as a bare key, all lowercased, so both sectioned
// files and flat Zabbix-agent style files work.
var iniKeyMap = map[string]string{
	// [WSUS]
	"wsus.server":         "wsus.server",
	"wsus.port":           "wsus.port",
	"wsus.usessl":         "wsus.use_ssl",
	"wsus.transport":      "wsus.transport",
	"wsus.powershellpath": "wsus.powershell_path",
	"wsus.timeout":        "wsus.timeout",
	"wsusserver":          "wsus.server",
	"wsusport":            "wsus.port",
	"wsususessl":          "wsus.use_ssl",
	"powershellpath":      "wsus.powershell_path",
	// [WinRM]
	"winrm.host":     "winrm.host",
	"winrm.port":     "winrm.port",
	"winrm.https":    "winrm.https",
	"winrm.insecure": "winrm.insecure",
	"winrm.user":     "winrm.user",
	"winrm.password": "winrm.password",
	"winrm.domain":   "winrm.domain",
	"winrmhost":      "winrm.host",
	"winrmport":      "winrm.port",
	"winrmuser":      "winrm.user",
	"winrmpassword":  "winrm.password",
	"winrmdomain":    "winrm.domain",
	// [Output]
	"output.errorcode":    "output.error_code",
	"output.consolecp":    "output.console_cp",
	"output.consolewidth": "output.console_width",
	"output.pretty":       "output.pretty",
	"errorcode":           "output.error_code",
	"consolecp":           "output.console_cp",
	"consolewidth":        "output.console_width",
	// [Zabbix]
	"zabbix.serverfqdn": "zabbix.server_fqdn",
	"zabbix.serverport": "zabbix.server_port",
	"zabbix.senderpath": "zabbix.sender_path",
	"zabbixserverfqdn":  "zabbix.server_fqdn",
	"zabbixserverport":  "zabbix.server_port",
	"zabbixsender":      "zabbix.sender_path",
	"zabbixsenderpath":  "zabbix.sender_path",
}

// perCallINIKeys are per-invocation parameters. They belong on the command
// line and are rejected with a specific warning.
var perCallINIKeys = map[string]bool{
	"action":              true, // positional command
	"object":              true, // positional argument
	"key":                 true, // --key flag
	"id":                  true, // --id flag
	"defaultconsolewidth": true, // --default-console-width flag
}

func lookupINIKey(section, key string) (string, bool) {
	section = strings.ToLower(section)
	key = strings.ToLower(key)
	if koanfKey, ok := iniKeyMap[section+"."+key]; ok {
		return koanfKey, true
	}
	koanfKey, ok := iniKeyMap[key]
	return koanfKey, ok
}

// iniToMap maps INI section/key names to the nested koanf key namespace.
// It returns the mapped values and a slice of warnings for unrecognized keys.
func iniToMap(f *ini.File) (map[string]interface{}, []string) {
	m := make(map[string]interface{})
	var warnings []string

	for _, section := range f.Sections() {
		for _, key := range section.Keys() {
			if koanfKey, ok := lookupINIKey(section.Name(), key.Name()); ok {
				m[koanfKey] = key.Value()
			} else if perCallINIKeys[strings.ToLower(key.Name())] {
				warnings = append(warnings, fmt.Sprintf("per-call INI key [%s] %s belongs on the command line (skipped)", section.Name(), key.Name()))
			} else {
				warnings = append(warnings, fmt.Sprintf("unrecognized INI key [%s] %s (skipped)", section.Name(), key.Name()))
			}
		}
	}

	return m, warnings
}

// --- helpers ---

func loadDefaults(k *koanf.Koanf) error {
	defaults := DefaultConfig()
	return k.Load(confmap.Provider(map[string]interface{}{
		"wsus.server":             defaults.WSUS.Server,
		"wsus.port":               defaults.WSUS.Port,
		"wsus.use_ssl":            defaults.WSUS.UseSSL,
		"wsus.transport":          defaults.WSUS.Transport,
		"wsus.powershell_path":    defaults.WSUS.PowerShellPath,
		"wsus.timeout":            defaults.WSUS.Timeout,
		"winrm.port":              defaults.WinRM.Port,
		"output.console_width":    defaults.Output.ConsoleWidth,
		"zabbix.server_fqdn":      defaults.Zabbix.ServerFQDN,
		"zabbix.server_port":      defaults.Zabbix.ServerPort,
		"zabbix.sender_path":      defaults.Zabbix.SenderPath,
		"telemetry.enabled":       defaults.Telemetry.Enabled,
		"telemetry.otlp_endpoint": defaults.Telemetry.OTLPEndpoint,
	}, "."), nil)
}

func loadEnvOverrides(k *koanf.Koanf) error {
	// ZWSUS_WINRM_USER → winrm.user
	return k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, EnvPrefix)
		s = strings.ToLower(s)
		if idx := strings.Index(s, "_"); idx >= 0 {
			return s[:idx] + "." + s[idx+1:]
		}
		return s
	}), nil)
}

func unmarshalAndValidate(k *koanf.Koanf) (*Config, error) {
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.WSUS.Transport = strings.ToLower(cfg.WSUS.Transport)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that connection fields are set and values are in range.
func (c *Config) Validate() error {
	var errs []error

	if err := ValidateHostTarget(c.WSUS.Server); err != nil {
		errs = append(errs, fmt.Errorf("wsus.server: %w", err))
	}
	if c.WSUS.Port < 1 || c.WSUS.Port > 65535 {
		errs = append(errs, fmt.Errorf("wsus.port must be between 1 and 65535, got %d", c.WSUS.Port))
	}
	if c.WSUS.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("wsus.timeout must be greater than 0, got %d", c.WSUS.Timeout))
	}

	switch c.WSUS.Transport {
	case TransportLocal:
		if c.WSUS.PowerShellPath == "" {
			errs = append(errs, fmt.Errorf("wsus.powershell_path is required for the local transport"))
		}
	case TransportWinRM:
		if err := ValidateHostTarget(c.WinRM.Host); err != nil {
			errs = append(errs, fmt.Errorf("winrm.host: %w", err))
		}
		if c.WinRM.Port < 1 || c.WinRM.Port > 65535 {
			errs = append(errs, fmt.Errorf("winrm.port must be between 1 and 65535, got %d", c.WinRM.Port))
		}
		if c.WinRM.User == "" {
			errs = append(errs, fmt.Errorf("winrm.user is required for the winrm transport"))
		}
		if c.WinRM.Password == "" {
			errs = append(errs, fmt.Errorf("winrm.password is required for the winrm transport"))
		}
	default:
		errs = append(errs, fmt.Errorf("wsus.transport must be %q or %q, got %q", TransportLocal, TransportWinRM, c.WSUS.Transport))
	}

	if c.Output.ConsoleWidth < 0 {
		errs = append(errs, fmt.Errorf("output.console_width must be >= 0, got %d", c.Output.ConsoleWidth))
	}
	if c.Zabbix.ServerPort < 1 || c.Zabbix.ServerPort > 65535 {
		errs = append(errs, fmt.Errorf("zabbix.server_port must be between 1 and 65535, got %d", c.Zabbix.ServerPort))
	}

	return errors.Join(errs...)
}

// WinRMEndpointPort returns the configured WinRM port, switching the default
// to 5986 when HTTPS is enabled and the port was left at 5985.
func (c *Config) WinRMEndpointPort() int {
	if c.WinRM.HTTPS && c.WinRM.Port == 5985 {
		return 5986
	}
	return c.WinRM.Port
}
