package cmd

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/spf13/cobra"

	"github.com/kidoz/zabbix-wsus-go/internal/config"
)

var (
	migrateFrom string
	migrateTo   string
)

var migrateCmd = &cobra.Command{
	Use:   "migrate-config",
	Short: "Convert a legacy INI config file to YAML",
	Long: `Read a legacy INI config file ([WSUS], [WinRM], [Output], [Zabbix]
sections or flat keys) and write the equivalent YAML config.

Only values that differ from the defaults are written. Keys that
belong on the command line (Action, Object, Key, Id) are reported
and skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, warnings, err := config.LoadINIWithWarnings(migrateFrom)
		if err != nil {
			return err
		}
		for _, w := range warnings {
			fmt.Fprintf(cmd.ErrOrStderr(), "WARNING: %s\n", w)
		}

		out, err := renderYAML(c)
		if err != nil {
			return err
		}

		if migrateTo == "" {
			_, err = cmd.OutOrStdout().Write(out)
			return err
		}
		if err := os.WriteFile(migrateTo, out, 0o600); err != nil {
			return fmt.Errorf("failed to write %s: %w", migrateTo, err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", migrateTo)
		return nil
	},
}

func init() {
	migrateCmd.Flags().StringVar(&migrateFrom, "from", "", "legacy INI config file")
	migrateCmd.Flags().StringVar(&migrateTo, "to", "", "output YAML file (default stdout)")
	_ = migrateCmd.MarkFlagRequired("from")
	rootCmd.AddCommand(migrateCmd)
}

type yamlField struct {
	key   string
	value string
	def   string
	// keep writes the field even at its default value.
	keep bool
}

type yamlSection struct {
	name   string
	fields []yamlField
}

func configSections(c, d *config.Config) []yamlSection {
	return []yamlSection{
		{"wsus", []yamlField{
			{"server", yamlQuote(c.WSUS.Server), yamlQuote(d.WSUS.Server), true},
			{"port", strconv.Itoa(c.WSUS.Port), strconv.Itoa(d.WSUS.Port), true},
			{"use_ssl", strconv.FormatBool(c.WSUS.UseSSL), strconv.FormatBool(d.WSUS.UseSSL), false},
			{"transport", yamlQuote(c.WSUS.Transport), yamlQuote(d.WSUS.Transport), true},
			{"powershell_path", yamlQuote(c.WSUS.PowerShellPath), yamlQuote(d.WSUS.PowerShellPath), false},
			{"timeout", strconv.Itoa(c.WSUS.Timeout), strconv.Itoa(d.WSUS.Timeout), false},
		}},
		{"winrm", []yamlField{
			{"host", yamlQuote(c.WinRM.Host), yamlQuote(d.WinRM.Host), false},
			{"port", strconv.Itoa(c.WinRM.Port), strconv.Itoa(d.WinRM.Port), false},
			{"https", strconv.FormatBool(c.WinRM.HTTPS), strconv.FormatBool(d.WinRM.HTTPS), false},
			{"insecure", strconv.FormatBool(c.WinRM.Insecure), strconv.FormatBool(d.WinRM.Insecure), false},
			{"user", yamlQuote(c.WinRM.User), yamlQuote(d.WinRM.User), false},
			{"password", yamlQuote(c.WinRM.Password), yamlQuote(d.WinRM.Password), false},
			{"domain", yamlQuote(c.WinRM.Domain), yamlQuote(d.WinRM.Domain), false},
		}},
		{"output", []yamlField{
			{"error_code", yamlQuote(c.Output.ErrorCode), yamlQuote(d.Output.ErrorCode), false},
			{"console_cp", yamlQuote(c.Output.ConsoleCP), yamlQuote(d.Output.ConsoleCP), false},
			{"console_width", strconv.Itoa(c.Output.ConsoleWidth), strconv.Itoa(d.Output.ConsoleWidth), false},
			{"pretty", strconv.FormatBool(c.Output.Pretty), strconv.FormatBool(d.Output.Pretty), false},
		}},
		{"zabbix", []yamlField{
			{"server_fqdn", yamlQuote(c.Zabbix.ServerFQDN), yamlQuote(d.Zabbix.ServerFQDN), false},
			{"server_port", strconv.Itoa(c.Zabbix.ServerPort), strconv.Itoa(d.Zabbix.ServerPort), false},
			{"sender_path", yamlQuote(c.Zabbix.SenderPath), yamlQuote(d.Zabbix.SenderPath), false},
		}},
		{"telemetry", []yamlField{
			{"enabled", strconv.FormatBool(c.Telemetry.Enabled), strconv.FormatBool(d.Telemetry.Enabled), false},
			{"otlp_endpoint", yamlQuote(c.Telemetry.OTLPEndpoint), yamlQuote(d.Telemetry.OTLPEndpoint), false},
		}},
	}
}

// renderYAML writes c as YAML, omitting sections and fields left at their
// defaults.
func renderYAML(c *config.Config) ([]byte, error) {
	var b bytes.Buffer
	b.WriteString("# zwsus configuration (migrated from INI)\n")

	for _, s := range configSections(c, config.DefaultConfig()) {
		var lines []string
		for _, f := range s.fields {
			if f.keep || f.value != f.def {
				lines = append(lines, fmt.Sprintf("  %s: %s\n", f.key, f.value))
			}
		}
		if len(lines) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n%s:\n", s.name)
		for _, l := range lines {
			b.WriteString(l)
		}
	}

	if _, err := yaml.Parser().Unmarshal(b.Bytes()); err != nil {
		return nil, fmt.Errorf("rendered YAML does not parse: %w", err)
	}
	return b.Bytes(), nil
}

// yamlQuote double-quotes s when it would not survive as a plain scalar.
func yamlQuote(s string) string {
	if s == "" {
		return `""`
	}
	if !needsQuoting(s) {
		return s
	}
	escaped := strings.ReplaceAll(s, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	return `"` + escaped + `"`
}

func needsQuoting(s string) bool {
	if s != strings.TrimSpace(s) {
		return true
	}
	if strings.ContainsAny(s, `:#"`) {
		return true
	}
	return strings.ContainsRune("-?,[]{}&*!|>'%@`", rune(s[0]))
}
