package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kidoz/zabbix-wsus-go/internal/config"
)

func TestYamlQuote(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", `""`},
		{"simple", "hello", "hello"},
		{"contains colon", "http://localhost", `"http://localhost"`},
		{"leading space", " hello", `" hello"`},
		{"trailing space", "hello ", `"hello "`},
		{"double quote escaping", `say "hi"`, `"say \"hi\""`},
		{"no special chars", `path\to`, `path\to`},
		{"contains hash", "value#comment", `"value#comment"`},
		{"leading dash", "-1", `"-1"`},
		{"backslash escaped when quoted", `C:\x: y`, `"C:\\x: y"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := yamlQuote(tt.input)
			if got != tt.want {
				t.Errorf("yamlQuote(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestRenderYAML_Timeout(t *testing.T) {
	cfg := config.DefaultConfig()

	t.Run("non-default timeout is written", func(t *testing.T) {
		cfg.WSUS.Timeout = 90
		out, err := renderYAML(cfg)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(out), "timeout: 90") {
			t.Errorf("expected timeout: 90 in output, got:\n%s", string(out))
		}
	})

	t.Run("default timeout is omitted", func(t *testing.T) {
		cfg.WSUS.Timeout = 30 // default
		out, err := renderYAML(cfg)
		if err != nil {
			t.Fatal(err)
		}
		if strings.Contains(string(out), "timeout") {
			t.Errorf("expected timeout to be omitted for default value, got:\n%s", string(out))
		}
	})
}

func TestRenderYAML_DefaultSectionsOmitted(t *testing.T) {
	out, err := renderYAML(config.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	s := string(out)
	for _, want := range []string{"wsus:", "server: localhost", "port: 8530", "transport: local"} {
		if !strings.Contains(s, want) {
			t.Errorf("missing %q in:\n%s", want, s)
		}
	}
	for _, absent := range []string{"winrm:", "output:", "zabbix:", "telemetry:"} {
		if strings.Contains(s, absent) {
			t.Errorf("unexpected %q in:\n%s", absent, s)
		}
	}
}

func TestRenderYAML_RoundTrip(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.WSUS.Server = "wsus01.corp.local"
	cfg.WSUS.Transport = config.TransportWinRM
	cfg.WinRM.Host = "wsus01.corp.local"
	cfg.WinRM.User = "svc-zabbix"
	cfg.WinRM.Password = `p@ss:"word"#1`
	cfg.Output.ErrorCode = "-1"
	cfg.Output.ConsoleCP = "cp866"

	out, err := renderYAML(cfg)
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "zwsus.yaml")
	if err := os.WriteFile(path, out, 0o600); err != nil {
		t.Fatal(err)
	}
	got, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load(rendered) error: %v\n%s", err, out)
	}

	if got.WSUS.Server != cfg.WSUS.Server {
		t.Errorf("Server = %q", got.WSUS.Server)
	}
	if got.WSUS.Transport != config.TransportWinRM {
		t.Errorf("Transport = %q", got.WSUS.Transport)
	}
	if got.WinRM.Password != cfg.WinRM.Password {
		t.Errorf("Password = %q, want %q", got.WinRM.Password, cfg.WinRM.Password)
	}
	if got.Output.ErrorCode != "-1" {
		t.Errorf("ErrorCode = %q", got.Output.ErrorCode)
	}
	if got.Output.ConsoleCP != "cp866" {
		t.Errorf("ConsoleCP = %q", got.Output.ConsoleCP)
	}
}
