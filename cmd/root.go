package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/kidoz/zabbix-wsus-go/internal/config"
	"github.com/kidoz/zabbix-wsus-go/internal/telemetry"
)

var (
	cfgFile             string
	verbose             bool
	errorCode           string
	consoleCP           string
	defaultConsoleWidth bool
	sendHost            string
	sendKey             string
	cfg                 *config.Config
	log                 *slog.Logger
	otelShutdown        func(context.Context) error
)

var rootCmd = &cobra.Command{
	Use:   "zwsus",
	Short: "Zabbix WSUS - query a WSUS server for Zabbix",
	Long: `zwsus reads state from a Windows Server Update Services server
(server info, status, database, configuration, computer groups and
synchronization) and prints one value per call in the shape Zabbix
expects: low-level discovery JSON, a single metric, or an object count.

It is meant to be called from Zabbix agent UserParameters or pushed
to trapper items with --send-host/--send-key.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for commands that handle their own config
		if cmd.Name() == "version" || cmd.Name() == "migrate-config" {
			return nil
		}

		log = newLogger(verbose, os.Stderr)

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		applyFlagOverrides(cmd, cfg)

		if (sendHost == "") != (sendKey == "") {
			return fmt.Errorf("--send-host and --send-key must be used together")
		}

		otelShutdown, err = telemetry.Init(context.Background(), &cfg.Telemetry, verbose)
		if err != nil {
			return fmt.Errorf("failed to init telemetry: %w", err)
		}

		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if otelShutdown != nil {
			return otelShutdown(context.Background())
		}
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&cfgFile, "config", "c", config.FindConfigPath(), "config file path")
	pf.BoolVarP(&verbose, "verbose", "v", false, "enable verbose output on stderr")
	pf.StringVar(&errorCode, "error-code", "", "value printed instead of a warning when the server is unreachable or a value is missing")
	pf.StringVar(&consoleCP, "console-cp", "", "codepage for printed output (e.g. cp866, windows-1251, 65001)")
	pf.BoolVar(&defaultConsoleWidth, "default-console-width", false, "keep the terminal's own width instead of output.console_width")
	pf.StringVar(&sendHost, "send-host", "", "push the value to this Zabbix host with zabbix_sender instead of printing it")
	pf.StringVar(&sendKey, "send-key", "", "trapper item key used with --send-host")
}

// applyFlagOverrides copies explicitly set output flags over file and env values.
func applyFlagOverrides(cmd *cobra.Command, c *config.Config) {
	if cmd.Flags().Changed("error-code") {
		c.Output.ErrorCode = errorCode
	}
	if cmd.Flags().Changed("console-cp") {
		c.Output.ConsoleCP = consoleCP
	}
}

func GetConfig() *config.Config {
	return cfg
}

func GetLogger() *slog.Logger {
	return log
}

func newLogger(verbose bool, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
