package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kidoz/zabbix-wsus-go/internal/console"
	"github.com/kidoz/zabbix-wsus-go/internal/query"
	"github.com/kidoz/zabbix-wsus-go/internal/wsus"
)

var (
	discoveryPretty bool
	getKey          string
	getID           string
	countID         string
)

var discoveryCmd = &cobra.Command{
	Use:   "discovery <object>",
	Short: "Print low-level discovery JSON for an object collection",
	Long: `Print Zabbix low-level discovery JSON for an object collection.

Only computergroup defines discovery macros ({#NAME}, {#ID}); other
objects print an empty data array.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: objectNames(),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuery(cmd, query.ActionDiscovery, args[0], "", nil, discoveryPretty)
	},
}

var getCmd = &cobra.Command{
	Use:   "get <object>",
	Short: "Print one metric of an object",
	Long: `Print the value at --key for each selected object, one per line.

Without --key every object is printed as a Property/Value table.
--id selects a single computer group by its Id.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: objectNames(),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuery(cmd, query.ActionGet, args[0], getKey, flagID(cmd, getID), false)
	},
}

var countCmd = &cobra.Command{
	Use:       "count <object>",
	Short:     "Print the number of objects in a collection",
	Args:      cobra.ExactArgs(1),
	ValidArgs: objectNames(),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuery(cmd, query.ActionCount, args[0], "", flagID(cmd, countID), false)
	},
}

func init() {
	discoveryCmd.Flags().BoolVar(&discoveryPretty, "pretty", false, "indent the discovery JSON")

	getCmd.Flags().StringVarP(&getKey, "key", "k", "", "dotted property path, e.g. Summaries.Count")
	getCmd.Flags().StringVar(&getID, "id", "", "computer group Id")

	countCmd.Flags().StringVar(&countID, "id", "", "computer group Id")

	rootCmd.AddCommand(discoveryCmd, getCmd, countCmd)
}

// flagID distinguishes an omitted --id from an explicit empty one.
func flagID(cmd *cobra.Command, value string) *string {
	if !cmd.Flags().Changed("id") {
		return nil
	}
	return &value
}

func objectNames() []string {
	names := make([]string, len(query.Kinds))
	for i, k := range query.Kinds {
		names[i] = string(k)
	}
	return names
}

func runQuery(cmd *cobra.Command, action query.Action, object, key string, id *string, pretty bool) error {
	log := GetLogger()
	cfg := GetConfig()

	req, err := query.NewRequest(string(action), object, key, id, pretty || cfg.Output.Pretty)
	if err != nil {
		return err
	}
	if cfg.Output.ConsoleCP != "" {
		if _, err := console.LookupCodepage(cfg.Output.ConsoleCP); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := query.Options{
		ErrorCode: cfg.Output.ErrorCode,
		Width:     console.Width(cfg.Output.ConsoleWidth, defaultConsoleWidth, os.Stdout.Fd()),
	}

	log.Debug("Running query",
		"action", req.Action,
		"object", req.Object,
		"key", req.Key,
		"width", opts.Width,
	)

	out, err := executeQuery(ctx, req, opts)
	if err != nil {
		if !isTerminal(err) {
			return err
		}
		log.Warn("Query returned no value", "error", err)
		out = terminalOutput(err, opts.ErrorCode)
	}

	if sendHost != "" {
		s, err := initSender(cfg, log)
		if err != nil {
			return fmt.Errorf("failed to initialize sender: %w", err)
		}
		if err := s.SendValue(ctx, sendHost, sendKey, out); err != nil {
			return err
		}
		log.Info("Value sent to Zabbix", "host", sendHost, "key", sendKey)
		return nil
	}

	return writeValue(cmd.OutOrStdout(), out, cfg.Output.ConsoleCP)
}

func executeQuery(ctx context.Context, req query.Request, opts query.Options) (string, error) {
	d, err := initDispatcher(GetConfig(), GetLogger())
	if err != nil {
		if isTerminal(err) {
			return "", err
		}
		return "", fmt.Errorf("failed to initialize dispatcher: %w", err)
	}
	return d.Run(ctx, req, opts)
}

// isTerminal reports whether err ends the query with a printed value
// instead of a failed command.
func isTerminal(err error) bool {
	return errors.Is(err, wsus.ErrConnection) || errors.Is(err, query.ErrEmptyCollection)
}

// terminalOutput is the value printed for a terminal error: the configured
// error code, or a warning line.
func terminalOutput(err error, code string) string {
	if code != "" {
		return code
	}
	return "Warning: " + err.Error()
}

func writeValue(w io.Writer, value, codepage string) error {
	encoded, err := console.Encode(value, codepage)
	if err != nil {
		return err
	}
	if !strings.HasSuffix(encoded, "\n") {
		encoded += "\n"
	}
	_, err = io.WriteString(w, encoded)
	return err
}
