package wsus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/kidoz/zabbix-wsus-go/internal/config"
	"github.com/kidoz/zabbix-wsus-go/internal/telemetry"
)

// ErrConnection reports that the WSUS administration API could not be
// reached or returned no server handle.
var ErrConnection = errors.New("cannot connect to WSUS server")

// Source is the read-only view of a WSUS server.
type Source interface {
	ServerInfo(ctx context.Context) (*Record, error)
	Status(ctx context.Context) (*Record, error)
	DatabaseConfiguration(ctx context.Context) (*Record, error)
	Configuration(ctx context.Context) (*Record, error)
	ComputerGroups(ctx context.Context) ([]*ComputerGroup, error)
	LastSynchronizationInfo(ctx context.Context) (*Record, error)
	SynchronizationStatus(ctx context.Context) (*Record, error)
}

// Client reads WSUS objects by running administration scripts through a
// Runner.
type Client struct {
	cfg     config.WSUSConfig
	log     *slog.Logger
	runner  Runner
	version string
}

// NewClient creates a client and verifies the server answers. Probe failures
// wrap ErrConnection.
func NewClient(cfg *config.Config, runner Runner, log *slog.Logger) (*Client, error) {
	c := &Client{
		cfg:    cfg.WSUS,
		log:    log,
		runner: runner,
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.WSUS.Timeout)*time.Second)
	defer cancel()

	probe, err := c.record(ctx, "probe", probeBody)
	if err != nil {
		return nil, fmt.Errorf("%w %s:%d: %w", ErrConnection, cfg.WSUS.Server, cfg.WSUS.Port, err)
	}
	if v, ok := probe.Property("Version"); ok {
		c.version = v.String()
	}
	c.log.Debug("Connected to WSUS", "server", cfg.WSUS.Server, "port", cfg.WSUS.Port, "version", c.version)

	return c, nil
}

// Version returns the server version reported by the connection probe.
func (c *Client) Version() string { return c.version }

func (c *Client) ServerInfo(ctx context.Context) (*Record, error) {
	return c.record(ctx, "info", infoBody)
}

func (c *Client) Status(ctx context.Context) (*Record, error) {
	return c.record(ctx, "status", statusBody)
}

func (c *Client) DatabaseConfiguration(ctx context.Context) (*Record, error) {
	return c.record(ctx, "database", databaseBody)
}

func (c *Client) Configuration(ctx context.Context) (*Record, error) {
	return c.record(ctx, "configuration", configurationBody)
}

func (c *Client) LastSynchronizationInfo(ctx context.Context) (*Record, error) {
	return c.record(ctx, "lastsynchronization", lastSynchronizationBody)
}

func (c *Client) SynchronizationStatus(ctx context.Context) (*Record, error) {
	return c.record(ctx, "synchronizationstatus", synchronizationStatusBody)
}

func (c *Client) ComputerGroups(ctx context.Context) ([]*ComputerGroup, error) {
	out, err := c.run(ctx, "computergroup", computerGroupsBody)
	if err != nil {
		return nil, err
	}
	groups, err := ParseComputerGroups(out)
	if err != nil {
		return nil, fmt.Errorf("failed to decode computer groups: %w", err)
	}
	c.log.Debug("Fetched computer groups", "count", len(groups))
	return groups, nil
}

func (c *Client) record(ctx context.Context, object, body string) (*Record, error) {
	out, err := c.run(ctx, object, body)
	if err != nil {
		return nil, err
	}
	rec, err := ParseRecord(out)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", object, err)
	}
	return rec, nil
}

func (c *Client) run(ctx context.Context, object, body string) (string, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "wsus.Run")
	defer span.End()
	span.SetAttributes(
		attribute.String("wsus.server", c.cfg.Server),
		attribute.String("wsus.object", object),
	)

	out, err := c.runner.Run(ctx, buildScript(c.cfg, body))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("failed to read %s: %w", object, err)
	}
	return out, nil
}
