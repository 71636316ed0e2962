package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/benbjohnson/clock"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/kidoz/zabbix-wsus-go/internal/telemetry"
	"github.com/kidoz/zabbix-wsus-go/internal/wsus"
	"github.com/kidoz/zabbix-wsus-go/internal/zabbix"
)

// ErrEmptyCollection is returned by get when nothing matched.
var ErrEmptyCollection = errors.New("object collection is empty")

// discoveryProperties lists the LLD macros per object kind.
var discoveryProperties = map[Kind][]string{
	KindComputerGroup: {"Name", "Id"},
}

// DiscoveryProperties returns the LLD properties of kind, or nil if the
// kind has none.
func DiscoveryProperties(kind Kind) []string {
	return discoveryProperties[kind]
}

// Options controls rendering of one query.
type Options struct {
	// ErrorCode replaces missing values; empty means render them as "".
	ErrorCode string
	// Width limits listing columns; 0 means unlimited.
	Width int
}

// Dispatcher builds object collections from a WSUS source and applies
// actions to them.
type Dispatcher struct {
	source wsus.Source
	clock  clock.Clock
	log    *slog.Logger
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(source wsus.Source, clk clock.Clock, log *slog.Logger) *Dispatcher {
	return &Dispatcher{
		source: source,
		clock:  clk,
		log:    log,
	}
}

// Build reads the collection for kind. The id filter applies to computer
// groups only; every other kind is a single object.
func (d *Dispatcher) Build(ctx context.Context, kind Kind, id *string) ([]zabbix.Object, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "query.Build")
	defer span.End()
	span.SetAttributes(attribute.String("wsus.object", string(kind)))

	items, err := d.build(ctx, kind, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("items", len(items)))
	return items, nil
}

func (d *Dispatcher) build(ctx context.Context, kind Kind, id *string) ([]zabbix.Object, error) {
	if id != nil && kind != KindComputerGroup {
		d.log.Debug("Ignoring id filter for single-object kind", "object", kind, "id", *id)
	}

	var read func(context.Context) (*wsus.Record, error)
	switch kind {
	case KindInfo:
		read = d.source.ServerInfo
	case KindStatus:
		read = d.source.Status
	case KindDatabase:
		read = d.source.DatabaseConfiguration
	case KindConfiguration:
		read = d.source.Configuration
	case KindSynchronizationStatus:
		read = d.source.SynchronizationStatus
	case KindLastSynchronization:
		rec, err := d.source.LastSynchronizationInfo(ctx)
		if err != nil {
			return nil, err
		}
		return []zabbix.Object{wsus.NewLastSynchronization(rec, d.clock.Now())}, nil
	case KindComputerGroup:
		groups, err := d.source.ComputerGroups(ctx)
		if err != nil {
			return nil, err
		}
		selected := wsus.SelectByIdOrAll(groups, "Id", id)
		items := make([]zabbix.Object, 0, len(selected))
		for _, g := range selected {
			items = append(items, g)
		}
		return items, nil
	default:
		return nil, fmt.Errorf("unknown object kind %q", kind)
	}

	rec, err := read(ctx)
	if err != nil {
		return nil, err
	}
	return []zabbix.Object{rec}, nil
}

// Run builds the collection for req and applies its action.
func (d *Dispatcher) Run(ctx context.Context, req Request, opts Options) (string, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "query.Run")
	defer span.End()
	span.SetAttributes(
		attribute.String("query.action", string(req.Action)),
		attribute.String("wsus.object", string(req.Object)),
	)

	items, err := d.Build(ctx, req.Object, req.ID)
	if err != nil {
		return "", err
	}

	d.log.Debug("Built object collection", "object", req.Object, "items", len(items))

	switch req.Action {
	case ActionDiscovery:
		return zabbix.EmitDiscoveryJSON(items, DiscoveryProperties(req.Object), req.Pretty), nil
	case ActionGet:
		return d.get(items, req.Key, opts)
	case ActionCount:
		return strconv.Itoa(len(items)), nil
	default:
		return "", fmt.Errorf("unknown action %q", req.Action)
	}
}

func (d *Dispatcher) get(items []zabbix.Object, key string, opts Options) (string, error) {
	if len(items) == 0 {
		return "", ErrEmptyCollection
	}
	if key == "" {
		return RenderListing(items, opts.Width)
	}

	path := zabbix.SplitKey(key)
	format := zabbix.FormatOptions{
		Fallback: zabbix.Fallback(opts.ErrorCode),
		Escape:   true,
	}

	values := make([]string, 0, len(items))
	for _, item := range items {
		v := zabbix.Resolve(zabbix.ObjectValue(item), path)
		if v.IsNull() {
			d.log.Debug("Metric not found", "key", key)
		}
		values = append(values, zabbix.Format(v, format))
	}
	return strings.Join(values, "\n"), nil
}
