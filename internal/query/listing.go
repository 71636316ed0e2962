package query

import (
	"bytes"
	"fmt"

	"github.com/mattn/go-runewidth"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/kidoz/zabbix-wsus-go/internal/console"
	"github.com/kidoz/zabbix-wsus-go/internal/zabbix"
)

const (
	// tableChrome is the border and padding width of a two-column row:
	// "| " + name + " | " + value + " |".
	tableChrome   = 7
	minValueWidth = 8
)

// RenderListing prints every item as a Property/Value table, separated by
// blank lines. Values are cut to fit width columns; width 0 means no limit.
func RenderListing(items []zabbix.Object, width int) (string, error) {
	var buf bytes.Buffer
	first := true
	for _, item := range items {
		if item == nil {
			continue
		}
		if !first {
			buf.WriteByte('\n')
		}
		first = false
		if err := renderItem(&buf, item, width); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

func renderItem(buf *bytes.Buffer, item zabbix.Object, width int) error {
	names := item.PropertyNames()

	valueWidth := 0
	if width > 0 {
		nameWidth := runewidth.StringWidth("Property")
		for _, n := range names {
			nameWidth = max(nameWidth, runewidth.StringWidth(n))
		}
		valueWidth = max(width-nameWidth-tableChrome, minValueWidth)
	}

	table := tablewriter.NewTable(buf,
		tablewriter.WithRenderer(renderer.NewBlueprint(tw.Rendition{
			Symbols: tw.NewSymbols(tw.StyleASCII),
		})),
	)
	table.Header("Property", "Value")

	for _, name := range names {
		v, _ := item.Property(name)
		text := console.Truncate(zabbix.Format(v, zabbix.FormatOptions{}), valueWidth)
		if err := table.Append([]string{name, text}); err != nil {
			return fmt.Errorf("failed to add listing row %s: %w", name, err)
		}
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render listing: %w", err)
	}
	return nil
}
