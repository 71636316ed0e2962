package wsus

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/kidoz/zabbix-wsus-go/internal/zabbix"
)

// Record is a read-only WSUS object decoded from ConvertTo-Json output.
// Members keep their document order. A nil *Record has no properties.
type Record struct {
	names  []string
	values map[string]zabbix.Value
	raw    string
}

// msDateRe matches the Windows PowerShell 5.1 date form "/Date(1700000000000)/",
// optionally with a "+0100" offset suffix that does not change the instant.
var msDateRe = regexp.MustCompile(`^/Date\((-?\d+)([+-]\d{4})?\)/$`)

// localDateLayouts are tried for PowerShell 7 style timestamps.
var localDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.9999999",
	"2006-01-02T15:04:05",
}

// ParseRecord decodes a single JSON object.
func ParseRecord(data string) (*Record, error) {
	res, err := parseDocument(data)
	if err != nil {
		return nil, err
	}
	if !res.IsObject() {
		return nil, fmt.Errorf("expected a JSON object, got %s", describe(res))
	}
	return recordFrom(res), nil
}

// parseDocument validates PowerShell output and returns the top-level value.
func parseDocument(data string) (gjson.Result, error) {
	data = strings.TrimSpace(strings.TrimPrefix(data, "\ufeff"))
	if data == "" {
		return gjson.Result{}, fmt.Errorf("empty PowerShell output")
	}
	if !gjson.Valid(data) {
		return gjson.Result{}, fmt.Errorf("invalid JSON in PowerShell output: %.80q", data)
	}
	return gjson.Parse(data), nil
}

func recordFrom(res gjson.Result) *Record {
	r := &Record{values: make(map[string]zabbix.Value), raw: res.Raw}
	res.ForEach(func(key, value gjson.Result) bool {
		name := key.String()
		if _, dup := r.values[name]; !dup {
			r.names = append(r.names, name)
		}
		r.values[name] = valueFrom(value)
		return true
	})
	return r
}

func valueFrom(res gjson.Result) zabbix.Value {
	switch {
	case res.IsObject():
		return zabbix.ObjectValue(recordFrom(res))
	case res.IsArray():
		items := res.Array()
		list := make(List, 0, len(items))
		for _, item := range items {
			list = append(list, valueFrom(item))
		}
		return zabbix.ObjectValue(list)
	}

	switch res.Type {
	case gjson.True:
		return zabbix.BoolValue(true)
	case gjson.False:
		return zabbix.BoolValue(false)
	case gjson.Number:
		return zabbix.NumberValue(res.Raw)
	case gjson.String:
		return stringValue(res.Str)
	default:
		return zabbix.Null
	}
}

// stringValue recognises dates and GUIDs that ConvertTo-Json flattens to
// strings.
func stringValue(s string) zabbix.Value {
	if m := msDateRe.FindStringSubmatch(s); m != nil {
		if ms, err := strconv.ParseInt(m[1], 10, 64); err == nil {
			return zabbix.TimeValue(time.UnixMilli(ms).UTC())
		}
	}
	if len(s) >= len("2006-01-02T15:04:05") && s[4] == '-' && s[10] == 'T' {
		for _, layout := range localDateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return zabbix.TimeValue(t)
			}
		}
	}
	if len(s) == 36 {
		if id, err := uuid.Parse(s); err == nil {
			return zabbix.GUIDValue(id)
		}
	}
	return zabbix.StringValue(s)
}

// Property looks a member up by its exact name, then case-insensitively as
// the administration shell would.
func (r *Record) Property(name string) (zabbix.Value, bool) {
	if r == nil {
		return zabbix.Null, false
	}
	if v, ok := r.values[name]; ok {
		return v, true
	}
	for _, n := range r.names {
		if strings.EqualFold(n, name) {
			return r.values[n], true
		}
	}
	return zabbix.Null, false
}

// PropertyNames returns member names in document order.
func (r *Record) PropertyNames() []string {
	if r == nil {
		return nil
	}
	return r.names
}

// String returns the compact JSON the record was decoded from.
func (r *Record) String() string {
	if r == nil {
		return ""
	}
	return r.raw
}

// List is a decoded JSON array. It exposes Count and positional members
// ("0", "1", ...).
type List []zabbix.Value

// Property implements zabbix.Object.
func (l List) Property(name string) (zabbix.Value, bool) {
	if strings.EqualFold(name, "Count") || strings.EqualFold(name, "Length") {
		return zabbix.IntValue(int64(len(l))), true
	}
	i, err := strconv.Atoi(name)
	if err != nil || i < 0 || i >= len(l) {
		return zabbix.Null, false
	}
	return l[i], true
}

// PropertyNames implements zabbix.Object.
func (l List) PropertyNames() []string { return []string{"Count"} }

// String renders the element count.
func (l List) String() string { return strconv.Itoa(len(l)) }

func describe(res gjson.Result) string {
	switch {
	case res.IsArray():
		return "array"
	case res.Type == gjson.String:
		return "string"
	case res.Type == gjson.Number:
		return "number"
	case res.Type == gjson.Null:
		return "null"
	default:
		return res.Type.String()
	}
}
