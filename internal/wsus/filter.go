package wsus

import "github.com/kidoz/zabbix-wsus-go/internal/zabbix"

// SelectByIdOrAll returns the items whose idProperty equals id exactly, or
// all items when id is nil. An empty or "0" id is still a filter value.
func SelectByIdOrAll[T zabbix.Object](items []T, idProperty string, id *string) []T {
	if id == nil {
		return items
	}
	var out []T
	for _, item := range items {
		v, ok := item.Property(idProperty)
		if !ok || v.IsNull() {
			continue
		}
		if zabbix.Format(v, zabbix.FormatOptions{}) == *id {
			out = append(out, item)
		}
	}
	return out
}
