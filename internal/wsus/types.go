package wsus

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/kidoz/zabbix-wsus-go/internal/zabbix"
)

// accessor is a named, typed property getter.
type accessor[T any] struct {
	name string
	get  func(T) zabbix.Value
}

// accessorTable resolves property names for one domain type. Lookups try
// the exact name first, then a case-insensitive match.
type accessorTable[T any] []accessor[T]

func (t accessorTable[T]) lookup(obj T, name string) (zabbix.Value, bool) {
	for _, a := range t {
		if a.name == name {
			return a.get(obj), true
		}
	}
	for _, a := range t {
		if strings.EqualFold(a.name, name) {
			return a.get(obj), true
		}
	}
	return zabbix.Null, false
}

func (t accessorTable[T]) names() []string {
	out := make([]string, len(t))
	for i, a := range t {
		out[i] = a.name
	}
	return out
}

// ComputerTargetSummary holds the per-computer update counters of one group.
type ComputerTargetSummary struct {
	ComputerTargetId            string
	FailedCount                 int64
	NotInstalledCount           int64
	DownloadedCount             int64
	InstalledPendingRebootCount int64
	UnknownCount                int64
	InstalledCount              int64
}

func (s *ComputerTargetSummary) pendingCount() int64 {
	return s.NotInstalledCount + s.DownloadedCount + s.InstalledPendingRebootCount
}

var summaryAccessors = accessorTable[*ComputerTargetSummary]{
	{"ComputerTargetId", func(s *ComputerTargetSummary) zabbix.Value { return zabbix.StringValue(s.ComputerTargetId) }},
	{"FailedCount", func(s *ComputerTargetSummary) zabbix.Value { return zabbix.IntValue(s.FailedCount) }},
	{"NotInstalledCount", func(s *ComputerTargetSummary) zabbix.Value { return zabbix.IntValue(s.NotInstalledCount) }},
	{"DownloadedCount", func(s *ComputerTargetSummary) zabbix.Value { return zabbix.IntValue(s.DownloadedCount) }},
	{"InstalledPendingRebootCount", func(s *ComputerTargetSummary) zabbix.Value {
		return zabbix.IntValue(s.InstalledPendingRebootCount)
	}},
	{"UnknownCount", func(s *ComputerTargetSummary) zabbix.Value { return zabbix.IntValue(s.UnknownCount) }},
	{"InstalledCount", func(s *ComputerTargetSummary) zabbix.Value { return zabbix.IntValue(s.InstalledCount) }},
	{"Status", func(s *ComputerTargetSummary) zabbix.Value { return zabbix.StringValue(Classify(s).String()) }},
}

// Property implements zabbix.Object.
func (s *ComputerTargetSummary) Property(name string) (zabbix.Value, bool) {
	if s == nil {
		return zabbix.Null, false
	}
	return summaryAccessors.lookup(s, name)
}

// PropertyNames implements zabbix.Object.
func (s *ComputerTargetSummary) PropertyNames() []string { return summaryAccessors.names() }

// SummaryList is a derived set of computer targets. Its only property is Count.
type SummaryList []*ComputerTargetSummary

// Property implements zabbix.Object.
func (l SummaryList) Property(name string) (zabbix.Value, bool) {
	if strings.EqualFold(name, "Count") {
		return zabbix.IntValue(int64(len(l))), true
	}
	return zabbix.Null, false
}

// PropertyNames implements zabbix.Object.
func (l SummaryList) PropertyNames() []string { return []string{"Count"} }

// String renders the count.
func (l SummaryList) String() string { return strconv.Itoa(len(l)) }

// ComputerGroup is a computer target group with its per-computer summaries.
type ComputerGroup struct {
	Id          uuid.UUID
	Name        string
	Description string
	Summaries   []*ComputerTargetSummary
}

// ComputerTargets returns every summary in the group.
func (g *ComputerGroup) ComputerTargets() SummaryList {
	if g == nil {
		return nil
	}
	return SummaryList(g.Summaries)
}

// ComputerTargetsIn returns the summaries matching bucket b. Each bucket is
// filtered on its own, so one summary may appear in several of them.
func (g *ComputerGroup) ComputerTargetsIn(b Bucket) SummaryList {
	if g == nil {
		return nil
	}
	var out SummaryList
	for _, s := range g.Summaries {
		if InBucket(s, b) {
			out = append(out, s)
		}
	}
	return out
}

var groupAccessors = accessorTable[*ComputerGroup]{
	{"Name", func(g *ComputerGroup) zabbix.Value { return zabbix.StringValue(g.Name) }},
	{"Id", func(g *ComputerGroup) zabbix.Value { return zabbix.GUIDValue(g.Id) }},
	{"Description", func(g *ComputerGroup) zabbix.Value { return zabbix.StringValue(g.Description) }},
	{"ComputerTargets", func(g *ComputerGroup) zabbix.Value { return zabbix.ObjectValue(g.ComputerTargets()) }},
	{"ComputerTargetsWithUpdateErrors", func(g *ComputerGroup) zabbix.Value {
		return zabbix.ObjectValue(g.ComputerTargetsIn(BucketError))
	}},
	{"ComputerTargetsNeedingUpdates", func(g *ComputerGroup) zabbix.Value {
		return zabbix.ObjectValue(g.ComputerTargetsIn(BucketNeedingUpdates))
	}},
	{"ComputerTargetsUpToDate", func(g *ComputerGroup) zabbix.Value {
		return zabbix.ObjectValue(g.ComputerTargetsIn(BucketUpToDate))
	}},
	{"ComputerTargetsWithoutStatus", func(g *ComputerGroup) zabbix.Value {
		return zabbix.ObjectValue(g.ComputerTargetsIn(BucketUnknown))
	}},
}

// Property implements zabbix.Object.
func (g *ComputerGroup) Property(name string) (zabbix.Value, bool) {
	if g == nil {
		return zabbix.Null, false
	}
	return groupAccessors.lookup(g, name)
}

// PropertyNames implements zabbix.Object.
func (g *ComputerGroup) PropertyNames() []string { return groupAccessors.names() }

// LastSynchronization is the last synchronization record plus the number
// of whole days since it started.
type LastSynchronization struct {
	*Record
	NotSyncInDays *int64
}

// NewLastSynchronization derives NotSyncInDays from the record's StartTime.
// Without a usable StartTime the derived field is null.
func NewLastSynchronization(rec *Record, now time.Time) *LastSynchronization {
	ls := &LastSynchronization{Record: rec}
	v, _ := rec.Property("StartTime")
	if start, ok := v.Time(); ok {
		days := int64(now.Sub(start) / (24 * time.Hour))
		ls.NotSyncInDays = &days
	}
	return ls
}

// Property implements zabbix.Object.
func (l *LastSynchronization) Property(name string) (zabbix.Value, bool) {
	if l == nil {
		return zabbix.Null, false
	}
	if strings.EqualFold(name, "NotSyncInDays") {
		if l.NotSyncInDays == nil {
			return zabbix.Null, true
		}
		return zabbix.IntValue(*l.NotSyncInDays), true
	}
	return l.Record.Property(name)
}

// PropertyNames implements zabbix.Object.
func (l *LastSynchronization) PropertyNames() []string {
	if l == nil {
		return nil
	}
	names := append([]string(nil), l.Record.PropertyNames()...)
	return append(names, "NotSyncInDays")
}

// ParseComputerGroups decodes the computer group script output. A single
// object is accepted as a one-element list.
func ParseComputerGroups(data string) ([]*ComputerGroup, error) {
	res, err := parseDocument(data)
	if err != nil {
		return nil, err
	}

	var items []gjson.Result
	switch {
	case res.IsArray():
		items = res.Array()
	case res.IsObject():
		items = []gjson.Result{res}
	case res.Type == gjson.Null:
		return nil, nil
	default:
		return nil, fmt.Errorf("expected computer groups, got %s", describe(res))
	}

	groups := make([]*ComputerGroup, 0, len(items))
	for i, item := range items {
		if !item.IsObject() {
			continue
		}
		id, err := uuid.Parse(item.Get("Id").String())
		if err != nil {
			return nil, fmt.Errorf("computer group %d: invalid Id: %w", i, err)
		}
		g := &ComputerGroup{
			Id:          id,
			Name:        item.Get("Name").String(),
			Description: item.Get("Description").String(),
		}
		summaries := item.Get("Summaries")
		if summaries.IsObject() {
			g.Summaries = append(g.Summaries, parseSummary(summaries))
		} else {
			summaries.ForEach(func(_, s gjson.Result) bool {
				if s.IsObject() {
					g.Summaries = append(g.Summaries, parseSummary(s))
				}
				return true
			})
		}
		groups = append(groups, g)
	}
	return groups, nil
}

func parseSummary(res gjson.Result) *ComputerTargetSummary {
	return &ComputerTargetSummary{
		ComputerTargetId:            res.Get("ComputerTargetId").String(),
		FailedCount:                 res.Get("FailedCount").Int(),
		NotInstalledCount:           res.Get("NotInstalledCount").Int(),
		DownloadedCount:             res.Get("DownloadedCount").Int(),
		InstalledPendingRebootCount: res.Get("InstalledPendingRebootCount").Int(),
		UnknownCount:                res.Get("UnknownCount").Int(),
		InstalledCount:              res.Get("InstalledCount").Int(),
	}
}
