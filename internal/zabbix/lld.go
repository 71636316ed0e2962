package zabbix

import "strings"

// emptyJSONString stands in for Null inside discovery documents, which must
// stay valid JSON.
const emptyJSONString = `""`

// EmitDiscoveryJSON renders items as a Zabbix Low-Level Discovery document:
//
//	{"data":[{"{#NAME}":"G1", "{#ID}":"abc"},{...}]}
//
// Each selected property becomes a {#PROPERTY} macro (upper-cased). Nil items
// are left out, and so is every entry when no properties are selected. With pretty
// set the document is spread over lines and indented with tabs.
func EmitDiscoveryJSON(items []Object, properties []string, pretty bool) string {
	var (
		nl, sp       string
		propSep      = ", "
		entrySep     = ","
		indent1      string
		indent2      string
		indent3      string
		fallbackNull = emptyJSONString
	)
	if pretty {
		nl, sp = "\n", " "
		indent1, indent2, indent3 = "\t", "\t\t", "\t\t\t"
		propSep = "," + nl
		entrySep = "," + nl
	}

	opts := FormatOptions{Fallback: &fallbackNull, Escape: true, JSONQuote: true}

	entries := make([]string, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		pairs := make([]string, 0, len(properties))
		for _, name := range properties {
			v, ok := item.Property(name)
			if !ok {
				v = Null
			}
			macro := `"{#` + escaper.Replace(strings.ToUpper(name)) + `}":`
			pairs = append(pairs, indent3+macro+sp+Format(v, opts))
		}
		if len(pairs) == 0 {
			continue
		}
		entries = append(entries, indent2+"{"+nl+strings.Join(pairs, propSep)+nl+indent2+"}")
	}

	var b strings.Builder
	b.WriteString("{" + nl)
	b.WriteString(indent1 + `"data":` + sp + "[" + nl)
	if len(entries) > 0 {
		b.WriteString(strings.Join(entries, entrySep))
		b.WriteString(nl)
	}
	b.WriteString(indent1 + "]" + nl)
	b.WriteString("}")
	return b.String()
}
