package zabbix

import "strings"

// FormatOptions controls how Format renders a value.
type FormatOptions struct {
	// Fallback replaces a Null value. Nil means "render Null as empty".
	Fallback *string
	// Escape backslash-escapes '\' and '"'.
	Escape bool
	// JSONQuote wraps string and identifier values in double quotes.
	JSONQuote bool
}

// escaper handles '\' and '"' in a single pass, so inserted backslashes
// are never escaped twice.
var escaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// Format renders v as a Zabbix item value.
//
// Booleans become 0/1 and timestamps become seconds since the Unix epoch.
// Everything else uses its natural text, trimmed. Numbers are never quoted.
func Format(v Value, opts FormatOptions) string {
	if v.kind == KindNull {
		if opts.Fallback != nil {
			return *opts.Fallback
		}
		return ""
	}

	s := strings.TrimSpace(v.natural())
	if opts.Escape {
		s = escaper.Replace(s)
	}
	if opts.JSONQuote && (v.kind == KindString || v.kind == KindGUID) {
		s = `"` + s + `"`
	}
	return s
}

// Fallback is a convenience for building FormatOptions.Fallback from an
// optional error code; an empty code means no fallback.
func Fallback(code string) *string {
	if code == "" {
		return nil
	}
	return &code
}
