package console

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
)

// LookupCodepage resolves a codepage name such as "cp866", "CP1251",
// "windows-1252", "866" or "utf-8".
func LookupCodepage(name string) (encoding.Encoding, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return nil, fmt.Errorf("empty codepage name")
	}

	candidates := []string{n}
	if digits := strings.TrimPrefix(n, "cp"); isDigits(digits) {
		if digits == "65001" {
			candidates = []string{"utf-8"}
		} else {
			candidates = append(candidates, "cp"+digits, "windows-"+digits, "ibm"+digits)
		}
	}

	for _, c := range candidates {
		enc, err := ianaindex.IANA.Encoding(c)
		if err == nil && enc != nil {
			return enc, nil
		}
	}
	return nil, fmt.Errorf("unsupported console codepage %q", name)
}

// Encode converts UTF-8 text to the named codepage. Characters the codepage
// cannot represent are replaced. An empty name returns s unchanged.
func Encode(s, name string) (string, error) {
	if name == "" {
		return s, nil
	}
	enc, err := LookupCodepage(name)
	if err != nil {
		return "", err
	}
	out, err := encoding.ReplaceUnsupported(enc.NewEncoder()).String(s)
	if err != nil {
		return "", fmt.Errorf("failed to convert output to %s: %w", name, err)
	}
	return out, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
