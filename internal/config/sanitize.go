package config

import (
	"fmt"
	"net"
	"regexp"
	"strings"
)

// fqdnRe validates a hostname: starts and ends with alphanumeric, allows
// dots and hyphens in between. Label and total lengths are checked in
// isValidFQDN.
var fqdnRe = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9.-]{0,251}[a-zA-Z0-9])?$`)

// ValidateHostTarget validates that the given string is a valid IP address or
// hostname. The value ends up inside a PowerShell script and a WinRM URL, so
// anything else is rejected.
func ValidateHostTarget(target string) error {
	if target == "" {
		return fmt.Errorf("host is empty")
	}
	if net.ParseIP(target) != nil {
		return nil
	}
	if isValidFQDN(target) {
		return nil
	}
	return fmt.Errorf("invalid host (not a valid IP or hostname): %q", target)
}

// isValidFQDN checks if s is a valid fully-qualified domain name.
func isValidFQDN(s string) bool {
	if len(s) > 253 {
		return false
	}
	if !fqdnRe.MatchString(s) {
		return false
	}
	for _, label := range strings.Split(s, ".") {
		if len(label) == 0 || len(label) > 63 {
			return false
		}
	}
	return true
}
