package config

import (
	"strings"
	"testing"
)

func TestValidateHostTarget(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		wantErr bool
	}{
		{"localhost", "localhost", false},
		{"valid IPv4", "10.0.0.15", false},
		{"valid IPv6", "2001:db8::1", false},
		{"valid FQDN", "wsus01.corp.example.com", false},
		{"netbios name", "WSUS-01", false},
		{"injection attempt", "wsus01'; Remove-Item C:\\ -Recurse; '", true},
		{"subexpression", "$(Get-Process)", true},
		{"empty", "", true},
		{"consecutive dots", "wsus..example.com", true},
		{"starts with dot", ".example.com", true},
		{"starts with hyphen", "-wsus", true},
		{"label too long", strings.Repeat("a", 64) + ".com", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateHostTarget(tt.target)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateHostTarget(%q) error = %v, wantErr %v", tt.target, err, tt.wantErr)
			}
		})
	}
}
