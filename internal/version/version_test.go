// ABOUTME: Tests for version constants
// ABOUTME: Checks the identification strings sent in server/hello
package version

import (
	"strings"
	"testing"
)

func TestIdentification(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"Version", Version},
		{"Product", Product},
		{"Manufacturer", Manufacturer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if strings.TrimSpace(tt.value) == "" {
				t.Fatalf("%s should not be empty", tt.name)
			}
			if len(tt.value) > 100 {
				t.Errorf("%s is unreasonably long: %d bytes", tt.name, len(tt.value))
			}
			for _, placeholder := range []string{"TODO", "FIXME", "XXX", "placeholder"} {
				if tt.value == placeholder {
					t.Errorf("%s should not be placeholder value %q", tt.name, placeholder)
				}
			}
		})
	}
}

func TestVersionLooksSemantic(t *testing.T) {
	if Version == "dev" {
		return
	}
	if parts := strings.Split(Version, "."); len(parts) != 3 {
		t.Errorf("Version %q is not major.minor.patch", Version)
	}
}
