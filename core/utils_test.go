package core

import "testing"

func TestCleanString(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		lower bool
		want  string
	}{
		{"trims whitespace", "  hello \t\n", false, "hello"},
		{"keeps case by default", "  John.Doe@Example.COM ", false, "John.Doe@Example.COM"},
		{"lowers when asked", " John.Doe@Example.COM ", true, "john.doe@example.com"},
		{"empty stays empty", "   ", true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			if tt.lower {
				got = CleanString(tt.in, true)
			} else {
				got = CleanString(tt.in)
			}
			if got != tt.want {
				t.Errorf("CleanString(%q) = %q; want %q", tt.in, got, tt.want)
			}
		})
	}
}
