package main

import "testing"

func TestHostOf(t *testing.T) {
	tests := []struct {
		base string
		want string
	}{
		{"http://localhost:5000", "localhost:5000"},
		{"https://pi.local", "pi.local"},
		{"not a url", "not a url"},
	}
	for _, tt := range tests {
		if got := hostOf(tt.base); got != tt.want {
			t.Errorf("hostOf(%q) = %q, want %q", tt.base, got, tt.want)
		}
	}
}
