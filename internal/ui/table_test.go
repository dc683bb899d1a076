package ui

import (
	"strings"
	"testing"
)

func TestRenderTable(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		rows    [][]string
		want    []string
	}{
		{
			name:    "registered forms",
			headers: []string{"NAME", "PATH", "LAST OPENED"},
			rows: [][]string{
				{"contact", "/forms/contact.yaml", "2026-01-02 15:04"},
				{"signup", "/forms/signup.yaml", "never"},
			},
			want: []string{"NAME", "LAST OPENED", "contact", "/forms/signup.yaml", "never"},
		},
		{
			name:    "headers only",
			headers: []string{"NAME", "PATH"},
			want:    []string{"NAME", "PATH"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := RenderTable(tt.headers, tt.rows)
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("table missing %q:\n%s", w, out)
				}
			}
			if lines := strings.Count(out, "\n") + 1; lines < len(tt.rows)+3 {
				t.Errorf("table has %d lines, want at least %d", lines, len(tt.rows)+3)
			}
		})
	}
}
