package version

import (
	"runtime"
	"strings"
	"testing"
)

func TestFallbacksPopulated(t *testing.T) {
	if Version == "" {
		t.Error("Version should never be empty after init")
	}
	if Commit == "" {
		t.Error("Commit should never be empty after init")
	}
}

func TestShort(t *testing.T) {
	orig := Version
	defer func() { Version = orig }()

	tests := []struct {
		version string
		want    string
	}{
		{"1.2.3", "v1.2.3"},
		{"v1.2.3", "v1.2.3"},
		{"dev-20260101", "dev-20260101"},
	}
	for _, tt := range tests {
		Version = tt.version
		if got := Short(); got != tt.want {
			t.Errorf("Short() with %q = %q, want %q", tt.version, got, tt.want)
		}
	}
}

func TestFullAndInfo(t *testing.T) {
	if !strings.Contains(Full(), Commit) {
		t.Errorf("Full() = %q, should contain commit %q", Full(), Commit)
	}
	info := Info()
	if info.Version != Version || info.Commit != Commit || info.GoVersion != runtime.Version() {
		t.Errorf("Info() = %+v", info)
	}
}
