package buildinfo

import (
	"runtime"
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	info := Get()

	tests := []struct {
		name  string
		value string
	}{
		{"Version", info.Version},
		{"Commit", info.Commit},
		{"BuildTime", info.BuildTime},
		{"GoVersion", info.GoVersion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value == "" {
				t.Errorf("%s should not be empty", tt.name)
			}
		})
	}

	if info.GoVersion != runtime.Version() {
		t.Errorf("GoVersion = %q, want %q", info.GoVersion, runtime.Version())
	}
	if Get() != info {
		t.Error("Get is not stable across calls")
	}
}

func TestString(t *testing.T) {
	info := Get()
	s := String()

	want := info.Version + " (" + info.Commit + ") built at " + info.BuildTime
	if s != want {
		t.Errorf("String() = %q, want %q", s, want)
	}
	if !strings.Contains(s, "built at") {
		t.Errorf("String() = %q, missing \"built at\"", s)
	}
}
