package version

import (
	"strings"
	"testing"
)

func TestFull(t *testing.T) {
	if Version == "" || Commit == "" {
		t.Fatalf("Version = %q, Commit = %q; init should populate both", Version, Commit)
	}
	if got := Full(); !strings.Contains(got, Version) || !strings.Contains(got, "commit: "+Commit) {
		t.Errorf("Full() = %q", got)
	}
}

func TestGet(t *testing.T) {
	info := Get()
	if info.Version != Version || info.Commit != Commit {
		t.Errorf("Get() = %+v", info)
	}
	if info.GoVersion == "" {
		t.Errorf("GoVersion = %q", info.GoVersion)
	}
}
