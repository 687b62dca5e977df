package version

import (
	"runtime"
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	info := Get()
	if info.Version != Version || info.GitSHA != GitSHA || info.BuildTime != BuildTime {
		t.Errorf("Get() = %+v does not reflect package vars", info)
	}
	if info.GoVersion != runtime.Version() {
		t.Errorf("GoVersion = %q", info.GoVersion)
	}
	if s := info.String(); !strings.HasPrefix(s, Version+" (") {
		t.Errorf("String() = %q", s)
	}
}
