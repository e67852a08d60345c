package version

import (
	"strings"
	"testing"
)

func TestInfo(t *testing.T) {
	info := Info()
	for _, want := range []string{"nyamanga " + Version, "commit: " + Commit, "build: " + BuildDate, "go: "} {
		if !strings.Contains(info, want) {
			t.Errorf("Info() missing %q:\n%s", want, info)
		}
	}
	if Short() != "NyaManga v"+Version {
		t.Errorf("Short() = %q", Short())
	}
}
