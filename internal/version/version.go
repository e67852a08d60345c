package version

import (
	"fmt"
	"runtime"
)

// Set at build time, for example:
//
//	go build -ldflags "-X github.com/oukeidos/nyamanga/internal/version.Version=0.2.0 \
//	  -X github.com/oukeidos/nyamanga/internal/version.Commit=$(git rev-parse --short HEAD)"
var (
	Version   = "0.1.0"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// Name is the product name shown in banners and window titles.
const Name = "NyaManga"

// Info returns the multi-line version text for --version and About.
func Info() string {
	return fmt.Sprintf("nyamanga %s\ncommit: %s\nbuild: %s\ngo: %s %s/%s",
		Version, Commit, BuildDate, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// Short returns "NyaManga v<version>".
func Short() string {
	return Name + " v" + Version
}
