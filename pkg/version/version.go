// Package version reports the server build version for MCP handshakes and
// the version subcommand.
package version

import "runtime/debug"

// version is overridable at build time:
//
//	go build -ldflags "-X github.com/eduanalytics/schoolsmcp/pkg/version.version=v1.2.3"
var version = "dev"

// Version resolves the effective build string. Module builds report the
// main module version from build info; source builds fall back to the
// ldflags value.
func Version() string {
	if version != "dev" {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return version
}
