// Package version holds the build version, set with
// -ldflags "-X ohfid/internal/version.Version=...".
package version

var Version = "dev"
