package version

// Version is the semrel release, overridden at build time with
// -ldflags "-X github.com/thomas-vilte/semrel/internal/version.Version=...".
var Version = "0.1.0"

// FullVersion returns the version as a tag.
func FullVersion() string {
	return "v" + Version
}
