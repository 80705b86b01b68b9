package regex

import "regexp"

var (
	// Commit patterns. Types are free-form tokens; rules decide what they mean.
	ConventionalCommit = regexp.MustCompile(`^([A-Za-z][\w-]*)(\(([^)]*)\))?(!)?:\s*(.*)$`)
	BreakingChange     = regexp.MustCompile(`^BREAKING[ -]CHANGE:\s*(.*)$`)
	FooterToken        = regexp.MustCompile(`^([\w-]+|BREAKING CHANGE)(?::\s|\s#)(.*)$`)

	// Version and tag patterns
	SemVer       = regexp.MustCompile(`v?(\d+)\.(\d+)\.(\d+)`)
	PrereleaseID = regexp.MustCompile(`^([0-9A-Za-z-]+)\.(\d+)$`)

	// Version file patterns
	GoVersionConst = regexp.MustCompile(`(?m)^(\s*(?:const\s+|var\s+)?Version\s*=\s*")[^"]*(")`)
	CargoVersion   = regexp.MustCompile(`(?m)^(version\s*=\s*")[^"]*(")`)
	CargoSection   = regexp.MustCompile(`(?m)^\[([^\]]+)\]\s*$`)

	// Git and Repo patterns
	SSHRepo   = regexp.MustCompile(`git@([^:]+):([^/]+)/(.+?)(?:\.git)?$`)
	HTTPSRepo = regexp.MustCompile(`https://([^/]+)/([^/]+)/(.+?)(?:\.git)?$`)
)
