// Package version holds build-time version info injected via ldflags.
//
//	go build -ldflags "-X github.com/NicolasHaas/pixndrive/pkg/version.tag=v0.3.0
//	  -X github.com/NicolasHaas/pixndrive/pkg/version.commit=abc1234
//	  -X github.com/NicolasHaas/pixndrive/pkg/version.date=2026-01-01"
package version

import "fmt"

var (
	tag    = ""
	commit = "unknown"
	date   = "unknown"
)

// String returns the tag, the short commit, or "dev" for local builds.
func String() string {
	switch {
	case tag != "":
		return tag
	case commit != "unknown":
		return commit
	default:
		return "dev"
	}
}

// Full returns "v0.3.0 (abc1234, 2026-01-01)" or "dev" for local builds.
func Full() string {
	if tag == "" && commit == "unknown" {
		return "dev"
	}
	return fmt.Sprintf("%s (%s, %s)", String(), commit, date)
}

// UserAgent is sent by the session client on every backend request.
func UserAgent() string {
	return "pixndrive/" + String()
}
