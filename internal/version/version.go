// Package version reports build metadata stamped in with -ldflags:
//
//	go build -ldflags "-X github.com/soyeahso/gacc/internal/version.Version=1.0.0
//	  -X github.com/soyeahso/gacc/internal/version.Commit=abc123
//	  -X github.com/soyeahso/gacc/internal/version.Date=2026-01-01"
package version

import (
	"fmt"
	"runtime"
)

var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// BuildInfo is the structured form of Info.
type BuildInfo struct {
	Version  string `json:"version" yaml:"version"`
	Commit   string `json:"commit" yaml:"commit"`
	Date     string `json:"date" yaml:"date"`
	Platform string `json:"platform" yaml:"platform"`
	Go       string `json:"go" yaml:"go"`
}

// Get returns the current build metadata.
func Get() BuildInfo {
	return BuildInfo{
		Version:  Version,
		Commit:   Commit,
		Date:     Date,
		Platform: runtime.GOOS + "/" + runtime.GOARCH,
		Go:       runtime.Version(),
	}
}

// Info returns a one-line version string.
func Info() string {
	b := Get()
	return fmt.Sprintf("gacc %s (commit: %s, built: %s, %s)", b.Version, short(b.Commit), b.Date, b.Platform)
}

func short(s string) string {
	if len(s) > 7 {
		return s[:7]
	}
	return s
}
