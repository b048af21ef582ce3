// Package main provides the entry point for the mediaintel CLI tool.
package main

import (
	"github.com/navigator1103/MediaIntel-sub006/cmd/mediaintel/cmd"
)

// Version information populated by goreleaser.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	cmd.Execute(version, commit, date)
}
