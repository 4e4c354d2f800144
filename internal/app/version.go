// Package app wires the omegacalc command: configuration, the numeric
// pipeline, orchestration of the truncation orders and version reporting.
package app

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime"

	"github.com/agbru/omegacalc/internal/sequence"
)

// Build-time variables set via -ldflags:
//
//	go build -ldflags="-X github.com/agbru/omegacalc/internal/app.Version=v1.2.3 -X github.com/agbru/omegacalc/internal/app.Commit=abc123 -X github.com/agbru/omegacalc/internal/app.BuildDate=2025-01-01T00:00:00Z" ./cmd/omegacalc
var (
	// Version is the semantic version of the application (e.g., "v1.0.0").
	Version = "dev"
	// Commit is the short Git commit hash (e.g., "abc123").
	Commit = "unknown"
	// BuildDate is the ISO 8601 timestamp of the build (e.g., "2025-01-01T00:00:00Z").
	BuildDate = "unknown"
)

// HasVersionFlag reports whether any argument asks for the version, so
// that -version works in any position (e.g., "omegacalc -orders 10 -version").
func HasVersionFlag(args []string) bool {
	for _, arg := range args {
		if arg == "--version" || arg == "-version" || arg == "-V" {
			return true
		}
	}
	return false
}

// hasJSONFlag reports whether the version should be printed as JSON.
func hasJSONFlag(args []string) bool {
	for _, arg := range args {
		if arg == "-json" || arg == "--json" {
			return true
		}
	}
	return false
}

// VersionData is the build and runtime description printed by -version.
type VersionData struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
	// Tables names the backend that builds the Fibonacci column.
	Tables string `json:"tables"`
}

// GetVersionInfo returns the current version information.
func GetVersionInfo() VersionData {
	return VersionData{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
		Tables:    sequence.ActiveColumnBuilder(),
	}
}

// PrintVersion writes the version information to out, as JSON when args
// carry -json and as text otherwise.
//
// Parameters:
//   - out: The writer to output version information to.
//   - args: The command-line arguments, without the program name.
func PrintVersion(out io.Writer, args []string) {
	info := GetVersionInfo()
	if hasJSONFlag(args) {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		_ = enc.Encode(info)
		return
	}
	fmt.Fprintf(out, "omegacalc %s\n", info.Version)
	fmt.Fprintf(out, "  Commit:     %s\n", info.Commit)
	fmt.Fprintf(out, "  Built:      %s\n", info.BuildDate)
	fmt.Fprintf(out, "  Go version: %s\n", info.GoVersion)
	fmt.Fprintf(out, "  OS/Arch:    %s/%s\n", info.OS, info.Arch)
	fmt.Fprintf(out, "  Tables:     %s\n", info.Tables)
}
