// Package testutil holds helpers for tests that inspect console output.
package testutil

import (
	"regexp"
	"strings"
)

// escapes matches CSI sequences (colors, cursor moves, "\x1b[?25l") and
// OSC sequences terminated by BEL or ST.
var escapes = regexp.MustCompile(`\x1b\[[0-9;?]*[ -/]*[@-~]|\x1b\][^\x07\x1b]*(?:\x07|\x1b\\)`)

// StripAnsiCodes returns s without terminal escape sequences.
func StripAnsiCodes(s string) string {
	return escapes.ReplaceAllString(s, "")
}

// Lines strips escape sequences from s and returns its non-blank lines,
// trimmed of surrounding spaces. Progress redraws separated by '\r' keep
// only their last frame.
func Lines(s string) []string {
	var lines []string
	for _, line := range strings.Split(StripAnsiCodes(s), "\n") {
		if i := strings.LastIndexByte(line, '\r'); i >= 0 {
			line = line[i+1:]
		}
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
