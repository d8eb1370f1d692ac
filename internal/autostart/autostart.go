// Package autostart registers sharemouse to start when the user logs in.
package autostart

import (
	"fmt"
	"os"
	"strings"
)

// Label names the login item on every platform.
const Label = "com.sharemouse.agent"

// Entry is the command line started at login.
type Entry struct {
	Executable string
	Args       []string
}

// NewEntry builds an entry that runs the current executable with args.
func NewEntry(args ...string) (Entry, error) {
	exe, err := os.Executable()
	if err != nil {
		return Entry{}, fmt.Errorf("failed to get executable path: %w", err)
	}
	return Entry{Executable: exe, Args: args}, nil
}

// CommandLine renders the entry as a single shell-style line, quoting any
// part that contains whitespace.
func (e Entry) CommandLine() string {
	parts := make([]string, 0, len(e.Args)+1)
	for _, p := range append([]string{e.Executable}, e.Args...) {
		parts = append(parts, quote(p))
	}
	return strings.Join(parts, " ")
}

func quote(s string) string {
	if s == "" || strings.ContainsAny(s, " \t\"") {
		return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
	}
	return s
}
