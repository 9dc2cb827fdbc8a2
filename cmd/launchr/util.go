package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/loykin/launchr"
)

func printJSON(w io.Writer, v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Fprintln(w, string(b))
}

func printMatches(w io.Writer, matches []launchr.Match) {
	for _, m := range matches {
		fmt.Fprintf(w, "  pid %d  %s\n", m.PID, m.Cmdline)
	}
}

// lastLines returns the trailing n lines of s, without the final newline.
func lastLines(s string, n int) []string {
	if n <= 0 || s == "" {
		return nil
	}
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return nil
	}
	lines := strings.Split(s, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines
}
