// Package util provides common string helpers used across markershare.
package util

import "strings"

// TrimQuotes removes leading and trailing double quotes from a string.
func TrimQuotes(s string) string {
	return strings.Trim(s, `"`)
}

// FixEscapeQuotes replaces escaped double quotes ("") with single double quotes (").
func FixEscapeQuotes(s string) string {
	return strings.ReplaceAll(s, `""`, `"`)
}

// SplitArgs splits a command line on whitespace. A double-quoted run is kept
// as one argument with the quotes removed; inside it, "" stands for a literal
// quote. An unterminated quote runs to the end of the line.
func SplitArgs(line string) []string {
	var (
		args    []string
		b       strings.Builder
		inQuote bool
		started bool
	)
	flush := func() {
		if started {
			args = append(args, b.String())
		}
		b.Reset()
		started = false
	}

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '"' && inQuote && i+1 < len(line) && line[i+1] == '"':
			b.WriteByte('"')
			i++
		case c == '"':
			inQuote = !inQuote
			started = true
		case !inQuote && (c == ' ' || c == '\t'):
			flush()
		default:
			b.WriteByte(c)
			started = true
		}
	}
	flush()
	return args
}
