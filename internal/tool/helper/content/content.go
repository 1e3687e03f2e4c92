// Package content holds small text helpers shared by the workspace tools.
package content

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// binarySampleSize matches git's heuristic for spotting binary files.
const binarySampleSize = 8000

// IsBinary reports whether data looks binary: a NUL byte in the sample
// without a UTF-16 or UTF-32 byte order mark.
func IsBinary(data []byte) bool {
	if len(data) >= 2 && ((data[0] == 0xFF && data[1] == 0xFE) || (data[0] == 0xFE && data[1] == 0xFF)) {
		return false
	}
	if len(data) >= 4 && data[0] == 0x00 && data[1] == 0x00 && data[2] == 0xFE && data[3] == 0xFF {
		return false
	}
	for _, b := range data[:min(len(data), binarySampleSize)] {
		if b == 0 {
			return true
		}
	}
	return false
}

// SplitLines splits on \n and \r\n. A trailing line ending does not produce
// a trailing empty line.
func SplitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == '\n':
			lines = append(lines, s[start:i])
			start = i + 1
		case s[i] == '\r' && i+1 < len(s) && s[i+1] == '\n':
			lines = append(lines, s[start:i])
			start = i + 2
			i++
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}

// Truncate cuts s to at most max bytes on a rune boundary and appends a
// marker naming how much was dropped. max <= 0 disables truncation.
func Truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return fmt.Sprintf("%s\n... [truncated %d bytes]", s[:cut], len(s)-cut)
}

// CollapseBlankLines trims each line and drops empty ones.
func CollapseBlankLines(s string) string {
	var b strings.Builder
	for _, line := range SplitLines(s) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
	}
	return b.String()
}
