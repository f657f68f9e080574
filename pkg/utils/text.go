package utils

import "strings"

// TruncateMiddle bounds s to roughly max characters by keeping the head and
// tail and replacing the middle with an elision marker. Used to window
// oversized document content into prompts without losing either end.
func TruncateMiddle(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	marker := "\n... [content elided] ...\n"
	keep := max - len(marker)
	if keep < 2 {
		return s[:max]
	}
	head := keep * 2 / 3
	tail := keep - head
	// Prefer cutting on line boundaries so the window stays readable.
	h := s[:head]
	if i := strings.LastIndexByte(h, '\n'); i > head/2 {
		h = h[:i]
	}
	t := s[len(s)-tail:]
	if i := strings.IndexByte(t, '\n'); i >= 0 && i < tail/2 {
		t = t[i+1:]
	}
	return h + marker + t
}

// FirstLines returns up to n leading lines of s, used for compact excerpts
// in corrective prompts and log output.
func FirstLines(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= n {
		return s
	}
	return strings.Join(lines[:n], "\n")
}
