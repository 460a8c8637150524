package sse

import "strings"

// formatSSEMessage frames data as one SSE message. Multi-line data is sent as
// several data lines, which the reader joins back with newlines.
func formatSSEMessage(name, data string) []byte {
	var b strings.Builder
	b.WriteString("event: ")
	b.WriteString(name)
	b.WriteByte('\n')
	for _, line := range splitLines(data) {
		b.WriteString("data: ")
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	return []byte(b.String())
}

func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r", "")
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}
