package irc

import "strings"

// lineBuffer holds bytes received after the last newline until the rest of
// that line arrives.
type lineBuffer struct {
	partial string
}

// feed returns the complete, trimmed, non-empty lines in data.
func (b *lineBuffer) feed(data []byte) []string {
	buf := b.partial + string(data)

	last := strings.LastIndexByte(buf, '\n')
	if last == -1 {
		b.partial = buf
		return nil
	}
	b.partial = buf[last+1:]
	buf = buf[:last]

	raw := strings.Split(buf, "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		lines = append(lines, l)
	}

	return lines
}
