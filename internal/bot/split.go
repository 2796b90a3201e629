package bot

import (
	"strings"
	"unicode/utf16"
)

// maxMessageLength is the Bot API text limit, counted in UTF-16 code units.
const maxMessageLength = 4096

// splitMessage cuts text into parts of at most limit UTF-16 code units,
// breaking after newlines where possible. Lines longer than limit are cut
// at rune boundaries. Empty text yields one empty part.
func splitMessage(text string, limit int) []string {
	if utf16Len(text) <= limit {
		return []string{text}
	}

	var (
		parts   []string
		current strings.Builder
		size    int
	)
	flush := func() {
		if current.Len() > 0 {
			parts = append(parts, current.String())
			current.Reset()
			size = 0
		}
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		n := utf16Len(line)
		if size+n > limit {
			flush()
		}
		if n <= limit {
			current.WriteString(line)
			size += n
			continue
		}
		for _, r := range line {
			w := utf16.RuneLen(r)
			if w < 0 {
				w = 1
			}
			if size+w > limit {
				flush()
			}
			current.WriteRune(r)
			size += w
		}
	}
	flush()
	return parts
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		if w := utf16.RuneLen(r); w > 0 {
			n += w
		} else {
			n++
		}
	}
	return n
}
