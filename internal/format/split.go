package format

import (
	"strings"
	"unicode/utf8"
)

// SplitText breaks s into chunks of at most max bytes, preferring paragraph
// and then line boundaries. Chunks never split a UTF-8 sequence.
func SplitText(s string, max int) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	var chunks []string
	for len(s) > max {
		cut := strings.LastIndex(s[:max], "\n\n")
		if cut <= 0 {
			cut = strings.LastIndex(s[:max], "\n")
		}
		if cut <= 0 {
			cut = strings.LastIndex(s[:max], " ")
		}
		if cut <= 0 {
			cut = max
			for cut > 0 && !utf8.RuneStart(s[cut]) {
				cut--
			}
			if cut == 0 {
				_, cut = utf8.DecodeRuneInString(s)
			}
		}
		chunks = append(chunks, strings.TrimSpace(s[:cut]))
		s = strings.TrimSpace(s[cut:])
	}
	if s != "" {
		chunks = append(chunks, s)
	}
	return chunks
}
