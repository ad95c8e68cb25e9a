package fixture

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	blankRun   = regexp.MustCompile(`[ \t]+`)
	newlineRun = regexp.MustCompile(`\n+`)
)

// ProcessText normalizes free text for block-scalar output. It trims the
// text, collapses runs of blanks and of newlines, and word-wraps text longer
// than 80 characters at 80 columns. Wrapping discards the original line
// breaks.
func ProcessText(text string) string {
	text = strings.TrimSpace(text)
	text = blankRun.ReplaceAllString(text, " ")
	text = newlineRun.ReplaceAllString(text, "\n")

	if utf8.RuneCountInString(text) <= blockThreshold {
		return text
	}

	var lines []string
	current := ""
	for _, word := range strings.Fields(text) {
		if utf8.RuneCountInString(current)+utf8.RuneCountInString(word)+1 <= blockThreshold {
			if current != "" {
				current += " " + word
			} else {
				current = word
			}
			continue
		}
		if current != "" {
			lines = append(lines, current)
		}
		current = word
	}
	if current != "" {
		lines = append(lines, current)
	}
	return strings.Join(lines, "\n")
}
