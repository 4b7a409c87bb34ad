package tts

import (
	"regexp"
	"strings"
)

var (
	markupChars = regexp.MustCompile(`[*#]`)
	bracketed   = regexp.MustCompile(`(?s)\[.*?\]`)
	// ASCII \s plus \v, the C1/separator controls and every Unicode space
	whitespace  = regexp.MustCompile(`[\s\v\x{1c}-\x{1f}\x{85}\p{Z}]+`)
)

// CleanForSpeech strips markdown emphasis and heading marks, drops
// bracketed stage directions such as "[laughs]" and collapses whitespace.
func CleanForSpeech(text string) string {
	text = markupChars.ReplaceAllString(text, "")
	text = bracketed.ReplaceAllString(text, "")
	text = whitespace.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
