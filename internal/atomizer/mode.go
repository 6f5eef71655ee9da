package atomizer

import "regexp"

// Mode is the detected document flavor. Plain mode disables all
// structural detection; the document becomes paragraph and blank
// atoms only.
type Mode int

const (
	ModePlain Mode = iota
	ModeMarkdown
)

func (m Mode) String() string {
	if m == ModeMarkdown {
		return "markdown"
	}
	return "plain"
}

// MarshalJSON emits the mode as its string name.
func (m Mode) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// Markdown hint patterns. Occurrences are counted (capped per
// pattern); a document showing at least two markers is treated as
// markdown.
var mdHints = []*regexp.Regexp{
	regexp.MustCompile(`(?m)^[ \t]{0,3}#{1,6}[ \t]+\S`),             // headings
	regexp.MustCompile("(?m)^[ \t]{0,3}(```|~~~)"),                  // fenced code
	regexp.MustCompile(`(?m)^[ \t]{0,3}([-*+]|\d+\.)[ \t]+\S`),      // lists
	regexp.MustCompile(`(?m)^[ \t]{0,3}>[ \t]+\S`),                  // blockquotes
	regexp.MustCompile(`(?m)^[ \t]*\|.*\|[ \t]*$`),                  // table rows
	regexp.MustCompile(`\[[^\]]+\]\([^)]+\)`),                       // links
	regexp.MustCompile(`(?m)^[ \t]{0,3}(-{3,}|\*{3,}|_{3,})[ \t]*$`), // horizontal rules
}

// DetectMode classifies a document as markdown or plain text.
func DetectMode(text string) Mode {
	hits := 0
	for _, pat := range mdHints {
		hits += len(pat.FindAllStringIndex(text, 4))
	}
	if hits >= 2 {
		return ModeMarkdown
	}
	return ModePlain
}
