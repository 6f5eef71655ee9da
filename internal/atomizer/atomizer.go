// Package atomizer converts raw document text into an ordered stream
// of indivisible atoms annotated with structural metadata, plus the
// section pseudo-tree implied by heading-like atoms. Atoms cover the
// input exactly: concatenating their texts in index order reproduces
// the document byte for byte.
package atomizer

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/dgallion1/docsplit/internal/doc"
)

// Config controls the pseudo-heading heuristics. The thresholds are
// deliberate tuning knobs rather than fixed rules; DefaultConfig
// documents the defaults.
type Config struct {
	BoldMaxLen   int     // max length of a standalone **bold** heading line
	CapsMaxLen   int     // max length of an ALL-CAPS heading line
	CapsMinRatio float64 // min fraction of letters that must be uppercase
}

// DefaultConfig returns the documented default thresholds.
func DefaultConfig() Config {
	return Config{
		BoldMaxLen:   80,
		CapsMaxLen:   80,
		CapsMinRatio: 0.8,
	}
}

// Boundary strengths by kind. Headings and rules are ideal cut
// points; paragraphs are a last resort; blanks are never cut targets.
const (
	strengthHeading = 1.0
	strengthHR      = 1.0
	strengthPseudo  = 0.95
	strengthBlock   = 0.5
	strengthPara    = 0.1
)

// Warning records a recovered parse anomaly. Warnings never abort
// atomization; they mark "completed with a caveat".
type Warning struct {
	Code    string `json:"code"`
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// WarnParseDegenerate marks input the scanner recovered from, such as
// an unterminated code fence extended to end of document.
const WarnParseDegenerate = "parse_degenerate"

// Result is the complete output of one atomization call. It is
// immutable once returned; independent calls share no state.
type Result struct {
	Atoms    []doc.Atom
	Sections *doc.Registry
	Mode     Mode
	Warnings []Warning
}

var (
	reHeading  = regexp.MustCompile(`^[ \t]{0,3}(#{1,6})[ \t]+(.*?)[ \t]*$`)
	reHR       = regexp.MustCompile(`^[ \t]{0,3}(-{3,}|\*{3,}|_{3,})[ \t]*$`)
	reFence    = regexp.MustCompile("^[ \t]{0,3}(```|~~~)")
	reList     = regexp.MustCompile(`^[ \t]{0,3}([-*+]|\d+\.)[ \t]+\S`)
	reListCont = regexp.MustCompile(`^[ \t]{2,}\S`)
	reTableRow = regexp.MustCompile(`^[ \t]*\|.*\|[ \t]*$`)
	reTableSep = regexp.MustCompile(`^[ \t]*\|?([ \t]*:?-+:?[ \t]*\|)+[ \t]*:?-+:?[ \t]*\|?[ \t]*$`)
	reBold     = regexp.MustCompile(`^\*\*(.+?)\*\*$`)
	reCaps     = regexp.MustCompile(`^[A-Z0-9][A-Z0-9 :,'".()\-]+$`)
)

// Atomize scans text with the default configuration.
func Atomize(text string) *Result {
	return AtomizeWith(text, DefaultConfig())
}

// AtomizeWith scans text in one forward pass over its lines. It never
// fails: degenerate input is recovered and recorded as a warning.
func AtomizeWith(text string, cfg Config) *Result {
	s := &scanner{
		cfg:     cfg,
		text:    text,
		mode:    DetectMode(text),
		builder: doc.NewBuilder(),
	}
	s.lines, s.lineStart = splitLines(text)
	s.run()

	return &Result{
		Atoms:    s.atoms,
		Sections: s.builder.Finish(len(s.atoms)),
		Mode:     s.mode,
		Warnings: s.warnings,
	}
}

type scanner struct {
	cfg  Config
	text string
	mode Mode

	lines     []string // line ends preserved
	lineStart []int    // byte offset of each line start

	atoms    []doc.Atom
	builder  *doc.Builder
	warnings []Warning
}

func (s *scanner) run() {
	i := 0
	for i < len(s.lines) {
		line := trimEOL(s.lines[i])

		// Blank run, collapsed into a single atom.
		if strings.TrimSpace(line) == "" {
			start := i
			for i < len(s.lines) && strings.TrimSpace(trimEOL(s.lines[i])) == "" {
				i++
			}
			s.emit(doc.KindBlank, start, i-1, 0, false, 0)
			continue
		}

		if s.mode == ModePlain {
			i = s.scanParagraph(i)
			continue
		}

		if reHR.MatchString(line) {
			s.emit(doc.KindHR, i, i, 0, true, strengthHR)
			i++
			continue
		}

		if m := reFence.FindStringSubmatch(line); m != nil {
			i = s.scanFence(i, m[1])
			continue
		}

		if m := reHeading.FindStringSubmatch(line); m != nil {
			depth := len(m[1])
			s.builder.Open(m[2], depth, len(s.atoms))
			s.emit(doc.KindHeading, i, i, depth, true, strengthHeading)
			i++
			continue
		}

		if title, ok := s.pseudoHeading(line); ok {
			depth := s.builder.CurrentDepth() + 1
			if depth > 6 {
				depth = 6
			}
			s.builder.Open(title, depth, len(s.atoms))
			s.emit(doc.KindPseudoHeading, i, i, depth, true, strengthPseudo)
			i++
			continue
		}

		if reTableRow.MatchString(line) && i+1 < len(s.lines) && reTableSep.MatchString(trimEOL(s.lines[i+1])) {
			start := i
			i += 2
			for i < len(s.lines) && reTableRow.MatchString(trimEOL(s.lines[i])) {
				i++
			}
			s.emit(doc.KindTable, start, i-1, 0, true, strengthBlock)
			continue
		}

		if reList.MatchString(line) {
			i = s.scanList(i)
			continue
		}

		i = s.scanParagraph(i)
	}
}

// scanFence consumes a fenced code block. The content between fences
// is opaque; an unterminated fence extends to end of document.
func (s *scanner) scanFence(start int, marker string) int {
	i := start + 1
	closed := false
	for i < len(s.lines) {
		line := trimEOL(s.lines[i])
		trimmed := strings.TrimLeft(line, " \t")
		if strings.HasPrefix(trimmed, marker) && strings.TrimSpace(strings.TrimPrefix(trimmed, marker)) == "" &&
			len(line)-len(trimmed) <= 3 {
			i++
			closed = true
			break
		}
		i++
	}
	if !closed {
		s.warnings = append(s.warnings, Warning{
			Code:    WarnParseDegenerate,
			Line:    start,
			Message: fmt.Sprintf("unterminated %s fence, atom extended to end of document", marker),
		})
	}
	s.emit(doc.KindCode, start, i-1, 0, true, strengthBlock)
	return i
}

// scanList consumes consecutive list items plus their indented
// continuation lines. A blank line ends the block and becomes its own
// atom.
func (s *scanner) scanList(start int) int {
	i := start + 1
	for i < len(s.lines) {
		line := trimEOL(s.lines[i])
		if strings.TrimSpace(line) == "" {
			break
		}
		if reList.MatchString(line) || reListCont.MatchString(line) {
			i++
			continue
		}
		break
	}
	s.emit(doc.KindList, start, i-1, 0, true, strengthBlock)
	return i
}

// scanParagraph consumes lines until a blank line or, in markdown
// mode, the start of any structural block.
func (s *scanner) scanParagraph(start int) int {
	i := start + 1
	for i < len(s.lines) {
		line := trimEOL(s.lines[i])
		if strings.TrimSpace(line) == "" {
			break
		}
		if s.mode == ModeMarkdown && s.startsBlock(line, i) {
			break
		}
		i++
	}
	s.emit(doc.KindParagraph, start, i-1, 0, false, strengthPara)
	return i
}

// startsBlock reports whether a line opens a structural block that
// must terminate the current paragraph.
func (s *scanner) startsBlock(line string, i int) bool {
	if reHR.MatchString(line) || reFence.MatchString(line) ||
		reHeading.MatchString(line) || reList.MatchString(line) {
		return true
	}
	if _, ok := s.pseudoHeading(line); ok {
		return true
	}
	if reTableRow.MatchString(line) && i+1 < len(s.lines) && reTableSep.MatchString(trimEOL(s.lines[i+1])) {
		return true
	}
	return false
}

// pseudoHeading reports whether a line acts as a heading without
// markdown syntax: a standalone **bold** line or a short ALL-CAPS
// line.
func (s *scanner) pseudoHeading(line string) (string, bool) {
	t := strings.TrimSpace(line)
	if t == "" {
		return "", false
	}
	if len(t) <= s.cfg.BoldMaxLen+4 {
		if m := reBold.FindStringSubmatch(t); m != nil {
			title := strings.TrimSpace(m[1])
			if title != "" && !strings.Contains(title, "**") {
				return title, true
			}
		}
	}
	if len(t) <= s.cfg.CapsMaxLen && reCaps.MatchString(t) {
		letters, upper := 0, 0
		for _, r := range t {
			if unicode.IsLetter(r) {
				letters++
				if unicode.IsUpper(r) {
					upper++
				}
			}
		}
		if letters > 0 && float64(upper)/float64(letters) > s.cfg.CapsMinRatio {
			return t, true
		}
	}
	return "", false
}

func (s *scanner) emit(kind doc.Kind, startLine, endLine, depth int, canCut bool, strength float64) {
	startByte := len(s.text)
	if startLine < len(s.lineStart) {
		startByte = s.lineStart[startLine]
	}
	endByte := len(s.text)
	if endLine+1 < len(s.lineStart) {
		endByte = s.lineStart[endLine+1]
	}
	chunk := s.text[startByte:endByte]

	words, chars := len(strings.Fields(chunk)), len(chunk)
	if kind == doc.KindBlank {
		words, chars = 0, 0
	}

	s.atoms = append(s.atoms, doc.Atom{
		Index:            len(s.atoms),
		Kind:             kind,
		StartByte:        startByte,
		EndByte:          endByte,
		StartLine:        startLine,
		EndLine:          endLine,
		Text:             chunk,
		WeightWords:      words,
		WeightChars:      chars,
		Depth:            depth,
		SectionNodeID:    s.builder.CurrentID(),
		SectionPathIDs:   s.builder.PathIDs(),
		SectionPath:      s.builder.PathTitles(),
		CanCutBefore:     canCut,
		BoundaryStrength: strength,
	})
}

// splitLines splits text into lines with their terminators preserved,
// plus the byte offset of each line start.
func splitLines(text string) ([]string, []int) {
	if text == "" {
		return nil, nil
	}
	var lines []string
	var starts []int
	start := 0
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, start)
			lines = append(lines, text[start:i+1])
			start = i + 1
		}
	}
	if start < len(text) {
		starts = append(starts, start)
		lines = append(lines, text[start:])
	}
	return lines, starts
}

func trimEOL(line string) string {
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r")
}
