package atomizer

import (
	"strings"
	"testing"

	"github.com/dgallion1/docsplit/internal/doc"
)

func kinds(atoms []doc.Atom) []doc.Kind {
	out := make([]doc.Kind, len(atoms))
	for i, a := range atoms {
		out[i] = a.Kind
	}
	return out
}

func assertKinds(t *testing.T, atoms []doc.Atom, want []doc.Kind) {
	t.Helper()
	got := kinds(atoms)
	if len(got) != len(want) {
		t.Fatalf("expected %d atoms %v, got %d: %v", len(want), want, len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("atom[%d]: expected kind %s, got %s", i, want[i], got[i])
		}
	}
}

func TestDetectMode(t *testing.T) {
	cases := []struct {
		name string
		text string
		want Mode
	}{
		{"headings only", "# Title\n\nbody\n\n## Sub\n\nbody\n", ModeMarkdown},
		{"list items", "- one\n- two\n", ModeMarkdown},
		{"prose", "Just a sentence.\n\nAnother one here.\n", ModePlain},
		{"single marker", "# Lone heading\n\nprose and more prose\n", ModePlain},
		{"fence plus heading", "# A\n\n```\ncode\n```\n", ModeMarkdown},
		{"empty", "", ModePlain},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DetectMode(tc.text); got != tc.want {
				t.Errorf("DetectMode(%q) = %s, want %s", tc.text, got, tc.want)
			}
		})
	}
}

func TestAtomize_HeadingDocument(t *testing.T) {
	text := "# Title\n\nPara one.\n\n## Sub\n\nPara two."
	res := Atomize(text)

	if res.Mode != ModeMarkdown {
		t.Fatalf("expected markdown mode, got %s", res.Mode)
	}
	assertKinds(t, res.Atoms, []doc.Kind{
		doc.KindHeading, doc.KindBlank, doc.KindParagraph, doc.KindBlank,
		doc.KindHeading, doc.KindBlank, doc.KindParagraph,
	})

	if res.Atoms[0].Depth != 1 {
		t.Errorf("expected depth 1 for # heading, got %d", res.Atoms[0].Depth)
	}
	if res.Atoms[4].Depth != 2 {
		t.Errorf("expected depth 2 for ## heading, got %d", res.Atoms[4].Depth)
	}
	if !res.Atoms[4].CanCutBefore {
		t.Error("expected can_cut_before on heading atom")
	}
	if res.Atoms[4].BoundaryStrength != 1.0 {
		t.Errorf("expected strength 1.0 on heading, got %v", res.Atoms[4].BoundaryStrength)
	}

	// Section tree: root -> Title -> Sub.
	if res.Sections.Len() != 3 {
		t.Fatalf("expected 3 sections, got %d", res.Sections.Len())
	}
	title := res.Sections.Node(1)
	sub := res.Sections.Node(2)
	if title.Title != "Title" || title.ParentID != doc.RootID {
		t.Errorf("section 1: expected Title under root, got %+v", title)
	}
	if sub.Title != "Sub" || sub.ParentID != 1 {
		t.Errorf("section 2: expected Sub under 1, got %+v", sub)
	}
	if sub.AtomStart != 4 || sub.AtomEnd != 7 {
		t.Errorf("section 2: expected atoms [4,7), got [%d,%d)", sub.AtomStart, sub.AtomEnd)
	}

	// Paragraph under Sub carries the full path.
	last := res.Atoms[6]
	if last.SectionNodeID != 2 {
		t.Errorf("expected last atom in section 2, got %d", last.SectionNodeID)
	}
	wantPath := []int{0, 1, 2}
	if len(last.SectionPathIDs) != 3 {
		t.Fatalf("expected path %v, got %v", wantPath, last.SectionPathIDs)
	}
	for i, id := range wantPath {
		if last.SectionPathIDs[i] != id {
			t.Errorf("path[%d]: expected %d, got %d", i, id, last.SectionPathIDs[i])
		}
	}
}

func TestAtomize_RoundTrip(t *testing.T) {
	cases := []struct {
		name string
		text string
	}{
		{"headings", "# Title\n\nPara one.\n\n## Sub\n\nPara two."},
		{"no trailing newline", "plain prose"},
		{"crlf", "# A\r\n\r\nPara.\r\n"},
		{"fences", "# A\n\n```go\nfunc main() {}\n```\n\ntail\n"},
		{"lists and tables", "# H\n\n- a\n- b\n\n| x | y |\n| --- | --- |\n| 1 | 2 |\n"},
		{"unicode", "# Überschrift\n\nKörper mit Ümlauten.\n\n## Ende\n\nfin\n"},
		{"blank runs", "a\n\n\n\nb\n"},
		{"empty", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := Atomize(tc.text)
			var b strings.Builder
			prevEnd := 0
			for i, a := range res.Atoms {
				if a.Index != i {
					t.Errorf("atom %d: index %d out of order", i, a.Index)
				}
				if a.StartByte != prevEnd {
					t.Errorf("atom %d: starts at byte %d, previous ended at %d", i, a.StartByte, prevEnd)
				}
				prevEnd = a.EndByte
				b.WriteString(a.Text)
			}
			if prevEnd != len(tc.text) {
				t.Errorf("atoms cover %d bytes of %d", prevEnd, len(tc.text))
			}
			if b.String() != tc.text {
				t.Errorf("concatenated atoms differ from input:\n got %q\nwant %q", b.String(), tc.text)
			}
		})
	}
}

func TestAtomize_PlainModeIsParagraphsOnly(t *testing.T) {
	// A lone hr marker is one hit, below the markdown threshold, so
	// the whole document stays plain and structure stays undetected.
	text := "First paragraph.\n\n---\n\nSAMPLE HEADER\n\nSecond paragraph.\n"
	res := Atomize(text)

	if res.Mode != ModePlain {
		t.Fatalf("expected plain mode, got %s", res.Mode)
	}
	for i, a := range res.Atoms {
		if a.Kind != doc.KindParagraph && a.Kind != doc.KindBlank {
			t.Errorf("atom %d: expected paragraph/blank in plain mode, got %s", i, a.Kind)
		}
	}
	if res.Sections.Len() != 1 {
		t.Errorf("expected only the root section, got %d", res.Sections.Len())
	}
}

func TestAtomize_UnterminatedFence(t *testing.T) {
	text := "# A\n\n```go\nfunc main() {}\n"
	res := Atomize(text)

	assertKinds(t, res.Atoms, []doc.Kind{doc.KindHeading, doc.KindBlank, doc.KindCode})
	code := res.Atoms[2]
	if code.EndByte != len(text) {
		t.Errorf("expected fence atom to extend to end of document, got end byte %d", code.EndByte)
	}
	if len(res.Warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(res.Warnings))
	}
	if res.Warnings[0].Code != WarnParseDegenerate {
		t.Errorf("expected %s warning, got %s", WarnParseDegenerate, res.Warnings[0].Code)
	}
}

func TestAtomize_FenceContentIsOpaque(t *testing.T) {
	text := "# A\n\n```\n# not a heading\n- not a list\n```\n"
	res := Atomize(text)
	assertKinds(t, res.Atoms, []doc.Kind{doc.KindHeading, doc.KindBlank, doc.KindCode})
	if res.Sections.Len() != 2 {
		t.Errorf("expected no sections from fence content, got %d sections", res.Sections.Len())
	}
}

func TestAtomize_PseudoHeadingBold(t *testing.T) {
	text := "- alpha\n- beta\n\n**Roadmap**\n\nBody text.\n"
	res := Atomize(text)

	assertKinds(t, res.Atoms, []doc.Kind{
		doc.KindList, doc.KindBlank, doc.KindPseudoHeading, doc.KindBlank, doc.KindParagraph,
	})
	pseudo := res.Atoms[2]
	if pseudo.Depth != 1 {
		t.Errorf("expected pseudo depth 1 with no enclosing heading, got %d", pseudo.Depth)
	}
	node := res.Sections.Node(pseudo.SectionNodeID)
	if node.Title != "Roadmap" {
		t.Errorf("expected section title Roadmap, got %q", node.Title)
	}
}

func TestAtomize_PseudoHeadingAllCaps(t *testing.T) {
	text := "# T\n\n## U\n\nOVERVIEW AND SCOPE\n\nBody text here.\n"
	res := Atomize(text)

	var pseudo *doc.Atom
	for i := range res.Atoms {
		if res.Atoms[i].Kind == doc.KindPseudoHeading {
			pseudo = &res.Atoms[i]
		}
	}
	if pseudo == nil {
		t.Fatal("expected an ALL-CAPS pseudo heading atom")
	}
	// One deeper than the enclosing ## heading.
	if pseudo.Depth != 3 {
		t.Errorf("expected pseudo depth 3, got %d", pseudo.Depth)
	}
}

func TestAtomize_PseudoHeadingThresholds(t *testing.T) {
	long := strings.Repeat("X", 100)
	text := "# A\n\n## B\n\n" + long + "\n"
	res := Atomize(text)
	for _, a := range res.Atoms {
		if a.Kind == doc.KindPseudoHeading {
			t.Error("line above caps threshold must not become a pseudo heading")
		}
	}

	cfg := DefaultConfig()
	cfg.CapsMaxLen = 120
	res = AtomizeWith(text, cfg)
	found := false
	for _, a := range res.Atoms {
		if a.Kind == doc.KindPseudoHeading {
			found = true
		}
	}
	if !found {
		t.Error("raised caps threshold should admit the long caps line")
	}
}

func TestAtomize_Table(t *testing.T) {
	text := "# A\n\n| a | b |\n| --- | --- |\n| 1 | 2 |\n| 3 | 4 |\n\ntail\n"
	res := Atomize(text)
	assertKinds(t, res.Atoms, []doc.Kind{
		doc.KindHeading, doc.KindBlank, doc.KindTable, doc.KindBlank, doc.KindParagraph,
	})
	table := res.Atoms[2]
	if table.StartLine != 2 || table.EndLine != 5 {
		t.Errorf("expected table on lines 2-5, got %d-%d", table.StartLine, table.EndLine)
	}
}

func TestAtomize_PipeRowWithoutSeparatorIsParagraph(t *testing.T) {
	text := "# A\n\n| not | a table |\nplain continuation\n"
	res := Atomize(text)
	assertKinds(t, res.Atoms, []doc.Kind{doc.KindHeading, doc.KindBlank, doc.KindParagraph})
}

func TestAtomize_ListWithContinuation(t *testing.T) {
	text := "- item one\n  wrapped continuation\n- item two\n\n1. numbered\n2. also numbered\n"
	res := Atomize(text)
	assertKinds(t, res.Atoms, []doc.Kind{doc.KindList, doc.KindBlank, doc.KindList})
	if res.Atoms[0].EndLine != 2 {
		t.Errorf("expected first list block to span lines 0-2, got end line %d", res.Atoms[0].EndLine)
	}
}

func TestAtomize_BlankRunsCollapse(t *testing.T) {
	text := "a\n\n\n\nb\n"
	res := Atomize(text)
	assertKinds(t, res.Atoms, []doc.Kind{doc.KindParagraph, doc.KindBlank, doc.KindParagraph})

	blank := res.Atoms[1]
	if blank.StartLine != 1 || blank.EndLine != 3 {
		t.Errorf("expected blank run on lines 1-3, got %d-%d", blank.StartLine, blank.EndLine)
	}
	if blank.WeightWords != 0 || blank.WeightChars != 0 {
		t.Errorf("blank atoms must carry zero weight, got %d words %d chars", blank.WeightWords, blank.WeightChars)
	}
	if blank.CanCutBefore {
		t.Error("blank atoms must not be cut targets")
	}
}

func TestAtomize_Empty(t *testing.T) {
	res := Atomize("")
	if len(res.Atoms) != 0 {
		t.Fatalf("expected 0 atoms, got %d", len(res.Atoms))
	}
	if res.Sections.Len() != 1 {
		t.Fatalf("expected exactly the root section, got %d", res.Sections.Len())
	}
	root := res.Sections.Root()
	if root.AtomStart != 0 || root.AtomEnd != 0 {
		t.Errorf("expected empty root span [0,0), got [%d,%d)", root.AtomStart, root.AtomEnd)
	}
}

func TestAtomize_HeadinglessDocumentHasRoot(t *testing.T) {
	text := "Only prose here.\n\nMore prose.\n"
	res := Atomize(text)
	if res.Sections.Len() != 1 {
		t.Fatalf("expected single root section, got %d", res.Sections.Len())
	}
	root := res.Sections.Root()
	if root.AtomStart != 0 || root.AtomEnd != len(res.Atoms) {
		t.Errorf("root must span all atoms, got [%d,%d) of %d", root.AtomStart, root.AtomEnd, len(res.Atoms))
	}
	for i, a := range res.Atoms {
		if a.SectionNodeID != doc.RootID {
			t.Errorf("atom %d: expected root section, got %d", i, a.SectionNodeID)
		}
	}
}

func TestAtomize_SiblingHeadingClosesSection(t *testing.T) {
	text := "# One\n\nbody\n\n# Two\n\nbody\n"
	res := Atomize(text)

	one := res.Sections.Node(1)
	two := res.Sections.Node(2)
	if one.AtomEnd != two.AtomStart {
		t.Errorf("section One must close where Two opens: end %d, start %d", one.AtomEnd, two.AtomStart)
	}
	if two.ParentID != doc.RootID {
		t.Errorf("sibling top-level heading must attach to root, got parent %d", two.ParentID)
	}
	root := res.Sections.Root()
	if len(root.Children) != 2 {
		t.Errorf("expected 2 root children, got %d", len(root.Children))
	}
}

func TestAtomize_PathDepthsStrictlyIncrease(t *testing.T) {
	text := "# A\n\n### Deep\n\nbody\n\n## Back\n\nbody\n"
	res := Atomize(text)
	for _, a := range res.Atoms {
		prev := -1
		for _, id := range a.SectionPathIDs {
			d := res.Sections.Node(id).Depth
			if d <= prev {
				t.Fatalf("atom %d: section path depths not strictly increasing: %v", a.Index, a.SectionPathIDs)
			}
			prev = d
		}
	}
}
