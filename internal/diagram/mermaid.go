// Package diagram projects atoms and their section pseudo-tree into a
// Mermaid flowchart description. It is a pure projection: rendering
// is left to external tooling, and nothing here mutates the inputs.
package diagram

import (
	"fmt"
	"strings"

	"github.com/dgallion1/docsplit/internal/doc"
	"github.com/dgallion1/docsplit/internal/splitter"
)

// Options controls the projection.
type Options struct {
	Direction             string // TD, LR, RL, BT
	IncludeRoot           bool
	IncludePseudoHeadings bool
	IncludeStats          bool // append "(atoms a-b, words=W)" to labels
	IncludeAtoms          bool // emit leaf atom nodes under their sections
	MaxLabelLen           int
	DedupeTitles          bool // append node id to labels
}

// DefaultOptions returns the defaults used by the CLI and API.
func DefaultOptions() Options {
	return Options{
		Direction:             "TD",
		IncludePseudoHeadings: true,
		MaxLabelLen:           80,
	}
}

// Segment fill colors, cycled when a plan has more segments.
var palette = []string{
	"#cfe8ff", "#d8f5d3", "#fde2cf", "#f3d6f7", "#fff3b8",
	"#d4f0ef", "#ffd6d6", "#e4ddff",
}

// Mermaid renders the section hierarchy as a flowchart. When segments
// is non-nil and atoms are included, each atom node is colored by the
// segment that contains it.
func Mermaid(atoms []doc.Atom, sections *doc.Registry, segments []splitter.Segment, opts Options) string {
	if opts.Direction == "" {
		opts.Direction = "TD"
	}
	if opts.MaxLabelLen <= 0 {
		opts.MaxLabelLen = 80
	}

	included := map[int]bool{}
	for _, node := range sections.Nodes() {
		if node.ID == doc.RootID {
			included[node.ID] = opts.IncludeRoot
			continue
		}
		if !opts.IncludePseudoHeadings && definedByPseudo(atoms, node) {
			continue
		}
		included[node.ID] = true
	}

	var b strings.Builder
	fmt.Fprintf(&b, "flowchart %s\n", opts.Direction)

	for _, node := range sections.Nodes() {
		if !included[node.ID] {
			continue
		}
		fmt.Fprintf(&b, "    %s[\"%s\"]\n", nodeKey(node.ID), label(atoms, node, opts))
	}

	for _, node := range sections.Nodes() {
		if node.ID == doc.RootID || !included[node.ID] {
			continue
		}
		if p := nearestIncluded(sections, included, node.ParentID); p >= 0 {
			fmt.Fprintf(&b, "    %s --> %s\n", nodeKey(p), nodeKey(node.ID))
		}
	}

	if opts.IncludeAtoms {
		segOf := segmentIndex(atoms, segments)
		used := map[int]bool{}
		for _, a := range atoms {
			key := fmt.Sprintf("A%d", a.Index)
			lbl := fmt.Sprintf("#%d %s (%dw)", a.Index, a.Kind, a.WeightWords)
			fmt.Fprintf(&b, "    %s[\"%s\"]", key, escape(lbl))
			if seg, ok := segOf[a.Index]; ok {
				fmt.Fprintf(&b, ":::seg%d", seg)
				used[seg] = true
			}
			b.WriteString("\n")
			if included[a.SectionNodeID] {
				fmt.Fprintf(&b, "    %s --> %s\n", nodeKey(a.SectionNodeID), key)
			}
		}
		for _, s := range segments {
			if used[s.SegIdx] {
				fmt.Fprintf(&b, "    classDef seg%d fill:%s\n", s.SegIdx, palette[s.SegIdx%len(palette)])
			}
		}
	}

	return b.String()
}

func nodeKey(id int) string {
	if id == doc.RootID {
		return "ROOT"
	}
	return fmt.Sprintf("S%d", id)
}

func label(atoms []doc.Atom, node doc.SectionNode, opts Options) string {
	title := node.Title
	if node.ID == doc.RootID {
		title = "ROOT"
	} else if title == "" {
		title = fmt.Sprintf("section_%d", node.ID)
	}
	if opts.DedupeTitles && node.ID != doc.RootID {
		title = fmt.Sprintf("%s [%d]", title, node.ID)
	}
	if opts.IncludeStats && node.AtomEnd > node.AtomStart {
		words := 0
		for i := node.AtomStart; i < node.AtomEnd && i < len(atoms); i++ {
			words += atoms[i].WeightWords
		}
		title = fmt.Sprintf("%s (atoms %d-%d, words=%d)", title, node.AtomStart, node.AtomEnd-1, words)
	}
	if len(title) > opts.MaxLabelLen {
		title = title[:opts.MaxLabelLen-1] + "…"
	}
	return escape(title)
}

func definedByPseudo(atoms []doc.Atom, node doc.SectionNode) bool {
	if node.AtomStart < 0 || node.AtomStart >= len(atoms) {
		return false
	}
	return atoms[node.AtomStart].Kind == doc.KindPseudoHeading
}

func nearestIncluded(sections *doc.Registry, included map[int]bool, id int) int {
	for id >= 0 {
		if included[id] {
			return id
		}
		id = sections.Node(id).ParentID
	}
	return -1
}

func segmentIndex(atoms []doc.Atom, segments []splitter.Segment) map[int]int {
	out := map[int]int{}
	for _, s := range segments {
		for i := s.StartAtom; i < s.EndAtomExcl && i < len(atoms); i++ {
			out[i] = s.SegIdx
		}
	}
	return out
}

// escape makes a string safe inside a quoted Mermaid label.
func escape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.Join(strings.Fields(s), " ")
	return s
}
