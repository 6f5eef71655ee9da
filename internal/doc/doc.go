package doc

// Kind classifies an atom. The set is closed; code that dispatches on
// Kind switches over every value.
type Kind int

const (
	KindHeading Kind = iota
	KindPseudoHeading
	KindParagraph
	KindList
	KindTable
	KindCode
	KindHR
	KindBlank
)

func (k Kind) String() string {
	switch k {
	case KindHeading:
		return "heading"
	case KindPseudoHeading:
		return "pseudo_heading"
	case KindParagraph:
		return "paragraph"
	case KindList:
		return "list"
	case KindTable:
		return "table"
	case KindCode:
		return "code"
	case KindHR:
		return "hr"
	case KindBlank:
		return "blank"
	}
	return "unknown"
}

// MarshalJSON emits the kind as its string name.
func (k Kind) MarshalJSON() ([]byte, error) {
	return []byte(`"` + k.String() + `"`), nil
}

// Atom is the smallest unit eligible for splitting. It is never
// subdivided; segment boundaries fall only between atoms.
type Atom struct {
	Index int  `json:"index"`
	Kind  Kind `json:"kind"`

	// Exact location. Byte ranges of consecutive atoms are contiguous;
	// concatenating every atom's Text reproduces the document.
	StartByte int `json:"start_byte"`
	EndByte   int `json:"end_byte"`
	StartLine int `json:"start_line"` // 0-based
	EndLine   int `json:"end_line"`   // inclusive, 0-based

	Text string `json:"-"`

	WeightWords int `json:"weight_words"`
	WeightChars int `json:"weight_chars"`

	// Depth is the heading nesting level (1..6) for heading and
	// pseudo-heading atoms, 0 otherwise.
	Depth int `json:"depth"`

	// Section membership. SectionPathIDs is the root→node chain of
	// section ids, always starting at the root (id 0).
	SectionNodeID  int      `json:"section_node_id"`
	SectionPathIDs []int    `json:"section_path_ids"`
	SectionPath    []string `json:"section_path"`

	CanCutBefore     bool    `json:"can_cut_before"`
	BoundaryStrength float64 `json:"boundary_strength"`
}

// SectionNode is one entry in the section pseudo-tree.
type SectionNode struct {
	ID       int    `json:"id"`
	ParentID int    `json:"parent_id"` // -1 for the root
	Title    string `json:"title"`
	Depth    int    `json:"depth"`

	AtomStart int `json:"atom_start"`
	AtomEnd   int `json:"atom_end"` // exclusive

	Children []int `json:"children"` // child ids in insertion order
}

// RootID is the id of the implicit root section, present in every
// registry regardless of whether the document has headings.
const RootID = 0
