package splitter

import (
	"fmt"

	"github.com/dgallion1/docsplit/internal/doc"
)

// Stage is a relaxation tier for cut candidates. Tiers are cumulative:
// each admits everything the previous one did.
type Stage int

const (
	// StageStructural admits heading, pseudo-heading and horizontal
	// rule atoms.
	StageStructural Stage = iota + 1
	// StageBlock additionally admits list, table and code atoms.
	StageBlock
	// StageParagraph additionally admits paragraph starts. This is
	// the last resort before giving up.
	StageParagraph
)

func (s Stage) String() string {
	switch s {
	case StageStructural:
		return "structural"
	case StageBlock:
		return "block"
	case StageParagraph:
		return "paragraph"
	}
	return "unknown"
}

// MarshalJSON emits the stage as its string name.
func (s Stage) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// Candidate is an atom index eligible as a segment boundary, meaning
// "a new segment may start at atoms[Index]".
type Candidate struct {
	Index    int     `json:"index"`
	Strength float64 `json:"boundary_strength"`
}

// Candidates returns the ordered cut candidates for splitting atoms
// into n segments, together with the relaxation stage that supplied
// them. A stricter stage is only abandoned when it yields fewer than
// n-1 distinct positions. Atom 0 is never a candidate (the first
// segment always starts there) and blanks never are: a cut placed
// before a blank would attach to the following non-blank atom anyway.
func Candidates(atoms []doc.Atom, n int) ([]Candidate, Stage, error) {
	for stage := StageStructural; stage <= StageParagraph; stage++ {
		cands := collect(atoms, stage)
		if len(cands) >= n-1 {
			return cands, stage, nil
		}
	}
	return nil, StageParagraph, fmt.Errorf(
		"%w: need %d cut positions, document offers fewer at every relaxation stage",
		ErrInsufficientCandidates, n-1)
}

func collect(atoms []doc.Atom, stage Stage) []Candidate {
	var cands []Candidate
	for i := 1; i < len(atoms); i++ {
		if eligible(atoms[i], stage) {
			cands = append(cands, Candidate{Index: i, Strength: atoms[i].BoundaryStrength})
		}
	}
	return cands
}

func eligible(a doc.Atom, stage Stage) bool {
	switch a.Kind {
	case doc.KindHeading, doc.KindPseudoHeading, doc.KindHR:
		return a.CanCutBefore
	case doc.KindList, doc.KindTable, doc.KindCode:
		return stage >= StageBlock && a.CanCutBefore
	case doc.KindParagraph:
		return stage >= StageParagraph
	case doc.KindBlank:
		return false
	}
	return false
}
