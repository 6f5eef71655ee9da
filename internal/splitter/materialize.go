package splitter

import (
	"fmt"

	"github.com/dgallion1/docsplit/internal/doc"
)

// Materialize translates atom cut indices into byte offsets and
// slices the original text into literal sections. No byte is added,
// removed or reflowed: concatenating the returned sections in order
// reproduces text exactly.
func Materialize(text string, atoms []doc.Atom, cuts []int) ([]string, error) {
	offsets := make([]int, 0, len(cuts))
	prev := 0
	for _, cut := range cuts {
		if cut <= prev || cut >= len(atoms) {
			return nil, fmt.Errorf("%w: cut index %d out of order or range", ErrInvalidRequest, cut)
		}
		offsets = append(offsets, atoms[cut].StartByte)
		prev = cut
	}

	sections := make([]string, 0, len(cuts)+1)
	start := 0
	for _, off := range offsets {
		sections = append(sections, text[start:off])
		start = off
	}
	sections = append(sections, text[start:])
	return sections, nil
}
