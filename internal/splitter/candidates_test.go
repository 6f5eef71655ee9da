package splitter

import (
	"testing"

	"github.com/dgallion1/docsplit/internal/atomizer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func indices(cands []Candidate) []int {
	out := make([]int, len(cands))
	for i, c := range cands {
		out[i] = c.Index
	}
	return out
}

func TestCandidates_StructuralStageSuffices(t *testing.T) {
	text := "# A\n\nbody\n\n- x\n- y\n\n## B\n\nbody\n"
	res := atomizer.Atomize(text)

	cands, stage, err := Candidates(res.Atoms, 2)
	require.NoError(t, err)
	assert.Equal(t, StageStructural, stage)
	// Only the ## heading; the list is held back for stage 2 and the
	// leading # heading sits at atom 0, which is never a candidate.
	assert.Equal(t, []int{6}, indices(cands))
}

func TestCandidates_RelaxesToBlocks(t *testing.T) {
	text := "# A\n\nbody\n\n- x\n- y\n\n## B\n\nbody\n"
	res := atomizer.Atomize(text)

	cands, stage, err := Candidates(res.Atoms, 3)
	require.NoError(t, err)
	assert.Equal(t, StageBlock, stage)
	assert.Equal(t, []int{4, 6}, indices(cands))
}

func TestCandidates_RelaxesToParagraphs(t *testing.T) {
	text := "# A\n\nbody\n\n- x\n- y\n\n## B\n\nbody\n"
	res := atomizer.Atomize(text)

	cands, stage, err := Candidates(res.Atoms, 4)
	require.NoError(t, err)
	assert.Equal(t, StageParagraph, stage)
	assert.Equal(t, []int{2, 4, 6, 8}, indices(cands))
}

func TestCandidates_BlanksNeverEligible(t *testing.T) {
	text := "# A\n\nbody\n\n## B\n\nbody\n"
	res := atomizer.Atomize(text)

	cands, _, err := Candidates(res.Atoms, 3)
	require.NoError(t, err)
	for _, c := range cands {
		assert.NotEqual(t, "blank", res.Atoms[c.Index].Kind.String(),
			"blank atoms must never be cut targets")
	}
}

func TestCandidates_Exhausted(t *testing.T) {
	res := atomizer.Atomize("one short paragraph\n")
	_, stage, err := Candidates(res.Atoms, 3)
	assert.Equal(t, StageParagraph, stage)
	assert.ErrorIs(t, err, ErrInsufficientCandidates)
}
