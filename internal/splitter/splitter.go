// Package splitter chooses where to cut an atom stream so a document
// divides into N contiguous sections with balanced word counts. Cuts
// are restricted to structurally sound positions, relaxing through
// progressively weaker boundary tiers only when the stricter tier
// cannot supply enough of them.
package splitter

import (
	"errors"
	"fmt"

	"github.com/dgallion1/docsplit/internal/doc"
)

var (
	// ErrInvalidRequest rejects a request before any work happens:
	// N below 1, or N above 1 on an empty document.
	ErrInvalidRequest = errors.New("invalid split request")

	// ErrInsufficientCandidates means even the weakest relaxation
	// stage cannot supply N-1 distinct cut positions. No partial
	// result is produced.
	ErrInsufficientCandidates = errors.New("insufficient cut candidates")
)

// Metric selects the balance objective. It is fixed for a call;
// squared and absolute deviation are never mixed.
type Metric int

const (
	MetricSquared Metric = iota // sum of squared deviations (default)
	MetricAbsolute
)

func (m Metric) String() string {
	if m == MetricAbsolute {
		return "absolute"
	}
	return "squared"
}

// MarshalJSON emits the metric as its string name.
func (m Metric) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// ParseMetric maps a configuration string to a Metric.
func ParseMetric(s string) (Metric, error) {
	switch s {
	case "", "squared":
		return MetricSquared, nil
	case "absolute":
		return MetricAbsolute, nil
	}
	return MetricSquared, fmt.Errorf("%w: unknown objective %q", ErrInvalidRequest, s)
}

// Segment is one of the N contiguous atom ranges of a plan.
type Segment struct {
	SegIdx          int      `json:"seg_idx"`
	StartAtom       int      `json:"start_atom"`
	EndAtomExcl     int      `json:"end_atom_excl"`
	Words           int      `json:"words"`
	StartPathIDs    []int    `json:"start_path_ids"`
	StartPathTitles []string `json:"start_path_titles"`
}

// Plan is the result of partitioning an atom stream into N segments.
// Cuts are atom indices: cut i starts a new segment at atoms[i].
type Plan struct {
	N         int       `json:"n"`
	Metric    Metric    `json:"metric"`
	Objective float64   `json:"objective"`
	Stage     Stage     `json:"stage,omitempty"`
	Cuts      []int     `json:"cuts"`
	Segments  []Segment `json:"segments"`
}

// Options tunes partitioning. The zero value uses the squared metric.
type Options struct {
	Metric Metric
}

// Split partitions atoms into n segments with default options.
func Split(atoms []doc.Atom, n int) (*Plan, error) {
	return SplitWith(atoms, n, Options{})
}

// SplitWith partitions atoms into n segments. The result is a pure
// function of (atoms, n, opts): identical inputs always produce
// identical cuts and objective.
func SplitWith(atoms []doc.Atom, n int, opts Options) (*Plan, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: n must be >= 1, got %d", ErrInvalidRequest, n)
	}
	if len(atoms) == 0 {
		if n > 1 {
			return nil, fmt.Errorf("%w: cannot split an empty document into %d sections", ErrInvalidRequest, n)
		}
		return &Plan{
			N:        1,
			Metric:   opts.Metric,
			Segments: []Segment{{SegIdx: 0}},
		}, nil
	}
	if n == 1 {
		// Trivial plan; the selector is never consulted.
		seg := makeSegment(atoms, 0, 0, len(atoms))
		return &Plan{
			N:        1,
			Metric:   opts.Metric,
			Segments: []Segment{seg},
		}, nil
	}

	cands, stage, err := Candidates(atoms, n)
	if err != nil {
		return nil, err
	}
	return partition(atoms, n, cands, stage, opts)
}

func makeSegment(atoms []doc.Atom, segIdx, start, end int) Segment {
	words := 0
	for i := start; i < end; i++ {
		words += atoms[i].WeightWords
	}
	return Segment{
		SegIdx:          segIdx,
		StartAtom:       start,
		EndAtomExcl:     end,
		Words:           words,
		StartPathIDs:    atoms[start].SectionPathIDs,
		StartPathTitles: atoms[start].SectionPath,
	}
}
