package splitter

import (
	"fmt"

	"github.com/dgallion1/docsplit/internal/doc"
)

// partition solves the balanced-partition problem by dynamic
// programming over the candidate boundary list. Deviations are kept
// in integer arithmetic (scaled by n) so objective comparisons are
// exact and the result is identical across platforms.
//
// Tie-break order: minimal objective, then maximal total boundary
// strength over the chosen cuts, then lexicographically smallest cut
// index sequence.
func partition(atoms []doc.Atom, n int, cands []Candidate, stage Stage, opts Options) (*Plan, error) {
	k := len(atoms)

	// Boundary positions: segment edges live between atoms, so the
	// DP runs over [0, candidates..., k].
	pos := make([]int, 0, len(cands)+2)
	pos = append(pos, 0)
	strengthAt := make([]float64, 0, len(cands)+2)
	strengthAt = append(strengthAt, 0)
	for _, c := range cands {
		pos = append(pos, c.Index)
		strengthAt = append(strengthAt, c.Strength)
	}
	pos = append(pos, k)
	strengthAt = append(strengthAt, 0)
	l := len(pos)

	pref := make([]int64, k+1)
	for i, a := range atoms {
		pref[i+1] = pref[i] + int64(a.WeightWords)
	}
	total := pref[k]

	// Cost of the segment [pos[j], pos[i]), with the deviation from
	// the ideal share total/n scaled by n to stay integral.
	segCost := func(j, i int) int64 {
		d := int64(n)*(pref[pos[i]]-pref[pos[j]]) - total
		if opts.Metric == MetricAbsolute {
			if d < 0 {
				d = -d
			}
			return d
		}
		return d * d
	}

	type state struct {
		cost     int64
		strength float64
		ok       bool
	}
	dp := make([][]state, n+1)
	parent := make([][]int, n+1)
	for s := range dp {
		dp[s] = make([]state, l)
		parent[s] = make([]int, l)
		for i := range parent[s] {
			parent[s][i] = -1
		}
	}

	for i := 1; i < l; i++ {
		dp[1][i] = state{cost: segCost(0, i), ok: true}
		parent[1][i] = 0
	}

	// cutsFor reconstructs the cut sequence of a finalized state.
	// Only states of rounds below the one being filled are consulted.
	cutsFor := func(segs, i int) []int {
		out := make([]int, 0, segs-1)
		for s := segs; s > 1; s-- {
			j := parent[s][i]
			out = append(out, pos[j])
			i = j
		}
		for lo, hi := 0, len(out)-1; lo < hi; lo, hi = lo+1, hi-1 {
			out[lo], out[hi] = out[hi], out[lo]
		}
		return out
	}

	for segs := 2; segs <= n; segs++ {
		for i := segs; i < l; i++ {
			best := state{}
			bestJ := -1
			for j := segs - 1; j < i; j++ {
				prev := dp[segs-1][j]
				if !prev.ok {
					continue
				}
				cand := state{
					cost:     prev.cost + segCost(j, i),
					strength: prev.strength + strengthAt[j],
					ok:       true,
				}
				switch {
				case bestJ < 0 || cand.cost < best.cost:
				case cand.cost > best.cost:
					continue
				case cand.strength > best.strength:
				case cand.strength < best.strength:
					continue
				default:
					a := append(cutsFor(segs-1, j), pos[j])
					b := append(cutsFor(segs-1, bestJ), pos[bestJ])
					if !lexLess(a, b) {
						continue
					}
				}
				best = cand
				bestJ = j
			}
			dp[segs][i] = best
			parent[segs][i] = bestJ
		}
	}

	final := dp[n][l-1]
	if !final.ok {
		return nil, fmt.Errorf("%w: no feasible arrangement of %d cuts", ErrInsufficientCandidates, n-1)
	}
	cuts := cutsFor(n, l-1)

	segments := make([]Segment, 0, n)
	start := 0
	for si, cut := range cuts {
		segments = append(segments, makeSegment(atoms, si, start, cut))
		start = cut
	}
	segments = append(segments, makeSegment(atoms, n-1, start, k))

	objective := float64(final.cost)
	if opts.Metric == MetricAbsolute {
		objective /= float64(n)
	} else {
		objective /= float64(n) * float64(n)
	}

	return &Plan{
		N:         n,
		Metric:    opts.Metric,
		Objective: objective,
		Stage:     stage,
		Cuts:      cuts,
		Segments:  segments,
	}, nil
}

func lexLess(a, b []int) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}
