package stree

import (
	"fmt"
	"slices"

	"github.com/Sumatoshi-tech/stalign/pkg/arcseq"
)

// RangeError reports a violated pseudoloop invariant on the range [L,R].
type RangeError struct {
	Op     string
	L, R   int
	CountL int
	CountR int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s: invariant violated on [%d,%d] (count[%d]=%d, count[%d]=%d)",
		e.Op, e.L, e.R, e.L, e.CountL, e.R, e.CountR)
}

// Unwrap makes RangeError match ErrMalformed.
func (e *RangeError) Unwrap() error {
	return ErrMalformed
}

// Interval is a half-open zero interval [Start, Stop) inside a pseudoloop.
// It may be empty when Start == Stop.
type Interval struct {
	Start int `json:"start"`
	Stop  int `json:"stop"`
}

// Len returns the number of positions in the interval.
func (iv Interval) Len() int {
	return iv.Stop - iv.Start
}

func (iv Interval) String() string {
	return fmt.Sprintf("[%d,%d)", iv.Start, iv.Stop)
}

// loopState is the working state of one pseudoloop range: counting array,
// meet array and live partner lists for the positions [base, base+len).
// A state is owned by exactly one pending work item.
type loopState struct {
	base     int
	count    []int
	meet     []int
	partners [][]int
}

func newLoopState(seq *arcseq.Sequence) (*loopState, error) {
	n := seq.Len()
	partners := seq.PartnerTable()
	count := make([]int, n+1)
	meet := make([]int, n+1)

	for i := 1; i <= n; i++ {
		opens, closes := 0, 0

		for _, p := range partners[i] {
			switch {
			case p > i:
				opens++
			case p < i:
				closes++
			}
		}

		count[i] = count[i-1] + opens - closes

		if opens > 0 && closes > 0 {
			meet[i] = len(partners[i])
		}
	}

	if count[n] != 0 {
		return nil, fmt.Errorf("%w: final count %d", ErrUnbalanced, count[n])
	}

	return &loopState{count: count, meet: meet, partners: partners}, nil
}

func (s *loopState) contains(i int) bool {
	return i >= s.base && i < s.base+len(s.count)
}

func (s *loopState) countAt(i int) int {
	return s.count[i-s.base]
}

func (s *loopState) setCount(i, value int) {
	s.count[i-s.base] = value
}

// decrement lowers count[i] for i in [from, to).
func (s *loopState) decrement(from, to int) {
	for i := from; i < to; i++ {
		s.count[i-s.base]--
	}
}

func (s *loopState) partnersOf(i int) []int {
	return s.partners[i-s.base]
}

func (s *loopState) degree(i int) int {
	return len(s.partners[i-s.base])
}

// upper counts the live partners of i lying to its right.
func (s *loopState) upper(i int) int {
	return countAbove(s.partnersOf(i), i)
}

func (s *loopState) removeBond(a, b int) {
	s.removePartner(a, b)
	s.removePartner(b, a)
}

func (s *loopState) removePartner(at, partner int) {
	list := s.partners[at-s.base]
	if idx, found := slices.BinarySearch(list, partner); found {
		s.partners[at-s.base] = slices.Delete(list, idx, idx+1)
	}
}

// filterPartners keeps only the partners of i inside [lo, hi].
func (s *loopState) filterPartners(i, lo, hi int) {
	s.partners[i-s.base] = withinRange(s.partners[i-s.base], lo, hi)
}

// restrict returns an independent copy of the state covering [lo, hi],
// with every partner list filtered to that range.
func (s *loopState) restrict(lo, hi int) *loopState {
	size := hi - lo + 1
	out := &loopState{
		base:     lo,
		count:    make([]int, size),
		meet:     make([]int, size),
		partners: make([][]int, size),
	}

	copy(out.count, s.count[lo-s.base:hi-s.base+1])
	copy(out.meet, s.meet[lo-s.base:hi-s.base+1])

	for i := lo; i <= hi; i++ {
		out.partners[i-lo] = withinRange(s.partnersOf(i), lo, hi)
	}

	return out
}

func withinRange(list []int, lo, hi int) []int {
	out := make([]int, 0, len(list))

	for _, p := range list {
		if p >= lo && p <= hi {
			out = append(out, p)
		}
	}

	return out
}

// outerBounds returns the first position with a nonzero count and one past
// the last such position.
func (s *loopState) outerBounds() (int, int, bool) {
	left, right := -1, -1

	for i := s.base; i < s.base+len(s.count); i++ {
		if s.countAt(i) == 0 {
			continue
		}

		if left < 0 {
			left = i
		}

		right = i
	}

	if left < 0 || !s.contains(right+1) {
		return 0, 0, false
	}

	return left, right + 1, true
}

func (s *loopState) checkRange(op string, l, r int) error {
	if l >= r || !s.contains(l) || !s.contains(r) {
		return &RangeError{Op: op, L: l, R: r, CountL: -1, CountR: -1}
	}

	countL, countR := s.countAt(l), s.countAt(r)
	if countL < 1 || countR != 0 {
		return &RangeError{Op: op, L: l, R: r, CountL: countL, CountR: countR}
	}

	return nil
}

// zeroIntervals finds, left to right, the intervals inside [l, r] where the
// count drops to zero before the range ends.
func (s *loopState) zeroIntervals(l, r int) ([]Interval, error) {
	var intervals []Interval

	i := l

	for {
		for i < r && s.countAt(i) != 0 {
			i++
		}

		if i >= r {
			return intervals, nil
		}

		i++
		start := i

		for i < r && s.countAt(i) == 0 {
			i++
		}

		if i >= r {
			return nil, &RangeError{Op: "zero interval reaches range end", L: l, R: r, CountL: s.countAt(l), CountR: s.countAt(r)}
		}

		intervals = append(intervals, Interval{Start: start, Stop: i})
	}
}

// meets returns, left to right, the interior positions of (l, r) that are
// live meet points: fewer open bonds than partners, all of them opened here.
func (s *loopState) meets(l, r int) []int {
	var points []int

	for i := l + 1; i < r; i++ {
		if s.meet[i-s.base] == 0 {
			continue
		}

		open := s.countAt(i)
		if open < s.degree(i) && open <= s.upper(i) {
			points = append(points, i)
		}
	}

	return points
}

// crossings counts the live bonds (a,b) with l <= a < p0 < b.
func (s *loopState) crossings(l, p0 int) int {
	k := 0

	for a := l; a < p0; a++ {
		k += countAbove(s.partnersOf(a), p0)
	}

	return k
}

func countAbove(sorted []int, bound int) int {
	idx, _ := slices.BinarySearch(sorted, bound+1)

	return len(sorted) - idx
}

// closingEnd scans left from r over zero counts and returns one past the
// last open position, never moving below lo.
func (s *loopState) closingEnd(lo, r int) int {
	rp := r
	for rp > lo && s.countAt(rp) == 0 {
		rp--
	}

	return rp + 1
}

// Analysis is a snapshot of the pseudoloop analyzer over a whole sequence
// before any bond is consumed.
type Analysis struct {
	Length    int        `json:"length"`
	Count     []int      `json:"count"`
	Meet      []int      `json:"meet"`
	Left      int        `json:"left"`
	Right     int        `json:"right"`
	Intervals []Interval `json:"intervals"`
	Meets     []int      `json:"meets"`
}

// Analyze runs the pseudoloop analyzer on the outer range of seq.
func Analyze(seq *arcseq.Sequence) (*Analysis, error) {
	if seq == nil {
		return nil, ErrNilSequence
	}

	state, err := newLoopState(seq)
	if err != nil {
		return nil, err
	}

	l, r, ok := state.outerBounds()
	if !ok {
		return nil, fmt.Errorf("%w: no open range", ErrMalformed)
	}

	rangeErr := state.checkRange("outer range", l, r)
	if rangeErr != nil {
		return nil, rangeErr
	}

	intervals, err := state.zeroIntervals(l, r)
	if err != nil {
		return nil, err
	}

	return &Analysis{
		Length:    seq.Len(),
		Count:     slices.Clone(state.count),
		Meet:      slices.Clone(state.meet),
		Left:      l,
		Right:     r,
		Intervals: intervals,
		Meets:     state.meets(l, r),
	}, nil
}
