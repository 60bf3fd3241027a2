package stree

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/Sumatoshi-tech/stalign/pkg/arcseq"
)

// Sentinel errors returned by Build.
var (
	// ErrUnbalanced means the cumulative bond count does not return to zero.
	ErrUnbalanced = errors.New("cumulative bond count does not return to zero")
	// ErrMalformed means a range invariant failed while building.
	ErrMalformed = errors.New("malformed arc-annotated sequence")
	// ErrStructureTooLarge means the build or its input exceeded a configured
	// capacity. It is arcseq.ErrTooLarge, so over-long sequences match too.
	ErrStructureTooLarge = arcseq.ErrTooLarge
	// ErrNilSequence is returned when Build is called without a sequence.
	ErrNilSequence = errors.New("nil sequence")
)

// Build limits.
const (
	// DefaultMaxDepth bounds the number of nested operator levels.
	DefaultMaxDepth = 1 << 20

	// ctxCheckInterval is how many work items run between context checks.
	ctxCheckInterval = 1024
)

// Options configures a Builder.
type Options struct {
	// MaxDepth bounds the depth of the built tree. Zero disables the check.
	MaxDepth int
	// MaxBonds rejects inputs with more bonds. Zero disables the check.
	MaxBonds int
	// Logger receives debug output. Nil uses slog.Default().
	Logger *slog.Logger
}

// Option mutates Options.
type Option func(*Options)

// WithMaxDepth sets Options.MaxDepth.
func WithMaxDepth(depth int) Option {
	return func(o *Options) {
		o.MaxDepth = depth
	}
}

// WithMaxBonds sets Options.MaxBonds.
func WithMaxBonds(bonds int) Option {
	return func(o *Options) {
		o.MaxBonds = bonds
	}
}

// WithLogger sets Options.Logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// Builder turns arc-annotated sequences into structural trees. A Builder
// holds only configuration and may be shared between goroutines.
type Builder struct {
	opts Options
}

// NewBuilder returns a Builder with DefaultMaxDepth and no bond limit,
// adjusted by opts.
func NewBuilder(opts ...Option) *Builder {
	options := Options{MaxDepth: DefaultMaxDepth}

	for _, opt := range opts {
		opt(&options)
	}

	if options.Logger == nil {
		options.Logger = slog.Default()
	}

	return &Builder{opts: options}
}

// Build builds the structural tree of seq with a new Builder.
func Build(ctx context.Context, seq *arcseq.Sequence, opts ...Option) (*Node, error) {
	return NewBuilder(opts...).Build(ctx, seq)
}

// frame is one pending work item: the range [l, r] of a pseudoloop, the
// zero intervals and meet points found in it, and the node it will fill.
type frame struct {
	state     *loopState
	l, r      int
	intervals []Interval
	meets     []int
	node      *Node
	depth     int
}

// Build builds the structural tree of seq. Work items are kept on an
// explicit stack so the depth of the tree is limited only by MaxDepth.
func (b *Builder) Build(ctx context.Context, seq *arcseq.Sequence) (*Node, error) {
	if seq == nil {
		return nil, ErrNilSequence
	}

	if b.opts.MaxBonds > 0 && seq.NumBonds() > b.opts.MaxBonds {
		return nil, fmt.Errorf("%w: %d bonds exceed limit %d", ErrStructureTooLarge, seq.NumBonds(), b.opts.MaxBonds)
	}

	state, err := newLoopState(seq)
	if err != nil {
		return nil, err
	}

	l, r, ok := state.outerBounds()
	if !ok {
		return nil, fmt.Errorf("%w: no open range", ErrMalformed)
	}

	root := &Node{}

	first, err := b.schedule(state, l, r, root, 1)
	if err != nil {
		return nil, err
	}

	stack := []*frame{first}
	steps, peak := 0, 1

	for len(stack) > 0 {
		if steps%ctxCheckInterval == 0 {
			ctxErr := ctx.Err()
			if ctxErr != nil {
				return nil, fmt.Errorf("build structural tree: %w", ctxErr)
			}
		}

		steps++

		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		next, stepErr := b.step(top)
		if stepErr != nil {
			return nil, stepErr
		}

		for idx := len(next) - 1; idx >= 0; idx-- {
			stack = append(stack, next[idx])
		}

		peak = max(peak, len(stack))
	}

	b.opts.Logger.DebugContext(ctx, "structural tree built",
		"name", seq.Name(), "bonds", seq.NumBonds(), "steps", steps, "peak_stack", peak)

	return root, nil
}

// schedule checks the range invariant of [l, r], runs the analyzer on it
// and returns the work item that will fill node.
func (b *Builder) schedule(state *loopState, l, r int, node *Node, depth int) (*frame, error) {
	if b.opts.MaxDepth > 0 && depth > b.opts.MaxDepth {
		return nil, fmt.Errorf("%w: depth %d exceeds limit %d", ErrStructureTooLarge, depth, b.opts.MaxDepth)
	}

	rangeErr := state.checkRange("enter", l, r)
	if rangeErr != nil {
		return nil, rangeErr
	}

	intervals, err := state.zeroIntervals(l, r)
	if err != nil {
		return nil, err
	}

	return &frame{
		state:     state,
		l:         l,
		r:         r,
		intervals: intervals,
		meets:     state.meets(l, r),
		node:      node,
		depth:     depth,
	}, nil
}

// step resolves one work item into a grammar node and returns the work items
// for its residual sub-structures, left first.
func (b *Builder) step(f *frame) ([]*frame, error) {
	state := f.state

	closing := state.partnersOf(f.r)
	if len(closing) == 0 {
		return nil, &RangeError{Op: "no bond closes at range end", L: f.l, R: f.r, CountL: state.countAt(f.l), CountR: state.countAt(f.r)}
	}

	p0 := closing[0]

	if (len(f.meets) > 0 && f.meets[len(f.meets)-1] == p0) || len(f.intervals) > 0 {
		if slices.Contains(f.meets, p0) {
			return b.splitMeeting(f, p0)
		}

		return b.splitConcatenation(f)
	}

	if p0 > f.l {
		return b.crossing(f, p0)
	}

	degreeR, degreeP0 := state.degree(f.r), state.degree(p0)

	switch {
	case degreeR > 1 && degreeP0 == 1 && p0 == f.l:
		return b.ending(f, p0)
	case degreeR == 1 && degreeP0 > 1 && p0 == f.l:
		return b.starting(f, p0)
	case degreeR > 1 && degreeP0 > 1 && p0 == f.l:
		return b.diamond(f, p0)
	default:
		return b.nesting(f, p0)
	}
}

// splitMeeting splits [l, r] at the meet point m into [l, m] and [m, r].
// The left side gets its own copy of the state with count[m] forced to zero;
// the right side keeps the parent state with the boundary partner lists of
// m and r cut to [m, r].
func (b *Builder) splitMeeting(f *frame, m int) ([]*frame, error) {
	f.node.Label = Operator(KindMeeting)

	left := f.state.restrict(f.l, m)
	left.setCount(m, 0)

	f.state.filterPartners(m, m, f.r)
	f.state.filterPartners(f.r, m, f.r)

	return b.split(f, left, f.l, m, m, f.r)
}

// splitConcatenation splits [l, r] around its rightmost zero interval.
func (b *Builder) splitConcatenation(f *frame) ([]*frame, error) {
	f.node.Label = Operator(KindConcatenation)

	zero := f.intervals[len(f.intervals)-1]
	leftEnd, rightStart := zero.Start-1, zero.Stop

	left := f.state.restrict(f.l, leftEnd)

	return b.split(f, left, f.l, leftEnd, rightStart, f.r)
}

func (b *Builder) split(f *frame, left *loopState, ll, lr, rl, rr int) ([]*frame, error) {
	leftNode, rightNode := &Node{}, &Node{}
	f.node.Children = []*Node{leftNode, rightNode}

	leftFrame, err := b.schedule(left, ll, lr, leftNode, f.depth+1)
	if err != nil {
		return nil, err
	}

	rightFrame, err := b.schedule(f.state, rl, rr, rightNode, f.depth+1)
	if err != nil {
		return nil, err
	}

	return []*frame{leftFrame, rightFrame}, nil
}

func (b *Builder) crossing(f *frame, p0 int) ([]*frame, error) {
	state := f.state

	k := state.crossings(f.l, p0)
	if k == 0 {
		return nil, &RangeError{Op: "crossing without crossed bonds", L: f.l, R: f.r, CountL: state.countAt(f.l), CountR: state.countAt(f.r)}
	}

	state.decrement(p0, f.r)
	f.node.Label = Crossing(k)

	return b.proceed(f, p0, f.l, state.closingEnd(f.l, f.r))
}

func (b *Builder) ending(f *frame, p0 int) ([]*frame, error) {
	state := f.state
	state.decrement(f.l, f.r)

	lp := f.l + 1
	for state.countAt(lp) == 0 && lp < f.r {
		lp++
	}

	if lp == f.r {
		return b.demote(f, p0)
	}

	f.node.Label = Operator(KindEnding)

	return b.proceed(f, p0, lp, f.r)
}

func (b *Builder) starting(f *frame, p0 int) ([]*frame, error) {
	state := f.state
	state.decrement(f.l, f.r)
	f.node.Label = Operator(KindStarting)

	return b.proceed(f, p0, f.l, state.closingEnd(f.l, f.r))
}

func (b *Builder) diamond(f *frame, p0 int) ([]*frame, error) {
	f.state.decrement(f.l, f.r)
	f.node.Label = Operator(KindDiamond)

	return b.proceed(f, p0, f.l, f.r)
}

func (b *Builder) nesting(f *frame, p0 int) ([]*frame, error) {
	state := f.state
	state.decrement(f.l, f.r)

	lp, rp := f.l+1, f.r
	for state.countAt(lp) == 0 && lp < rp {
		lp++
	}

	if lp == rp {
		return b.demote(f, p0)
	}

	f.node.Label = Operator(KindNesting)

	return b.proceed(f, p0, lp, state.closingEnd(lp, f.r))
}

// proceed consumes the bond (p0, r), attaches [rest, HAIRPIN(p0, r)] to the
// current node and schedules the continuation range [l, r] for rest.
func (b *Builder) proceed(f *frame, p0, l, r int) ([]*frame, error) {
	f.state.removeBond(p0, f.r)

	rest := &Node{}
	f.node.Children = []*Node{rest, NewLeaf(Hairpin(p0, f.r))}

	next, err := b.schedule(f.state, l, r, rest, f.depth+1)
	if err != nil {
		return nil, err
	}

	return []*frame{next}, nil
}

// demote turns the current node into the hairpin of the bond (p0, r) when
// nothing is left inside it.
func (b *Builder) demote(f *frame, p0 int) ([]*frame, error) {
	f.state.removeBond(p0, f.r)
	f.node.Label = Hairpin(p0, f.r)
	f.node.Children = nil

	return nil, nil
}
