// Package arcseq models arc-annotated sequences: an ordered sequence of
// positions 1..n together with a set of pairwise bonds (arcs) between them.
// Arcs may cross, so pseudoknotted structures are representable.
package arcseq

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
)

// Sentinel errors for sequence construction.
var (
	ErrEmptySequence   = errors.New("sequence length must be positive")
	ErrNoBonds         = errors.New("no bonds")
	ErrIndexOutOfRange = errors.New("bond index out of range")
	ErrResidueMismatch = errors.New("residue count does not match sequence length")
	// ErrTooLarge means an input exceeds a configured capacity.
	ErrTooLarge = errors.New("structure too large")
)

// DefaultMaxLength bounds the sequence length accepted by New.
const DefaultMaxLength = 1 << 22

// Bond is an unordered pair of 1-based positions. Bonds returned by a
// Sequence are always normalized so that I < J.
type Bond struct {
	I int `json:"i" yaml:"i"`
	J int `json:"j" yaml:"j"`
}

// String renders the bond as "(i,j)".
func (b Bond) String() string {
	return fmt.Sprintf("(%d,%d)", b.I, b.J)
}

func (b Bond) normalized() Bond {
	if b.I > b.J {
		return Bond{I: b.J, J: b.I}
	}

	return b
}

// CompareBonds orders bonds by left endpoint, then by right endpoint.
func CompareBonds(a, b Bond) int {
	if c := cmp.Compare(a.I, b.I); c != 0 {
		return c
	}

	return cmp.Compare(a.J, b.J)
}

// Sequence is an immutable arc-annotated sequence.
type Sequence struct {
	name      string
	residues  string
	length    int
	maxLength int
	bonds     []Bond
	partners  [][]int
}

// Option configures optional Sequence metadata.
type Option func(*Sequence)

// WithName attaches a display name (usually the source file name).
func WithName(name string) Option {
	return func(s *Sequence) {
		s.name = name
	}
}

// WithResidues attaches the primary sequence letters. When set, its length
// must equal the sequence length.
func WithResidues(residues string) Option {
	return func(s *Sequence) {
		s.residues = residues
	}
}

// WithMaxLength sets the longest sequence New accepts, DefaultMaxLength
// unless set. Zero disables the check.
func WithMaxLength(length int) Option {
	return func(s *Sequence) {
		s.maxLength = length
	}
}

// New builds a Sequence of the given length from a bond list. Bonds are
// normalized: endpoints are swapped so that i < j, self-pairs are dropped
// and duplicates (including inverse duplicates) are collapsed. A length
// over the limit fails with ErrTooLarge before anything is allocated.
func New(length int, bonds []Bond, opts ...Option) (*Sequence, error) {
	if length < 1 {
		return nil, fmt.Errorf("%w: length %d", ErrEmptySequence, length)
	}

	seq := &Sequence{length: length, maxLength: DefaultMaxLength}

	for _, opt := range opts {
		opt(seq)
	}

	if seq.maxLength > 0 && length > seq.maxLength {
		return nil, fmt.Errorf("%w: length %d exceeds limit %d", ErrTooLarge, length, seq.maxLength)
	}

	if seq.residues != "" && len(seq.residues) != length {
		return nil, fmt.Errorf("%w: %d residues for length %d", ErrResidueMismatch, len(seq.residues), length)
	}

	seen := make(map[Bond]struct{}, len(bonds))
	normalized := make([]Bond, 0, len(bonds))

	for _, bond := range bonds {
		if bond.I < 1 || bond.J < 1 || bond.I > length || bond.J > length {
			return nil, fmt.Errorf("%w: %s not within [1,%d]", ErrIndexOutOfRange, bond, length)
		}

		if bond.I == bond.J {
			continue
		}

		nb := bond.normalized()
		if _, dup := seen[nb]; dup {
			continue
		}

		seen[nb] = struct{}{}
		normalized = append(normalized, nb)
	}

	if len(normalized) == 0 {
		return nil, ErrNoBonds
	}

	slices.SortFunc(normalized, CompareBonds)

	partners := make([][]int, length+1)
	for _, bond := range normalized {
		partners[bond.I] = append(partners[bond.I], bond.J)
		partners[bond.J] = append(partners[bond.J], bond.I)
	}

	for i := range partners {
		slices.Sort(partners[i])
	}

	seq.bonds = normalized
	seq.partners = partners

	return seq, nil
}

// Name returns the display name, possibly empty.
func (s *Sequence) Name() string { return s.name }

// Residues returns the primary sequence letters, possibly empty.
func (s *Sequence) Residues() string { return s.residues }

// Len returns the number of positions n.
func (s *Sequence) Len() int { return s.length }

// NumBonds returns the number of distinct bonds.
func (s *Sequence) NumBonds() int { return len(s.bonds) }

// Bonds returns the normalized bonds sorted by CompareBonds.
func (s *Sequence) Bonds() []Bond {
	return slices.Clone(s.bonds)
}

// Partners returns the sorted partners of position i, or nil when i is
// out of range.
func (s *Sequence) Partners(i int) []int {
	if i < 1 || i > s.length {
		return nil
	}

	return slices.Clone(s.partners[i])
}

// Degree returns the number of partners of position i.
func (s *Sequence) Degree(i int) int {
	if i < 1 || i > s.length {
		return 0
	}

	return len(s.partners[i])
}

// PartnerTable returns a deep copy of the partner adjacency, indexed 1..n.
// Index 0 is always empty.
func (s *Sequence) PartnerTable() [][]int {
	table := make([][]int, len(s.partners))
	for i, list := range s.partners {
		table[i] = slices.Clone(list)
	}

	return table
}
