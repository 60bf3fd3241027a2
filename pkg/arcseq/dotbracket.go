package arcseq

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrNotDotBracket is returned when a sequence cannot be written in
// dot-bracket notation because some position has more than one partner.
var ErrNotDotBracket = errors.New("sequence has multi-partner positions")

// ErrUnbalanced is returned for a bracket that is never closed or opened.
var ErrUnbalanced = errors.New("unbalanced brackets")

// bracketPairs lists the bracket families in the order they are assigned by
// FormatDotBracket. Letter pairs (A/a ... Z/z) follow after these.
var bracketPairs = [][2]rune{{'(', ')'}, {'[', ']'}, {'{', '}'}, {'<', '>'}}

const unpaired = '.'

// ParseDotBracket reads a dot-bracket string such as "((..[[..))..]]".
// Pseudoknots are expressed with distinct bracket families: (), [], {}, <>
// and upper/lower case letter pairs A...a. Positions are 1-based.
func ParseDotBracket(structure string, opts ...Option) (*Sequence, error) {
	runes := []rune(strings.TrimSpace(structure))
	stacks := make(map[rune][]int)

	var bonds []Bond

	for idx, ch := range runes {
		pos := idx + 1

		if ch == unpaired || ch == '-' || ch == ',' || ch == ':' {
			continue
		}

		if opener, closes := closerFamily(ch); closes {
			stack := stacks[opener]
			if len(stack) == 0 {
				return nil, fmt.Errorf("%w: %q at position %d has no opening bracket", ErrUnbalanced, ch, pos)
			}

			bonds = append(bonds, Bond{I: stack[len(stack)-1], J: pos})
			stacks[opener] = stack[:len(stack)-1]

			continue
		}

		if isOpener(ch) {
			stacks[ch] = append(stacks[ch], pos)

			continue
		}

		return nil, &SyntaxError{Line: 1, Col: pos, Msg: fmt.Sprintf("unexpected %q", ch)}
	}

	for family := 0; ; family++ {
		opener, _, ok := familyRunes(family)
		if !ok {
			break
		}

		if stack := stacks[opener]; len(stack) > 0 {
			return nil, fmt.Errorf("%w: %q at position %d is never closed", ErrUnbalanced, opener, stack[len(stack)-1])
		}
	}

	if len(bonds) == 0 {
		return nil, ErrNoBonds
	}

	return New(len(runes), bonds, opts...)
}

// FormatDotBracket renders seq in dot-bracket notation. Crossing bonds are
// assigned to further bracket families greedily, left to right.
func FormatDotBracket(seq *Sequence) (string, error) {
	for i := 1; i <= seq.length; i++ {
		if len(seq.partners[i]) > 1 {
			return "", fmt.Errorf("%w: position %d", ErrNotDotBracket, i)
		}
	}

	out := make([]rune, seq.length)
	for i := range out {
		out[i] = unpaired
	}

	// pages[f] holds the bonds already drawn with family f.
	var pages [][]Bond

	for _, bond := range seq.bonds {
		family := -1

		for f, page := range pages {
			if !crossesAny(bond, page) {
				family = f

				break
			}
		}

		if family < 0 {
			family = len(pages)
			pages = append(pages, nil)
		}

		open, closeRune, ok := familyRunes(family)
		if !ok {
			return "", fmt.Errorf("%w: too many crossing families", ErrNotDotBracket)
		}

		pages[family] = append(pages[family], bond)
		out[bond.I-1] = open
		out[bond.J-1] = closeRune
	}

	return string(out), nil
}

func crossesAny(bond Bond, page []Bond) bool {
	for _, other := range page {
		if (other.I < bond.I && bond.I < other.J && other.J < bond.J) ||
			(bond.I < other.I && other.I < bond.J && bond.J < other.J) {
			return true
		}
	}

	return false
}

func familyRunes(family int) (rune, rune, bool) {
	if family < len(bracketPairs) {
		return bracketPairs[family][0], bracketPairs[family][1], true
	}

	letter := family - len(bracketPairs)
	if letter >= 26 {
		return 0, 0, false
	}

	return rune('A' + letter), rune('a' + letter), true
}

func isOpener(ch rune) bool {
	for _, pair := range bracketPairs {
		if pair[0] == ch {
			return true
		}
	}

	return ch <= unicode.MaxASCII && unicode.IsUpper(ch)
}

func closerFamily(ch rune) (rune, bool) {
	for _, pair := range bracketPairs {
		if pair[1] == ch {
			return pair[0], true
		}
	}

	if ch <= unicode.MaxASCII && unicode.IsLower(ch) {
		return unicode.ToUpper(ch), true
	}

	return 0, false
}
