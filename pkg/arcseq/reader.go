package arcseq

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"
)

// ErrSyntax is matched by every SyntaxError.
var ErrSyntax = errors.New("syntax error")

// SyntaxError locates a problem in a textual bond list.
type SyntaxError struct {
	Line int
	Col  int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d col %d: %s", e.Line, e.Col, e.Msg)
}

// Unwrap makes SyntaxError match ErrSyntax.
func (e *SyntaxError) Unwrap() error {
	return ErrSyntax
}

// Read parses the textual bond-list format:
//
//	ACGUUCGA
//	(1,8);(2,7);(3,6)
//
// The residue line is optional and may be split over several lines. Bonds
// are separated by ";" and a trailing ";" is accepted. Whitespace is
// insignificant; "//" and "#" start comments that run to the end of the line.
//
// Without residues the sequence length is the largest bond index.
func Read(r io.Reader, opts ...Option) (*Sequence, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read bond list: %w", err)
	}

	residues, bonds, parseErr := parseBondList(string(data))
	if parseErr != nil {
		return nil, parseErr
	}

	if len(bonds) == 0 {
		return nil, ErrNoBonds
	}

	length := 0
	for _, bond := range bonds {
		length = max(length, bond.I, bond.J)
	}

	if residues != "" {
		length = len(residues)
		opts = append([]Option{WithResidues(residues)}, opts...)
	}

	return New(length, bonds, opts...)
}

// ParseBondList is Read over a string.
func ParseBondList(text string, opts ...Option) (*Sequence, error) {
	return Read(strings.NewReader(text), opts...)
}

// Format renders a sequence in the textual bond-list format accepted by Read.
func Format(seq *Sequence) string {
	var sb strings.Builder

	if seq.residues != "" {
		sb.WriteString(seq.residues)
		sb.WriteByte('\n')
	}

	for idx, bond := range seq.bonds {
		if idx > 0 {
			sb.WriteByte(';')
		}

		sb.WriteString(bond.String())
	}

	sb.WriteByte('\n')

	return sb.String()
}

type bondScanner struct {
	src  []rune
	pos  int
	line int
	col  int
}

func parseBondList(text string) (string, []Bond, error) {
	sc := &bondScanner{src: []rune(text), line: 1, col: 1}

	var residues strings.Builder

	sc.skipSpace()

	for unicode.IsLetter(sc.peek()) {
		for unicode.IsLetter(sc.peek()) {
			residues.WriteRune(sc.next())
		}

		sc.skipSpace()
	}

	var bonds []Bond

	for !sc.eof() {
		bond, err := sc.bond()
		if err != nil {
			return "", nil, err
		}

		bonds = append(bonds, bond)

		sc.skipSpace()

		if sc.eof() {
			break
		}

		if sc.peek() != ';' {
			return "", nil, sc.errorf("expected ';', found %q", sc.peek())
		}

		sc.next()
		sc.skipSpace()
	}

	return residues.String(), bonds, nil
}

func (sc *bondScanner) bond() (Bond, error) {
	expectErr := sc.expect('(')
	if expectErr != nil {
		return Bond{}, expectErr
	}

	left, err := sc.index()
	if err != nil {
		return Bond{}, err
	}

	expectErr = sc.expect(',')
	if expectErr != nil {
		return Bond{}, expectErr
	}

	right, err := sc.index()
	if err != nil {
		return Bond{}, err
	}

	expectErr = sc.expect(')')
	if expectErr != nil {
		return Bond{}, expectErr
	}

	return Bond{I: left, J: right}, nil
}

func (sc *bondScanner) expect(want rune) error {
	sc.skipSpace()

	if sc.peek() != want {
		if sc.eof() {
			return sc.errorf("expected %q, found end of input", want)
		}

		return sc.errorf("expected %q, found %q", want, sc.peek())
	}

	sc.next()

	return nil
}

func (sc *bondScanner) index() (int, error) {
	sc.skipSpace()

	line, col := sc.line, sc.col

	var digits strings.Builder

	for unicode.IsDigit(sc.peek()) {
		digits.WriteRune(sc.next())
	}

	if digits.Len() == 0 {
		return 0, sc.errorf("expected index")
	}

	value, err := strconv.Atoi(digits.String())
	if err != nil {
		return 0, &SyntaxError{Line: line, Col: col, Msg: fmt.Sprintf("invalid index %q", digits.String())}
	}

	return value, nil
}

func (sc *bondScanner) skipSpace() {
	for !sc.eof() {
		ch := sc.peek()

		switch {
		case unicode.IsSpace(ch):
			sc.next()
		case ch == '#', ch == '/' && sc.peekAt(1) == '/':
			for !sc.eof() && sc.peek() != '\n' {
				sc.next()
			}
		default:
			return
		}
	}
}

func (sc *bondScanner) eof() bool {
	return sc.pos >= len(sc.src)
}

func (sc *bondScanner) peek() rune {
	return sc.peekAt(0)
}

func (sc *bondScanner) peekAt(offset int) rune {
	if sc.pos+offset >= len(sc.src) {
		return 0
	}

	return sc.src[sc.pos+offset]
}

func (sc *bondScanner) next() rune {
	ch := sc.src[sc.pos]
	sc.pos++

	if ch == '\n' {
		sc.line++
		sc.col = 1
	} else {
		sc.col++
	}

	return ch
}

func (sc *bondScanner) errorf(format string, args ...any) error {
	return &SyntaxError{Line: sc.line, Col: sc.col, Msg: fmt.Sprintf(format, args...)}
}
