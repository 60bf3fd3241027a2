package stree

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidLabel is returned when a label string cannot be parsed.
var ErrInvalidLabel = errors.New("invalid label")

// Kind identifies the grammar symbol carried by a Label.
type Kind uint8

// Grammar symbols. KindHairpin is the only terminal.
const (
	KindInvalid Kind = iota
	KindHairpin
	KindCrossing
	KindNesting
	KindStarting
	KindEnding
	KindDiamond
	KindMeeting
	KindConcatenation
)

// Symbol names used in the textual label form.
const (
	symHairpin       = "H"
	symCrossing      = "CROS"
	symNesting       = "NEST"
	symStarting      = "START"
	symEnding        = "END"
	symDiamond       = "DIAMOND"
	symMeeting       = "MEET"
	symConcatenation = "CONC"
)

var kindSymbols = [...]string{
	KindInvalid:       "INVALID",
	KindHairpin:       symHairpin,
	KindCrossing:      symCrossing,
	KindNesting:       symNesting,
	KindStarting:      symStarting,
	KindEnding:        symEnding,
	KindDiamond:       symDiamond,
	KindMeeting:       symMeeting,
	KindConcatenation: symConcatenation,
}

// String returns the grammar symbol of the kind.
func (k Kind) String() string {
	if int(k) < len(kindSymbols) {
		return kindSymbols[k]
	}

	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Label is the tagged variant attached to every structural tree node.
// I and J are set for hairpins, K for crossings; the other kinds carry
// no payload.
type Label struct {
	Kind Kind
	I, J int
	K    int
}

// Hairpin returns the terminal label for bond (i,j).
func Hairpin(i, j int) Label {
	return Label{Kind: KindHairpin, I: i, J: j}
}

// Crossing returns a crossing operator label with k crossing bonds.
func Crossing(k int) Label {
	return Label{Kind: KindCrossing, K: k}
}

// Operator returns the payload-free label of the given operator kind.
func Operator(kind Kind) Label {
	return Label{Kind: kind}
}

// IsHairpin reports whether the label is a terminal hairpin.
func (l Label) IsHairpin() bool {
	return l.Kind == KindHairpin
}

// IsOperator reports whether the label is one of the internal operators.
func (l Label) IsOperator() bool {
	return l.Kind >= KindCrossing && l.Kind <= KindConcatenation
}

// String renders the label as "H(i,j)", "(CROS,k)" or the operator symbol.
func (l Label) String() string {
	switch l.Kind {
	case KindHairpin:
		return symHairpin + "(" + strconv.Itoa(l.I) + "," + strconv.Itoa(l.J) + ")"
	case KindCrossing:
		return "(" + symCrossing + "," + strconv.Itoa(l.K) + ")"
	default:
		return l.Kind.String()
	}
}

// Simplified renders the label in the reduced alphabet used for edit
// distance: hairpins collapse to "H" and crossings drop their count.
func (l Label) Simplified() string {
	return l.Kind.String()
}

// ParseLabel parses the output of Label.String.
func ParseLabel(text string) (Label, error) {
	text = strings.TrimSpace(text)

	switch {
	case strings.HasPrefix(text, symHairpin+"("):
		inner, ok := strings.CutSuffix(text[len(symHairpin)+1:], ")")
		if !ok {
			return Label{}, fmt.Errorf("%w: %q", ErrInvalidLabel, text)
		}

		left, right, found := strings.Cut(inner, ",")
		if !found {
			return Label{}, fmt.Errorf("%w: %q", ErrInvalidLabel, text)
		}

		i, iErr := strconv.Atoi(left)
		j, jErr := strconv.Atoi(right)

		if iErr != nil || jErr != nil {
			return Label{}, fmt.Errorf("%w: %q", ErrInvalidLabel, text)
		}

		return Hairpin(i, j), nil
	case strings.HasPrefix(text, "("+symCrossing+","):
		inner, ok := strings.CutSuffix(text[len(symCrossing)+2:], ")")
		if !ok {
			return Label{}, fmt.Errorf("%w: %q", ErrInvalidLabel, text)
		}

		k, err := strconv.Atoi(inner)
		if err != nil {
			return Label{}, fmt.Errorf("%w: %q", ErrInvalidLabel, text)
		}

		return Crossing(k), nil
	}

	for kind := KindNesting; kind <= KindConcatenation; kind++ {
		if text == kind.String() {
			return Operator(kind), nil
		}
	}

	return Label{}, fmt.Errorf("%w: %q", ErrInvalidLabel, text)
}

// MarshalText implements encoding.TextMarshaler.
func (l Label) MarshalText() ([]byte, error) {
	if l.Kind == KindInvalid || int(l.Kind) >= len(kindSymbols) {
		return nil, fmt.Errorf("%w: kind %d", ErrInvalidLabel, l.Kind)
	}

	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Label) UnmarshalText(text []byte) error {
	parsed, err := ParseLabel(string(text))
	if err != nil {
		return err
	}

	*l = parsed

	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (l Label) MarshalYAML() (any, error) {
	text, err := l.MarshalText()
	if err != nil {
		return nil, err
	}

	return string(text), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *Label) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("%w: expected scalar at line %d", ErrInvalidLabel, value.Line)
	}

	return l.UnmarshalText([]byte(value.Value))
}
