package arcseq

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ErrSchema is returned when a JSON document does not match the schema.
var ErrSchema = errors.New("document does not match schema")

//go:embed sequence.schema.json
var sequenceSchema []byte

// document is the JSON shape of an arc-annotated sequence.
type document struct {
	Name     string   `json:"name,omitempty"`
	Length   int      `json:"length,omitempty"`
	Sequence string   `json:"sequence,omitempty"`
	Bonds    [][2]int `json:"bonds"`
}

// ReadJSON reads a JSON bond document:
//
//	{"name": "tRNA", "length": 8, "sequence": "ACGUUCGA", "bonds": [[1,8],[2,7]]}
//
// The document is validated against the embedded schema before decoding.
// Length defaults to the residue count, then to the largest bond index.
func ReadJSON(r io.Reader, opts ...Option) (*Sequence, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read json document: %w", err)
	}

	result, validateErr := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(sequenceSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if validateErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrSyntax, validateErr)
	}

	if !result.Valid() {
		descriptions := make([]string, 0, len(result.Errors()))
		for _, verr := range result.Errors() {
			descriptions = append(descriptions, verr.String())
		}

		return nil, fmt.Errorf("%w: %s", ErrSchema, strings.Join(descriptions, "; "))
	}

	var doc document

	decodeErr := json.Unmarshal(data, &doc)
	if decodeErr != nil {
		return nil, fmt.Errorf("decode json document: %w", decodeErr)
	}

	if len(doc.Bonds) == 0 {
		return nil, ErrNoBonds
	}

	bonds := make([]Bond, 0, len(doc.Bonds))
	maxIndex := 0

	for _, pair := range doc.Bonds {
		bonds = append(bonds, Bond{I: pair[0], J: pair[1]})
		maxIndex = max(maxIndex, pair[0], pair[1])
	}

	length := doc.Length

	switch {
	case length > 0:
	case doc.Sequence != "":
		length = len(doc.Sequence)
	default:
		length = maxIndex
	}

	var docOpts []Option
	if doc.Name != "" {
		docOpts = append(docOpts, WithName(doc.Name))
	}

	if doc.Sequence != "" {
		docOpts = append(docOpts, WithResidues(doc.Sequence))
	}

	return New(length, bonds, append(docOpts, opts...)...)
}

// WriteJSON writes seq as a JSON bond document accepted by ReadJSON.
func WriteJSON(w io.Writer, seq *Sequence) error {
	doc := document{
		Name:     seq.name,
		Length:   seq.length,
		Sequence: seq.residues,
		Bonds:    make([][2]int, 0, len(seq.bonds)),
	}

	for _, bond := range seq.bonds {
		doc.Bonds = append(doc.Bonds, [2]int{bond.I, bond.J})
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	err := encoder.Encode(doc)
	if err != nil {
		return fmt.Errorf("encode json document: %w", err)
	}

	return nil
}
