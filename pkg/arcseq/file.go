package arcseq

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Supported file extensions.
const (
	ExtJSON        = ".json"
	ExtDotBracket  = ".db"
	ExtDotBracketN = ".dbn"
)

// ReadFile opens path and reads it according to its extension: ".json"
// documents go through ReadJSON, ".db"/".dbn" through ParseDotBracket and
// everything else through Read. The base name becomes the sequence name
// unless the document carries one. opts apply to every format.
func ReadFile(path string, opts ...Option) (*Sequence, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	seq, readErr := ReadFrom(file, filepath.Ext(path), filepath.Base(path), opts...)
	if readErr != nil {
		return nil, fmt.Errorf("%s: %w", path, readErr)
	}

	return seq, nil
}

// ReadFrom reads a sequence in the format selected by ext. The given name is
// used when the input does not define one.
func ReadFrom(r io.Reader, ext, name string, opts ...Option) (*Sequence, error) {
	switch strings.ToLower(ext) {
	case ExtJSON:
		seq, err := ReadJSON(r, opts...)
		if err != nil {
			return nil, err
		}

		if seq.name == "" {
			seq.name = name
		}

		return seq, nil
	case ExtDotBracket, ExtDotBracketN:
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("read dot-bracket: %w", err)
		}

		return parseDotBracketFile(string(data), name, opts)
	default:
		return Read(r, append([]Option{WithName(name)}, opts...)...)
	}
}

// parseDotBracketFile accepts the common FASTA-like layout: an optional
// ">name" header, an optional residue line, then the structure line.
func parseDotBracketFile(text, name string, extra []Option) (*Sequence, error) {
	var residues, structure string

	for line := range strings.Lines(text) {
		line = strings.TrimSpace(line)

		switch {
		case line == "", strings.HasPrefix(line, "#"):
			continue
		case strings.HasPrefix(line, ">"):
			if header := strings.TrimSpace(line[1:]); header != "" {
				name = header
			}
		case residues == "" && structure == "" && isResidueLine(line):
			residues = line
		default:
			structure += line
		}
	}

	opts := []Option{WithName(name)}
	if residues != "" {
		opts = append(opts, WithResidues(residues))
	}

	return ParseDotBracket(structure, append(opts, extra...)...)
}

func isResidueLine(line string) bool {
	for _, ch := range line {
		if !('A' <= ch && ch <= 'Z') && !('a' <= ch && ch <= 'z') {
			return false
		}
	}

	return true
}
