// Package persist provides codec-based file persistence for structural tree
// snapshots and other state.
package persist

import (
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pierrec/lz4/v4"
	"gopkg.in/yaml.v3"
)

// File extensions for supported codecs.
const (
	jsonExtension = ".json"
	yamlExtension = ".yaml"
	gobExtension  = ".gob"
	lz4Extension  = ".lz4"
)

// Default indentation for pretty-printed output.
const (
	defaultIndent     = "  "
	defaultYAMLIndent = 2
)

// Codec names accepted by CodecByName.
const (
	CodecJSON    = "json"
	CodecYAML    = "yaml"
	CodecGob     = "gob"
	CodecJSONLZ4 = "json+lz4"
	CodecGobLZ4  = "gob+lz4"
)

// ErrUnknownCodec is returned by CodecByName for an unsupported name.
var ErrUnknownCodec = errors.New("unknown codec")

// Codec defines how state is serialized and deserialized.
type Codec interface {
	// Encode writes the state to the writer.
	Encode(w io.Writer, state any) error
	// Decode reads the state from the reader.
	Decode(r io.Reader, state any) error
	// Extension returns the file extension for this codec (e.g., ".json", ".gob.lz4").
	Extension() string
}

// CodecByName returns the codec registered under name.
func CodecByName(name string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case CodecJSON:
		return NewJSONCodec(), nil
	case CodecYAML:
		return NewYAMLCodec(), nil
	case CodecGob:
		return NewGobCodec(), nil
	case CodecJSONLZ4:
		return NewLZ4Codec(&JSONCodec{}), nil
	case CodecGobLZ4:
		return NewLZ4Codec(NewGobCodec()), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
	}
}

// JSONCodec implements Codec using JSON encoding with optional indentation.
type JSONCodec struct {
	// Indent specifies the indentation string. Empty string means compact JSON.
	Indent string
}

// NewJSONCodec creates a JSON codec with pretty-printing (2-space indent).
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{Indent: defaultIndent}
}

// Encode implements Codec.Encode using JSON encoding.
func (c *JSONCodec) Encode(w io.Writer, state any) error {
	encoder := json.NewEncoder(w)
	if c.Indent != "" {
		encoder.SetIndent("", c.Indent)
	}

	err := encoder.Encode(state)
	if err != nil {
		return fmt.Errorf("json encode: %w", err)
	}

	return nil
}

// Decode implements Codec.Decode using JSON decoding.
func (c *JSONCodec) Decode(r io.Reader, state any) error {
	err := json.NewDecoder(r).Decode(state)
	if err != nil {
		return fmt.Errorf("json decode: %w", err)
	}

	return nil
}

// Extension implements Codec.Extension for JSON files.
func (c *JSONCodec) Extension() string {
	return jsonExtension
}

// YAMLCodec implements Codec using YAML encoding.
type YAMLCodec struct{}

// NewYAMLCodec creates a YAML codec.
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Encode implements Codec.Encode using YAML encoding.
func (c *YAMLCodec) Encode(w io.Writer, state any) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(defaultYAMLIndent)

	err := encoder.Encode(state)
	if err != nil {
		return fmt.Errorf("yaml encode: %w", err)
	}

	closeErr := encoder.Close()
	if closeErr != nil {
		return fmt.Errorf("yaml encode: %w", closeErr)
	}

	return nil
}

// Decode implements Codec.Decode using YAML decoding.
func (c *YAMLCodec) Decode(r io.Reader, state any) error {
	err := yaml.NewDecoder(r).Decode(state)
	if err != nil {
		return fmt.Errorf("yaml decode: %w", err)
	}

	return nil
}

// Extension implements Codec.Extension for YAML files.
func (c *YAMLCodec) Extension() string {
	return yamlExtension
}

// GobCodec implements Codec using gob encoding.
type GobCodec struct{}

// NewGobCodec creates a gob codec.
func NewGobCodec() *GobCodec {
	return &GobCodec{}
}

// Encode implements Codec.Encode using gob encoding.
func (c *GobCodec) Encode(w io.Writer, state any) error {
	err := gob.NewEncoder(w).Encode(state)
	if err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}

	return nil
}

// Decode implements Codec.Decode using gob decoding.
func (c *GobCodec) Decode(r io.Reader, state any) error {
	err := gob.NewDecoder(r).Decode(state)
	if err != nil {
		return fmt.Errorf("gob decode: %w", err)
	}

	return nil
}

// Extension implements Codec.Extension for gob files.
func (c *GobCodec) Extension() string {
	return gobExtension
}

// LZ4Codec wraps another codec in an LZ4 frame.
type LZ4Codec struct {
	Inner Codec
}

// NewLZ4Codec creates an LZ4 codec around inner.
func NewLZ4Codec(inner Codec) *LZ4Codec {
	return &LZ4Codec{Inner: inner}
}

// Encode implements Codec.Encode by compressing the inner encoding.
func (c *LZ4Codec) Encode(w io.Writer, state any) error {
	zw := lz4.NewWriter(w)

	err := c.Inner.Encode(zw, state)
	if err != nil {
		return err
	}

	closeErr := zw.Close()
	if closeErr != nil {
		return fmt.Errorf("lz4 flush: %w", closeErr)
	}

	return nil
}

// Decode implements Codec.Decode by decompressing before the inner decoding.
func (c *LZ4Codec) Decode(r io.Reader, state any) error {
	return c.Inner.Decode(lz4.NewReader(r), state)
}

// Extension implements Codec.Extension as the inner extension plus ".lz4".
func (c *LZ4Codec) Extension() string {
	return c.Inner.Extension() + lz4Extension
}

// SaveState saves the given state to a file in the specified directory.
// The filename is constructed from the basename and the codec's extension.
func SaveState(dir, basename string, codec Codec, state any) error {
	path := filepath.Join(dir, basename+codec.Extension())

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create state file: %w", err)
	}

	err = codec.Encode(file, state)
	closeErr := file.Close()

	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	if closeErr != nil {
		return fmt.Errorf("close state file: %w", closeErr)
	}

	return nil
}

// LoadState loads state from a file in the specified directory.
// The filename is constructed from the basename and the codec's extension.
// The state parameter must be a pointer to the target value.
func LoadState(dir, basename string, codec Codec, state any) error {
	path := filepath.Join(dir, basename+codec.Extension())

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open state file: %w", err)
	}
	defer file.Close()

	err = codec.Decode(file, state)
	if err != nil {
		return fmt.Errorf("decode state: %w", err)
	}

	return nil
}
