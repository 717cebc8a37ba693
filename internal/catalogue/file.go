package catalogue

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema.json
var schemaJSON []byte

var compiledSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
})

// SchemaError lists every JSON Schema violation found in a catalogue document.
type SchemaError struct {
	Violations []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("catalogue: schema validation failed: %s", strings.Join(e.Violations, "; "))
}

// Unwrap lets callers match schema failures with errors.Is(err, ErrInvalid).
func (e *SchemaError) Unwrap() error { return ErrInvalid }

// Validate checks raw JSON against the embedded catalogue schema.
func Validate(doc []byte) error {
	schema, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("catalogue: compile schema: %w", err)
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if result.Valid() {
		return nil
	}
	violations := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		violations = append(violations, desc.String())
	}
	return &SchemaError{Violations: violations}
}

// Decode reads, validates and builds a Store from a JSON document.
func Decode(r io.Reader) (*Store, error) {
	doc, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("catalogue: read: %w", err)
	}
	if err := Validate(doc); err != nil {
		return nil, err
	}
	var d Data
	if err := json.Unmarshal(doc, &d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return New(d)
}

// LoadFile decodes the catalogue stored at path.
func LoadFile(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("catalogue: open %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f)
}

// Encode writes d as indented JSON. Nil image lists are written as empty arrays.
func Encode(w io.Writer, d Data) error {
	topics := make(map[string][]Topic, len(d.Topics))
	for class, list := range d.Topics {
		out := make([]Topic, len(list))
		for i, t := range list {
			if t.Images == nil {
				t.Images = []string{}
			}
			out[i] = t
		}
		topics[class] = out
	}
	d.Topics = topics
	if d.Classes == nil {
		d.Classes = []string{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(d)
}

// WriteFile encodes d to path, replacing any previous file. Missing parent
// directories are created.
func WriteFile(path string, d Data) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("catalogue: create dir for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("catalogue: create %s: %w", path, err)
	}
	if err := Encode(f, d); err != nil {
		_ = f.Close()
		return fmt.Errorf("catalogue: encode %s: %w", path, err)
	}
	return f.Close()
}
