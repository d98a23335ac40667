package registry

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"go.yaml.in/yaml/v3"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed schema/registry.schema.json
var schemaBytes []byte

var printer = message.NewPrinter(language.English)

var registrySchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaBytes))
	if err != nil {
		return nil, fmt.Errorf("reading registry schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("registry.schema.json", doc); err != nil {
		return nil, fmt.Errorf("adding registry schema: %w", err)
	}
	return c.Compile("registry.schema.json")
})

// Problem is one schema violation, located by JSON pointer.
type Problem struct {
	Pointer string
	Message string
}

// SchemaError lists every violation found in a registry file.
type SchemaError struct {
	Problems []Problem
}

func (e *SchemaError) Error() string {
	parts := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		parts[i] = p.Pointer + ": " + p.Message
	}
	return fmt.Sprintf("%s: %s", ErrInvalid, strings.Join(parts, "; "))
}

// Unwrap makes errors.Is(err, ErrInvalid) hold.
func (e *SchemaError) Unwrap() error {
	return ErrInvalid
}

// checkSchema validates registry YAML against the embedded schema. Schema
// violations come back as a *SchemaError.
func checkSchema(data []byte) error {
	schema, err := registrySchema()
	if err != nil {
		return err
	}

	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	// The validator wants JSON values (json.Number, map[string]any).
	encoded, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	err = schema.Validate(inst)
	if err == nil {
		return nil
	}
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	problems := leafProblems(ve, nil)
	if len(problems) == 0 {
		problems = []Problem{{Pointer: "/", Message: ve.Error()}}
	}
	return &SchemaError{Problems: problems}
}

func leafProblems(ve *jsonschema.ValidationError, out []Problem) []Problem {
	for _, cause := range ve.Causes {
		out = leafProblems(cause, out)
	}
	if len(ve.Causes) > 0 || ve.ErrorKind == nil {
		return out
	}
	p := Problem{
		Pointer: "/" + strings.Join(ve.InstanceLocation, "/"),
		Message: ve.ErrorKind.LocalizedString(printer),
	}
	if !slices.Contains(out, p) {
		out = append(out, p)
	}
	return out
}
