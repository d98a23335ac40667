package manifest

import (
	"errors"
	"fmt"

	"github.com/pelletier/go-toml/v2"
)

// ErrInvalidTOML is returned by Validate when the text is not valid TOML.
var ErrInvalidTOML = errors.New("invalid TOML")

// ValidationError describes where a strict TOML decoder rejected the text.
type ValidationError struct {
	Line    int
	Column  int
	Message string
}

func (e *ValidationError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("%s: %s", ErrInvalidTOML, e.Message)
	}
	return fmt.Sprintf("%s: line %d, column %d: %s", ErrInvalidTOML, e.Line, e.Column, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidTOML
}

// Validate decodes text with a strict TOML decoder.
func Validate(text string) error {
	var v map[string]interface{}
	err := toml.Unmarshal([]byte(text), &v)
	if err == nil {
		return nil
	}

	var de *toml.DecodeError
	if errors.As(err, &de) {
		row, col := de.Position()
		return &ValidationError{Line: row, Column: col, Message: de.Error()}
	}
	return &ValidationError{Message: err.Error()}
}
