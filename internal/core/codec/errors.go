package codec

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrBufferUnderrun is returned when a field would read past the end of the buffer.
	ErrBufferUnderrun = errors.New("buffer underrun")
	// ErrMissingDirective is returned by NewSchema when a string or array field
	// was declared without the directive it needs to be encoded.
	ErrMissingDirective = errors.New("missing directive")
	// ErrFieldTooLong is returned by Build when a value does not fit in its field.
	ErrFieldTooLong = errors.New("field too long")
	// ErrUnknownOpcode is returned when an enum field holds a value with no matching symbol.
	ErrUnknownOpcode = errors.New("unknown opcode")
	// ErrInvalidValue covers the remaining malformed values and schema declarations.
	ErrInvalidValue = errors.New("invalid value")
)

// FieldError describes where in a schema an error occurred. Offset is the position
// of the cursor when the field started, or -1 for schema validation errors.
type FieldError struct {
	Schema string
	Field  string
	Offset int
	Err    error
}

func (e *FieldError) Error() string {
	if e.Offset < 0 {
		return fmt.Sprintf("%s.%s: %v", e.Schema, e.Field, e.Err)
	}
	return fmt.Sprintf("%s.%s (offset %d): %v", e.Schema, e.Field, e.Offset, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// wrapField attaches the field name to err. Errors coming out of nested schemas and
// array elements already carry a path, which is prefixed rather than wrapped again.
func wrapField(schema, field string, offset int, err error) error {
	var fe *FieldError
	if errors.As(err, &fe) {
		path := fe.Field
		if !strings.HasPrefix(path, "[") {
			path = "." + path
		}
		return &FieldError{Schema: schema, Field: field + path, Offset: fe.Offset, Err: fe.Err}
	}
	return &FieldError{Schema: schema, Field: field, Offset: offset, Err: err}
}
