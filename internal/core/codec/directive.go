package codec

import "fmt"

type stringEncoding int

const (
	encodingNone stringEncoding = iota
	encodingTerminated
	encodingLengthPrefixed
	encodingFixedLength
)

func (e stringEncoding) String() string {
	switch e {
	case encodingTerminated:
		return "terminated"
	case encodingLengthPrefixed:
		return "length-prefixed"
	case encodingFixedLength:
		return "fixed-length"
	default:
		return "none"
	}
}

// Directive controls how a single field is read and written.
type Directive func(*directives)

type directives struct {
	encodings []stringEncoding
	length    int
	count     int
	hasCount  bool
	reversed  bool
	trim      bool
	lenient   bool
}

var (
	// Terminated strings are followed by a single zero byte.
	Terminated Directive = func(d *directives) {
		d.encodings = append(d.encodings, encodingTerminated)
	}
	// LengthPrefixed strings are preceded by one byte holding their length.
	LengthPrefixed Directive = func(d *directives) {
		d.encodings = append(d.encodings, encodingLengthPrefixed)
	}
	// Reversed fields have their encoded bytes written in reverse order. For numbers
	// this turns the default little-endian layout into big-endian. For fixed-length
	// strings only the content is reversed; zero padding always trails it.
	Reversed Directive = func(d *directives) { d.reversed = true }
	// TrimPadding strips the trailing zero bytes of a fixed-length string on Parse.
	// Without it the value holds the full declared length, padding included.
	TrimPadding Directive = func(d *directives) { d.trim = true }
	// Lenient enums accept values that have no declared symbol instead of failing
	// with ErrUnknownOpcode.
	Lenient Directive = func(d *directives) { d.lenient = true }
)

// FixedLength strings occupy exactly n bytes and carry no terminator.
func FixedLength(n int) Directive {
	return func(d *directives) {
		d.encodings = append(d.encodings, encodingFixedLength)
		d.length = n
	}
}

// Count sets the number of elements of an array field.
func Count(n int) Directive {
	return func(d *directives) {
		d.count = n
		d.hasCount = true
	}
}

func applyDirectives(dirs []Directive) directives {
	var d directives
	for _, dir := range dirs {
		if dir != nil {
			dir(&d)
		}
	}
	return d
}

func (d directives) encoding() stringEncoding {
	if len(d.encodings) == 0 {
		return encodingNone
	}
	return d.encodings[0]
}

func (d directives) validateString() error {
	switch {
	case len(d.encodings) == 0:
		return fmt.Errorf("%w: string needs one of terminated, length-prefixed or fixed-length", ErrMissingDirective)
	case len(d.encodings) > 1:
		return fmt.Errorf("%w: conflicting string directives %v", ErrInvalidValue, d.encodings)
	case d.encoding() == encodingFixedLength && d.length <= 0:
		return fmt.Errorf("%w: fixed-length string needs a positive length, got %d", ErrMissingDirective, d.length)
	case d.trim && d.encoding() != encodingFixedLength:
		return fmt.Errorf("%w: padding can only be trimmed from fixed-length strings", ErrInvalidValue)
	}
	return nil
}
