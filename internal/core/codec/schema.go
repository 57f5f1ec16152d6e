package codec

import "fmt"

// FieldDescriptor is one entry of a Schema: a named value bound to the part of the
// record it is read into and written from.
type FieldDescriptor[T any] interface {
	Name() string
	read(r *reader, rec *T) error
	write(w *writer, rec *T) error
	validate() error
	minSize() int
}

type boundField[T, V any] struct {
	name  string
	get   func(*T) *V
	value Value[V]
}

// Field binds value to the record member returned by get. get must return a pointer
// into the record it is given and must not retain it.
func Field[T, V any](name string, get func(*T) *V, value Value[V]) FieldDescriptor[T] {
	return boundField[T, V]{name: name, get: get, value: value}
}

func (f boundField[T, V]) Name() string { return f.name }

func (f boundField[T, V]) read(r *reader, rec *T) error {
	v, err := f.value.decode(r)
	if err != nil {
		return err
	}
	*f.get(rec) = v
	return nil
}

func (f boundField[T, V]) write(w *writer, rec *T) error {
	return f.value.encode(w, *f.get(rec))
}

func (f boundField[T, V]) validate() error {
	if f.get == nil {
		return fmt.Errorf("%w: field has no accessor", ErrInvalidValue)
	}
	if f.value == nil {
		return fmt.Errorf("%w: field has no value codec", ErrMissingDirective)
	}
	return f.value.validate()
}

func (f boundField[T, V]) minSize() int { return f.value.minSize() }

// Schema is the ordered wire layout of a record type. The order in which fields are
// declared is the order in which they appear on the wire.
type Schema[T any] struct {
	name   string
	fields []FieldDescriptor[T]
}

// NewSchema validates the field declarations and returns the schema. Strings without
// a termination directive and arrays without a count fail with ErrMissingDirective.
func NewSchema[T any](name string, fields ...FieldDescriptor[T]) (*Schema[T], error) {
	seen := make(map[string]bool, len(fields))
	for i, f := range fields {
		if f == nil {
			return nil, &FieldError{Schema: name, Field: fmt.Sprintf("#%d", i), Offset: -1, Err: fmt.Errorf("%w: nil field", ErrInvalidValue)}
		}
		if f.Name() == "" || seen[f.Name()] {
			return nil, &FieldError{Schema: name, Field: fmt.Sprintf("#%d", i), Offset: -1,
				Err: fmt.Errorf("%w: field names must be unique and non-empty, got %q", ErrInvalidValue, f.Name())}
		}
		seen[f.Name()] = true

		if err := f.validate(); err != nil {
			return nil, &FieldError{Schema: name, Field: f.Name(), Offset: -1, Err: err}
		}
	}
	return &Schema[T]{name: name, fields: fields}, nil
}

// MustSchema is like NewSchema but panics on invalid declarations. It is meant for
// package-level schema variables so that descriptor bugs stop the program at startup.
func MustSchema[T any](name string, fields ...FieldDescriptor[T]) *Schema[T] {
	s, err := NewSchema(name, fields...)
	if err != nil {
		panic(fmt.Sprintf("codec: invalid schema: %v", err))
	}
	return s
}

func (s *Schema[T]) Name() string { return s.name }

// Fields returns the field names in wire order.
func (s *Schema[T]) Fields() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.Name()
	}
	return names
}

// MinSize returns the smallest number of bytes a buffer needs to hold a record.
func (s *Schema[T]) MinSize() int {
	n := 0
	for _, f := range s.fields {
		n += f.minSize()
	}
	return n
}

// Parse reads a new record from the start of buf. Trailing bytes are ignored.
func (s *Schema[T]) Parse(buf []byte) (*T, error) {
	rec, _, err := s.Decode(buf)
	return rec, err
}

// Decode is like Parse but also reports how many bytes the record occupied.
func (s *Schema[T]) Decode(buf []byte) (*T, int, error) {
	r := &reader{buf: buf}
	rec := new(T)
	if err := s.decodeInto(r, rec); err != nil {
		return nil, r.off, err
	}
	return rec, r.off, nil
}

// Build encodes rec into a new buffer.
func (s *Schema[T]) Build(rec *T) ([]byte, error) {
	if rec == nil {
		return nil, &FieldError{Schema: s.name, Field: "record", Offset: 0, Err: fmt.Errorf("%w: nil record", ErrInvalidValue)}
	}
	w := &writer{buf: make([]byte, 0, s.MinSize())}
	if err := s.encodeFrom(w, rec); err != nil {
		return nil, err
	}
	return w.buf, nil
}

func (s *Schema[T]) decodeInto(r *reader, rec *T) error {
	for _, f := range s.fields {
		start := r.off
		if err := f.read(r, rec); err != nil {
			return wrapField(s.name, f.Name(), start, err)
		}
	}
	return nil
}

func (s *Schema[T]) encodeFrom(w *writer, rec *T) error {
	for _, f := range s.fields {
		start := w.len()
		if err := f.write(w, rec); err != nil {
			return wrapField(s.name, f.Name(), start, err)
		}
	}
	return nil
}

// Parse reads a record of type T from buf according to s.
func Parse[T any](buf []byte, s *Schema[T]) (*T, error) { return s.Parse(buf) }

// Build writes rec according to s.
func Build[T any](rec *T, s *Schema[T]) ([]byte, error) { return s.Build(rec) }
