package codec

import (
	"bytes"
	"fmt"
	"math"
	"unsafe"

	corebytes "github.com/wowcore/wowcore/internal/core/bytes"
)

// Value knows how to read and write one kind of value. Values are combined with
// record accessors through Field to form a Schema.
type Value[V any] interface {
	decode(r *reader) (V, error)
	encode(w *writer, v V) error
	validate() error
	minSize() int
}

type integer interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64 | ~int8 | ~int16 | ~int32 | ~int64
}

type intValue[V integer] struct {
	size int
	dir  directives
}

// Integer returns a little-endian codec for any fixed-size integer type, including
// named types such as opcodes.
func Integer[V integer](dirs ...Directive) Value[V] {
	var zero V
	return intValue[V]{size: int(unsafe.Sizeof(zero)), dir: applyDirectives(dirs)}
}

func Uint8(dirs ...Directive) Value[uint8]   { return Integer[uint8](dirs...) }
func Uint16(dirs ...Directive) Value[uint16] { return Integer[uint16](dirs...) }
func Uint32(dirs ...Directive) Value[uint32] { return Integer[uint32](dirs...) }
func Uint64(dirs ...Directive) Value[uint64] { return Integer[uint64](dirs...) }
func Int8(dirs ...Directive) Value[int8]     { return Integer[int8](dirs...) }
func Int16(dirs ...Directive) Value[int16]   { return Integer[int16](dirs...) }
func Int32(dirs ...Directive) Value[int32]   { return Integer[int32](dirs...) }
func Int64(dirs ...Directive) Value[int64]   { return Integer[int64](dirs...) }

func (v intValue[V]) decode(r *reader) (V, error) {
	raw, err := readUnsigned(r, v.size, v.dir.reversed)
	return V(raw), err
}

func (v intValue[V]) encode(w *writer, val V) error {
	writeUnsigned(w, uint64(val), v.size, v.dir.reversed)
	return nil
}

func (v intValue[V]) validate() error { return nil }
func (v intValue[V]) minSize() int    { return v.size }

func readUnsigned(r *reader, size int, reversed bool) (uint64, error) {
	b, err := r.next(size)
	if err != nil {
		return 0, err
	}
	if reversed {
		b = corebytes.Reversed(b)
	}
	var raw uint64
	for i := size - 1; i >= 0; i-- {
		raw = raw<<8 | uint64(b[i])
	}
	return raw, nil
}

func writeUnsigned(w *writer, raw uint64, size int, reversed bool) {
	b := make([]byte, size)
	for i := 0; i < size; i++ {
		b[i] = byte(raw >> (8 * i))
	}
	if reversed {
		corebytes.Reverse(b)
	}
	w.write(b...)
}

type boolValue struct{}

// Bool is a single byte; any non-zero value reads as true.
func Bool() Value[bool] { return boolValue{} }

func (boolValue) decode(r *reader) (bool, error) {
	b, err := r.next(1)
	if err != nil {
		return false, err
	}
	return b[0] != 0, nil
}

func (boolValue) encode(w *writer, v bool) error {
	if v {
		w.write(1)
	} else {
		w.write(0)
	}
	return nil
}

func (boolValue) validate() error { return nil }
func (boolValue) minSize() int    { return 1 }

type float32Value struct{ dir directives }
type float64Value struct{ dir directives }

func Float32(dirs ...Directive) Value[float32] { return float32Value{dir: applyDirectives(dirs)} }
func Float64(dirs ...Directive) Value[float64] { return float64Value{dir: applyDirectives(dirs)} }

func (v float32Value) decode(r *reader) (float32, error) {
	raw, err := readUnsigned(r, 4, v.dir.reversed)
	return math.Float32frombits(uint32(raw)), err
}

func (v float32Value) encode(w *writer, val float32) error {
	writeUnsigned(w, uint64(math.Float32bits(val)), 4, v.dir.reversed)
	return nil
}

func (float32Value) validate() error { return nil }
func (float32Value) minSize() int    { return 4 }

func (v float64Value) decode(r *reader) (float64, error) {
	raw, err := readUnsigned(r, 8, v.dir.reversed)
	return math.Float64frombits(raw), err
}

func (v float64Value) encode(w *writer, val float64) error {
	writeUnsigned(w, math.Float64bits(val), 8, v.dir.reversed)
	return nil
}

func (float64Value) validate() error { return nil }
func (float64Value) minSize() int    { return 8 }

type stringValue struct{ dir directives }

// String returns a codec for text fields. Exactly one of Terminated, LengthPrefixed
// or FixedLength must be passed, optionally with Reversed and TrimPadding.
func String(dirs ...Directive) Value[string] {
	return stringValue{dir: applyDirectives(dirs)}
}

func (v stringValue) decode(r *reader) (string, error) {
	var b []byte
	var err error

	switch v.dir.encoding() {
	case encodingTerminated:
		b, err = r.until(0)
	case encodingLengthPrefixed:
		var n []byte
		if n, err = r.next(1); err == nil {
			b, err = r.next(int(n[0]))
		}
	case encodingFixedLength:
		b, err = r.next(v.dir.length)
		if err == nil && v.dir.trim {
			b = corebytes.StripPadding(b)
		}
	default:
		return "", ErrMissingDirective
	}
	if err != nil {
		return "", err
	}

	if v.dir.reversed {
		b = corebytes.Reversed(b)
	}
	return string(b), nil
}

func (v stringValue) encode(w *writer, s string) error {
	b := []byte(s)
	if v.dir.reversed {
		corebytes.Reverse(b)
	}

	switch v.dir.encoding() {
	case encodingTerminated:
		if bytes.IndexByte(b, 0) >= 0 {
			return fmt.Errorf("%w: terminated string contains a zero byte", ErrInvalidValue)
		}
		w.write(b...)
		w.write(0)
	case encodingLengthPrefixed:
		if len(b) > math.MaxUint8 {
			return fmt.Errorf("%w: %d bytes exceeds the %d byte length prefix", ErrFieldTooLong, len(b), math.MaxUint8)
		}
		w.write(byte(len(b)))
		w.write(b...)
	case encodingFixedLength:
		if len(b) > v.dir.length {
			return fmt.Errorf("%w: %d bytes exceeds fixed length %d", ErrFieldTooLong, len(b), v.dir.length)
		}
		w.write(b...)
		w.write(make([]byte, v.dir.length-len(b))...)
	default:
		return ErrMissingDirective
	}
	return nil
}

func (v stringValue) validate() error { return v.dir.validateString() }

func (v stringValue) minSize() int {
	if v.dir.encoding() == encodingFixedLength {
		return v.dir.length
	}
	return 1
}

type arrayValue[E any] struct {
	elem Value[E]
	dir  directives
}

// Array repeats elem exactly as many times as the Count directive says, with
// nothing between the elements.
func Array[E any](elem Value[E], dirs ...Directive) Value[[]E] {
	return arrayValue[E]{elem: elem, dir: applyDirectives(dirs)}
}

func (v arrayValue[E]) decode(r *reader) ([]E, error) {
	out := make([]E, v.dir.count)
	for i := range out {
		start := r.off
		e, err := v.elem.decode(r)
		if err != nil {
			return nil, wrapField("", fmt.Sprintf("[%d]", i), start, err)
		}
		out[i] = e
	}
	return out, nil
}

func (v arrayValue[E]) encode(w *writer, vals []E) error {
	if len(vals) != v.dir.count {
		return fmt.Errorf("%w: array holds %d elements, declared %d", ErrInvalidValue, len(vals), v.dir.count)
	}
	for i, e := range vals {
		start := w.len()
		if err := v.elem.encode(w, e); err != nil {
			return wrapField("", fmt.Sprintf("[%d]", i), start, err)
		}
	}
	return nil
}

func (v arrayValue[E]) validate() error {
	if !v.dir.hasCount {
		return fmt.Errorf("%w: array needs a count", ErrMissingDirective)
	}
	if v.dir.count < 0 {
		return fmt.Errorf("%w: negative array count %d", ErrInvalidValue, v.dir.count)
	}
	if v.elem == nil {
		return fmt.Errorf("%w: array has no element codec", ErrInvalidValue)
	}
	return v.elem.validate()
}

func (v arrayValue[E]) minSize() int { return v.dir.count * v.elem.minSize() }

type nestedValue[U any] struct {
	schema *Schema[U]
}

// Nested embeds another schema's record as a single field.
func Nested[U any](s *Schema[U]) Value[U] { return nestedValue[U]{schema: s} }

func (v nestedValue[U]) decode(r *reader) (U, error) {
	var rec U
	err := v.schema.decodeInto(r, &rec)
	return rec, err
}

func (v nestedValue[U]) encode(w *writer, rec U) error {
	return v.schema.encodeFrom(w, &rec)
}

func (v nestedValue[U]) validate() error {
	if v.schema == nil {
		return fmt.Errorf("%w: nested schema is nil", ErrInvalidValue)
	}
	return nil
}

func (v nestedValue[U]) minSize() int { return v.schema.MinSize() }

type enumValue[E integer] struct {
	base  intValue[E]
	known map[E]struct{}
	dir   directives
}

// Enum reads E in its natural width and only accepts the listed symbols, unless the
// Lenient directive is given.
func Enum[E integer](symbols []E, dirs ...Directive) Value[E] {
	known := make(map[E]struct{}, len(symbols))
	for _, s := range symbols {
		known[s] = struct{}{}
	}
	base := Integer[E](dirs...).(intValue[E])
	return enumValue[E]{base: base, known: known, dir: base.dir}
}

func (v enumValue[E]) decode(r *reader) (E, error) {
	val, err := v.base.decode(r)
	if err != nil {
		return val, err
	}
	if err := v.check(val); err != nil {
		return val, err
	}
	return val, nil
}

func (v enumValue[E]) encode(w *writer, val E) error {
	if err := v.check(val); err != nil {
		return err
	}
	return v.base.encode(w, val)
}

func (v enumValue[E]) check(val E) error {
	if _, ok := v.known[val]; ok || v.dir.lenient {
		return nil
	}
	return fmt.Errorf("%w: 0x%X", ErrUnknownOpcode, uint64(val))
}

func (v enumValue[E]) validate() error {
	if len(v.known) == 0 && !v.dir.lenient {
		return fmt.Errorf("%w: enum declares no symbols", ErrInvalidValue)
	}
	return nil
}

func (v enumValue[E]) minSize() int { return v.base.size }
