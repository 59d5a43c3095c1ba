// Package toml encodes in-memory documents (mappings of keys to strings,
// numbers, booleans, times, sequences and nested mappings) as TOML text.
//
// Nested mappings become [sections], sequences of mappings become
// [[arrays of tables]], and everything else becomes a key = value line.
// Values are formatted through a per-encoder registry keyed by Go type,
// which callers may extend before encoding.
//
// An Encoder is not safe for concurrent use; give each goroutine its own.
package toml

import (
	"fmt"
	"io"
	"reflect"
	"strings"

	gotoml "github.com/pelletier/go-toml/v2"
	"github.com/sirupsen/logrus"
)

// DumpFunc formats one value as TOML.
type DumpFunc func(v any) (string, error)

// Encodable is implemented by values that know their own TOML form. dump
// formats nested values with the calling encoder.
type Encodable interface {
	EncodeTOML(dump func(any) (string, error)) (string, error)
}

type Encoder struct {
	dumpFuncs map[reflect.Type]DumpFunc
	preserve  bool
	separator string
	normalize func(any) any
	comments  map[string]string
	log       *logrus.Entry

	// claimed holds every mapping emitted as a section during one Dumps
	// call, inflight the sequences and inline tables being rendered.
	claimed  map[identity]string
	inflight map[identity]struct{}
	// depth counts the arrays and inline tables being rendered.
	depth int
}

type Option func(*Encoder)

// WithPreserve makes the encoder render *InlineTable values inline.
func WithPreserve(v bool) Option {
	return func(e *Encoder) { e.preserve = v }
}

func WithLogger(l *logrus.Entry) Option {
	return func(e *Encoder) {
		if l != nil {
			e.log = l
		}
	}
}

// WithSectionComment writes comment above the [section] header whose
// dotted name (as emitted, quotes included) equals section.
func WithSectionComment(section, comment string) Option {
	return func(e *Encoder) {
		if e.comments == nil {
			e.comments = make(map[string]string)
		}
		e.comments[section] = comment
	}
}

func withSeparator(sep string) Option {
	return func(e *Encoder) { e.separator = sep }
}

// NewEncoder returns the base encoder. Its registry knows strings,
// booleans, int, int64, float64, time.Time, the go-toml local date/time
// types and []any.
func NewEncoder(opts ...Option) *Encoder {
	e := &Encoder{
		dumpFuncs: make(map[reflect.Type]DumpFunc),
		separator: ",",
		log:       discardLogger(),
	}
	RegisterFunc(e, dumpString)
	RegisterFunc(e, dumpBool)
	RegisterFunc(e, dumpInt)
	RegisterFunc(e, dumpInt64)
	RegisterFunc(e, dumpFloat)
	RegisterFunc(e, dumpTime)
	RegisterFunc(e, func(d gotoml.LocalDate) (string, error) { return d.String(), nil })
	RegisterFunc(e, func(t gotoml.LocalTime) (string, error) { return t.String(), nil })
	RegisterFunc(e, func(dt gotoml.LocalDateTime) (string, error) { return dt.String(), nil })
	e.Register(reflect.TypeOf([]any(nil)), e.DumpList)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func discardLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

// Register installs fn as the formatter for values whose dynamic type is
// exactly t, replacing any previous one.
func (e *Encoder) Register(t reflect.Type, fn DumpFunc) {
	e.dumpFuncs[t] = fn
	e.log.WithField("type", t.String()).Debug("registered dump func")
}

// RegisterFunc is the typed form of Register. T should be a concrete type;
// lookups match the dynamic type of a value, never an interface.
func RegisterFunc[T any](e *Encoder, fn func(T) (string, error)) {
	e.Register(reflect.TypeOf((*T)(nil)).Elem(), func(v any) (string, error) {
		return fn(v.(T))
	})
}

// =========================
// Value Dispatch
// =========================

// DumpValue formats v. Lookup order: the registry by exact type, then
// Encodable, mappings (inline table), sequences (array), and finally
// fmt.Stringer and scalar kinds, which are written as strings.
func (e *Encoder) DumpValue(v any) (string, error) {
	if e.normalize != nil {
		v = e.normalize(v)
	}
	if v == nil {
		return "", fmt.Errorf("toml: %w: nil", ErrUnsupportedType)
	}
	t := reflect.TypeOf(v)
	if fn, ok := e.dumpFuncs[t]; ok {
		return fn(v)
	}
	if t.Kind() == reflect.Pointer {
		if _, ok := e.dumpFuncs[t.Elem()]; ok && !isNil(v) {
			return e.DumpValue(reflect.ValueOf(v).Elem().Interface())
		}
	}
	if enc, ok := v.(Encodable); ok {
		return enc.EncodeTOML(e.DumpValue)
	}
	if _, ok := asMapping(v); ok {
		return e.DumpInlineTable(v)
	}
	if b, ok := v.([]byte); ok {
		return dumpStr(string(b)), nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return e.DumpList(v)
	}
	if s, ok := v.(fmt.Stringer); ok {
		if isNil(v) {
			return "", fmt.Errorf("toml: %w: nil %T", ErrUnsupportedType, v)
		}
		return dumpStr(s.String()), nil
	}
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return "", fmt.Errorf("toml: %w: nil %T", ErrUnsupportedType, v)
		}
		return e.DumpValue(rv.Elem().Interface())
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return dumpStr(fmt.Sprint(v)), nil
	}
	return "", fmt.Errorf("toml: %w: %T", ErrUnsupportedType, v)
}

// DumpList formats a slice or array as `[a, b]`.
func (e *Encoder) DumpList(v any) (string, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return "", fmt.Errorf("toml: %w: %T is not a sequence", ErrUnsupportedType, v)
	}
	leave, err := e.enter(v)
	if err != nil {
		return "", err
	}
	defer leave()
	e.depth++
	defer func() { e.depth-- }()

	items := make([]string, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		s, err := e.DumpValue(rv.Index(i).Interface())
		if err != nil {
			return "", fmt.Errorf("toml: index %d: %w", i, err)
		}
		items = append(items, s)
	}
	return "[" + strings.Join(items, e.joiner()) + "]", nil
}

// joiner is the text between array elements: the separator, followed by a
// space unless the separator already ends in whitespace.
func (e *Encoder) joiner() string {
	sep := e.separator
	if sep == "" {
		sep = ","
	}
	if strings.TrimRight(sep, " \t\r\n") == sep {
		sep += " "
	}
	return sep
}

// DumpInlineTable formats a mapping as `{ k = v, ... }`. Non-mappings are
// handed to DumpValue.
func (e *Encoder) DumpInlineTable(v any) (string, error) {
	m, ok := asMapping(v)
	if !ok {
		return e.DumpValue(v)
	}
	leave, err := e.enter(v)
	if err != nil {
		return "", err
	}
	defer leave()
	e.depth++
	defer func() { e.depth-- }()

	var parts []string
	for _, k := range m.Keys() {
		val, _ := m.Get(k)
		if isNil(val) {
			continue
		}
		s, err := e.DumpValue(val)
		if err != nil {
			return "", fmt.Errorf("toml: key %s: %w", quoteKey(k), err)
		}
		parts = append(parts, quoteKey(k)+" = "+s)
	}
	if len(parts) == 0 {
		return "{}", nil
	}
	return "{ " + strings.Join(parts, ", ") + " }", nil
}

// enter marks v as being rendered and fails if it already is.
func (e *Encoder) enter(v any) (func(), error) {
	id, ok := identityOf(v)
	if !ok {
		return func() {}, nil
	}
	if e.inflight == nil {
		e.inflight = make(map[identity]struct{})
	}
	if _, busy := e.inflight[id]; busy {
		return nil, fmt.Errorf("toml: %w: %T contains itself", ErrCircularReference, v)
	}
	e.inflight[id] = struct{}{}
	return func() { delete(e.inflight, id) }, nil
}
