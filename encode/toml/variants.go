package toml

import (
	"fmt"
	"math"
	"math/big"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/exp/constraints"
)

// =========================
// Preserve Inline Dict
// =========================

// NewPreserveInlineDictEncoder renders *InlineTable values as inline tables.
func NewPreserveInlineDictEncoder(opts ...Option) *Encoder {
	return NewEncoder(append([]Option{WithPreserve(true)}, opts...)...)
}

// =========================
// Array Separator
// =========================

// NewArraySeparatorEncoder writes separator between array elements. A
// whitespace-only separator is prefixed with a comma; anything else must
// trim to exactly ",".
func NewArraySeparatorEncoder(separator string, opts ...Option) (*Encoder, error) {
	switch strings.TrimSpace(separator) {
	case "":
		separator = "," + separator
	case ",":
	default:
		return nil, fmt.Errorf("toml: %w: %q", ErrInvalidSeparator, separator)
	}
	return NewEncoder(append(opts[:len(opts):len(opts)], withSeparator(separator))...), nil
}

// =========================
// Numeric
// =========================

// NewNumericEncoder also knows Go's sized integer and float types and
// *big.Int. The base encoder writes those as strings.
func NewNumericEncoder(opts ...Option) *Encoder {
	return NewEncoder(append(opts[:len(opts):len(opts)], WithNumericTypes())...)
}

// WithNumericTypes registers the formatters of NewNumericEncoder.
func WithNumericTypes() Option {
	return func(e *Encoder) {
		RegisterFunc(e, dumpSigned[int8])
		RegisterFunc(e, dumpSigned[int16])
		RegisterFunc(e, dumpSigned[int32])
		RegisterFunc(e, dumpUnsigned[uint])
		RegisterFunc(e, dumpUnsigned[uint8])
		RegisterFunc(e, dumpUnsigned[uint16])
		RegisterFunc(e, dumpUnsigned[uint32])
		RegisterFunc(e, dumpUnsigned[uint64])
		RegisterFunc(e, func(f float32) (string, error) { return formatFloat(float64(f), 32), nil })
		RegisterFunc(e, dumpBigInt)
	}
}

func dumpSigned[T constraints.Signed](v T) (string, error) {
	return strconv.FormatInt(int64(v), 10), nil
}

func dumpUnsigned[T constraints.Unsigned](v T) (string, error) {
	if uint64(v) > math.MaxInt64 {
		return "", fmt.Errorf("toml: %w: %d", ErrIntegerOverflow, uint64(v))
	}
	return strconv.FormatUint(uint64(v), 10), nil
}

func dumpBigInt(v *big.Int) (string, error) {
	if v == nil {
		return "", fmt.Errorf("toml: %w: nil *big.Int", ErrUnsupportedType)
	}
	if !v.IsInt64() {
		return "", fmt.Errorf("toml: %w: %s", ErrIntegerOverflow, v)
	}
	return v.String(), nil
}

// =========================
// Preserve Comment
// =========================

// CommentValue is a value carrying a trailing comment. Only an encoder
// from NewPreserveCommentEncoder knows how to write it. The comment is
// dropped when the value sits inside an array or inline table.
type CommentValue struct {
	Value   any
	Comment string
}

// dump writes the value and, when nested is false, its comment. A comment
// inside an array or inline table would swallow the rest of the line.
func (c CommentValue) dump(dump func(any) (string, error), nested bool) (string, error) {
	s, err := dump(c.Value)
	if err != nil || nested {
		return s, err
	}
	if strings.ContainsAny(c.Comment, "\r\n") {
		return "", fmt.Errorf("toml: %w: %q", ErrInvalidComment, c.Comment)
	}
	text := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(c.Comment), "#"))
	if text == "" {
		return s, nil
	}
	return s + " # " + text, nil
}

func NewPreserveCommentEncoder(opts ...Option) *Encoder {
	return NewEncoder(append(opts[:len(opts):len(opts)], WithCommentValues())...)
}

// WithCommentValues registers CommentValue and *CommentValue.
func WithCommentValues() Option {
	return func(e *Encoder) {
		RegisterFunc(e, func(c CommentValue) (string, error) { return c.dump(e.DumpValue, e.depth > 0) })
		RegisterFunc(e, func(c *CommentValue) (string, error) {
			if c == nil {
				return "", fmt.Errorf("toml: %w: nil *CommentValue", ErrUnsupportedType)
			}
			return c.dump(e.DumpValue, e.depth > 0)
		})
	}
}

// =========================
// Paths
// =========================

// PathLike is a value that names a file system path.
type PathLike interface {
	FilePath() string
}

// NewPathEncoder writes PathLike values and *os.File handles as their
// cleaned path string.
func NewPathEncoder(opts ...Option) *Encoder {
	return NewEncoder(append(opts[:len(opts):len(opts)], WithPaths())...)
}

// WithPaths turns on the path conversion of NewPathEncoder.
func WithPaths() Option {
	return func(e *Encoder) { e.normalize = normalizePath }
}

func normalizePath(v any) any {
	switch p := v.(type) {
	case PathLike:
		if isNil(p) {
			return v
		}
		return filepath.Clean(p.FilePath())
	case *os.File:
		if p == nil {
			return v
		}
		return filepath.Clean(p.Name())
	}
	return v
}
