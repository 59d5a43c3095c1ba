package toml

import "errors"

var (
	// ErrInvalidDocument is returned when the root object is not a mapping.
	ErrInvalidDocument = errors.New("document must be a mapping")
	// ErrInvalidWriter is returned by Dump when there is nowhere to write.
	ErrInvalidWriter = errors.New("can only dump to a non-nil writer")
	// ErrCircularReference is returned when the same table is reached twice
	// as a section, or a value contains itself.
	ErrCircularReference = errors.New("circular reference detected")
	ErrInvalidSeparator  = errors.New("invalid separator for arrays")
	ErrUnsupportedType   = errors.New("unsupported type")
	ErrIntegerOverflow   = errors.New("integer out of int64 range")
	ErrInvalidComment    = errors.New("comment must fit on one line")
)
