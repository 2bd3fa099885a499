// FILE: lixenwraith/iniconf/errors.go
package iniconf

import "errors"

var (
	// ErrMissingSection is returned when a config field has no section from its tag,
	// the builder, or the type's IniSection method.
	ErrMissingSection = errors.New("no section resolved")

	// ErrUnsupportedType is returned when a field's static type has no codec.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrConversion is returned when text does not decode to the target type,
	// or a value cannot be encoded.
	ErrConversion = errors.New("conversion failed")

	// ErrUnknownMember is returned by WriteSingle when no descriptor matches the member name.
	ErrUnknownMember = errors.New("unknown member")

	// ErrInvalidTarget is returned when the bound type is not a struct.
	ErrInvalidTarget = errors.New("invalid target")

	// ErrInvalidName is returned when a section or key cannot be represented in the file.
	ErrInvalidName = errors.New("invalid name")
)
