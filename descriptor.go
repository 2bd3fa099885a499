// FILE: lixenwraith/iniconf/descriptor.go
package iniconf

import (
	"fmt"
	"math"
	"reflect"
	"strings"

	"go.uber.org/multierr"
)

// Struct tags read when resolving descriptors.
const (
	TagName    = "ini"         // `ini:"Name,section=Section"`, "-" skips the field
	TagDoc     = "ini-doc"     // description written as comment lines above the entry
	TagDefault = "ini-default" // default in file text form

	// DefaultPrefix names the sibling member that provides a field's default:
	// field Volume takes its default from a field or method named DefaultVolume.
	DefaultPrefix = "Default"
)

// Sectioner is implemented by config types that name the section for fields
// whose tag does not carry one.
type Sectioner interface {
	IniSection() string
}

// Origin records which source resolved each descriptor attribute.
type Origin struct {
	Section     string
	Name        string
	Default     string
	Description string
}

// Descriptor is the resolved metadata for one config field.
type Descriptor struct {
	Member      string       // Go field name
	FieldType   reflect.Type // static type of the field
	Section     string
	Name        string
	Default     reflect.Value // always of FieldType
	Description string
	Origin      Origin

	index []int
}

// DefaultValue returns the resolved default as an interface value.
func (d Descriptor) DefaultValue() any {
	return d.Default.Interface()
}

// String returns "section.name".
func (d Descriptor) String() string {
	return d.Section + "." + d.Name
}

// FieldOptions overrides what tags and conventions would resolve for one field.
// Empty strings and a nil Default leave the attribute to the next source.
// Registering options for a field makes it a config field even without an ini tag.
type FieldOptions struct {
	Section     string
	Name        string
	Description string
	Default     any
	DefaultFunc func() any
}

// resolver holds the inputs of descriptor resolution for one struct type.
type resolver struct {
	typ          reflect.Type
	prototype    reflect.Value // addressable struct
	classSection string
	classOrigin  string
	fields       map[string]FieldOptions
	registry     *Registry
}

func newResolver(typ reflect.Type, prototype reflect.Value, section string, fields map[string]FieldOptions, registry *Registry) *resolver {
	r := &resolver{
		typ:       typ,
		prototype: prototype,
		fields:    fields,
		registry:  registry,
	}

	switch {
	case section != "":
		r.classSection, r.classOrigin = section, "builder"
	default:
		if s, ok := prototype.Addr().Interface().(Sectioner); ok {
			if name := s.IniSection(); name != "" {
				r.classSection, r.classOrigin = name, "type"
			}
		}
	}

	return r
}

// resolve walks the struct fields in declaration order and returns one descriptor per
// config field. Every problem found is reported, not only the first.
func (r *resolver) resolve() ([]Descriptor, error) {
	var errs error
	var out []Descriptor
	seen := make(map[string]string) // "section\x00name" -> member
	known := make(map[string]bool)

	for i := 0; i < r.typ.NumField(); i++ {
		field := r.typ.Field(i)
		if !field.IsExported() {
			continue
		}
		known[field.Name] = true

		tag, tagged := field.Tag.Lookup(TagName)
		opts, hasOpts := r.fields[field.Name]
		if tag == "-" || (!tagged && !hasOpts) {
			continue
		}

		d, err := r.resolveField(field, tag, opts)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("field %s.%s: %w", r.typ.Name(), field.Name, err))
			continue
		}

		coord := d.Section + "\x00" + d.Name
		if other, dup := seen[coord]; dup {
			errs = multierr.Append(errs, fmt.Errorf("%w: fields %s and %s both map to %s", ErrInvalidName, other, d.Member, d))
			continue
		}
		seen[coord] = d.Member
		out = append(out, d)
	}

	for member := range r.fields {
		if !known[member] {
			errs = multierr.Append(errs, fmt.Errorf("%w: %s has no exported field %q", ErrUnknownMember, r.typ.Name(), member))
		}
	}

	return out, errs
}

func (r *resolver) resolveField(field reflect.StructField, tag string, opts FieldOptions) (Descriptor, error) {
	d := Descriptor{
		Member:    field.Name,
		FieldType: field.Type,
		index:     field.Index,
	}

	if !r.registry.Supports(field.Type) {
		return d, fmt.Errorf("%w: %s", ErrUnsupportedType, field.Type)
	}

	tagName, tagSection, err := parseTag(tag)
	if err != nil {
		return d, err
	}

	// name
	switch {
	case opts.Name != "":
		d.Name, d.Origin.Name = opts.Name, "builder"
	case tagName != "":
		d.Name, d.Origin.Name = tagName, "tag"
	default:
		d.Name, d.Origin.Name = field.Name, "member"
	}
	if !isValidKey(d.Name) {
		return d, fmt.Errorf("%w: key %q", ErrInvalidName, d.Name)
	}

	// section
	switch {
	case opts.Section != "":
		d.Section, d.Origin.Section = opts.Section, "builder"
	case tagSection != "":
		d.Section, d.Origin.Section = tagSection, "tag"
	case r.classSection != "":
		d.Section, d.Origin.Section = r.classSection, r.classOrigin
	default:
		return d, ErrMissingSection
	}
	if !isValidSection(d.Section) {
		return d, fmt.Errorf("%w: section %q", ErrInvalidName, d.Section)
	}

	// description
	switch {
	case opts.Description != "":
		d.Description, d.Origin.Description = opts.Description, "builder"
	case field.Tag.Get(TagDoc) != "":
		d.Description, d.Origin.Description = field.Tag.Get(TagDoc), "tag"
	}

	// default
	d.Default, d.Origin.Default, err = r.resolveDefault(field, opts)
	if err != nil {
		return d, err
	}
	// Defaults must have a text form.
	if _, err := r.registry.Encode(d.Default); err != nil {
		return d, fmt.Errorf("default (%s): %w", d.Origin.Default, err)
	}

	return d, nil
}

func (r *resolver) resolveDefault(field reflect.StructField, opts FieldOptions) (reflect.Value, string, error) {
	ft := field.Type

	if opts.DefaultFunc != nil {
		v, err := coerceValue(opts.DefaultFunc(), ft)
		if err != nil {
			return reflect.Value{}, "", fmt.Errorf("default func: %w", err)
		}
		return v, "builder", nil
	}

	if opts.Default != nil {
		v, err := coerceValue(opts.Default, ft)
		if err != nil {
			return reflect.Value{}, "", fmt.Errorf("default: %w", err)
		}
		return v, "builder", nil
	}

	if text, ok := field.Tag.Lookup(TagDefault); ok {
		v, err := r.registry.Decode(text, ft)
		if err != nil {
			return reflect.Value{}, "", fmt.Errorf("%s tag: %w", TagDefault, err)
		}
		return v, "tag", nil
	}

	sibling := DefaultPrefix + field.Name
	if sf, ok := r.typ.FieldByName(sibling); ok && sf.IsExported() {
		if fv, err := r.prototype.FieldByIndexErr(sf.Index); err == nil {
			if v, err := coerceValue(fv.Interface(), ft); err == nil {
				return v, "sibling field " + sibling, nil
			}
		}
	}
	if m := r.prototype.Addr().MethodByName(sibling); m.IsValid() && m.Type().NumIn() == 0 && m.Type().NumOut() == 1 {
		if v, err := coerceValue(m.Call(nil)[0].Interface(), ft); err == nil {
			return v, "sibling method " + sibling, nil
		}
	}

	v := reflect.New(ft).Elem()
	v.Set(r.prototype.FieldByIndex(field.Index))
	return v, "prototype", nil
}

// parseTag splits `Name,section=Section`.
func parseTag(tag string) (name, section string, err error) {
	if tag == "" {
		return "", "", nil
	}
	parts := strings.Split(tag, ",")
	name = strings.TrimSpace(parts[0])
	for _, opt := range parts[1:] {
		k, v, _ := strings.Cut(strings.TrimSpace(opt), "=")
		switch k {
		case "section":
			section = strings.TrimSpace(v)
		case "":
		default:
			return "", "", fmt.Errorf("unknown %s tag option %q", TagName, k)
		}
	}
	return name, section, nil
}

// coerceValue returns v as a value of type t. Assignable values are copied; values of
// the same kind family (numeric, string, bool) are converted. nil yields the zero value.
func coerceValue(v any, t reflect.Type) (reflect.Value, error) {
	out := reflect.New(t).Elem()
	if v == nil {
		return out, nil
	}

	rv := reflect.ValueOf(v)
	switch {
	case rv.Type().AssignableTo(t):
		out.Set(rv)
	case sameKindFamily(rv.Type(), t) && rv.Type().ConvertibleTo(t):
		if isNumeric(t.Kind()) && overflows(rv, out) {
			return reflect.Value{}, fmt.Errorf("%w: %v overflows %s", ErrConversion, v, t)
		}
		out.Set(rv.Convert(t))
	default:
		return reflect.Value{}, fmt.Errorf("%w: %T is not compatible with %s", ErrConversion, v, t)
	}
	return out, nil
}

// overflows reports whether numeric src cannot be represented exactly by dst's type.
// Floats only convert to integers when they have no fractional part.
func overflows(src, dst reflect.Value) bool {
	switch {
	case src.CanInt():
		i := src.Int()
		switch {
		case dst.CanInt():
			return dst.OverflowInt(i)
		case dst.CanUint():
			return i < 0 || dst.OverflowUint(uint64(i))
		}
	case src.CanUint():
		u := src.Uint()
		switch {
		case dst.CanInt():
			return u > math.MaxInt64 || dst.OverflowInt(int64(u))
		case dst.CanUint():
			return dst.OverflowUint(u)
		}
	case src.CanFloat():
		f := src.Float()
		switch {
		case dst.CanFloat():
			return dst.OverflowFloat(f)
		case dst.CanInt():
			// -2^63 is exact in float64, 2^63 is the first value out of range
			if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
				return true
			}
			return dst.OverflowInt(int64(f))
		case dst.CanUint():
			if f != math.Trunc(f) || f < 0 || f >= math.MaxUint64 {
				return true
			}
			return dst.OverflowUint(uint64(f))
		}
	}
	return false
}

func sameKindFamily(a, b reflect.Type) bool {
	ka, kb := a.Kind(), b.Kind()
	switch {
	case isNumeric(ka) && isNumeric(kb):
		return true
	case ka == reflect.String && kb == reflect.String:
		return true
	case ka == reflect.Bool && kb == reflect.Bool:
		return true
	}
	return false
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
