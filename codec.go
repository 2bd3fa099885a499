// FILE: lixenwraith/iniconf/codec.go
package iniconf

import (
	"encoding"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Codec converts between a typed value and its text form in the file.
// Decode receives the static target type and must return a value of exactly that type.
type Codec interface {
	Encode(v reflect.Value) (string, error)
	Decode(text string, t reflect.Type) (reflect.Value, error)
}

// CodecFuncs adapts a pair of functions to the Codec interface.
type CodecFuncs struct {
	EncodeFunc func(v reflect.Value) (string, error)
	DecodeFunc func(text string, t reflect.Type) (reflect.Value, error)
}

func (c CodecFuncs) Encode(v reflect.Value) (string, error) { return c.EncodeFunc(v) }
func (c CodecFuncs) Decode(text string, t reflect.Type) (reflect.Value, error) {
	return c.DecodeFunc(text, t)
}

var (
	textMarshalerType   = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

// Registry holds codecs keyed by type identity. Lookup order for a static type:
// exact registration, encoding.TextMarshaler/TextUnmarshaler, pointer to a supported
// type, then the scalar kinds (bool, integers, floats, string).
//
// Pointers write nil as empty text and read empty text as nil, so a non-nil pointer
// to a value whose text is empty (such as *string pointing at "") reads back as nil.
type Registry struct {
	mu     sync.RWMutex
	codecs map[reflect.Type]Codec
}

// NewRegistry returns a registry with the built-in codecs for time.Duration,
// url.URL, *url.URL and *net.IPNet.
func NewRegistry() *Registry {
	r := &Registry{codecs: make(map[reflect.Type]Codec)}
	registerBuiltins(r)
	return r
}

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the registry used by builders that are not given one.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// Register binds a codec to an exact type, replacing any previous binding.
func (r *Registry) Register(t reflect.Type, c Codec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codecs[t] = c
}

// RegisterType registers typed encode/decode functions for T.
func RegisterType[T any](r *Registry, encode func(T) (string, error), decode func(string) (T, error)) {
	r.Register(reflect.TypeFor[T](), funcCodec[T]{encode: encode, decode: decode})
}

// RegisterEnum registers T as an enumeration whose file form is the String() name
// of each listed value. Decoding accepts only those names, exactly.
func RegisterEnum[T interface {
	comparable
	fmt.Stringer
}](r *Registry, values ...T) {
	c := enumCodec[T]{
		names:  make(map[T]string, len(values)),
		values: make(map[string]T, len(values)),
	}
	for _, v := range values {
		name := v.String()
		c.names[v] = name
		c.values[name] = v
	}
	r.Register(reflect.TypeFor[T](), c)
}

// Supports reports whether values of t can be converted.
func (r *Registry) Supports(t reflect.Type) bool {
	_, err := r.lookup(t)
	return err == nil
}

// Encode converts v to text using the codec for v's type.
func (r *Registry) Encode(v reflect.Value) (string, error) {
	c, err := r.lookup(v.Type())
	if err != nil {
		return "", err
	}
	text, err := c.Encode(v)
	if err != nil {
		return "", fmt.Errorf("%w: cannot encode %s: %w", ErrConversion, v.Type(), err)
	}
	return text, nil
}

// Decode converts text to a value of type t. Malformed text is an error; no default
// is substituted.
func (r *Registry) Decode(text string, t reflect.Type) (reflect.Value, error) {
	c, err := r.lookup(t)
	if err != nil {
		return reflect.Value{}, err
	}
	v, err := c.Decode(text, t)
	if err != nil {
		return reflect.Value{}, fmt.Errorf("%w: cannot decode %q as %s: %w", ErrConversion, text, t, err)
	}
	return v, nil
}

// ToText encodes v with the codec registered for T.
func ToText[T any](r *Registry, v T) (string, error) {
	return r.Encode(reflect.ValueOf(&v).Elem())
}

// FromText decodes text into a T.
func FromText[T any](r *Registry, text string) (T, error) {
	var zero T
	v, err := r.Decode(text, reflect.TypeFor[T]())
	if err != nil {
		return zero, err
	}
	return v.Interface().(T), nil
}

func (r *Registry) lookup(t reflect.Type) (Codec, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil type", ErrUnsupportedType)
	}

	r.mu.RLock()
	c, ok := r.codecs[t]
	r.mu.RUnlock()
	if ok {
		return c, nil
	}

	pt := reflect.PointerTo(t)
	if pt.Implements(textUnmarshalerType) && (t.Implements(textMarshalerType) || pt.Implements(textMarshalerType)) {
		return textCodec{}, nil
	}

	switch t.Kind() {
	case reflect.Ptr:
		if _, err := r.lookup(t.Elem()); err != nil {
			return nil, err
		}
		return pointerCodec{r: r}, nil
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return scalarCodec{}, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, t)
}

// scalarCodec handles the primitive kinds, including named types over them.
type scalarCodec struct{}

func (scalarCodec) Encode(v reflect.Value) (string, error) {
	switch v.Kind() {
	case reflect.String:
		s := v.String()
		if strings.ContainsAny(s, "\r\n") {
			return "", fmt.Errorf("value contains a line break")
		}
		return s, nil
	case reflect.Bool:
		return strconv.FormatBool(v.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10), nil
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', -1, v.Type().Bits()), nil
	}
	return "", fmt.Errorf("kind %s is not a scalar", v.Kind())
}

func (scalarCodec) Decode(text string, t reflect.Type) (reflect.Value, error) {
	out := reflect.New(t).Elem()
	if t.Kind() == reflect.String {
		out.SetString(text)
		return out, nil
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return reflect.Value{}, fmt.Errorf("empty value")
	}

	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := strconv.ParseInt(text, 10, t.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		out.SetInt(i)
		return out, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(text, 10, t.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		out.SetUint(u)
		return out, nil
	}

	// bool and floats
	return decodeWithHooks(text, t)
}

// textCodec handles types implementing encoding.TextMarshaler and TextUnmarshaler.
type textCodec struct{}

func (textCodec) Encode(v reflect.Value) (string, error) {
	p := reflect.New(v.Type())
	p.Elem().Set(v)
	b, err := p.Interface().(encoding.TextMarshaler).MarshalText()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (textCodec) Decode(text string, t reflect.Type) (reflect.Value, error) {
	p := reflect.New(t)
	if err := p.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(text)); err != nil {
		return reflect.Value{}, err
	}
	return p.Elem(), nil
}

// pointerCodec maps nil to empty text and otherwise defers to the element codec.
// Empty text always decodes to nil.
type pointerCodec struct {
	r *Registry
}

func (c pointerCodec) Encode(v reflect.Value) (string, error) {
	if v.IsNil() {
		return "", nil
	}
	return c.r.Encode(v.Elem())
}

func (c pointerCodec) Decode(text string, t reflect.Type) (reflect.Value, error) {
	if text == "" {
		return reflect.Zero(t), nil
	}
	ev, err := c.r.Decode(text, t.Elem())
	if err != nil {
		return reflect.Value{}, err
	}
	p := reflect.New(t.Elem())
	p.Elem().Set(ev)
	return p, nil
}

type funcCodec[T any] struct {
	encode func(T) (string, error)
	decode func(string) (T, error)
}

func (c funcCodec[T]) Encode(v reflect.Value) (string, error) {
	return c.encode(v.Interface().(T))
}

func (c funcCodec[T]) Decode(text string, _ reflect.Type) (reflect.Value, error) {
	x, err := c.decode(text)
	if err != nil {
		return reflect.Value{}, err
	}
	return reflect.ValueOf(&x).Elem(), nil
}

type enumCodec[T comparable] struct {
	names  map[T]string
	values map[string]T
}

func (c enumCodec[T]) Encode(v reflect.Value) (string, error) {
	x := v.Interface().(T)
	name, ok := c.names[x]
	if !ok {
		return "", fmt.Errorf("%v is not a registered %T value", x, x)
	}
	return name, nil
}

func (c enumCodec[T]) Decode(text string, _ reflect.Type) (reflect.Value, error) {
	x, ok := c.values[strings.TrimSpace(text)]
	if !ok {
		names := make([]string, 0, len(c.values))
		for name := range c.values {
			names = append(names, name)
		}
		sort.Strings(names)
		return reflect.Value{}, fmt.Errorf("expected one of [%s]", strings.Join(names, ", "))
	}
	return reflect.ValueOf(&x).Elem(), nil
}
