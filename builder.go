// File: lixenwraith/iniconf/builder.go
package iniconf

import (
	"fmt"
	"reflect"

	"go.uber.org/zap"
)

// Builder provides a fluent interface for building an Engine bound to one file
// and one config type.
type Builder[T any] struct {
	path     string
	store    FileStore
	section  string
	defaults *T
	fields   map[string]FieldOptions
	registry *Registry
	logger   *zap.Logger
	fileLock bool
	err      error
}

// NewBuilder creates a new engine builder for config type T.
func NewBuilder[T any]() *Builder[T] {
	return &Builder[T]{
		fields: make(map[string]FieldOptions),
	}
}

// WithFile sets the config file path, relative to the store root
func (b *Builder[T]) WithFile(path string) *Builder[T] {
	b.path = path
	return b
}

// WithStore sets the file store. Default: a DirStore on the working directory.
func (b *Builder[T]) WithStore(store FileStore) *Builder[T] {
	if store == nil {
		b.err = fmt.Errorf("store cannot be nil")
		return b
	}
	b.store = store
	return b
}

// WithSection sets the section for fields whose tag names none.
// It takes precedence over the type's IniSection method.
func (b *Builder[T]) WithSection(section string) *Builder[T] {
	if !isValidSection(section) {
		b.err = fmt.Errorf("%w: section %q", ErrInvalidName, section)
		return b
	}
	b.section = section
	return b
}

// WithDefaults sets the prototype value. Sibling Default<Field> members are read
// from it, and a field with no other default takes the prototype's value.
func (b *Builder[T]) WithDefaults(defaults T) *Builder[T] {
	b.defaults = &defaults
	return b
}

// WithField sets explicit metadata for one field, overriding its tags attribute by attribute.
func (b *Builder[T]) WithField(member string, opts FieldOptions) *Builder[T] {
	if member == "" {
		b.err = fmt.Errorf("member name cannot be empty")
		return b
	}
	b.fields[member] = opts
	return b
}

// WithRegistry sets the codec registry. Default: DefaultRegistry().
func (b *Builder[T]) WithRegistry(r *Registry) *Builder[T] {
	b.registry = r
	return b
}

// WithLogger sets the diagnostics logger. Default: NewLogger().
func (b *Builder[T]) WithLogger(l *zap.Logger) *Builder[T] {
	b.logger = l
	return b
}

// WithFileLock holds a cross-process lock during each operation when the store
// implements Locker.
func (b *Builder[T]) WithFileLock(enabled bool) *Builder[T] {
	b.fileLock = enabled
	return b
}

// Build resolves the descriptors of T and creates the Engine. Any field that cannot
// be resolved (no section, unsupported type, bad default) fails the build.
func (b *Builder[T]) Build() (*Engine[T], error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.path == "" {
		return nil, fmt.Errorf("config file path cannot be empty")
	}

	typ := reflect.TypeFor[T]()
	if typ.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: config type must be a struct, got %s", ErrInvalidTarget, typ)
	}

	prototype := reflect.New(typ).Elem()
	if b.defaults != nil {
		prototype.Set(reflect.ValueOf(*b.defaults))
	}

	registry := b.registry
	if registry == nil {
		registry = DefaultRegistry()
	}

	descriptors, err := newResolver(typ, prototype, b.section, b.fields, registry).resolve()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve descriptors for %s: %w", typ, err)
	}

	store := b.store
	if store == nil {
		store = NewDirStore("")
	}

	logger := b.logger
	if logger == nil {
		logger = NewLogger()
	}

	e := &Engine[T]{
		path:        b.path,
		store:       store,
		descriptors: descriptors,
		byMember:    make(map[string]int, len(descriptors)),
		registry:    registry,
		log:         logger.Sugar().With("path", b.path),
		fileLock:    b.fileLock,
	}
	for i, d := range descriptors {
		e.byMember[d.Member] = i
	}

	return e, nil
}

// MustBuild is like Build but panics on error
func (b *Builder[T]) MustBuild() *Engine[T] {
	e, err := b.Build()
	if err != nil {
		panic(fmt.Sprintf("iniconf build failed: %v", err))
	}
	return e
}
