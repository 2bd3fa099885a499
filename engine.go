// FILE: lixenwraith/iniconf/engine.go
package iniconf

import (
	"fmt"
	"reflect"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Engine synchronizes values of T with one ini file. Create it with NewBuilder.
// Operations are synchronous; operations on the same store path are serialized.
type Engine[T any] struct {
	path        string
	store       FileStore
	descriptors []Descriptor
	byMember    map[string]int
	registry    *Registry
	log         *zap.SugaredLogger
	fileLock    bool
}

// Path returns the bound file path.
func (e *Engine[T]) Path() string {
	return e.path
}

// Descriptors returns the resolved descriptors in field declaration order.
func (e *Engine[T]) Descriptors() []Descriptor {
	out := make([]Descriptor, len(e.descriptors))
	copy(out, e.descriptors)
	return out
}

// Lookup returns the descriptor for a Go field name.
func (e *Engine[T]) Lookup(member string) (Descriptor, bool) {
	i, ok := e.byMember[member]
	if !ok {
		return Descriptor{}, false
	}
	return e.descriptors[i], true
}

// Read fills obj from the file. Missing settings, or a missing file, get their
// defaults and are appended to the file in one rewrite. A setting whose text does not
// convert is logged and gets its default; it does not fail the read and the file
// keeps the bad text.
func (e *Engine[T]) Read(obj *T, verbose bool) (err error) {
	if obj == nil {
		return fmt.Errorf("%w: nil target", ErrInvalidTarget)
	}
	l := e.opLog(verbose)

	release, err := e.acquire()
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, release()) }()

	doc, err := e.load(l)
	if err != nil {
		return err
	}

	target := reflect.ValueOf(obj).Elem()
	var pending []Descriptor

	for _, d := range e.descriptors {
		field := target.FieldByIndex(d.index)

		entry, ok := doc.Get(d.Section, d.Name)
		if !ok {
			field.Set(cloneValue(d.Default))
			pending = append(pending, d)
			l.Info("setting missing, using default", "setting", d.String(), "default_from", d.Origin.Default)
			continue
		}

		v, err := e.registry.Decode(entry.Value, d.FieldType)
		if err != nil {
			field.Set(cloneValue(d.Default))
			l.Warn("invalid setting, using default", "setting", d.String(), "value", entry.Value, "error", err)
			continue
		}
		field.Set(v)
		l.Debug("setting loaded", "setting", d.String(), "member", d.Member)
	}

	if len(pending) == 0 {
		return nil
	}

	for _, d := range pending {
		text, err := e.registry.Encode(d.Default)
		if err != nil {
			l.Error("cannot encode default", "setting", d.String(), "error", err)
			return fmt.Errorf("failed to encode default for %s: %w", d, err)
		}
		doc.Put(d.Section, d.Name, text, SplitDescription(d.Description))
		l.Info("adding setting", "setting", d.String(), "value", text)
	}

	return e.save(doc, l)
}

// Write renders obj into a fresh document in descriptor order and replaces the file.
// Settings in the file that obj does not declare are dropped.
func (e *Engine[T]) Write(obj *T, verbose bool) (err error) {
	if obj == nil {
		return fmt.Errorf("%w: nil source", ErrInvalidTarget)
	}
	l := e.opLog(verbose)

	src := reflect.ValueOf(obj).Elem()
	doc := NewDocument()
	for _, d := range e.descriptors {
		text, err := e.registry.Encode(src.FieldByIndex(d.index))
		if err != nil {
			l.Error("cannot encode setting", "setting", d.String(), "error", err)
			return fmt.Errorf("failed to encode %s: %w", d, err)
		}
		doc.Put(d.Section, d.Name, text, SplitDescription(d.Description))
		l.Debug("setting rendered", "setting", d.String(), "value", text)
	}

	release, err := e.acquire()
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, release()) }()

	return e.save(doc, l)
}

// WriteSingle sets one setting in the file to value and leaves every other entry,
// description and ordering untouched. The section and entry are created if absent.
// value must be assignable to the field type or of the same kind family.
func (e *Engine[T]) WriteSingle(member string, value any) (err error) {
	l := e.opLog(false)

	i, ok := e.byMember[member]
	if !ok {
		err := fmt.Errorf("%w: %q", ErrUnknownMember, member)
		l.Error("cannot write setting", "member", member, "error", err)
		return err
	}
	d := e.descriptors[i]

	v, err := coerceValue(value, d.FieldType)
	if err != nil {
		l.Error("cannot write setting", "setting", d.String(), "error", err)
		return fmt.Errorf("failed to convert value for %s: %w", d, err)
	}
	text, err := e.registry.Encode(v)
	if err != nil {
		l.Error("cannot write setting", "setting", d.String(), "error", err)
		return fmt.Errorf("failed to encode %s: %w", d, err)
	}

	release, err := e.acquire()
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, release()) }()

	doc, err := e.load(l)
	if err != nil {
		return err
	}

	if entry, ok := doc.Get(d.Section, d.Name); ok {
		entry.Value = text
	} else {
		doc.Put(d.Section, d.Name, text, SplitDescription(d.Description))
	}

	return e.save(doc, l)
}

// Describe returns a readable listing of the descriptors and where each attribute came from.
func (e *Engine[T]) Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Config file: %s\n", e.path)
	for _, d := range e.descriptors {
		def, err := e.registry.Encode(d.Default)
		if err != nil {
			def = fmt.Sprintf("<%v>", err)
		}
		fmt.Fprintf(&b, "  %s (%s %s):\n", d, d.Member, d.FieldType)
		fmt.Fprintf(&b, "    Section: %s [%s]\n", d.Section, d.Origin.Section)
		fmt.Fprintf(&b, "    Name: %s [%s]\n", d.Name, d.Origin.Name)
		fmt.Fprintf(&b, "    Default: %s [%s]\n", def, d.Origin.Default)
		if d.Description != "" {
			fmt.Fprintf(&b, "    Description: %q [%s]\n", d.Description, d.Origin.Description)
		}
	}
	return b.String()
}

func (e *Engine[T]) opLog(verbose bool) opLogger {
	return opLogger{log: e.log, verbose: verbose}
}

// acquire serializes the operation in-process and, when enabled, across processes.
func (e *Engine[T]) acquire() (func() error, error) {
	unlock := lockPath(e.store, e.path)

	locker, ok := e.store.(Locker)
	if !e.fileLock || !ok {
		return func() error { unlock(); return nil }, nil
	}

	release, err := locker.Lock(e.path)
	if err != nil {
		unlock()
		return nil, err
	}
	return func() error {
		err := release()
		unlock()
		return err
	}, nil
}

// load parses the file, or returns an empty document when it does not exist.
func (e *Engine[T]) load(l opLogger) (*Document, error) {
	exists, err := e.store.Exists(e.path)
	if err != nil {
		l.Error("cannot check config file", "error", err)
		return nil, err
	}
	if !exists {
		l.Info("config file not found, starting from an empty document")
		return NewDocument(), nil
	}

	data, err := e.store.ReadFile(e.path)
	if err != nil {
		l.Error("cannot read config file", "error", err)
		return nil, err
	}

	doc := Parse(data)
	for _, dup := range doc.Duplicates() {
		l.Warn("duplicate key, last value wins", "setting", dup)
	}
	l.Debug("config file parsed", "sections", len(doc.Sections()))
	return doc, nil
}

func (e *Engine[T]) save(doc *Document, l opLogger) error {
	if err := e.store.WriteFile(e.path, doc.Render()); err != nil {
		l.Error("cannot write config file", "error", err)
		return err
	}
	l.Info("config file written")
	return nil
}

// cloneValue copies one level of pointer or slice. A default is never shared with a host field.
func cloneValue(v reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Ptr:
		if v.IsNil() {
			return v
		}
		p := reflect.New(v.Type().Elem())
		p.Elem().Set(v.Elem())
		return p
	case reflect.Slice:
		if v.IsNil() {
			return v
		}
		s := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		reflect.Copy(s, v)
		return s
	}
	return v
}
