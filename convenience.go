// File: lixenwraith/iniconf/convenience.go
package iniconf

import "fmt"

// Quick builds an engine for path with default options and reads target from it.
// The file is created or extended as needed.
func Quick[T any](path string, target *T) (*Engine[T], error) {
	e, err := NewBuilder[T]().WithFile(path).Build()
	if err != nil {
		return nil, err
	}
	if err := e.Read(target, false); err != nil {
		return e, err
	}
	return e, nil
}

// MustQuick is like Quick but panics on error
func MustQuick[T any](path string, target *T) *Engine[T] {
	e, err := Quick(path, target)
	if err != nil {
		panic(fmt.Sprintf("iniconf initialization failed: %v", err))
	}
	return e
}

// ReadFile parses the ini file at path through store. A missing file yields an
// empty document.
func ReadFile(store FileStore, path string) (*Document, error) {
	exists, err := store.Exists(path)
	if err != nil {
		return nil, err
	}
	if !exists {
		return NewDocument(), nil
	}
	data, err := store.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data), nil
}

// WriteFile renders doc to path through store.
func WriteFile(store FileStore, path string, doc *Document) error {
	unlock := lockPath(store, path)
	defer unlock()
	return store.WriteFile(path, doc.Render())
}
