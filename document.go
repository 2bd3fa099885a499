// FILE: lixenwraith/iniconf/document.go
package iniconf

import (
	"bufio"
	"bytes"
	"io"
	"strings"
)

// CommentPrefix marks a description line directly above an entry.
const CommentPrefix = "//"

// Entry is a single key=value line together with the description lines above it.
type Entry struct {
	Key         string
	Value       string
	Description []string
}

// Section is a named, ordered group of entries.
type Section struct {
	Name    string
	entries []*Entry
	index   map[string]int
}

// Document is the parsed form of an ini file. Sections and entries keep insertion
// order, which decides the layout on Render. Names and keys are case-sensitive.
type Document struct {
	sections   []*Section
	index      map[string]int
	duplicates []string
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{index: make(map[string]int)}
}

func newSection(name string) *Section {
	return &Section{Name: name, index: make(map[string]int)}
}

// Parse reads ini text into a Document. Parsing never fails: unknown lines and lines
// before the first section header are ignored, and a repeated key in one section
// replaces the earlier value in place.
func Parse(data []byte) *Document {
	doc := NewDocument()
	var current *Section
	var pending []string

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		raw := strings.TrimSuffix(scanner.Text(), "\r")
		line := strings.TrimSpace(raw)

		switch {
		case line == "":
			pending = nil

		case strings.HasPrefix(line, CommentPrefix):
			// Trailing blanks belong to the description.
			pending = append(pending, strings.TrimPrefix(strings.TrimLeft(raw, " \t"), CommentPrefix))

		case strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]"):
			current = doc.AddSection(strings.TrimSpace(line[1 : len(line)-1]))
			pending = nil

		default:
			eq := strings.IndexByte(raw, '=')
			if current == nil || eq < 0 {
				pending = nil
				continue
			}
			key := strings.TrimSpace(raw[:eq])
			if key == "" {
				pending = nil
				continue
			}
			if _, dup := current.index[key]; dup {
				doc.duplicates = append(doc.duplicates, current.Name+"."+key)
			}
			current.put(key, raw[eq+1:], pending)
			pending = nil
		}
	}

	return doc
}

// Duplicates lists "section.key" for every key that appeared more than once while parsing.
func (d *Document) Duplicates() []string {
	return d.duplicates
}

// Sections returns the sections in file order.
func (d *Document) Sections() []*Section {
	return d.sections
}

// Section looks up a section by exact name.
func (d *Document) Section(name string) (*Section, bool) {
	i, ok := d.index[name]
	if !ok {
		return nil, false
	}
	return d.sections[i], true
}

// AddSection returns the named section, appending it if it does not exist yet.
func (d *Document) AddSection(name string) *Section {
	if s, ok := d.Section(name); ok {
		return s
	}
	s := newSection(name)
	d.index[name] = len(d.sections)
	d.sections = append(d.sections, s)
	return s
}

// Get returns the entry at (section, key).
func (d *Document) Get(section, key string) (*Entry, bool) {
	s, ok := d.Section(section)
	if !ok {
		return nil, false
	}
	return s.Get(key)
}

// Set updates the value at (section, key), creating the section and entry if needed.
// An existing description is kept.
func (d *Document) Set(section, key, value string) *Entry {
	s := d.AddSection(section)
	if e, ok := s.Get(key); ok {
		e.Value = value
		return e
	}
	return s.put(key, value, nil)
}

// Put writes value and description at (section, key), creating what is missing.
func (d *Document) Put(section, key, value string, description []string) *Entry {
	return d.AddSection(section).put(key, value, description)
}

// Delete removes the entry at (section, key) and reports whether it existed.
// An emptied section is kept.
func (d *Document) Delete(section, key string) bool {
	s, ok := d.Section(section)
	if !ok {
		return false
	}
	i, ok := s.index[key]
	if !ok {
		return false
	}
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
	delete(s.index, key)
	for j := i; j < len(s.entries); j++ {
		s.index[s.entries[j].Key] = j
	}
	return true
}

// Get returns the entry for key.
func (s *Section) Get(key string) (*Entry, bool) {
	i, ok := s.index[key]
	if !ok {
		return nil, false
	}
	return s.entries[i], true
}

// Entries returns the entries in file order.
func (s *Section) Entries() []*Entry {
	return s.entries
}

// Keys returns the entry keys in file order.
func (s *Section) Keys() []string {
	keys := make([]string, len(s.entries))
	for i, e := range s.entries {
		keys[i] = e.Key
	}
	return keys
}

func (s *Section) put(key, value string, description []string) *Entry {
	var desc []string
	if len(description) > 0 {
		desc = append([]string(nil), description...)
	}
	if e, ok := s.Get(key); ok {
		e.Value = value
		e.Description = desc
		return e
	}
	e := &Entry{Key: key, Value: value, Description: desc}
	s.index[key] = len(s.entries)
	s.entries = append(s.entries, e)
	return e
}

// Render serializes the document. Sections are separated by one blank line.
func (d *Document) Render() []byte {
	var buf bytes.Buffer
	d.WriteTo(&buf)
	return buf.Bytes()
}

// WriteTo writes the rendered document to w.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var n int64
	write := func(parts ...string) {
		for _, p := range parts {
			m, _ := bw.WriteString(p)
			n += int64(m)
		}
	}

	for i, s := range d.sections {
		if i > 0 {
			write("\n")
		}
		write("[", s.Name, "]\n")
		for _, e := range s.entries {
			for _, line := range e.Description {
				write(CommentPrefix, line, "\n")
			}
			write(e.Key, "=", e.Value, "\n")
		}
	}

	return n, bw.Flush()
}

// SplitDescription splits a description into the comment lines written above an entry.
func SplitDescription(description string) []string {
	if description == "" {
		return nil
	}
	description = strings.ReplaceAll(description, "\r\n", "\n")
	return strings.Split(description, "\n")
}
