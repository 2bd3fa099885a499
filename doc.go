// File: lixenwraith/iniconf/doc.go

// Package iniconf keeps a Go struct in sync with a sectioned key=value text file.
// Fields are declared once with struct tags; the engine populates the struct from
// the file, creates or extends the file when settings are missing, and persists
// updates without the host writing any parsing or formatting code.
//
// File format:
//
//	[Keybinds]
//	//The key to open the main menu.
//	KeybindsOpenMenu=T
//
// Sections are bracketed headers, "//" lines directly above an entry are its
// description, and entries are key=value. Names and keys are case-sensitive.
//
// Quick Start:
//
//	type Settings struct {
//	    OpenMenu Key    `ini:"KeybindsOpenMenu,section=Keybinds" ini-doc:"The key to open the main menu."`
//	    Volume   int    `ini:",section=Audio"`
//	    Name     string `ini:"PlayerName"`
//	}
//
//	func (Settings) IniSection() string { return "General" }
//	func (Settings) DefaultVolume() int { return 80 }
//
//	iniconf.RegisterEnum(iniconf.DefaultRegistry(), KeyT, KeyM)
//
//	var s Settings
//	engine, err := iniconf.Quick("settings.ini", &s)
//
// Metadata precedence per field (highest first):
//   - section: Builder.WithField, tag section=, Builder.WithSection, IniSection()
//   - name: Builder.WithField, tag name, the Go field name
//   - default: Builder.WithField, ini-default tag, sibling field or method named
//     Default<Field>, the prototype given to Builder.WithDefaults (zero value without one)
//   - description: Builder.WithField, ini-doc tag
//
// Operations:
//   - Read fills the struct; missing settings get defaults and are appended to the file
//     in a single rewrite; a value that does not convert is logged and replaced by its
//     default in memory only.
//   - Write replaces the file with a rendering of the struct.
//   - WriteSingle updates one entry in place and leaves everything else untouched.
//
// Type conversion is dispatched on each field's static type through a Registry:
// registered codecs, encoding.TextMarshaler types, pointers, and the scalar kinds.
// Enumerations registered with RegisterEnum are written by name.
//
// Thread Safety:
// Operations on the same store path are serialized in-process. DirStore replaces the
// file atomically, and WithFileLock adds an advisory lock across processes.
package iniconf
