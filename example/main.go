// FILE: lixenwraith/iniconf/example/main.go
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/lixenwraith/iniconf"
)

// Key is a keyboard key, written to the file by name.
type Key int

const (
	KeyNone Key = iota
	KeyT
	KeyM
	KeyEscape
)

func (k Key) String() string {
	switch k {
	case KeyT:
		return "T"
	case KeyM:
		return "M"
	case KeyEscape:
		return "Escape"
	}
	return "None"
}

// Settings is the plugin configuration. Fields without a section in their tag
// land in the section named by IniSection.
type Settings struct {
	OpenMenu Key           `ini:"KeybindsOpenMenu,section=Keybinds" ini-doc:"The key to open the main menu."`
	OpenMap  Key           `ini:"KeybindsOpenMap,section=Keybinds" ini-doc:"The key to open the map." ini-default:"M"`
	Volume   int           `ini:",section=Audio" ini-doc:"Master volume, 0-100."`
	Muted    bool          `ini:",section=Audio"`
	Nickname string        `ini:"PlayerName" ini-doc:"Shown to other players.\nLeave empty to use the account name."`
	Autosave time.Duration `ini:"AutosaveInterval"`

	DefaultOpenMenu Key
}

func (Settings) IniSection() string { return "General" }

func (Settings) DefaultVolume() int { return 80 }

func (Settings) DefaultAutosave() time.Duration { return 5 * time.Minute }

func main() {
	iniconf.RegisterEnum(iniconf.DefaultRegistry(), KeyNone, KeyT, KeyM, KeyEscape)

	dir, err := os.MkdirTemp("", "iniconf-example-")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)

	engine, err := iniconf.NewBuilder[Settings]().
		WithStore(iniconf.NewDirStore(dir)).
		WithFile("settings.ini").
		WithDefaults(Settings{DefaultOpenMenu: KeyT}).
		Build()
	if err != nil {
		log.Fatalf("Failed to build config engine: %v", err)
	}

	fmt.Print(engine.Describe())

	// The first read creates the file with every default.
	var s Settings
	if err := engine.Read(&s, true); err != nil {
		log.Fatalf("Failed to read settings: %v", err)
	}
	printFile(dir)

	// Narrow update: only Volume changes on disk.
	if err := engine.WriteSingle("Volume", 35); err != nil {
		log.Fatalf("Failed to update volume: %v", err)
	}

	// Full rewrite from the struct.
	s.Nickname = "wanderer"
	s.Muted = true
	if err := engine.Write(&s, false); err != nil {
		log.Fatalf("Failed to write settings: %v", err)
	}
	printFile(dir)
}

func printFile(dir string) {
	data, err := os.ReadFile(filepath.Join(dir, "settings.ini"))
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("---- settings.ini ----\n%s\n", data)
}
