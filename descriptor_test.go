// FILE: lixenwraith/iniconf/descriptor_test.go
package iniconf

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type audioSettings struct {
	Volume   int     `ini:",section=Audio" ini-doc:"Master volume."`
	Muted    bool    `ini:",section=Audio"`
	Device   string  `ini:"OutputDevice,section=Audio" ini-default:"speakers"`
	Balance  float64 `ini:",section=Audio"`
	Skipped  string  `ini:"-"`
	Untagged string

	DefaultBalance float64
	internal       int
}

func (audioSettings) DefaultVolume() int { return 80 }

type generalSettings struct {
	Name  string `ini:"PlayerName"`
	Level int    `ini:""`
	Port  int    `ini:",section=Network"`
}

func (generalSettings) IniSection() string { return "General" }

type noSection struct {
	Name string `ini:"Name"`
}

type unsupportedField struct {
	Tags []string `ini:",section=S"`
}

type collidingFields struct {
	A int `ini:"Same,section=S"`
	B int `ini:"Same,section=S"`
}

type badDefaultTag struct {
	Count int `ini:",section=S" ini-default:"many"`
}

type badTagOption struct {
	Count int `ini:",sectoin=S"`
}

type badKeyName struct {
	Count int `ini:"a=b,section=S"`
}

type unsignedSettings struct {
	Size uint64 `ini:",section=S"`
}

type paletteSettings struct {
	Color testColor `ini:",section=S"`
	Label string    `ini:",section=S"`
}

func buildDescriptors[T any](t *testing.T, b *Builder[T]) []Descriptor {
	t.Helper()
	e, err := b.WithFile("test.ini").WithStore(NewMemStore()).Build()
	require.NoError(t, err)
	return e.Descriptors()
}

func byMember(ds []Descriptor) map[string]Descriptor {
	out := make(map[string]Descriptor, len(ds))
	for _, d := range ds {
		out[d.Member] = d
	}
	return out
}

// TestResolveDescriptors tests tag-driven resolution and default precedence
func TestResolveDescriptors(t *testing.T) {
	t.Run("DeclarationOrderAndSkips", func(t *testing.T) {
		ds := buildDescriptors(t, NewBuilder[audioSettings]())
		var names []string
		for _, d := range ds {
			names = append(names, d.String())
		}
		assert.Equal(t, []string{"Audio.Volume", "Audio.Muted", "Audio.OutputDevice", "Audio.Balance"}, names)
	})

	t.Run("AttributesAndOrigins", func(t *testing.T) {
		ds := byMember(buildDescriptors(t, NewBuilder[audioSettings]().
			WithDefaults(audioSettings{DefaultBalance: 0.5})))

		vol := ds["Volume"]
		assert.Equal(t, "Master volume.", vol.Description)
		assert.Equal(t, "tag", vol.Origin.Description)
		assert.Equal(t, "member", vol.Origin.Name)
		assert.Equal(t, "tag", vol.Origin.Section)
		assert.Equal(t, 80, vol.DefaultValue())
		assert.Equal(t, "sibling method DefaultVolume", vol.Origin.Default)

		dev := ds["Device"]
		assert.Equal(t, "OutputDevice", dev.Name)
		assert.Equal(t, "speakers", dev.DefaultValue())
		assert.Equal(t, "tag", dev.Origin.Default)

		bal := ds["Balance"]
		assert.Equal(t, 0.5, bal.DefaultValue())
		assert.Equal(t, "sibling field DefaultBalance", bal.Origin.Default)

		muted := ds["Muted"]
		assert.Equal(t, false, muted.DefaultValue())
		assert.Equal(t, "prototype", muted.Origin.Default)
		assert.Equal(t, reflect.TypeFor[bool](), muted.FieldType)
	})

	t.Run("PrototypeValueWithoutSibling", func(t *testing.T) {
		ds := byMember(buildDescriptors(t, NewBuilder[audioSettings]().
			WithDefaults(audioSettings{Muted: true})))
		assert.Equal(t, true, ds["Muted"].DefaultValue())
	})

	t.Run("ZeroWithoutAnySource", func(t *testing.T) {
		ds := byMember(buildDescriptors(t, NewBuilder[generalSettings]()))
		assert.Equal(t, "", ds["Name"].DefaultValue())
		assert.Equal(t, 0, ds["Level"].DefaultValue())
	})

	t.Run("BuilderOverridesTags", func(t *testing.T) {
		ds := byMember(buildDescriptors(t, NewBuilder[audioSettings]().
			WithField("Volume", FieldOptions{
				Section:     "Sound",
				Name:        "Level",
				Description: "Loudness.",
				Default:     int64(25),
			}).
			WithField("Device", FieldOptions{
				DefaultFunc: func() any { return "headphones" },
			})))

		vol := ds["Volume"]
		assert.Equal(t, "Sound.Level", vol.String())
		assert.Equal(t, "Loudness.", vol.Description)
		assert.Equal(t, 25, vol.DefaultValue())
		assert.Equal(t, Origin{Section: "builder", Name: "builder", Default: "builder", Description: "builder"}, vol.Origin)

		dev := ds["Device"]
		assert.Equal(t, "OutputDevice", dev.Name)
		assert.Equal(t, "headphones", dev.DefaultValue())
	})

	t.Run("WithFieldIncludesUntagged", func(t *testing.T) {
		ds := byMember(buildDescriptors(t, NewBuilder[audioSettings]().
			WithField("Untagged", FieldOptions{Section: "Extra"})))
		d, ok := ds["Untagged"]
		require.True(t, ok)
		assert.Equal(t, "Extra.Untagged", d.String())
	})
}

// TestResolveSection tests section precedence
func TestResolveSection(t *testing.T) {
	t.Run("TypeMethod", func(t *testing.T) {
		ds := byMember(buildDescriptors(t, NewBuilder[generalSettings]()))
		assert.Equal(t, "General.PlayerName", ds["Name"].String())
		assert.Equal(t, "type", ds["Name"].Origin.Section)
		assert.Equal(t, "General.Level", ds["Level"].String())
		assert.Equal(t, "Network.Port", ds["Port"].String())
	})

	t.Run("BuilderBeatsTypeMethod", func(t *testing.T) {
		ds := byMember(buildDescriptors(t, NewBuilder[generalSettings]().WithSection("Player")))
		assert.Equal(t, "Player.PlayerName", ds["Name"].String())
		assert.Equal(t, "builder", ds["Name"].Origin.Section)
		assert.Equal(t, "Network.Port", ds["Port"].String(), "tag section wins over class section")
	})

	t.Run("FieldOptionBeatsTag", func(t *testing.T) {
		ds := byMember(buildDescriptors(t, NewBuilder[generalSettings]().
			WithField("Port", FieldOptions{Section: "Server"})))
		assert.Equal(t, "Server.Port", ds["Port"].String())
	})
}

// TestBuildFailures tests that metadata problems fail fast
func TestBuildFailures(t *testing.T) {
	tests := []struct {
		name  string
		build func() error
		want  error
	}{
		{"MissingSection", func() error {
			_, err := NewBuilder[noSection]().WithFile("x.ini").Build()
			return err
		}, ErrMissingSection},
		{"UnsupportedType", func() error {
			_, err := NewBuilder[unsupportedField]().WithFile("x.ini").Build()
			return err
		}, ErrUnsupportedType},
		{"DuplicateCoordinate", func() error {
			_, err := NewBuilder[collidingFields]().WithFile("x.ini").Build()
			return err
		}, ErrInvalidName},
		{"UnknownMember", func() error {
			_, err := NewBuilder[audioSettings]().WithFile("x.ini").
				WithField("Nope", FieldOptions{Section: "S"}).Build()
			return err
		}, ErrUnknownMember},
		{"BadDefaultTag", func() error {
			_, err := NewBuilder[badDefaultTag]().WithFile("x.ini").Build()
			return err
		}, ErrConversion},
		{"IncompatibleBuilderDefault", func() error {
			_, err := NewBuilder[audioSettings]().WithFile("x.ini").
				WithField("Volume", FieldOptions{Default: "loud"}).Build()
			return err
		}, ErrConversion},
		{"InvalidKey", func() error {
			_, err := NewBuilder[badKeyName]().WithFile("x.ini").Build()
			return err
		}, ErrInvalidName},
		{"InvalidSection", func() error {
			_, err := NewBuilder[noSection]().WithFile("x.ini").WithSection("[x]").Build()
			return err
		}, ErrInvalidName},
		{"NonStruct", func() error {
			_, err := NewBuilder[int]().WithFile("x.ini").Build()
			return err
		}, ErrInvalidTarget},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.build()
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}

	t.Run("NegativeDefaultForUnsigned", func(t *testing.T) {
		_, err := NewBuilder[unsignedSettings]().WithFile("x.ini").
			WithField("Size", FieldOptions{Default: -1}).Build()
		assert.ErrorIs(t, err, ErrConversion)
	})

	t.Run("DefaultWithoutTextForm", func(t *testing.T) {
		r := NewRegistry()
		RegisterEnum(r, colorRed, colorGreen, colorBlue)
		_, err := NewBuilder[paletteSettings]().WithFile("x.ini").WithRegistry(r).
			WithField("Color", FieldOptions{Default: testColor(9)}).Build()
		assert.ErrorIs(t, err, ErrConversion)

		_, err = NewBuilder[paletteSettings]().WithFile("x.ini").WithRegistry(r).
			WithField("Label", FieldOptions{Default: "two\nlines"}).Build()
		assert.ErrorIs(t, err, ErrConversion)
	})

	t.Run("UnexportedMemberOption", func(t *testing.T) {
		_, err := NewBuilder[audioSettings]().WithFile("x.ini").
			WithField("internal", FieldOptions{Section: "S"}).Build()
		assert.ErrorIs(t, err, ErrUnknownMember)
	})

	t.Run("UnknownTagOption", func(t *testing.T) {
		_, err := NewBuilder[badTagOption]().WithFile("x.ini").Build()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sectoin")
	})

	t.Run("EmptyPath", func(t *testing.T) {
		_, err := NewBuilder[audioSettings]().Build()
		assert.Error(t, err)
	})

	t.Run("NilStore", func(t *testing.T) {
		_, err := NewBuilder[audioSettings]().WithFile("x.ini").WithStore(nil).Build()
		assert.Error(t, err)
	})

	t.Run("AllProblemsReported", func(t *testing.T) {
		_, err := NewBuilder[audioSettings]().WithFile("x.ini").
			WithField("Volume", FieldOptions{Default: "loud"}).
			WithField("Ghost", FieldOptions{}).
			Build()
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrConversion)
		assert.ErrorIs(t, err, ErrUnknownMember)
	})

	t.Run("MustBuildPanics", func(t *testing.T) {
		assert.Panics(t, func() {
			NewBuilder[noSection]().WithFile("x.ini").MustBuild()
		})
	})
}

func TestCoerceValue(t *testing.T) {
	type label string

	v, err := coerceValue(nil, reflect.TypeFor[int]())
	require.NoError(t, err)
	assert.Equal(t, 0, v.Interface())

	v, err = coerceValue(int64(12), reflect.TypeFor[uint8]())
	require.NoError(t, err)
	assert.Equal(t, uint8(12), v.Interface())

	v, err = coerceValue("x", reflect.TypeFor[label]())
	require.NoError(t, err)
	assert.Equal(t, label("x"), v.Interface())

	_, err = coerceValue(300, reflect.TypeFor[int8]())
	assert.ErrorIs(t, err, ErrConversion)

	_, err = coerceValue(1.5, reflect.TypeFor[int]())
	assert.ErrorIs(t, err, ErrConversion)

	_, err = coerceValue("5", reflect.TypeFor[int]())
	assert.ErrorIs(t, err, ErrConversion)

	_, err = coerceValue(1, reflect.TypeFor[bool]())
	assert.ErrorIs(t, err, ErrConversion)

	t.Run("SignChanges", func(t *testing.T) {
		_, err := coerceValue(-1, reflect.TypeFor[uint64]())
		assert.ErrorIs(t, err, ErrConversion)

		_, err = coerceValue(int64(-1), reflect.TypeFor[uint]())
		assert.ErrorIs(t, err, ErrConversion)

		_, err = coerceValue(uint64(math.MaxUint64), reflect.TypeFor[int64]())
		assert.ErrorIs(t, err, ErrConversion)

		_, err = coerceValue(uint(1<<63), reflect.TypeFor[int]())
		assert.ErrorIs(t, err, ErrConversion)

		_, err = coerceValue(-2.0, reflect.TypeFor[uint8]())
		assert.ErrorIs(t, err, ErrConversion)
	})

	t.Run("RangeLimits", func(t *testing.T) {
		v, err := coerceValue(uint64(math.MaxInt64), reflect.TypeFor[int64]())
		require.NoError(t, err)
		assert.Equal(t, int64(math.MaxInt64), v.Interface())

		v, err = coerceValue(int64(math.MaxInt64), reflect.TypeFor[uint64]())
		require.NoError(t, err)
		assert.Equal(t, uint64(math.MaxInt64), v.Interface())

		v, err = coerceValue(255.0, reflect.TypeFor[uint8]())
		require.NoError(t, err)
		assert.Equal(t, uint8(255), v.Interface())

		_, err = coerceValue(256.0, reflect.TypeFor[uint8]())
		assert.ErrorIs(t, err, ErrConversion)

		_, err = coerceValue(math.Inf(1), reflect.TypeFor[int64]())
		assert.ErrorIs(t, err, ErrConversion)

		_, err = coerceValue(1e300, reflect.TypeFor[float32]())
		assert.ErrorIs(t, err, ErrConversion)
	})
}
