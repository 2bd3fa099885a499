// FILE: lixenwraith/iniconf/decode.go
package iniconf

import (
	"fmt"
	"net"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
)

// decodeWithHooks runs a single string through mapstructure into a new value of type t.
// Weak typing lets mapstructure parse strings into bool and float kinds; the hooks
// cover named types whose text form differs from their kind.
func decodeWithHooks(text string, t reflect.Type) (reflect.Value, error) {
	out := reflect.New(t)

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out.Interface(),
		WeaklyTypedInput: true,
		DecodeHook:       decodeHook(),
	})
	if err != nil {
		return reflect.Value{}, fmt.Errorf("decoder creation failed: %w", err)
	}

	if err := decoder.Decode(text); err != nil {
		return reflect.Value{}, err
	}

	return out.Elem(), nil
}

// decodeHook returns the composite decode hook for string conversions
func decodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
	)
}

// registerBuiltins installs codecs for standard library types that are not covered
// by the TextMarshaler or scalar paths.
func registerBuiltins(r *Registry) {
	r.Register(reflect.TypeFor[time.Duration](), CodecFuncs{
		EncodeFunc: func(v reflect.Value) (string, error) {
			return time.Duration(v.Int()).String(), nil
		},
		DecodeFunc: func(text string, t reflect.Type) (reflect.Value, error) {
			text = strings.TrimSpace(text)
			if text == "" {
				return reflect.Value{}, fmt.Errorf("empty duration")
			}
			return decodeWithHooks(text, t)
		},
	})

	r.Register(reflect.TypeFor[url.URL](), CodecFuncs{
		EncodeFunc: func(v reflect.Value) (string, error) {
			u := v.Interface().(url.URL)
			return u.String(), nil
		},
		DecodeFunc: func(text string, _ reflect.Type) (reflect.Value, error) {
			u, err := parseURL(text)
			if err != nil {
				return reflect.Value{}, err
			}
			return reflect.ValueOf(*u), nil
		},
	})

	r.Register(reflect.TypeFor[*url.URL](), CodecFuncs{
		EncodeFunc: func(v reflect.Value) (string, error) {
			if v.IsNil() {
				return "", nil
			}
			return v.Interface().(*url.URL).String(), nil
		},
		DecodeFunc: func(text string, t reflect.Type) (reflect.Value, error) {
			if text == "" {
				return reflect.Zero(t), nil
			}
			u, err := parseURL(text)
			if err != nil {
				return reflect.Value{}, err
			}
			return reflect.ValueOf(u), nil
		},
	})

	r.Register(reflect.TypeFor[*net.IPNet](), CodecFuncs{
		EncodeFunc: func(v reflect.Value) (string, error) {
			if v.IsNil() {
				return "", nil
			}
			return v.Interface().(*net.IPNet).String(), nil
		},
		DecodeFunc: func(text string, t reflect.Type) (reflect.Value, error) {
			if text == "" {
				return reflect.Zero(t), nil
			}
			if len(text) > 49 { // Max IPv6 CIDR length
				return reflect.Value{}, fmt.Errorf("invalid CIDR length: %d", len(text))
			}
			_, ipnet, err := net.ParseCIDR(text)
			if err != nil {
				return reflect.Value{}, fmt.Errorf("invalid CIDR: %w", err)
			}
			return reflect.ValueOf(ipnet), nil
		},
	})
}

func parseURL(text string) (*url.URL, error) {
	if len(text) > 2048 {
		return nil, fmt.Errorf("URL too long: %d bytes", len(text))
	}
	u, err := url.Parse(text)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	return u, nil
}
