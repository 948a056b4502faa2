package panel

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"epdpanel/internal/palette"
)

// Settings is the free-form settings object of a panel spec entry.
type Settings map[string]any

func (s Settings) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// Without returns a copy of s minus the given keys.
func (s Settings) Without(keys ...string) Settings {
	out := make(Settings, len(s))
	for k, v := range s {
		out[k] = v
	}
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

func (s Settings) String(key, def string) string {
	v, ok := s[key]
	if !ok || v == nil {
		return def
	}
	switch t := v.(type) {
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

func (s Settings) Float(key string, def float64) float64 {
	switch t := s[key].(type) {
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case float64:
		return t
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
			return f
		}
	}
	return def
}

func (s Settings) Int(key string, def int) int {
	if !s.Has(key) {
		return def
	}
	return int(s.Float(key, float64(def)))
}

func (s Settings) Bool(key string, def bool) bool {
	switch t := s[key].(type) {
	case bool:
		return t
	case string:
		if b, err := strconv.ParseBool(t); err == nil {
			return b
		}
	}
	return def
}

// Strings accepts a single string or a list and returns the non-empty values.
func (s Settings) Strings(key string) []string {
	var out []string
	switch t := s[key].(type) {
	case string:
		if t != "" {
			out = append(out, t)
		}
	case []string:
		for _, v := range t {
			if v != "" {
				out = append(out, v)
			}
		}
	case []any:
		for _, v := range t {
			if str, ok := v.(string); ok && str != "" {
				out = append(out, str)
			}
		}
	}
	return out
}

func (s Settings) Color(key string, def color.RGBA) color.RGBA {
	str := s.String(key, "")
	if str == "" {
		return def
	}
	return palette.ParseColor(str, def)
}
