// Package catalog holds the fixed, read-only style tables shared by the
// marker codecs: the Elms icon templates and the M0R built-in textures.
//
// Both tables are built once at package initialisation and never mutated,
// so every function here is safe for concurrent use.
package catalog

import (
	"math"
	"strconv"

	"github.com/markershare/markershare/pkg/core"
)

// Reverse lookup tolerances
const (
	SizeTolerance  = 0.05
	ColorTolerance = 0.05
)

// Version identifies the revision of the Elms icon table below.
const Version = 1

// Template is the style an Elms icon key expands to. Undefined attributes
// are the zero value: an empty Texture or Text, a nil Color, a zero Size.
type Template struct {
	Key     int
	Name    string
	Texture string
	Color   *core.Color
	Size    float64
	Text    string
}

// SizeOrDefault returns the template size, or the marker default if undefined.
func (t Template) SizeOrDefault() float64 {
	if t.Size > 0 {
		return t.Size
	}
	return core.DefaultSize
}

// Marker expands the template into a canonical marker at pos.
func (t Template) Marker(pos core.Position3D) core.Marker {
	m := core.NewMarker(pos)
	m.Shape = t.Texture
	m.Text = t.Text
	m.Size = t.SizeOrDefault()
	if t.Color != nil {
		m.Color = *t.Color
	}
	m.SourceIconKey = t.Key
	return m
}

// Matches reports whether m is visually equivalent to the template within
// the lookup tolerances.
func (t Template) Matches(m core.Marker) bool {
	if t.Texture != "" && t.Texture != m.Shape {
		return false
	}
	if t.Text != m.Text {
		return false
	}
	if t.Size > 0 && math.Abs(t.Size-m.Size) > SizeTolerance {
		return false
	}
	if t.Color != nil && !colorWithin(*t.Color, m.Color, ColorTolerance) {
		return false
	}
	return true
}

func colorWithin(a, b core.Color, tol float64) bool {
	return math.Abs(a.R-b.R) <= tol &&
		math.Abs(a.G-b.G) <= tol &&
		math.Abs(a.B-b.B) <= tol &&
		math.Abs(a.A-b.A) <= tol
}

// icons is ordered by key. The order is part of the lookup contract: when
// several templates match a marker the first one wins.
var (
	icons     = buildIcons()
	iconByKey = indexIcons(icons)
)

type paletteEntry struct {
	name  string
	color core.Color
}

var palette = []paletteEntry{
	{"red", core.Color{R: 1, G: 0, B: 0, A: 1}},
	{"orange", core.Color{R: 1, G: 0.5, B: 0, A: 1}},
	{"yellow", core.Color{R: 1, G: 1, B: 0, A: 1}},
	{"green", core.Color{R: 0, G: 1, B: 0, A: 1}},
	{"cyan", core.Color{R: 0, G: 1, B: 1, A: 1}},
	{"blue", core.Color{R: 0, G: 0, B: 1, A: 1}},
	{"purple", core.Color{R: 0.5, G: 0, B: 1, A: 1}},
	{"pink", core.Color{R: 1, G: 0, B: 1, A: 1}},
	{"white", core.Color{R: 1, G: 1, B: 1, A: 1}},
	{"black", core.Color{R: 0, G: 0, B: 0, A: 1}},
}

func colorPtr(c core.Color) *core.Color {
	return &c
}

func buildIcons() []Template {
	out := make([]Template, 0, 70)
	key := 1

	// 1-12: numbered circles
	for n := 1; n <= 12; n++ {
		out = append(out, Template{
			Key:     key,
			Name:    "number_" + strconv.Itoa(n),
			Texture: TextureCircle,
			Color:   colorPtr(core.White),
			Size:    1.5,
			Text:    strconv.Itoa(n),
		})
		key++
	}

	// 13-38: lettered circles
	for c := 'A'; c <= 'Z'; c++ {
		out = append(out, Template{
			Key:     key,
			Name:    "letter_" + string(c+('a'-'A')),
			Texture: TextureCircle,
			Color:   colorPtr(core.White),
			Size:    1.5,
			Text:    string(c),
		})
		key++
	}

	// 39-68: coloured squares, diamonds and hexagons
	for _, shape := range []struct{ name, texture string }{
		{"square", TextureSquare},
		{"diamond", TextureDiamond},
		{"hexagon", TextureHexagon},
	} {
		for _, p := range palette {
			out = append(out, Template{
				Key:     key,
				Name:    shape.name + "_" + p.name,
				Texture: shape.texture,
				Color:   colorPtr(p.color),
				Size:    1,
			})
			key++
		}
	}

	// 69: chevron
	out = append(out, Template{
		Key:     key,
		Name:    "chevron",
		Texture: TextureChevron,
		Color:   colorPtr(core.Color{R: 1, G: 1, B: 0, A: 1}),
		Size:    1,
	})
	key++

	// 70: sharkpog, any colour
	out = append(out, Template{
		Key:     key,
		Name:    "sharkpog",
		Texture: TextureSharkpog,
		Size:    1.5,
	})

	return out
}

func indexIcons(ts []Template) map[int]Template {
	m := make(map[int]Template, len(ts))
	for _, t := range ts {
		m[t.Key] = t
	}
	return m
}

// Lookup returns the template for an icon key.
func Lookup(key int) (Template, bool) {
	t, ok := iconByKey[key]
	return t, ok
}

// Match returns the first template, in key order, that m matches.
func Match(m core.Marker) (Template, bool) {
	for _, t := range icons {
		if t.Matches(m) {
			return t, true
		}
	}
	return Template{}, false
}

// Icons returns a copy of the full table in lookup order.
func Icons() []Template {
	out := make([]Template, len(icons))
	copy(out, icons)
	return out
}

// FallbackTemplate is used for icon keys the table does not know: a plain
// white circle of default size.
func FallbackTemplate() Template {
	return Template{
		Name:    "fallback",
		Texture: TextureCircle,
		Color:   colorPtr(core.White),
		Size:    core.DefaultSize,
	}
}
