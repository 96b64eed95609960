package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markershare/markershare/pkg/core"
)

func TestIcons_TableShape(t *testing.T) {
	all := Icons()
	require.Len(t, all, 70)
	for i, tmpl := range all {
		assert.Equal(t, i+1, tmpl.Key, "icons must be ordered by key")
		assert.NotEmpty(t, tmpl.Name)
		assert.NotEmpty(t, tmpl.Texture)
	}

	// mutating the copy must not leak into the table
	all[0].Text = "changed"
	first, ok := Lookup(1)
	require.True(t, ok)
	assert.Equal(t, "1", first.Text)
}

func TestLookup(t *testing.T) {
	tests := []struct {
		key     int
		texture string
		text    string
		size    float64
		color   *core.Color
	}{
		{1, TextureCircle, "1", 1.5, &core.White},
		{12, TextureCircle, "12", 1.5, &core.White},
		{13, TextureCircle, "A", 1.5, &core.White},
		{38, TextureCircle, "Z", 1.5, &core.White},
		{39, TextureSquare, "", 1, &core.Color{R: 1, A: 1}},
		{52, TextureDiamond, "", 1, &core.Color{G: 1, A: 1}},
		{68, TextureHexagon, "", 1, &core.Color{A: 1}},
		{69, TextureChevron, "", 1, &core.Color{R: 1, G: 1, A: 1}},
		{70, TextureSharkpog, "", 1.5, nil},
	}

	for _, tt := range tests {
		tmpl, ok := Lookup(tt.key)
		require.True(t, ok, "key %d", tt.key)
		assert.Equal(t, tt.texture, tmpl.Texture, "key %d", tt.key)
		assert.Equal(t, tt.text, tmpl.Text, "key %d", tt.key)
		assert.Equal(t, tt.size, tmpl.Size, "key %d", tt.key)
		assert.Equal(t, tt.color, tmpl.Color, "key %d", tt.key)
	}

	_, ok := Lookup(0)
	assert.False(t, ok)
	_, ok = Lookup(71)
	assert.False(t, ok)
}

func TestTemplateMarker(t *testing.T) {
	tmpl, _ := Lookup(70)
	m := tmpl.Marker(core.Position3D{X: 1, Y: 2, Z: 3})
	assert.Equal(t, TextureSharkpog, m.Shape)
	assert.Equal(t, core.White, m.Color, "undefined colour keeps the default")
	assert.Equal(t, 1.5, m.Size)
	assert.Equal(t, 70, m.SourceIconKey)
	assert.Nil(t, m.Orientation)
}

func TestMatch(t *testing.T) {
	tests := []struct {
		name    string
		marker  func() core.Marker
		wantKey int
		wantOK  bool
	}{
		{
			name: "exact number",
			marker: func() core.Marker {
				tmpl, _ := Lookup(7)
				return tmpl.Marker(core.Position3D{})
			},
			wantKey: 7,
			wantOK:  true,
		},
		{
			name: "size and colour within tolerance",
			marker: func() core.Marker {
				m := core.NewMarker(core.Position3D{})
				m.Shape = TextureHexagon
				m.Size = 0.96
				m.Color = core.Color{R: 0.04, G: 0.02, B: 0.97, A: 1}
				return m
			},
			wantKey: 64,
			wantOK:  true,
		},
		{
			name: "size outside tolerance",
			marker: func() core.Marker {
				m := core.NewMarker(core.Position3D{})
				m.Shape = TextureHexagon
				m.Size = 1.2
				m.Color = core.Color{B: 1, A: 1}
				return m
			},
		},
		{
			name: "translucent colour does not match opaque template",
			marker: func() core.Marker {
				m := core.NewMarker(core.Position3D{})
				m.Shape = TextureSquare
				m.Color = core.Color{R: 1, A: 0.5}
				return m
			},
		},
		{
			name: "text must be identical",
			marker: func() core.Marker {
				m := core.NewMarker(core.Position3D{})
				m.Shape = TextureCircle
				m.Size = 1.5
				m.Text = "a"
				return m
			},
		},
		{
			name: "sharkpog matches any colour",
			marker: func() core.Marker {
				m := core.NewMarker(core.Position3D{})
				m.Shape = TextureSharkpog
				m.Size = 1.5
				m.Color = core.Color{R: 0.3, G: 0.1, B: 0.9, A: 0.2}
				return m
			},
			wantKey: 70,
			wantOK:  true,
		},
		{
			name: "unknown texture",
			marker: func() core.Marker {
				m := core.NewMarker(core.Position3D{})
				m.Shape = "custom/skull.dds"
				return m
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl, ok := Match(tt.marker())
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantKey, tmpl.Key)
			}
		})
	}
}

func TestFallbackTemplate(t *testing.T) {
	fb := FallbackTemplate()
	assert.Equal(t, 0, fb.Key)
	m := fb.Marker(core.Position3D{})
	assert.Equal(t, TextureCircle, m.Shape)
	assert.Equal(t, core.DefaultSize, m.Size)
	assert.Equal(t, 0, m.SourceIconKey)
}

func TestBuiltinTextures(t *testing.T) {
	path, ok := BuiltinTexture(1)
	require.True(t, ok)
	assert.Equal(t, TextureCircle, path)

	path, ok = BuiltinTexture(BuiltinTextureCount)
	require.True(t, ok)
	assert.Equal(t, TextureSharkpog, path)

	_, ok = BuiltinTexture(0)
	assert.False(t, ok)
	_, ok = BuiltinTexture(BuiltinTextureCount + 1)
	assert.False(t, ok)

	ref, ok := BuiltinTextureRef(TextureDiamond)
	require.True(t, ok)
	assert.Equal(t, "^4", ref)

	_, ok = BuiltinTextureRef("custom.dds")
	assert.False(t, ok)
}

func TestResolveTexture(t *testing.T) {
	got, err := ResolveTexture("^6")
	require.NoError(t, err)
	assert.Equal(t, TextureChevron, got)

	got, err = ResolveTexture("art/custom.dds")
	require.NoError(t, err)
	assert.Equal(t, "art/custom.dds", got)

	_, err = ResolveTexture("^x")
	assert.Error(t, err)
	_, err = ResolveTexture("^9")
	assert.Error(t, err)
}
