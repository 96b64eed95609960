package catalog

import (
	"fmt"
	"strconv"
	"strings"
)

// Built-in textures shared by both dialects
const (
	TextureCircle   = "M0RMarkers/textures/circle.dds"
	TextureHexagon  = "M0RMarkers/textures/hexagon.dds"
	TextureSquare   = "M0RMarkers/textures/square.dds"
	TextureDiamond  = "M0RMarkers/textures/diamond.dds"
	TextureOctagon  = "M0RMarkers/textures/octagon.dds"
	TextureChevron  = "M0RMarkers/textures/chevron.dds"
	TextureBlank    = "M0RMarkers/textures/blank.dds"
	TextureSharkpog = "M0RMarkers/textures/sharkpog.dds"
)

// TextureRefPrefix marks an M0R texture value as a lookup-table reference
const TextureRefPrefix = "^"

// builtinTextures is the fixed M0R lookup table; "^1" refers to index 0.
var builtinTextures = [...]string{
	TextureCircle,
	TextureHexagon,
	TextureSquare,
	TextureDiamond,
	TextureOctagon,
	TextureChevron,
	TextureBlank,
	TextureSharkpog,
}

// BuiltinTextureCount is the number of entries addressable with "^N"
const BuiltinTextureCount = len(builtinTextures)

// BuiltinTexture returns the texture path for a 1-based lookup key.
func BuiltinTexture(n int) (string, bool) {
	if n < 1 || n > len(builtinTextures) {
		return "", false
	}
	return builtinTextures[n-1], true
}

// BuiltinTextureRef returns the "^N" reference for a texture path, if the
// path is in the lookup table.
func BuiltinTextureRef(path string) (string, bool) {
	for i, t := range builtinTextures {
		if t == path {
			return TextureRefPrefix + strconv.Itoa(i+1), true
		}
	}
	return "", false
}

// ResolveTexture expands an M0R texture value: either a "^N" reference or a
// literal path which is returned unchanged.
func ResolveTexture(value string) (string, error) {
	if !strings.HasPrefix(value, TextureRefPrefix) {
		return value, nil
	}
	n, err := strconv.Atoi(strings.TrimPrefix(value, TextureRefPrefix))
	if err != nil {
		return "", fmt.Errorf("invalid texture reference %q: %w", value, err)
	}
	path, ok := BuiltinTexture(n)
	if !ok {
		return "", fmt.Errorf("texture reference %q out of range 1-%d", value, BuiltinTextureCount)
	}
	return path, nil
}
