package geo

import (
	"strings"
	"testing"

	"github.com/markershare/markershare/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPosition3DFromString(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    core.Position3D
		wantErr bool
	}{
		{"integers", "100,200,300", core.Position3D{X: 100, Y: 200, Z: 300}, false},
		{"spaces and decimals", " 1.5, -2 ,3e2", core.Position3D{X: 1.5, Y: -2, Z: 300}, false},
		{"two values", "1,2", core.Position3D{}, true},
		{"four values", "1,2,3,4", core.Position3D{}, true},
		{"not a number", "1,two,3", core.Position3D{}, true},
		{"infinite", "1,Inf,3", core.Position3D{}, true},
		{"empty", "", core.Position3D{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Position3DFromString(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidCoordinates)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func markersAt(ps ...core.Position3D) []core.Marker {
	out := make([]core.Marker, len(ps))
	for i, p := range ps {
		out[i] = core.NewMarker(p)
	}
	return out
}

func TestPoint_SwapsHeightIntoZ(t *testing.T) {
	pt := Point(core.NewMarker(core.Position3D{X: 1, Y: 2, Z: 3}))
	c, ok := pt.Coordinates()
	require.True(t, ok)
	assert.Equal(t, 1.0, c.X)
	assert.Equal(t, 3.0, c.Y)
	assert.Equal(t, 2.0, c.Z)
	assert.Equal(t, geom.DimXYZ, c.Type)
}

func TestRoute(t *testing.T) {
	markers := markersAt(
		core.Position3D{X: 0, Y: 10, Z: 0},
		core.Position3D{X: 300, Y: 10, Z: 0},
		core.Position3D{X: 300, Y: 10, Z: 400},
	)

	ls, err := Route(markers)
	require.NoError(t, err)
	assert.Equal(t, 3, ls.Coordinates().Length())
	assert.InDelta(t, 700.0, ls.Length(), 1e-9)

	wkt, err := RouteWKT(markers)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(wkt, "LINESTRING Z"), wkt)
	assert.Contains(t, wkt, "300 400 10")
}

func TestRoute_TooFewMarkers(t *testing.T) {
	_, err := Route(markersAt(core.Position3D{}))
	assert.ErrorIs(t, err, ErrTooFewMarkers)

	_, err = RouteWKT(nil)
	assert.ErrorIs(t, err, ErrTooFewMarkers)
}

func TestExtent(t *testing.T) {
	_, ok := Extent(nil)
	assert.False(t, ok)
	assert.Equal(t, "", ExtentWKT(nil))

	markers := markersAt(
		core.Position3D{X: 10, Y: 99, Z: -5},
		core.Position3D{X: -20, Y: 0, Z: 40},
		core.Position3D{X: 5, Y: 7, Z: 0},
	)
	poly, ok := Extent(markers)
	require.True(t, ok)
	assert.InDelta(t, 30.0*45.0, poly.Area(), 1e-9)

	wkt := ExtentWKT(markers)
	assert.True(t, strings.HasPrefix(wkt, "POLYGON"), wkt)
	assert.Contains(t, wkt, "-20 -5")
	assert.Contains(t, wkt, "10 40")
}

func TestParsePositions(t *testing.T) {
	ps, err := ParsePositions("[[1,2,3],[4.5,5,6]]")
	require.NoError(t, err)
	assert.Equal(t, []core.Position3D{{X: 1, Y: 2, Z: 3}, {X: 4.5, Y: 5, Z: 6}}, ps)

	for _, bad := range []string{"", "[]", "[[1,2]]", "[[1,2,3,4]]", "not json"} {
		_, err := ParsePositions(bad)
		assert.Error(t, err, bad)
	}
}
