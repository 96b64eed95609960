// Package geo turns marker positions into simple-features geometry for GIS
// tools and parses the coordinate strings used by the command surface.
//
// Engine space is y-up. Geometry uses the ground plane for XY and carries
// height as Z: geometry X = engine X, geometry Y = engine Z, geometry Z =
// engine Y.
package geo

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/markershare/markershare/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
)

// ErrInvalidCoordinates is returned when the coordinates are invalid
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

// ErrTooFewMarkers is returned when a route is requested for fewer than two markers
var ErrTooFewMarkers = errors.New("a route needs at least 2 markers")

// Position3DFromString parses an "x,y,z" string into a core.Position3D.
func Position3DFromString(coords string) (core.Position3D, error) {
	parts := strings.Split(coords, ",")
	if len(parts) != 3 {
		return core.Position3D{}, fmt.Errorf("%w: want x,y,z, got %q", ErrInvalidCoordinates, coords)
	}
	var v [3]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return core.Position3D{}, fmt.Errorf("%w: %q", ErrInvalidCoordinates, coords)
		}
		v[i] = f
	}
	return core.Position3D{X: v[0], Y: v[1], Z: v[2]}, nil
}

// ToCoordinates maps an engine position onto geometry axes.
func ToCoordinates(p core.Position3D) geom.Coordinates {
	return geom.Coordinates{
		XY:   geom.XY{X: p.X, Y: p.Z},
		Z:    p.Y,
		Type: geom.DimXYZ,
	}
}

// Point returns the marker position as an XYZ point.
func Point(m core.Marker) geom.Point {
	return geom.NewPoint(ToCoordinates(m.Position))
}

// Route joins the markers, in set order, into one XYZ line string.
func Route(markers []core.Marker) (geom.LineString, error) {
	if len(markers) < 2 {
		return geom.LineString{}, fmt.Errorf("%w, got %d", ErrTooFewMarkers, len(markers))
	}
	flat := make([]float64, 0, len(markers)*3)
	for _, m := range markers {
		c := ToCoordinates(m.Position)
		flat = append(flat, c.X, c.Y, c.Z)
	}
	return geom.NewLineString(geom.NewSequence(flat, geom.DimXYZ)), nil
}

// RouteWKT returns Route as well-known text.
func RouteWKT(markers []core.Marker) (string, error) {
	ls, err := Route(markers)
	if err != nil {
		return "", err
	}
	return ls.AsText(), nil
}

// Extent returns the ground-plane bounding rectangle of the markers as a
// polygon. It reports false for an empty slice.
func Extent(markers []core.Marker) (geom.Polygon, bool) {
	if len(markers) == 0 {
		return geom.Polygon{}, false
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, m := range markers {
		c := ToCoordinates(m.Position)
		minX, maxX = math.Min(minX, c.X), math.Max(maxX, c.X)
		minY, maxY = math.Min(minY, c.Y), math.Max(maxY, c.Y)
	}
	ring := geom.NewLineString(geom.NewSequence([]float64{
		minX, minY,
		maxX, minY,
		maxX, maxY,
		minX, maxY,
		minX, minY,
	}, geom.DimXY))
	return geom.NewPolygon([]geom.LineString{ring}), true
}

// ExtentWKT returns Extent as well-known text, or "" for no markers.
func ExtentWKT(markers []core.Marker) string {
	poly, ok := Extent(markers)
	if !ok {
		return ""
	}
	return poly.AsText()
}
