package codec

import (
	"bytes"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markershare/markershare/internal/catalog"
	"github.com/markershare/markershare/pkg/core"
)

var fixedNow = time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)

func newTestCodec() *Codec {
	return New(nil, WithClock(func() time.Time { return fixedNow }))
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  core.Dialect
	}{
		{"elms single segment", "/1000//100,200,300,1/", core.DialectElms},
		{"elms with surrounding text", "markers: /1000//1,2,3,4/ thanks", core.DialectElms},
		{"mor envelope", "<1000]1609459200]0:0:0]]]]]]0:0:0>", core.DialectMor},
		{"mor with whitespace", "  <1]2]0:0:0]]]]]]>\n", core.DialectMor},
		{"elms inside brackets", "</1000//1,2,3,4/>", core.DialectElms},
		{"empty", "", core.DialectUnknown},
		{"plain text", "hello world", core.DialectUnknown},
		{"non numeric elms", "/1000//a,2,3,4/", core.DialectUnknown},
		{"missing double slash", "/1000/1,2,3,4/", core.DialectUnknown},
		{"negative elms coordinate", "/1000//-1,2,3,4/", core.DialectUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Detect(tt.input))
		})
	}
}

func TestIsElmsMarkersFormat_IgnoresMorBrackets(t *testing.T) {
	assert.False(t, IsElmsMarkersFormat("<1000]1609459200]0:0:0]]]]ffffff:1]^1:1]0:0:0:Hello>"))
	assert.True(t, IsElmsMarkersFormat("/1//1,1,1,1/"))
}

func TestDecode_DispatchesByDialect(t *testing.T) {
	c := newTestCodec()

	set, err := c.Decode("/1000//100,200,300,1/")
	require.NoError(t, err)
	assert.Equal(t, core.DialectElms, set.Dialect)

	set, err = c.Decode("<1000]1609459200]0:0:0]]]]]]0:0:0>")
	require.NoError(t, err)
	assert.Equal(t, core.DialectMor, set.Dialect)

	_, err = c.Decode("not a marker string")
	assert.ErrorIs(t, err, ErrUnknownDialect)

	_, err = c.Decode("   ")
	assert.ErrorIs(t, err, ErrEmptyInput)
	assert.ErrorIs(t, err, ErrFormat)
}

func TestEncode_UnknownDialect(t *testing.T) {
	c := newTestCodec()
	set := core.NewMarkerSet(1, core.DialectMor)
	set.Add(core.NewMarker(core.Position3D{}))

	_, err := c.Encode(set, core.DialectUnknown)
	assert.ErrorIs(t, err, ErrUnknownDialect)
}

func TestDecode_RoundTripScenario(t *testing.T) {
	c := newTestCodec()
	input := "<1000]1609459200]0:0:0]]]]ffffff:1]^1:1]0:0:0:Hello>"

	set, err := c.DecodeMor(input)
	require.NoError(t, err)
	require.Equal(t, 1, set.Len())

	m := set.Markers[0]
	assert.Equal(t, core.Position3D{}, m.Position)
	assert.Equal(t, 1.0, m.Size)
	assert.Equal(t, core.White, m.Color)
	assert.Equal(t, catalog.TextureCircle, m.Shape)
	assert.Equal(t, "Hello", m.Text)
	assert.Nil(t, m.Orientation)

	encoded, err := c.EncodeMor(set)
	require.NoError(t, err)
	assert.Equal(t, "<1000]1609459200]0:0:0]]]]]^1:1]0:0:0:Hello>", encoded)

	again, err := c.DecodeMor(encoded)
	require.NoError(t, err)
	require.Equal(t, 1, again.Len())
	assert.Equal(t, m.Position, again.Markers[0].Position)
	assert.Equal(t, m.Shape, again.Markers[0].Shape)
	assert.Equal(t, m.Text, again.Markers[0].Text)
	assert.Equal(t, m.Color, again.Markers[0].Color)
}

func TestDiagnostics_AreLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	c := New(logger)

	_, err := c.DecodeElms("/1//1,2,3,999/")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Unknown Elms icon key")
}

func TestMorElmsCrossDialect(t *testing.T) {
	c := newTestCodec()

	elms, err := c.DecodeElms("/1000//100,200,300,1//1000//400,500,600,45/")
	require.NoError(t, err)
	require.Equal(t, 2, elms.Len())

	mor, err := c.EncodeMor(elms)
	require.NoError(t, err)

	back, err := c.DecodeMor(mor)
	require.NoError(t, err)
	require.Equal(t, 2, back.Len())
	assert.Equal(t, 0, back.Markers[0].SourceIconKey, "M0R carries no Elms provenance")

	out, err := c.EncodeElms(back)
	require.NoError(t, err)
	assert.Equal(t, "/1000//100,200,300,1//1000//400,500,600,45/", out)
}

func TestRadiansDegrees(t *testing.T) {
	assert.InDelta(t, math.Pi, radians(180), 1e-12)
	assert.InDelta(t, 90.0, degrees(math.Pi/2), 1e-12)
}
