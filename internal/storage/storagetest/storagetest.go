// Package storagetest holds behaviour tests every storage.Backend must pass.
package storagetest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markershare/markershare/internal/storage"
	"github.com/markershare/markershare/pkg/core"
)

func sampleSet(zone int, n int) *core.MarkerSet {
	set := core.NewMarkerSet(zone, core.DialectMor)
	for i := 0; i < n; i++ {
		m := core.NewMarker(core.Position3D{X: float64(i), Y: 100, Z: float64(i * 2)})
		m.Text = "m"
		if i%2 == 1 {
			m.Orientation = &core.Orientation{Yaw: 1}
		}
		set.Add(m)
	}
	return set
}

// Run exercises newBackend against the Backend contract. newBackend must
// return a fresh, initialised, empty backend.
func Run(t *testing.T, newBackend func(t *testing.T) storage.Backend) {
	t.Run("save and get", func(t *testing.T) {
		b := newBackend(t)
		set := sampleSet(1301, 3)
		require.NoError(t, b.SaveSet("raid", set, "<encoded>"))

		got, err := b.GetSet("raid")
		require.NoError(t, err)
		assert.Equal(t, 1301, got.ZoneID)
		assert.Equal(t, core.DialectMor, got.Dialect)
		assert.Equal(t, set.Markers, got.Markers)
		assert.Equal(t, "<encoded>", got.OriginalEncodedString)
	})

	t.Run("stored copy is isolated from caller", func(t *testing.T) {
		b := newBackend(t)
		set := sampleSet(1, 2)
		require.NoError(t, b.SaveSet("a", set, ""))
		set.Markers[1].Orientation.Yaw = 9
		set.Markers[0].Text = "changed"

		got, err := b.GetSet("a")
		require.NoError(t, err)
		assert.Equal(t, "m", got.Markers[0].Text)
		assert.Equal(t, 1.0, got.Markers[1].Orientation.Yaw)
	})

	t.Run("save replaces by name", func(t *testing.T) {
		b := newBackend(t)
		require.NoError(t, b.SaveSet("a", sampleSet(1, 1), ""))
		require.NoError(t, b.SaveSet("a", sampleSet(2, 4), ""))

		got, err := b.GetSet("a")
		require.NoError(t, err)
		assert.Equal(t, 2, got.ZoneID)
		assert.Equal(t, 4, got.Len())

		infos, err := b.ListSets()
		require.NoError(t, err)
		assert.Len(t, infos, 1)
	})

	t.Run("list is ordered by name", func(t *testing.T) {
		b := newBackend(t)
		require.NoError(t, b.SaveSet("zeta", sampleSet(3, 1), ""))
		require.NoError(t, b.SaveSet("alpha", sampleSet(4, 2), ""))

		infos, err := b.ListSets()
		require.NoError(t, err)
		require.Len(t, infos, 2)
		assert.Equal(t, "alpha", infos[0].Name)
		assert.Equal(t, 4, infos[0].ZoneID)
		assert.Equal(t, 2, infos[0].MarkerCount)
		assert.Equal(t, core.DialectMor, infos[0].Dialect)
		assert.False(t, infos[0].SavedAt.IsZero())
		assert.Equal(t, "zeta", infos[1].Name)
	})

	t.Run("missing set", func(t *testing.T) {
		b := newBackend(t)
		_, err := b.GetSet("nope")
		assert.ErrorIs(t, err, storage.ErrSetNotFound)
		assert.ErrorIs(t, b.DeleteSet("nope"), storage.ErrSetNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		b := newBackend(t)
		require.NoError(t, b.SaveSet("a", sampleSet(1, 1), ""))
		require.NoError(t, b.DeleteSet("a"))
		_, err := b.GetSet("a")
		assert.ErrorIs(t, err, storage.ErrSetNotFound)
	})

	t.Run("invalid input", func(t *testing.T) {
		b := newBackend(t)
		assert.Error(t, b.SaveSet("", sampleSet(1, 1), ""))
		assert.Error(t, b.SaveSet("x", nil, ""))
	})

	t.Run("empty set is allowed", func(t *testing.T) {
		b := newBackend(t)
		require.NoError(t, b.SaveSet("empty", core.NewMarkerSet(9, core.DialectElms), ""))
		got, err := b.GetSet("empty")
		require.NoError(t, err)
		assert.Equal(t, 0, got.Len())
		assert.Equal(t, core.DialectElms, got.Dialect)
	})
}
