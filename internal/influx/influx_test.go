package influx

import (
	"compress/gzip"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markershare/markershare/internal/config"
	"github.com/markershare/markershare/pkg/core"
)

func readBackup(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	zr, err := gzip.NewReader(f)
	require.NoError(t, err)
	data, err := io.ReadAll(zr)
	require.NoError(t, err)

	var lines []string
	for _, l := range strings.Split(string(data), "\n") {
		if l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

func TestUsagePoint(t *testing.T) {
	at := time.Unix(1609459200, 0)
	p := UsagePoint("decode", core.DialectElms, 3, 1500*time.Microsecond, nil, at)
	line := influxdb2_write.PointToLineProtocol(p, time.Second)

	assert.True(t, strings.HasPrefix(line, Measurement+","), line)
	assert.Contains(t, line, "dialect=elms")
	assert.Contains(t, line, "op=decode")
	assert.Contains(t, line, "result=ok")
	assert.Contains(t, line, "markers=3i")
	assert.Contains(t, line, "duration_ms=1.5")
	assert.Contains(t, line, "1609459200")

	failed := UsagePoint("encode", core.DialectMor, 0, 0, errors.New("boom"), at)
	assert.Contains(t, influxdb2_write.PointToLineProtocol(failed, time.Second), "result=error")
}

func TestConnect_Disabled(t *testing.T) {
	m := NewManager(zerolog.Nop(), "")
	err := m.Connect(context.Background(), config.InfluxConfig{Enabled: false})
	assert.ErrorIs(t, err, ErrDisabled)
	assert.False(t, m.IsValid)
}

func TestConnect_UnreachableFallsBackToBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usage.lp.gz")
	m := NewManager(zerolog.Nop(), path)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := m.Connect(ctx, config.InfluxConfig{
		Enabled:  true,
		Protocol: "http",
		Host:     "127.0.0.1",
		Port:     "1",
		Org:      "o",
		Bucket:   "b",
	})
	require.NoError(t, err)
	assert.False(t, m.IsValid)
	require.NotNil(t, m.BackupWriter)

	m.Record("import", core.DialectMor, 4, time.Millisecond, nil)
	m.Record("export", core.DialectElms, 4, time.Millisecond, errors.New("unmappable"))
	require.NoError(t, m.Close())

	lines := readBackup(t, path)
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "op=import")
	assert.Contains(t, lines[1], "result=error")
}

func TestWritePoint_NoSink(t *testing.T) {
	m := NewManager(zerolog.Nop(), "")
	err := m.WritePoint(UsagePoint("x", core.DialectMor, 0, 0, nil, time.Now()))
	assert.Error(t, err)

	// Record swallows the error
	m.Record("x", core.DialectMor, 0, 0, nil)
	assert.NoError(t, m.Close())
}
