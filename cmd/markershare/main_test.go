package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markershare/markershare/pkg/core"
)

const elmsPair = "/1301//1000,2000,3000,1//1301//1100,2100,3100,38/"

func runCLI(t *testing.T, stdin string, args ...string) (string, int) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	var out bytes.Buffer
	full := append([]string{"--config-dir", t.TempDir()}, args...)
	code := run(full, strings.NewReader(stdin), &out)
	return out.String(), code
}

func TestRun_Version(t *testing.T) {
	out, code := runCLI(t, "", "--version")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, AppName)
}

func TestRun_UnknownCommand(t *testing.T) {
	_, code := runCLI(t, "", "frobnicate")
	assert.Equal(t, 2, code)

	_, code = runCLI(t, "")
	assert.Equal(t, 2, code)
}

func TestRun_Detect(t *testing.T) {
	out, code := runCLI(t, "", "detect", elmsPair)
	require.Equal(t, 0, code)
	assert.Equal(t, "elms\n", out)

	out, code = runCLI(t, "<1000]1609459200]0:0:0]]]]]]0:0:0>\n", "detect", "-")
	require.Equal(t, 0, code)
	assert.Equal(t, "mor\n", out)

	out, code = runCLI(t, "", "detect", "hello")
	require.Equal(t, 0, code)
	assert.Equal(t, "unknown\n", out)
}

func TestRun_Decode(t *testing.T) {
	out, code := runCLI(t, elmsPair, "decode")
	require.Equal(t, 0, code)

	var set core.MarkerSet
	require.NoError(t, json.Unmarshal([]byte(out), &set))
	assert.Equal(t, 1301, set.ZoneID)
	assert.Equal(t, core.DialectElms, set.Dialect)
	assert.Len(t, set.Markers, 2)
}

func TestRun_DecodeFailure(t *testing.T) {
	_, code := runCLI(t, "", "decode", "<1]0]0:0:0>")
	assert.Equal(t, 1, code)
}

func TestRun_ConvertRoundTrip(t *testing.T) {
	mor, code := runCLI(t, "", "convert", elmsPair)
	require.Equal(t, 0, code)
	mor = strings.TrimSpace(mor)
	assert.True(t, strings.HasPrefix(mor, "<1301]"), mor)

	back, code := runCLI(t, "", "convert", "--to", "elms", mor)
	require.Equal(t, 0, code)
	assert.Equal(t, elmsPair, strings.TrimSpace(back))
}

func TestRun_ConvertUnmappable(t *testing.T) {
	_, code := runCLI(t, "", "convert", "--to", "elms", "<1]0]0:0:0]]]]]]0:0:0:Boss>")
	assert.Equal(t, 1, code)
}

func TestRun_Route(t *testing.T) {
	out, code := runCLI(t, "", "route", elmsPair)
	require.Equal(t, 0, code)
	assert.Contains(t, out, "LINESTRING")

	out, code = runCLI(t, "", "route", "--extent", elmsPair)
	require.Equal(t, 0, code)
	assert.Contains(t, out, "POLYGON")
}

func TestRun_Edit(t *testing.T) {
	script := strings.Join([]string{
		"# build a two-marker set",
		"new 1301",
		"place 1000,2075,3000 icon=1",
		`place 0,0,0 text="Boss room"`,
		"remove 2",
		"export elms",
		"bogus",
		"quit",
		"export mor",
	}, "\n")

	out, code := runCLI(t, script, "edit")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "/1301//1000,2000,3000,1/")
	assert.Contains(t, out, "error: unknown command")
	assert.NotContains(t, out, "<1301]", "nothing runs after quit")
}

func TestRun_EditHelp(t *testing.T) {
	out, code := runCLI(t, "help\n", "edit")
	require.Equal(t, 0, code)
	assert.Contains(t, out, ":MARKERS:PLACE:")
	assert.Contains(t, out, ":MARKERS:LIBRARY:")
}

func TestRun_SQLiteLibrary(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "library.db")
	lib := []string{"--storage", "sqlite", "--db-path", dbPath}

	_, code := runCLI(t, "", append(lib, "save", "raid", elmsPair)...)
	require.Equal(t, 0, code)

	out, code := runCLI(t, "", append(lib, "list")...)
	require.Equal(t, 0, code)
	assert.Contains(t, out, "raid")
	assert.Contains(t, out, "zone=1301")

	out, code = runCLI(t, "", append(lib, "load", "raid")...)
	require.Equal(t, 0, code)
	assert.Equal(t, elmsPair, strings.TrimSpace(out))

	out, code = runCLI(t, "", append(lib, "load", "--json", "raid")...)
	require.Equal(t, 0, code)
	assert.Contains(t, out, `"zoneId": 1301`)

	backup := filepath.Join(t.TempDir(), "copy.db")
	_, code = runCLI(t, "", append(lib, "backup", backup)...)
	require.Equal(t, 0, code)

	_, code = runCLI(t, "", append(lib, "delete", "raid")...)
	require.Equal(t, 0, code)
	_, code = runCLI(t, "", append(lib, "load", "raid")...)
	assert.Equal(t, 1, code)

	// the backup still holds the set
	out, code = runCLI(t, "", "--storage", "sqlite", "--db-path", backup, "load", "raid")
	require.Equal(t, 0, code)
	assert.Equal(t, elmsPair, strings.TrimSpace(out))
}

func TestRun_BackupNeedsSQLite(t *testing.T) {
	_, code := runCLI(t, "", "backup", filepath.Join(t.TempDir(), "x.db"))
	assert.Equal(t, 1, code)
}

func TestCommandName(t *testing.T) {
	assert.Equal(t, ":MARKERS:PLACE:", commandName("place"))
	assert.Equal(t, ":MARKERS:LIST:", commandName(":markers:list:"))
}
