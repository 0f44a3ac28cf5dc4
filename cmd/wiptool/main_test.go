package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"wip-tracker-service/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestLanesCommand(t *testing.T) {
	t.Setenv("LANES_PATH", "")

	out, err := execute(t, "lanes")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 7)
	assert.Contains(t, lines[1], config.LaneIntake)
	assert.Contains(t, lines[1], "(-1845, 178)")
	assert.Contains(t, lines[6], config.LaneShipWait)
}

func TestImportIntoSQLite(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(dir, "db", "wip.db"))
	t.Setenv("LANES_PATH", "")

	registry := filepath.Join(dir, "products.json")
	require.NoError(t, os.WriteFile(registry, []byte(`{"products":[
		{"id":"product-1","modelName":"M","lotNumber":"L","quantity":1,"currentPosition":"FQA","position":{"x":-23,"y":130},"status":"registered","registeredAt":"2026-03-02T09:00:00Z","isHolding":false,"holdingMemo":null}
	]}`), 0o644))

	out, err := execute(t, "schema")
	require.NoError(t, err)
	assert.Contains(t, out, "schema ready (sqlite)")

	out, err = execute(t, "import", "--from", registry)
	require.NoError(t, err)
	assert.Contains(t, out, "imported 1 lots")
}

func TestSQLCommandsRejectJSONStore(t *testing.T) {
	t.Setenv("STORE_DRIVER", "json")
	t.Setenv("LANES_PATH", "")

	_, err := execute(t, "schema")
	assert.Error(t, err)
}
