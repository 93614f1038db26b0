package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	pgzip "github.com/klauspost/pgzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kastkar/krushi/internal/domain/catalog"
)

func TestDecodeLines(t *testing.T) {
	in := strings.Join([]string{
		`{"id":1,"name":"Cotton","category":"Seeds","price":850,"quantity":50}`,
		``,
		`{"id":2,"name":"NPK","category":"Fertilizers","price":"1200"}`,
	}, "\n")

	products, err := decodeLines(context.Background(), strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "Cotton", products[0].Name)
	assert.Equal(t, catalog.DefaultQuantity, products[1].Quantity)
}

func TestDecodeLines_BadLine(t *testing.T) {
	_, err := decodeLines(context.Background(), strings.NewReader("{\"id\":1}\n{\"id\":\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestMergeFirstWins(t *testing.T) {
	lists := [][]catalog.Product{
		{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}},
		{{ID: 2, Name: "b2"}, {ID: 3, Name: "c"}},
		{{ID: 1, Name: "a3"}},
	}

	merged, dups := mergeFirstWins(lists)
	assert.Equal(t, 2, dups)
	require.Len(t, merged, 3)
	assert.Equal(t, "a", merged[0].Name)
	assert.Equal(t, "b", merged[1].Name)
	assert.Equal(t, "c", merged[2].Name)
}

func TestReadDumps_KeepsFileOrder(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		var buf bytes.Buffer
		gz := pgzip.NewWriter(&buf)
		_, err := gz.Write([]byte(body))
		require.NoError(t, err)
		require.NoError(t, gz.Close())
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
		return path
	}

	first := write("a.jsonl.gz", `{"id":1,"name":"first"}`+"\n")
	second := write("b.jsonl.gz", `{"id":1,"name":"second"}`+"\n"+`{"id":2,"name":"other"}`+"\n")

	perFile, err := readDumps(context.Background(), []string{first, second})
	require.NoError(t, err)
	require.Len(t, perFile, 2)

	merged, dups := mergeFirstWins(perFile)
	assert.Equal(t, 1, dups)
	require.Len(t, merged, 2)
	assert.Equal(t, "first", merged[0].Name)
}
