package index

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSource(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "source.txt")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	return path
}

func TestRegistryBuildAndSearch(t *testing.T) {
	registry := NewRegistry(discardLogger())

	stats, err := registry.Build("tiny", filepath.Join("testdata", "tiny.txt"))
	require.NoError(t, err)
	assert.Equal(t, "tiny", stats.Name)
	assert.Equal(t, 4, stats.Documents)
	assert.Equal(t, 20, stats.Terms)

	res, err := registry.Search("tiny", "fish +red -blue")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Len())

	res, err = registry.Search("tiny", "fish -milk")
	require.NoError(t, err)
	assert.Equal(t, []string{"www.dr.seuss.net"}, res.IDs())

	idx, ok := registry.Get("tiny")
	require.True(t, ok)
	assert.Equal(t, []string{"www.dr.seuss.net", "www.shoppinglist.com"}, idx.Lookup("fish"))
}

func TestRegistryRejectsDuplicateAndInvalidNames(t *testing.T) {
	registry := NewRegistry(discardLogger())
	path := writeSource(t, "a.com", "apple")

	_, err := registry.Build("fruit", path)
	require.NoError(t, err)

	_, err = registry.Build("fruit", path)
	assert.ErrorIs(t, err, ErrIndexExists)

	_, err = registry.Build("  ", path)
	assert.Error(t, err)

	_, err = registry.Build("a/b", path)
	assert.Error(t, err)

	_, err = registry.Build(strings.Repeat("x", maxNameLength+1), path)
	assert.Error(t, err)
}

func TestRegistryUnreadableSourceRegistersEmptyIndex(t *testing.T) {
	registry := NewRegistry(discardLogger())

	stats, err := registry.Build("missing", filepath.Join(t.TempDir(), "nope.txt"))
	require.NoError(t, err)
	assert.Zero(t, stats.Documents)
	assert.Zero(t, stats.Terms)

	res, err := registry.Search("missing", "anything")
	require.NoError(t, err)
	assert.Zero(t, res.Len())
}

func TestRegistrySearchUnknownIndex(t *testing.T) {
	registry := NewRegistry(discardLogger())

	_, err := registry.Search("ghost", "boo")
	assert.ErrorIs(t, err, ErrIndexNotFound)

	_, ok := registry.Stats("ghost")
	assert.False(t, ok)
}

func TestRegistryListIsSortedByName(t *testing.T) {
	registry := NewRegistry(discardLogger())
	path := writeSource(t, "a.com", "apple banana", "b.com", "banana")

	for _, name := range []string{"zeta", "alpha", "mid"} {
		_, err := registry.Build(name, path)
		require.NoError(t, err)
	}

	list := registry.List()
	require.Len(t, list, 3)
	assert.Equal(t, "alpha", list[0].Name)
	assert.Equal(t, "mid", list[1].Name)
	assert.Equal(t, "zeta", list[2].Name)
	assert.Equal(t, 2, list[0].Documents)
	assert.Equal(t, 2, list[0].Terms)
	assert.Equal(t, path, list[0].Source)
}
