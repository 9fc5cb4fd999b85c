package layouts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/charta/internal/common"
	"github.com/ternarybob/charta/internal/models"
)

func writeLayout(t *testing.T, dir, file, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, file), []byte(content), 0644))
}

func TestProvider_LoadsAndResolves(t *testing.T) {
	dir := t.TempDir()
	writeLayout(t, dir, "a4.yaml", `
name: A4 portrait
map_width: 440
map_height: 483
rotation: true
required_attributes:
  - mapTitle
allowed_dpis:
  - 72
  - 150
`)
	writeLayout(t, dir, "wide.yml", `
name: wide
map_width: 802
map_height: 500
`)
	writeLayout(t, dir, "notes.txt", "ignored")

	provider, err := NewProvider(dir, common.GetLogger())
	require.NoError(t, err)

	layout, err := provider.Resolve("A4 portrait")
	require.NoError(t, err)
	assert.Equal(t, 440, layout.MapWidth)
	assert.Equal(t, 483, layout.MapHeight)
	assert.True(t, layout.Rotation)
	assert.Equal(t, []string{"mapTitle"}, layout.RequiredAttributes)
	assert.Equal(t, []int{72, 150}, layout.AllowedDPIs)

	all := provider.List()
	require.Len(t, all, 2)
	assert.Equal(t, "A4 portrait", all[0].Name, "list is sorted by name")
	assert.Equal(t, "wide", all[1].Name)
}

func TestProvider_UnknownLayout(t *testing.T) {
	dir := t.TempDir()
	writeLayout(t, dir, "a4.yaml", "name: a4\nmap_width: 100\nmap_height: 100\n")

	provider, err := NewProvider(dir, common.GetLogger())
	require.NoError(t, err)

	_, err = provider.Resolve("missing")
	assert.ErrorIs(t, err, models.ErrLayoutNotFound)
}

func TestProvider_NameDefaultsToFilename(t *testing.T) {
	dir := t.TempDir()
	writeLayout(t, dir, "compact.yaml", "map_width: 100\nmap_height: 100\n")

	provider, err := NewProvider(dir, common.GetLogger())
	require.NoError(t, err)

	_, err = provider.Resolve("compact")
	assert.NoError(t, err)
}

func TestProvider_RejectsInvalidDimensions(t *testing.T) {
	dir := t.TempDir()
	writeLayout(t, dir, "bad.yaml", "name: bad\nmap_width: 0\nmap_height: 100\n")

	_, err := NewProvider(dir, common.GetLogger())
	assert.Error(t, err)
}

func TestProvider_EmptyDirFails(t *testing.T) {
	_, err := NewProvider(t.TempDir(), common.GetLogger())
	assert.Error(t, err)
}

func TestProvider_DuplicateNamesFail(t *testing.T) {
	dir := t.TempDir()
	writeLayout(t, dir, "one.yaml", "name: same\nmap_width: 100\nmap_height: 100\n")
	writeLayout(t, dir, "two.yaml", "name: same\nmap_width: 200\nmap_height: 200\n")

	_, err := NewProvider(dir, common.GetLogger())
	assert.Error(t, err)
}
