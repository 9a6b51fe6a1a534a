package cases_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/huanghao-6/vePhone/internal/cases"
	"github.com/stretchr/testify/require"
)

func writeCase(t *testing.T, dir, rel, content string) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestDiscoverSortsAndIndexes(t *testing.T) {
	dir := t.TempDir()
	writeCase(t, dir, "settings/wifi.md", "toggle wifi")
	writeCase(t, dir, "login.case", "log in")
	writeCase(t, dir, "camera.md", "open camera")
	writeCase(t, dir, "notes.txt", "ignored extension")
	writeCase(t, dir, ".hidden.md", "hidden file")
	writeCase(t, dir, "Template.md", "reserved name")
	// hidden directories are traversed; only hidden file names are skipped
	writeCase(t, dir, ".wip/draft.md", "work in progress")
	writeCase(t, dir, ".wip/.notes.md", "hidden inside hidden")

	found, err := cases.Discover(dir, nil)
	require.NoError(t, err)

	var paths []string
	for i, c := range found {
		require.Equal(t, i, c.Index)
		paths = append(paths, c.Path)
	}
	require.Equal(t, []string{".wip/draft.md", "camera.md", "login.case", "settings/wifi.md"}, paths)
	require.Equal(t, "log in", found[1].Content)
	require.Equal(t, "login", found[1].Name())
}

func TestDiscoverFilterOrSemantics(t *testing.T) {
	dir := t.TempDir()
	writeCase(t, dir, "login/basic.md", "a")
	writeCase(t, dir, "settings/wifi.md", "b")
	writeCase(t, dir, "camera/photo.md", "c")

	found, err := cases.Discover(dir, []string{"login", "wifi"})
	require.NoError(t, err)
	require.Len(t, found, 2)
	require.Equal(t, "login/basic.md", found[0].Path)
	require.Equal(t, "settings/wifi.md", found[1].Path)
}

func TestDiscoverEmptyDirIsNotAnError(t *testing.T) {
	found, err := cases.Discover(t.TempDir(), nil)
	require.NoError(t, err)
	require.Empty(t, found)
}
