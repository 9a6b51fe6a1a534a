package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string, mod time.Time) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0o644))
	require.NoError(t, os.Chtimes(path, mod, mod))
}

func TestFindLatestJsonlIncludesCompressed(t *testing.T) {
	dir := t.TempDir()
	compressed := filepath.Join(dir, "20260830_120000.jsonl.zst")
	touch(t, compressed, time.Now())

	got, err := findLatestJsonl(dir)
	require.NoError(t, err)
	require.Equal(t, compressed, got)
}

func TestFindLatestJsonlPicksNewestAcrossPatterns(t *testing.T) {
	dir := t.TempDir()
	older := filepath.Join(dir, "20260830_110000.jsonl")
	newer := filepath.Join(dir, "20260830_120000.jsonl.zst")
	touch(t, older, time.Now().Add(-time.Hour))
	touch(t, newer, time.Now())

	got, err := findLatestJsonl(dir)
	require.NoError(t, err)
	require.Equal(t, newer, got)

	newest := filepath.Join(dir, "20260830_130000.jsonl")
	touch(t, newest, time.Now().Add(time.Hour))
	got, err = findLatestJsonl(dir)
	require.NoError(t, err)
	require.Equal(t, newest, got)
}

func TestFindLatestJsonlEmptyDir(t *testing.T) {
	_, err := findLatestJsonl(t.TempDir())
	require.Error(t, err)
}
