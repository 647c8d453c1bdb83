package files

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"filedrop/internal/filedrop/domain"
)

func newTestService(t *testing.T) (*Service, string) {
	t.Helper()
	dir := t.TempDir()
	return NewService(dir), dir
}

func TestService_SaveAndList(t *testing.T) {
	svc, dir := newTestService(t)

	name, size, err := svc.Save("hello.txt", strings.NewReader("hello world"))
	require.NoError(t, err)
	assert.Equal(t, "hello.txt", name)
	assert.Equal(t, int64(11), size)

	data, err := os.ReadFile(filepath.Join(dir, "hello.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))

	infos, err := svc.List()
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "hello.txt", infos[0].Name)
	assert.Equal(t, int64(11), infos[0].Size)
	assert.False(t, infos[0].IsDir)
	assert.NotEmpty(t, infos[0].Modified)
}

func TestService_SaveSanitizesTraversal(t *testing.T) {
	svc, dir := newTestService(t)

	name, _, err := svc.Save("../../etc/passwd", strings.NewReader("x"))
	require.NoError(t, err)
	assert.Equal(t, "etcpasswd", name)

	// the file lands inside the directory, nowhere else
	_, err = os.Stat(filepath.Join(dir, "etcpasswd"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(filepath.Dir(dir), "etcpasswd"))
	assert.True(t, os.IsNotExist(err))
}

func TestService_SaveRejectsUnusableName(t *testing.T) {
	svc, _ := newTestService(t)

	_, _, err := svc.Save("....", strings.NewReader("x"))
	require.Error(t, err)
	assert.Equal(t, domain.KindInvalidRequest, domain.KindOf(err))
}

func TestService_SaveOverwrites(t *testing.T) {
	svc, dir := newTestService(t)

	_, _, err := svc.Save("note.txt", strings.NewReader("first"))
	require.NoError(t, err)
	_, _, err = svc.Save("note.txt", strings.NewReader("second"))
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "note.txt"))
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestService_ListSkipsInternalEntries(t *testing.T) {
	svc, dir := newTestService(t)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, domain.StagingDirName, "some-id"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".filedrop-upload-123"), []byte("tmp"), 0644))
	_, _, err := svc.Save("visible.txt", strings.NewReader("v"))
	require.NoError(t, err)

	infos, err := svc.List()
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "visible.txt", infos[0].Name)
}

func TestService_Delete(t *testing.T) {
	svc, dir := newTestService(t)

	_, _, err := svc.Save("gone.txt", strings.NewReader("x"))
	require.NoError(t, err)

	name, err := svc.Delete("gone.txt")
	require.NoError(t, err)
	assert.Equal(t, "gone.txt", name)

	_, err = os.Stat(filepath.Join(dir, "gone.txt"))
	assert.True(t, os.IsNotExist(err))

	_, err = svc.Delete("gone.txt")
	require.Error(t, err)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
}

func TestService_BatchDelete(t *testing.T) {
	svc, _ := newTestService(t)

	_, _, err := svc.Save("a.txt", strings.NewReader("a"))
	require.NoError(t, err)
	_, _, err = svc.Save("b.txt", strings.NewReader("b"))
	require.NoError(t, err)

	results := svc.BatchDelete([]string{"a.txt", "missing.txt", "b.txt"})
	require.Len(t, results, 3)

	assert.True(t, results[0].Success)
	assert.Empty(t, results[0].Error)

	assert.False(t, results[1].Success)
	assert.Contains(t, results[1].Error, "not found")

	assert.True(t, results[2].Success)

	infos, err := svc.List()
	require.NoError(t, err)
	assert.Empty(t, infos)
}

func TestService_Stats(t *testing.T) {
	svc, dir := newTestService(t)

	_, _, err := svc.Save("one.txt", strings.NewReader("12345"))
	require.NoError(t, err)
	_, _, err = svc.Save("two.txt", strings.NewReader("123"))
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, domain.StagingDirName), 0755))

	stats, err := svc.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalFiles)
	assert.Equal(t, int64(8), stats.TotalSize)
	assert.True(t, filepath.IsAbs(stats.FilesDir))
}
