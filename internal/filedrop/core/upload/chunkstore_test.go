package upload

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkStore_WriteReadOverwrite(t *testing.T) {
	cs := NewChunkStore(filepath.Join(t.TempDir(), ".chunks"))
	require.NoError(t, cs.Prepare("u1"))

	n, err := cs.WriteChunk("u1", 0, strings.NewReader("hello"))
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)

	data, err := cs.ReadChunk("u1", 0)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	// overwrite is last-write-wins
	_, err = cs.WriteChunk("u1", 0, strings.NewReader("HELLO!"))
	require.NoError(t, err)

	data, err = cs.ReadChunk("u1", 0)
	require.NoError(t, err)
	assert.Equal(t, "HELLO!", string(data))
}

func TestChunkStore_ReadMissingChunk(t *testing.T) {
	cs := NewChunkStore(filepath.Join(t.TempDir(), ".chunks"))
	require.NoError(t, cs.Prepare("u1"))

	_, err := cs.ReadChunk("u1", 3)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestChunkStore_PrepareIdempotent(t *testing.T) {
	cs := NewChunkStore(filepath.Join(t.TempDir(), ".chunks"))

	require.NoError(t, cs.Prepare("u1"))
	_, err := cs.WriteChunk("u1", 0, strings.NewReader("data"))
	require.NoError(t, err)

	// a retried init must not wipe or fail
	require.NoError(t, cs.Prepare("u1"))
	data, err := cs.ReadChunk("u1", 0)
	require.NoError(t, err)
	assert.Equal(t, "data", string(data))
}

func TestChunkStore_AssembleOrdersChunks(t *testing.T) {
	dir := t.TempDir()
	cs := NewChunkStore(filepath.Join(dir, ".chunks"))
	require.NoError(t, cs.Prepare("u1"))

	// write out of order on purpose
	_, err := cs.WriteChunk("u1", 2, strings.NewReader("ccc"))
	require.NoError(t, err)
	_, err = cs.WriteChunk("u1", 0, strings.NewReader("aaa"))
	require.NoError(t, err)
	_, err = cs.WriteChunk("u1", 1, strings.NewReader("bbb"))
	require.NoError(t, err)

	out := filepath.Join(dir, "joined.bin")
	size, err := cs.Assemble("u1", 3, out)
	require.NoError(t, err)
	assert.Equal(t, int64(9), size)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "aaabbbccc", string(data))
}

func TestChunkStore_AssembleMissingChunkLeavesNoArtifact(t *testing.T) {
	dir := t.TempDir()
	cs := NewChunkStore(filepath.Join(dir, ".chunks"))
	require.NoError(t, cs.Prepare("u1"))

	_, err := cs.WriteChunk("u1", 0, strings.NewReader("aaa"))
	require.NoError(t, err)
	// chunk 1 never written

	out := filepath.Join(dir, "joined.bin")
	_, err = cs.Assemble("u1", 2, out)
	assert.ErrorIs(t, err, fs.ErrNotExist)

	// no truncated file under the target name, no leftover temp file
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr), "partial artifact must not be visible")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasPrefix(e.Name(), ".filedrop-assemble-"),
			"leftover temp file %s", e.Name())
	}
}

func TestChunkStore_Teardown(t *testing.T) {
	cs := NewChunkStore(filepath.Join(t.TempDir(), ".chunks"))
	require.NoError(t, cs.Prepare("u1"))

	_, err := cs.WriteChunk("u1", 0, strings.NewReader("x"))
	require.NoError(t, err)
	assert.True(t, cs.StagingExists("u1"))

	require.NoError(t, cs.Teardown("u1"))
	assert.False(t, cs.StagingExists("u1"))

	// tearing down an absent area is fine
	require.NoError(t, cs.Teardown("u1"))
}
