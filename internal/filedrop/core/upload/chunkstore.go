// Package upload implements the chunked-upload subsystem: the on-disk
// chunk staging store and the coordinator that drives the init → ingest →
// complete protocol against the upload registry.
package upload

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"filedrop/pkg/logger"
)

// ChunkStore stages chunk artifacts on durable storage until assembly.
// Layout: <root>/<uploadID>/chunk_<index>, one staging directory per
// upload id, so there is no cross-upload contention at the storage layer.
type ChunkStore struct {
	root   string
	logger *logger.Logger
}

func NewChunkStore(root string) *ChunkStore {
	return &ChunkStore{
		root:   root,
		logger: logger.WithField("component", "chunk-store"),
	}
}

func (cs *ChunkStore) stagingDir(uploadID string) string {
	return filepath.Join(cs.root, uploadID)
}

func (cs *ChunkStore) chunkPath(uploadID string, index uint64) string {
	return filepath.Join(cs.stagingDir(uploadID), fmt.Sprintf("chunk_%d", index))
}

// Prepare creates the staging area for an upload. Idempotent: a retried
// init finds the directory already present and succeeds.
func (cs *ChunkStore) Prepare(uploadID string) error {
	return os.MkdirAll(cs.stagingDir(uploadID), 0755)
}

// WriteChunk persists the chunk for (uploadID, index), overwriting any
// prior write for the same index. The data is flushed to durable storage
// before returning, so a crash immediately afterwards cannot lose it.
func (cs *ChunkStore) WriteChunk(uploadID string, index uint64, data io.Reader) (int64, error) {
	f, err := os.Create(cs.chunkPath(uploadID, index))
	if err != nil {
		return 0, err
	}

	n, err := io.Copy(f, data)
	if err != nil {
		f.Close()
		return 0, err
	}

	if err := f.Sync(); err != nil {
		f.Close()
		return 0, err
	}

	return n, f.Close()
}

// ReadChunk returns the stored bytes for (uploadID, index). A missing
// chunk surfaces as fs.ErrNotExist; when the registry says the index was
// received, the caller promotes that to an internal fault.
func (cs *ChunkStore) ReadChunk(uploadID string, index uint64) ([]byte, error) {
	return os.ReadFile(cs.chunkPath(uploadID, index))
}

// Assemble concatenates chunks 0..totalChunks in ascending index order
// into outPath and returns the final byte length. The output is written
// to a temporary file in the destination directory, flushed, and renamed
// into place, so a failure mid-assembly never leaves a truncated artifact
// visible under the target name.
func (cs *ChunkStore) Assemble(uploadID string, totalChunks uint64, outPath string) (int64, error) {
	tmp, err := os.CreateTemp(filepath.Dir(outPath), ".filedrop-assemble-*")
	if err != nil {
		return 0, err
	}
	tmpPath := tmp.Name()

	discard := func(err error) (int64, error) {
		tmp.Close()
		os.Remove(tmpPath)
		return 0, err
	}

	var size int64
	for index := uint64(0); index < totalChunks; index++ {
		chunk, err := os.Open(cs.chunkPath(uploadID, index))
		if err != nil {
			return discard(fmt.Errorf("chunk %d: %w", index, err))
		}

		n, err := io.Copy(tmp, chunk)
		chunk.Close()
		if err != nil {
			return discard(fmt.Errorf("chunk %d: %w", index, err))
		}
		size += n
	}

	if err := tmp.Sync(); err != nil {
		return discard(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return 0, err
	}
	if err := os.Rename(tmpPath, outPath); err != nil {
		os.Remove(tmpPath)
		return 0, err
	}

	return size, nil
}

// Teardown removes the staging area and every chunk artifact in it.
func (cs *ChunkStore) Teardown(uploadID string) error {
	return os.RemoveAll(cs.stagingDir(uploadID))
}

// StagingExists reports whether the staging area for an upload id is
// still present.
func (cs *ChunkStore) StagingExists(uploadID string) bool {
	info, err := os.Stat(cs.stagingDir(uploadID))
	return err == nil && info.IsDir()
}
