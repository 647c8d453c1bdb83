package upload

import (
	"errors"
	"io"
	"io/fs"
	"path/filepath"

	"github.com/google/uuid"

	"filedrop/internal/filedrop/domain"
	"filedrop/internal/filedrop/state"
	"filedrop/pkg/logger"
	"filedrop/pkg/sanitize"
)

// Coordinator drives the three-phase chunked-upload protocol. Uploads move
// from uninitialized to active (Init) and from active to completed
// (Complete); an abandoned upload simply stays active, its registry entry
// and staging area resident until reclaimed out-of-band.
type Coordinator struct {
	filesDir string
	registry *state.Registry
	store    *ChunkStore
	logger   *logger.Logger
}

func NewCoordinator(filesDir string, registry *state.Registry) *Coordinator {
	return &Coordinator{
		filesDir: filesDir,
		registry: registry,
		store:    NewChunkStore(filepath.Join(filesDir, domain.StagingDirName)),
		logger:   logger.WithField("component", "upload-coordinator"),
	}
}

// Store exposes the coordinator's chunk store, mainly so callers can
// verify staging state.
func (c *Coordinator) Store() *ChunkStore {
	return c.store
}

// InitResult is what a client needs to start sending chunks.
type InitResult struct {
	UploadID    string
	ChunkSize   uint64
	TotalChunks uint64
}

// Init starts a chunked upload: validates the declared chunk size,
// sanitizes the target filename, registers a fresh session and prepares
// its staging area. Either both the registry entry and the staging area
// exist afterwards, or neither does.
func (c *Coordinator) Init(filename string, totalSize, chunkSize uint64) (*InitResult, error) {
	if chunkSize == 0 {
		return nil, domain.InvalidRequest("chunk_size must be greater than zero")
	}

	target := sanitize.Filename(filename)
	if target == "" {
		return nil, domain.InvalidRequest("filename %q contains no usable characters", filename)
	}

	id := uuid.New().String()
	session := domain.NewUploadSession(id, target, totalSize, chunkSize)

	if err := c.registry.Create(session); err != nil {
		return nil, err
	}
	if err := c.store.Prepare(id); err != nil {
		// roll back so no half-created session survives a failed init
		_, _ = c.registry.Remove(id)
		return nil, domain.Internal("failed to create staging area", err)
	}

	c.logger.Info("chunked upload initialized", "uploadID", id,
		"filename", target, "totalSize", totalSize, "totalChunks", session.TotalChunks)

	return &InitResult{
		UploadID:    id,
		ChunkSize:   chunkSize,
		TotalChunks: session.TotalChunks,
	}, nil
}

// Progress reports receipt state after an ingest.
type Progress struct {
	ChunkNumber    uint64
	ReceivedChunks int
	TotalChunks    uint64
}

// Ingest persists one chunk and records its index. The chunk bytes hit
// durable storage before the index is marked received, so the registry
// never claims a chunk the store does not hold. Re-ingesting an index
// overwrites the stored bytes and leaves the received set unchanged.
// Indices at or beyond the declared total are accepted and stored; they
// are wasted work the protocol tolerates rather than a validated boundary.
func (c *Coordinator) Ingest(uploadID string, index uint64, data io.Reader) (*Progress, error) {
	// reject unknown ids before touching the disk
	if _, err := c.registry.Snapshot(uploadID); err != nil {
		return nil, err
	}

	size, err := c.store.WriteChunk(uploadID, index, data)
	if err != nil {
		return nil, domain.Internal("failed to write chunk", err)
	}

	progress := &Progress{ChunkNumber: index}
	err = c.registry.Mutate(uploadID, func(s *domain.UploadSession) {
		s.MarkReceived(index)
		progress.ReceivedChunks = s.ReceivedCount()
		progress.TotalChunks = s.TotalChunks
	})
	if err != nil {
		// the upload completed (or vanished) while the chunk was being
		// written; the orphaned bytes go away with the staging teardown
		return nil, err
	}

	c.logger.Debug("chunk received", "uploadID", uploadID, "chunk", index,
		"bytes", size, "received", progress.ReceivedChunks, "total", progress.TotalChunks)

	return progress, nil
}

// CompleteResult describes the assembled artifact.
type CompleteResult struct {
	Filename string
	Size     int64
}

// Complete verifies full receipt, removes the session (making the id
// permanently invalid), assembles the final artifact and tears down the
// staging area. Removal happens before assembly, so a concurrent duplicate
// complete observes NotFound rather than a second assembly: completion is
// exactly-once per id. An incomplete upload is reported with its shortfall
// and stays active for retry.
func (c *Coordinator) Complete(uploadID string) (*CompleteResult, error) {
	session, err := c.registry.RemoveIf(uploadID, func(s *domain.UploadSession) error {
		if !s.HasAllChunks() {
			return domain.Incomplete(s.ReceivedCount(), s.TotalChunks)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	outPath := filepath.Join(c.filesDir, session.TargetFilename)

	size, err := c.store.Assemble(uploadID, session.TotalChunks, outPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// the registry said every chunk arrived; a missing artifact
			// means registry and store desynchronized
			return nil, domain.Internal("chunk marked received but missing from staging", err)
		}
		return nil, domain.Internal("failed to assemble upload", err)
	}

	// the artifact is committed; a teardown failure must not fail the call
	if err := c.store.Teardown(uploadID); err != nil {
		c.logger.Warn("failed to tear down staging area", "uploadID", uploadID, "error", err)
	}

	c.logger.Info("chunked upload completed", "uploadID", uploadID,
		"filename", session.TargetFilename, "size", size)

	return &CompleteResult{Filename: session.TargetFilename, Size: size}, nil
}
