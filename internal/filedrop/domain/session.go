// Package domain holds the core types of the chunked-upload subsystem:
// the upload session record and the error taxonomy shared by the registry,
// the chunk store and the coordinator.
package domain

// StagingDirName is the directory under the files dir that holds per-upload
// chunk staging areas. It is skipped by listings and stats.
const StagingDirName = ".chunks"

// UploadSession tracks one chunked upload in progress. It is owned
// exclusively by the upload registry from init until removal; all mutation
// happens under the registry's per-session scope.
type UploadSession struct {
	// ID is the opaque upload token, generated at init, never reused.
	ID string
	// TargetFilename is the sanitized final name, immutable after creation.
	TargetFilename string
	// TotalSize and ChunkSize are the client's declarations at init. They
	// only derive TotalChunks; actual bytes per chunk are not enforced.
	TotalSize uint64
	ChunkSize uint64
	// TotalChunks is ceil(TotalSize / ChunkSize).
	TotalChunks uint64
	// Received is the set of chunk indices ingested so far. It grows
	// monotonically and never shrinks. Indices at or beyond TotalChunks
	// may appear here (permissive ingest) but never count toward
	// completeness.
	Received map[uint64]struct{}
}

// NewUploadSession builds a session for the given (already sanitized)
// target filename. ChunkSize must be validated as non-zero by the caller.
func NewUploadSession(id, targetFilename string, totalSize, chunkSize uint64) *UploadSession {
	return &UploadSession{
		ID:             id,
		TargetFilename: targetFilename,
		TotalSize:      totalSize,
		ChunkSize:      chunkSize,
		TotalChunks:    TotalChunks(totalSize, chunkSize),
		Received:       make(map[uint64]struct{}),
	}
}

// TotalChunks is the ceiling of totalSize / chunkSize. chunkSize must be
// greater than zero.
func TotalChunks(totalSize, chunkSize uint64) uint64 {
	if totalSize == 0 {
		return 0
	}
	return (totalSize-1)/chunkSize + 1
}

// MarkReceived records a chunk index. Re-marking an index is a no-op (set
// semantics), which makes chunk retries idempotent.
func (s *UploadSession) MarkReceived(index uint64) {
	s.Received[index] = struct{}{}
}

// ReceivedCount reports how many distinct indices have been ingested,
// including permissively accepted out-of-range ones.
func (s *UploadSession) ReceivedCount() int {
	return len(s.Received)
}

// HasAllChunks reports whether every index in [0, TotalChunks) has been
// received. Extra indices beyond TotalChunks are irrelevant to the check.
func (s *UploadSession) HasAllChunks() bool {
	var inRange uint64
	for idx := range s.Received {
		if idx < s.TotalChunks {
			inRange++
		}
	}
	return inRange == s.TotalChunks
}

// Clone returns an independent copy of the session, so snapshots handed
// out by the registry cannot be mutated behind its back.
func (s *UploadSession) Clone() *UploadSession {
	received := make(map[uint64]struct{}, len(s.Received))
	for idx := range s.Received {
		received[idx] = struct{}{}
	}
	clone := *s
	clone.Received = received
	return &clone
}
