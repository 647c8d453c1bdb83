package server

import "filedrop/internal/filedrop/files"

// Wire types for the admin API. Field names are part of the HTTP contract;
// clients match on the snake_case keys.

type uploadResponse struct {
	Success  bool   `json:"success"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

type fileListResponse struct {
	Files []files.Info `json:"files"`
	Total int          `json:"total"`
}

type deleteResponse struct {
	Success  bool   `json:"success"`
	Filename string `json:"filename"`
}

type batchDeleteRequest struct {
	Filenames []string `json:"filenames"`
}

type batchDeleteResponse struct {
	Total      int                 `json:"total"`
	Successful int                 `json:"successful"`
	Failed     int                 `json:"failed"`
	Results    []files.BatchResult `json:"results"`
}

type chunkedUploadInitRequest struct {
	Filename  string `json:"filename"`
	TotalSize uint64 `json:"total_size"`
	ChunkSize uint64 `json:"chunk_size"`
}

type chunkedUploadInitResponse struct {
	UploadID    string `json:"upload_id"`
	ChunkSize   uint64 `json:"chunk_size"`
	TotalChunks uint64 `json:"total_chunks"`
}

type chunkUploadResponse struct {
	Success        bool   `json:"success"`
	ChunkNumber    uint64 `json:"chunk_number"`
	ReceivedChunks int    `json:"received_chunks"`
	TotalChunks    uint64 `json:"total_chunks"`
}

type chunkedUploadCompleteRequest struct {
	UploadID string `json:"upload_id"`
}

type chunkedUploadCompleteResponse struct {
	Success  bool   `json:"success"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

type healthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp"`
}

type errorResponse struct {
	Error string `json:"error"`
}
