// Package files manages the published artifacts under the serving
// directory: saving, listing, deleting and summarizing them. Filenames
// crossing this boundary are sanitized, so a caller can never address a
// path outside the directory.
package files

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"filedrop/internal/filedrop/domain"
	"filedrop/pkg/logger"
	"filedrop/pkg/sanitize"
)

// Service operates on the flat files directory. It holds no state beyond
// the directory path; the filesystem is the source of truth.
type Service struct {
	dir    string
	logger *logger.Logger
}

func NewService(dir string) *Service {
	return &Service{
		dir:    dir,
		logger: logger.WithField("component", "files"),
	}
}

// Dir returns the serving directory.
func (s *Service) Dir() string {
	return s.dir
}

// Info describes one entry in the files directory.
type Info struct {
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	Modified string `json:"modified"`
	IsDir    bool   `json:"is_dir"`
}

// Stats summarizes the directory for the admin dashboard.
type Stats struct {
	TotalFiles int    `json:"total_files"`
	TotalSize  int64  `json:"total_size"`
	FilesDir   string `json:"files_dir"`
}

// BatchResult is the per-file outcome of a batch delete.
type BatchResult struct {
	Filename string `json:"filename"`
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
}

// resolve sanitizes a client-supplied filename and maps it into the
// serving directory.
func (s *Service) resolve(filename string) (string, string, error) {
	name := sanitize.Filename(filename)
	if name == "" {
		return "", "", domain.InvalidRequest("filename %q contains no usable characters", filename)
	}
	return name, filepath.Join(s.dir, name), nil
}

// Save writes an artifact under its sanitized name. The bytes land in a
// temp file first and get renamed into place after a flush, so readers
// only ever observe the complete artifact.
func (s *Service) Save(filename string, data io.Reader) (string, int64, error) {
	name, path, err := s.resolve(filename)
	if err != nil {
		return "", 0, err
	}

	tmp, err := os.CreateTemp(s.dir, ".filedrop-upload-*")
	if err != nil {
		return "", 0, domain.Internal("failed to create temp file", err)
	}

	size, err := io.Copy(tmp, data)
	if err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", 0, domain.Internal("failed to write file", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", 0, domain.Internal("failed to flush file", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", 0, domain.Internal("failed to close file", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", 0, domain.Internal("failed to publish file", err)
	}

	s.logger.Info("file saved", "filename", name, "size", size)
	return name, size, nil
}

// List returns the directory contents sorted by name. The chunk staging
// directory and other dotfiles are internal and never listed.
func (s *Service) List() ([]Info, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, domain.Internal("failed to read files directory", err)
	}

	infos := make([]Info, 0, len(entries))
	for _, entry := range entries {
		if isHidden(entry.Name()) {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			continue // deleted between ReadDir and Stat
		}
		infos = append(infos, Info{
			Name:     entry.Name(),
			Size:     fi.Size(),
			Modified: fi.ModTime().Format("2006-01-02 15:04:05"),
			IsDir:    entry.IsDir(),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// Delete removes one file by its sanitized name.
func (s *Service) Delete(filename string) (string, error) {
	name, path, err := s.resolve(filename)
	if err != nil {
		return "", err
	}

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return "", domain.NotFound("file %q not found", name)
		}
		return "", domain.Internal(fmt.Sprintf("failed to delete %q", name), err)
	}

	s.logger.Info("file deleted", "filename", name)
	return name, nil
}

// BatchDelete removes a set of files, reporting per-file outcomes instead
// of stopping at the first failure.
func (s *Service) BatchDelete(filenames []string) []BatchResult {
	results := make([]BatchResult, 0, len(filenames))
	for _, filename := range filenames {
		name, err := s.Delete(filename)
		if err != nil {
			results = append(results, BatchResult{
				Filename: filename,
				Success:  false,
				Error:    err.Error(),
			})
			continue
		}
		results = append(results, BatchResult{Filename: name, Success: true})
	}
	return results
}

// Stats counts the published files and their combined size.
func (s *Service) Stats() (*Stats, error) {
	infos, err := s.List()
	if err != nil {
		return nil, err
	}

	stats := &Stats{}
	for _, info := range infos {
		if info.IsDir {
			continue
		}
		stats.TotalFiles++
		stats.TotalSize += info.Size
	}

	abs, err := filepath.Abs(s.dir)
	if err != nil {
		abs = s.dir
	}
	stats.FilesDir = abs
	return stats, nil
}

// isHidden reports whether a directory entry is internal bookkeeping.
// Covers the chunk staging directory and in-flight temp files alike.
func isHidden(name string) bool {
	return len(name) > 0 && name[0] == '.'
}
