package uploader

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
)

// Source is a read-only random access view of the file being uploaded.
// *bytes.Reader, *strings.Reader and *io.SectionReader satisfy it.
type Source interface {
	io.ReaderAt
	Size() int64
}

// FileSource is a Source backed by a file on disk.
type FileSource struct {
	file        *os.File
	size        int64
	name        string
	contentType string
}

// OpenFile opens path for upload and sniffs its content type from the header bytes.
func OpenFile(path string) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat source: %w", err)
	}
	if info.IsDir() {
		f.Close()
		return nil, invalidInput("%s is a directory", path)
	}

	mime, err := mimetype.DetectReader(io.NewSectionReader(f, 0, info.Size()))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("detect content type: %w", err)
	}

	return &FileSource{
		file:        f,
		size:        info.Size(),
		name:        filepath.Base(path),
		contentType: mime.String(),
	}, nil
}

func (s *FileSource) ReadAt(p []byte, off int64) (int, error) {
	return s.file.ReadAt(p, off)
}

func (s *FileSource) Size() int64 {
	return s.size
}

func (s *FileSource) Name() string {
	return s.name
}

func (s *FileSource) ContentType() string {
	return s.contentType
}

// Metadata fills FileMetadata from the file.
func (s *FileSource) Metadata() FileMetadata {
	return FileMetadata{Name: s.name, Size: s.size, ContentType: s.contentType}
}

func (s *FileSource) Close() error {
	return s.file.Close()
}
