// Package upload handles CV file intake. Files are size-capped, restricted to
// document types, renamed to random identifiers, and encrypted at rest.
package upload

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/avoda-labs/jobboard/backend/internal/crypto"
)

// MaxFileSize is the largest accepted CV upload.
const MaxFileSize = 5 << 20 // 5MB

var allowedExtensions = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
}

// Store persists encrypted CV files on disk under a flat directory.
type Store struct {
	dir    string
	sealer *crypto.Sealer
}

// NewStore creates the upload directory if needed.
func NewStore(dir string, sealer *crypto.Sealer) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{dir: dir, sealer: sealer}, nil
}

// Save validates, encrypts and stores an uploaded file. It returns the opaque
// stored name. The original filename never reaches the filesystem; only its
// extension survives, for content-type detection on download.
func (s *Store) Save(file multipart.File, header *multipart.FileHeader) (string, error) {
	if header.Size > MaxFileSize {
		return "", fmt.Errorf("file exceeds %d bytes", MaxFileSize)
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedExtensions[ext] {
		return "", fmt.Errorf("file type %q not allowed", ext)
	}

	data, err := io.ReadAll(io.LimitReader(file, MaxFileSize+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if len(data) > MaxFileSize {
		return "", fmt.Errorf("file exceeds %d bytes", MaxFileSize)
	}

	sealed, err := s.sealer.Seal(data)
	if err != nil {
		return "", fmt.Errorf("encrypt upload: %w", err)
	}

	name := uuid.New().String() + ext
	if err := os.WriteFile(filepath.Join(s.dir, name+".bin"), sealed, 0o640); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	return name, nil
}

// Open reads and decrypts a stored file by its opaque name.
func (s *Store) Open(name string) ([]byte, error) {
	// Reject anything that could escape the upload directory.
	if name != filepath.Base(name) || strings.Contains(name, "..") {
		return nil, fmt.Errorf("invalid file name")
	}

	sealed, err := os.ReadFile(filepath.Join(s.dir, name+".bin"))
	if err != nil {
		return nil, fmt.Errorf("read stored file: %w", err)
	}

	data, err := s.sealer.Open(sealed)
	if err != nil {
		return nil, fmt.Errorf("decrypt stored file: %w", err)
	}
	return data, nil
}

// Delete removes a stored file. Missing files are not an error.
func (s *Store) Delete(name string) error {
	if name != filepath.Base(name) || strings.Contains(name, "..") {
		return fmt.Errorf("invalid file name")
	}
	err := os.Remove(filepath.Join(s.dir, name+".bin"))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// ContentType maps a stored name's extension to the MIME type served on
// download.
func ContentType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return "application/pdf"
	case ".doc":
		return "application/msword"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	default:
		return "application/octet-stream"
	}
}
