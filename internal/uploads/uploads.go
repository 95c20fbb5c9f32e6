// Package uploads stores user-supplied files on local disk under per-purpose buckets.
package uploads

import (
	"bhrc/backend/internal/apperrors"
	"bhrc/backend/internal/config"
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// sniffLen is how much of a file is inspected to detect its type.
const sniffLen = 3072

// File describes a stored upload.
type File struct {
	FileName     string `json:"file_name"`
	OriginalName string `json:"original_name"`
	// Path is relative to the store root, e.g. "complaints/<uuid>.pdf".
	Path     string `json:"path"`
	MimeType string `json:"mime_type"`
	Size     int64  `json:"size"`
}

// Store writes files beneath Root/<bucket>/ under generated names.
type Store struct {
	Root    string
	MaxSize int64
	// Types lists the accepted MIME types per bucket.
	Types map[string][]string
}

// NewStore creates a store accepting config.UploadTypes.
func NewStore(root string, maxSize int64) *Store {
	return &Store{Root: root, MaxSize: maxSize, Types: config.UploadTypes}
}

// Save stores a multipart upload in bucket.
func (s *Store) Save(bucket string, fh *multipart.FileHeader) (File, error) {
	if fh.Size > s.MaxSize {
		return File{}, tooLarge(fh.Filename, s.MaxSize)
	}
	f, err := fh.Open()
	if err != nil {
		return File{}, apperrors.NewUnexpected("failed to read upload", err)
	}
	defer f.Close()
	return s.SaveReader(bucket, fh.Filename, f)
}

// SaveReader stores the content of r in bucket. The type is detected from the
// content, never from originalName.
func (s *Store) SaveReader(bucket, originalName string, r io.Reader) (File, error) {
	allowed, ok := s.Types[bucket]
	if !ok {
		return File{}, apperrors.NewUnexpected(fmt.Sprintf("unknown upload bucket %q", bucket))
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return File{}, apperrors.NewUnexpected("failed to read upload", err)
	}
	head = head[:n]
	if n == 0 {
		return File{}, apperrors.NewValidation("file", "Uploaded file is empty")
	}

	mt := mimetype.Detect(head)
	if !accepts(allowed, mt) {
		return File{}, apperrors.NewValidation("file", fmt.Sprintf("File type %s is not allowed", mt.String()))
	}

	dir := filepath.Join(s.Root, bucket)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return File{}, apperrors.NewUnexpected("failed to prepare upload directory", err)
	}

	ext := mt.Extension()
	if ext == "" {
		ext = strings.ToLower(filepath.Ext(originalName))
	}
	name := uuid.New().String() + ext
	full := filepath.Join(dir, name)

	dst, err := os.OpenFile(full, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return File{}, apperrors.NewUnexpected("failed to create upload", err)
	}
	written, err := io.Copy(dst, io.MultiReader(bytes.NewReader(head), io.LimitReader(r, s.MaxSize-int64(n)+1)))
	closeErr := dst.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(full)
		return File{}, apperrors.NewUnexpected("failed to write upload", err)
	}
	if written > s.MaxSize {
		_ = os.Remove(full)
		return File{}, tooLarge(originalName, s.MaxSize)
	}

	return File{
		FileName:     name,
		OriginalName: filepath.Base(originalName),
		Path:         bucket + "/" + name,
		MimeType:     mt.String(),
		Size:         written,
	}, nil
}

// Remove deletes stored files by their relative paths. Missing files are ignored.
func (s *Store) Remove(paths ...string) error {
	var errs []error
	for _, p := range paths {
		if p == "" {
			continue
		}
		// Cleaning against "/" keeps the path inside Root.
		full := filepath.Join(s.Root, filepath.Clean("/"+p))
		if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func accepts(allowed []string, mt *mimetype.MIME) bool {
	for _, a := range allowed {
		if mt.Is(a) {
			return true
		}
	}
	return false
}

func tooLarge(name string, limit int64) error {
	return apperrors.NewValidation("file", fmt.Sprintf("%s exceeds the %d MB upload limit", filepath.Base(name), limit>>20))
}
