package storage

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrFileTooLarge   = errors.New("file exceeds the maximum allowed size")
	ErrTypeNotAllowed = errors.New("file type is not allowed")
	ErrNoFile         = errors.New("no file uploaded")
	ErrFileNotFound   = errors.New("file not found")
)

// Kind identifies an upload category with its own directory, size cap
// and extension allowlist.
type Kind struct {
	Dir         string
	Prefix      string
	MaxBytes    int64
	AllowedExts []string
}

var (
	// PassportPhotos accepts scanned documents up to 10MB
	PassportPhotos = Kind{
		Dir:         "passport-photos",
		Prefix:      "passport",
		MaxBytes:    10 << 20,
		AllowedExts: []string{".jpg", ".jpeg", ".png", ".pdf"},
	}
	// PaymentScreenshots accepts proof images up to 5MB
	PaymentScreenshots = Kind{
		Dir:         "payment-screenshots",
		Prefix:      "payment",
		MaxBytes:    5 << 20,
		AllowedExts: []string{".jpg", ".jpeg", ".png", ".pdf"},
	}
	// PersonalPhotos accepts profile images up to 2MB
	PersonalPhotos = Kind{
		Dir:         "personal-photos",
		Prefix:      "personal",
		MaxBytes:    2 << 20,
		AllowedExts: []string{".jpg", ".jpeg", ".png"},
	}
)

// StoredFile describes a persisted upload
type StoredFile struct {
	FileName string `json:"file_name"`
	FilePath string `json:"file_path"`
	FileURL  string `json:"file_url"`
	Size     int64  `json:"size"`
}

// Store persists uploads on local disk under a base directory and derives
// public URLs from a base URL. Constructed once at bootstrap and injected.
type Store struct {
	baseDir string
	baseURL string
}

// New creates a store and ensures all upload directories exist
func New(baseDir, baseURL string) (*Store, error) {
	s := &Store{
		baseDir: baseDir,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
	for _, kind := range []Kind{PassportPhotos, PaymentScreenshots, PersonalPhotos} {
		if err := os.MkdirAll(filepath.Join(baseDir, kind.Dir), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create upload directory %s: %w", kind.Dir, err)
		}
	}
	return s, nil
}

// BaseDir returns the root uploads directory (for static serving)
func (s *Store) BaseDir() string {
	return s.baseDir
}

// Save validates and persists a multipart upload, returning the stable
// relative path and derived absolute URL.
func (s *Store) Save(kind Kind, header *multipart.FileHeader) (*StoredFile, error) {
	if header == nil {
		return nil, ErrNoFile
	}
	if header.Size > kind.MaxBytes {
		return nil, ErrFileTooLarge
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !kind.allows(ext) {
		return nil, ErrTypeNotAllowed
	}

	name := fmt.Sprintf("%s-%s%s", kind.Prefix, uuid.NewString(), ext)
	dst := filepath.Join(s.baseDir, kind.Dir, name)

	src, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return nil, err
	}
	defer out.Close()

	size, err := io.Copy(out, src)
	if err != nil {
		os.Remove(dst)
		return nil, err
	}

	relPath := path.Join("/uploads", kind.Dir, name)
	return &StoredFile{
		FileName: name,
		FilePath: relPath,
		FileURL:  s.baseURL + relPath,
		Size:     size,
	}, nil
}

// Delete removes a previously stored file by name
func (s *Store) Delete(kind Kind, fileName string) error {
	// Reject path traversal in user-supplied names
	if fileName != filepath.Base(fileName) {
		return ErrFileNotFound
	}
	target := filepath.Join(s.baseDir, kind.Dir, fileName)
	if _, err := os.Stat(target); err != nil {
		return ErrFileNotFound
	}
	return os.Remove(target)
}

func (k Kind) allows(ext string) bool {
	for _, allowed := range k.AllowedExts {
		if ext == allowed {
			return true
		}
	}
	return false
}
