package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// ErrUnsafeImageName is returned when a cover name would leave the images directory.
var ErrUnsafeImageName = errors.New("image name escapes the images directory")

// ImageSave describes one written cover file.
type ImageSave struct {
	Path        string
	Overwrote   bool
	PreviousURL string
}

// ImageStore writes cover images as <name>.jpg and remembers which book
// last wrote each file, so overwrites can be reported.
type ImageStore struct {
	dir     string
	written *lru.Cache[string, string]
}

// NewImageStore creates dir if needed. trackerSize bounds the number of
// remembered file names.
func NewImageStore(dir string, trackerSize int) (*ImageStore, error) {
	if err := EnsureDir(dir); err != nil {
		return nil, err
	}
	written, err := lru.New[string, string](trackerSize)
	if err != nil {
		return nil, fmt.Errorf("create overwrite tracker: %w", err)
	}
	return &ImageStore{dir: dir, written: written}, nil
}

// Dir returns the destination directory.
func (s *ImageStore) Dir() string {
	return s.dir
}

// Save writes data verbatim to <name>.jpg. An existing file is replaced.
// Names holding a path separator are rejected with ErrUnsafeImageName.
func (s *ImageStore) Save(name, productURL string, data []byte) (ImageSave, error) {
	if strings.ContainsAny(name, `/\`) {
		return ImageSave{}, fmt.Errorf("%q: %w", name, ErrUnsafeImageName)
	}
	fileName := name + ".jpg"
	path := filepath.Join(s.dir, fileName)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return ImageSave{}, fmt.Errorf("write image %q: %w", path, err)
	}

	result := ImageSave{Path: path}
	if previous, ok := s.written.Peek(fileName); ok && previous != productURL {
		result.Overwrote = true
		result.PreviousURL = previous
	}
	s.written.Add(fileName, productURL)
	return result, nil
}
