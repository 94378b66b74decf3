package pkg

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var (
	ErrNotAnImage    = errors.New("uploaded file is not an image")
	ErrImageTooLarge = errors.New("uploaded image is too large")
)

// imageTypes are the raster formats accepted for post images. Vector formats
// can carry script and are served from our own origin.
var imageTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// MediaStore keeps uploaded post images on the local filesystem.
type MediaStore struct {
	root     string
	urlBase  string
	maxBytes int64
}

func NewMediaStore(root, urlBase string, maxBytes int64) *MediaStore {
	if maxBytes <= 0 {
		maxBytes = 5 << 20
	}
	return &MediaStore{root: root, urlBase: strings.TrimSuffix(urlBase, "/"), maxBytes: maxBytes}
}

func (s *MediaStore) Root() string { return s.root }

func (s *MediaStore) URLBase() string { return s.urlBase }

// SaveImage validates r as an image and writes it under posts/. The returned
// name is relative to the store root and is what gets persisted on the post.
func (s *MediaStore) SaveImage(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return "", ErrImageTooLarge
	}
	mt := mimetype.Detect(data)
	if !mimetype.EqualsAny(mt.String(), imageTypes...) {
		return "", ErrNotAnImage
	}

	name := path.Join("posts", uuid.NewString()+mt.Extension())
	dst := filepath.Join(s.root, filepath.FromSlash(name))
	if err = os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create media dir: %w", err)
	}
	if err = os.WriteFile(dst, data, 0o644); err != nil {
		return "", fmt.Errorf("write media file: %w", err)
	}
	return name, nil
}

// URL maps a stored name to its public path.
func (s *MediaStore) URL(name string) string {
	if name == "" {
		return ""
	}
	return s.urlBase + "/" + name
}
