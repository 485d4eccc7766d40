// Package images provides recipe image decoding and storage.
package images

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Storage manages image filesystem operations.
// Thread-safe for concurrent operations.
type Storage struct {
	basePath string
	mu       sync.RWMutex // Protects file operations
}

// NewStorage creates a new Storage instance for recipe images.
// basePath should be the media directory (e.g., ~/Ladle/data/media).
// Images will be stored in {basePath}/recipes/.
func NewStorage(basePath string) (*Storage, error) {
	return NewStorageWithSubdir(basePath, "recipes")
}

// NewStorageWithSubdir creates a new Storage instance with a custom subdirectory.
// Example: NewStorageWithSubdir("/data/media", "avatars") -> /data/media/avatars/.
func NewStorageWithSubdir(basePath, subdir string) (*Storage, error) {
	if basePath == "" {
		return nil, fmt.Errorf("base path cannot be empty")
	}
	if subdir == "" {
		return nil, fmt.Errorf("subdirectory cannot be empty")
	}

	storagePath := filepath.Join(basePath, subdir)

	// Create directory if it doesn't exist.
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s directory: %w", subdir, err)
	}

	return &Storage{
		basePath: storagePath,
	}, nil
}

// DecodeDataURI decodes a base64 data URI ("data:image/png;base64,....")
// into raw bytes and a file extension. Plain base64 without the prefix is
// accepted and treated as JPEG.
func DecodeDataURI(uri string) (data []byte, ext string, err error) {
	ext = "jpg"
	payload := uri

	if strings.HasPrefix(uri, "data:") {
		header, rest, ok := strings.Cut(uri, ",")
		if !ok {
			return nil, "", fmt.Errorf("invalid data URI: missing payload")
		}
		payload = rest

		mediaType := strings.TrimPrefix(header, "data:")
		mediaType, _, _ = strings.Cut(mediaType, ";")
		if !strings.HasPrefix(mediaType, "image/") {
			return nil, "", fmt.Errorf("unsupported media type: %s", mediaType)
		}
		switch sub := strings.TrimPrefix(mediaType, "image/"); sub {
		case "jpeg", "jpg":
			ext = "jpg"
		case "png":
			ext = "png"
		case "gif":
			ext = "gif"
		case "webp":
			ext = "webp"
		default:
			return nil, "", fmt.Errorf("unsupported image type: %s", sub)
		}
	}

	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("invalid base64 image data: %w", err)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("image data cannot be empty")
	}

	return data, ext, nil
}

// Save stores image data for an entity and returns the stored filename.
// Filename format: {id}.{ext}.
func (s *Storage) Save(id, ext string, imgData []byte) (string, error) {
	if id == "" {
		return "", fmt.Errorf("ID cannot be empty")
	}
	if ext == "" {
		ext = "jpg"
	}

	if len(imgData) == 0 {
		return "", fmt.Errorf("image data cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	name := fmt.Sprintf("%s.%s", id, ext)
	path := filepath.Join(s.basePath, name)

	// Write file with appropriate permissions.
	if err := os.WriteFile(path, imgData, 0644); err != nil {
		return "", fmt.Errorf("failed to write image file: %w", err)
	}

	return name, nil
}

// Get retrieves image data by stored filename.
func (s *Storage) Get(name string) ([]byte, error) {
	if name == "" {
		return nil, fmt.Errorf("name cannot be empty")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("image not found for %s: %w", name, err)
		}
		return nil, fmt.Errorf("failed to read image file: %w", err)
	}

	return data, nil
}

// Exists checks if a stored image exists.
func (s *Storage) Exists(name string) bool {
	if name == "" {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, err := os.Stat(s.Path(name))
	return err == nil
}

// Delete removes a stored image.
func (s *Storage) Delete(name string) error {
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.Path(name)); err != nil {
		if os.IsNotExist(err) {
			// Already deleted, not an error.
			return nil
		}
		return fmt.Errorf("failed to delete image file: %w", err)
	}

	return nil
}

// Hash computes SHA256 hash of a stored image.
// Returns hex-encoded string for ETag/cache validation.
func (s *Storage) Hash(name string) (string, error) {
	data, err := s.Get(name)
	if err != nil {
		return "", err
	}

	hash := sha256.Sum256(data)
	return fmt.Sprintf("%x", hash), nil
}

// Path returns the full filesystem path for a stored filename.
func (s *Storage) Path(name string) string {
	return filepath.Join(s.basePath, name)
}
