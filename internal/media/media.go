// Package media provides blob upload and deletion over a storage backend.
//
// In production the backend is S3; tests use an in-memory backend. Objects
// are stored under folder-scoped keys so unrelated uploads cannot collide.
package media

import (
	"errors"
	"path"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

var (
	// ErrObjectNotFound is returned when deleting an object that does not exist.
	ErrObjectNotFound = errors.New("media object not found")

	// ErrEmptyFile is returned when uploading a file without content.
	ErrEmptyFile = errors.New("uploaded file is empty")
)

// Object describes a stored media object.
type Object struct {
	// Key is the storage key, in folder/uuid[ext] form.
	Key string `json:"key"`
	// Size is the object size in bytes.
	Size int `json:"size"`
}

// Service wraps a storage backend for media blobs.
type Service struct {
	storage fiber.Storage
}

// New creates a media service with the provided storage backend.
func New(storage fiber.Storage) *Service {
	if storage == nil {
		panic("media: storage is nil")
	}

	return &Service{storage: storage}
}

// Upload stores a blob under a fresh folder-scoped key and returns the
// stored object. The original filename only contributes its extension.
func (s *Service) Upload(folder, filename string, data []byte) (*Object, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}

	key := folder + "/" + uuid.NewString() + path.Ext(filename)

	if err := s.storage.Set(key, data, 0); err != nil {
		return nil, err
	}

	return &Object{Key: key, Size: len(data)}, nil
}

// Delete removes the object stored under the given key. Deleting an
// unknown key returns ErrObjectNotFound.
func (s *Service) Delete(key string) error {
	raw, err := s.storage.Get(key)
	if err != nil {
		return err
	}

	if raw == nil {
		return ErrObjectNotFound
	}

	return s.storage.Delete(key)
}
