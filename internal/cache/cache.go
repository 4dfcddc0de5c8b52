// Package cache provides a key-value cache service over a storage backend.
//
// In production the backend is Redis; tests use an in-memory backend.
package cache

import (
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
)

// ErrNilStorage is used as panic message when the storage backend is nil.
const ErrNilStorage = "cache: storage is nil"

// pingKey is the probe key written by Ping.
const pingKey = "guardpost:ping"

// Service wraps a storage backend with JSON value encoding.
type Service struct {
	storage fiber.Storage
}

// New creates a cache service with the provided storage backend.
func New(storage fiber.Storage) *Service {
	if storage == nil {
		panic(ErrNilStorage)
	}

	return &Service{storage: storage}
}

// Set stores a value under the given key with an expiration duration.
// A zero duration stores the value without expiry.
func (s *Service) Set(key string, value interface{}, exp time.Duration) error {
	out, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return s.storage.Set(key, out, exp)
}

// Get reads the value stored under the given key into dest.
// A cache miss returns (false, nil).
func (s *Service) Get(key string, dest interface{}) (bool, error) {
	raw, err := s.storage.Get(key)
	if err != nil {
		return false, err
	}

	if raw == nil {
		return false, nil
	}

	return true, json.Unmarshal(raw, dest)
}

// Delete removes the value stored under the given key.
func (s *Service) Delete(key string) error {
	return s.storage.Delete(key)
}

// Ping writes a short-lived probe key to verify the backend is reachable.
func (s *Service) Ping() error {
	return s.storage.Set(pingKey, []byte("ok"), time.Minute)
}
