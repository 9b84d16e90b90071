package favorites

import (
	"errors"
	"os"

	"github.com/peterbourgon/diskv/v3"
)

// DiskStore is the default Store, one file per key under a base directory.
type DiskStore struct {
	d *diskv.Diskv
}

// NewDiskStore opens (creating if needed) a disk-backed store rooted at
// basePath.
func NewDiskStore(basePath string) *DiskStore {
	return &DiskStore{d: diskv.New(diskv.Options{
		BasePath:     basePath,
		Transform:    func(string) []string { return nil },
		CacheSizeMax: 1024 * 1024, // 1MB
	})}
}

// Get returns the value for key, or (nil, nil) when the key was never
// written.
func (s *DiskStore) Get(key string) ([]byte, error) {
	data, err := s.d.Read(key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

// Set durably writes value under key.
func (s *DiskStore) Set(key string, value []byte) error {
	return s.d.Write(key, value)
}
