package storage

import (
	"fmt"
	"path/filepath"
	"sync"
)

// Manager lazily opens one CommuneStorage per commune slug under a shared
// storage directory.
type Manager struct {
	storageDir string
	storages   map[string]*CommuneStorage
	mu         sync.RWMutex
}

func NewManager(storageDir string) *Manager {
	return &Manager{
		storageDir: storageDir,
		storages:   make(map[string]*CommuneStorage),
	}
}

// GetStorage returns (opening if needed) the storage for a commune. An empty
// commune slug is rejected: callers must never fetch records before their
// scope key is resolved.
func (m *Manager) GetStorage(commune string) (*CommuneStorage, error) {
	if commune == "" {
		return nil, fmt.Errorf("commune is required")
	}

	m.mu.RLock()
	storage, exists := m.storages[commune]
	m.mu.RUnlock()

	if exists {
		return storage, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if storage, exists := m.storages[commune]; exists {
		return storage, nil
	}

	dbPath := filepath.Join(m.storageDir, fmt.Sprintf("%s.db", commune))
	storage, err := NewCommuneStorage(dbPath, commune)
	if err != nil {
		return nil, fmt.Errorf("creating storage for %s: %w", commune, err)
	}

	m.storages[commune] = storage
	return storage, nil
}

// Communes returns the slugs with an open storage.
func (m *Manager) Communes() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	communes := make([]string, 0, len(m.storages))
	for slug := range m.storages {
		communes = append(communes, slug)
	}
	return communes
}

// Stats aggregates per-commune stats plus overall totals.
func (m *Manager) Stats() (map[string]any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := make(map[string]any)
	totalRecords := 0

	for commune, storage := range m.storages {
		communeStats, err := storage.Stats()
		if err != nil {
			return nil, fmt.Errorf("getting stats for %s: %w", commune, err)
		}

		stats[commune] = communeStats
		if count, ok := communeStats["total_records"].(int); ok {
			totalRecords += count
		}
	}

	stats["total_records"] = totalRecords
	stats["total_communes"] = len(m.storages)

	return stats, nil
}

func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for commune, storage := range m.storages {
		if err := storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing storage %s: %w", commune, err))
		}
	}

	m.storages = make(map[string]*CommuneStorage)

	if len(errs) > 0 {
		return fmt.Errorf("errors closing storages: %v", errs)
	}

	return nil
}

// OptimizeAll runs PRAGMA optimize on every open commune database.
func (m *Manager) OptimizeAll() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var errs []error
	for commune, storage := range m.storages {
		if err := storage.Optimize(); err != nil {
			errs = append(errs, fmt.Errorf("optimizing storage %s: %w", commune, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors optimizing storages: %v", errs)
	}

	return nil
}

// AnalyzeAll runs ANALYZE on every open commune database.
func (m *Manager) AnalyzeAll() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var errs []error
	for commune, storage := range m.storages {
		if err := storage.Analyze(); err != nil {
			errs = append(errs, fmt.Errorf("analyzing storage %s: %w", commune, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors analyzing storages: %v", errs)
	}

	return nil
}

// WALCheckpointAll truncates the WAL of every open commune database.
func (m *Manager) WALCheckpointAll() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var errs []error
	for commune, storage := range m.storages {
		if err := storage.WALCheckpoint(); err != nil {
			errs = append(errs, fmt.Errorf("WAL checkpoint for storage %s: %w", commune, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors in WAL checkpoint: %v", errs)
	}

	return nil
}
