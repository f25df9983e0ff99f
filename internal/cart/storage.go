package cart

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Snapshot is the persisted form of a cart: line items without embedded
// product data, plus the coupon code. Prices are re-joined against the
// catalog on load.
type Snapshot struct {
	Items      []SnapshotItem `json:"items"`
	CouponCode string         `json:"coupon_code,omitempty"`
}

type SnapshotItem struct {
	ProductID string `json:"product_id"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity"`
}

// Storage is the durable persistence port for carts, keyed by cart id.
type Storage interface {
	Load(id string) (*Snapshot, error)
	Save(id string, snap *Snapshot) error
	Clear(id string) error
}

// FileStorage persists one JSON snapshot per cart id under a directory.
type FileStorage struct {
	dir string
}

func NewFileStorage(dir string) (*FileStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cart storage dir: %w", err)
	}
	return &FileStorage{dir: dir}, nil
}

func (s *FileStorage) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

func (s *FileStorage) Load(id string) (*Snapshot, error) {
	data, err := os.ReadFile(s.path(id))
	if os.IsNotExist(err) {
		return &Snapshot{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cart snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		// a corrupt snapshot starts the session with an empty cart
		return &Snapshot{}, nil
	}
	return &snap, nil
}

func (s *FileStorage) Save(id string, snap *Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal cart snapshot: %w", err)
	}
	if err := os.WriteFile(s.path(id), data, 0o644); err != nil {
		return fmt.Errorf("failed to write cart snapshot: %w", err)
	}
	return nil
}

func (s *FileStorage) Clear(id string) error {
	err := os.Remove(s.path(id))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear cart snapshot: %w", err)
	}
	return nil
}

// MemoryStorage is an in-memory Storage for tests.
type MemoryStorage struct {
	snaps map[string]*Snapshot
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{snaps: make(map[string]*Snapshot)}
}

func (s *MemoryStorage) Load(id string) (*Snapshot, error) {
	if snap, ok := s.snaps[id]; ok {
		copied := *snap
		return &copied, nil
	}
	return &Snapshot{}, nil
}

func (s *MemoryStorage) Save(id string, snap *Snapshot) error {
	copied := *snap
	copied.Items = append([]SnapshotItem(nil), snap.Items...)
	s.snaps[id] = &copied
	return nil
}

func (s *MemoryStorage) Clear(id string) error {
	delete(s.snaps, id)
	return nil
}
