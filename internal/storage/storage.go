package storage

import (
	"errors"
	"fmt"
	"sync"

	"github.com/eugenenazirov/cargo-allocator/internal/knapsack"
)

const maxItemTypes = 1000

var (
	// ErrInvalidItems indicates the provided catalog violates validation rules.
	ErrInvalidItems = errors.New("catalog must contain between 1 and 1000 valid item types")
)

var defaultItems = []knapsack.Item{
	{Name: "Notebook office", Value: 40, Weight: 2451, MaxCount: 205},
	{Name: "Notebook outdoor", Value: 35, Weight: 2978, MaxCount: 420},
	{Name: "Mobile phone office", Value: 80, Weight: 717, MaxCount: 450},
	{Name: "Mobile phone outdoor", Value: 30, Weight: 988, MaxCount: 60},
	{Name: "Mobile phone heavy duty", Value: 90, Weight: 1220, MaxCount: 157},
	{Name: "Tablet office small", Value: 10, Weight: 1405, MaxCount: 220},
	{Name: "Tablet office large", Value: 80, Weight: 1455, MaxCount: 620},
	{Name: "Tablet outdoor small", Value: 70, Weight: 1690, MaxCount: 250},
	{Name: "Tablet outdoor large", Value: 60, Weight: 1980, MaxCount: 540},
	{Name: "Tablet heavy duty", Value: 65, Weight: 2350, MaxCount: 370},
}

// Storage provides access to the item catalog used for allocations.
type Storage interface {
	GetItems() ([]knapsack.Item, error)
	SetItems(items []knapsack.Item) error
}

// MemoryStorage keeps the catalog in-memory and guards access with a RWMutex.
type MemoryStorage struct {
	mu    sync.RWMutex
	items []knapsack.Item
}

// NewMemoryStorage initialises storage with a copy of the default catalog.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		items: cloneItems(defaultItems),
	}
}

// DefaultItems returns a copy of the default catalog.
func DefaultItems() []knapsack.Item {
	return cloneItems(defaultItems)
}

// GetItems returns a defensive copy of the current catalog.
func (s *MemoryStorage) GetItems() ([]knapsack.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return cloneItems(s.items), nil
}

// SetItems validates and stores the provided catalog.
func (s *MemoryStorage) SetItems(items []knapsack.Item) error {
	if err := validateItems(items); err != nil {
		return err
	}

	s.mu.Lock()
	s.items = cloneItems(items)
	s.mu.Unlock()

	return nil
}

func cloneItems(src []knapsack.Item) []knapsack.Item {
	if len(src) == 0 {
		return []knapsack.Item{}
	}

	out := make([]knapsack.Item, len(src))
	copy(out, src)
	return out
}

func validateItems(items []knapsack.Item) error {
	if len(items) == 0 || len(items) > maxItemTypes {
		return ErrInvalidItems
	}
	if err := knapsack.Validate(0, items); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidItems, err)
	}
	return nil
}
