package knapsack

import (
	"fmt"
	"math"
)

// Option configures the engine returned by New.
type Option func(*dpSolver)

// WithCapacityLimit rejects capacities above limit. Zero or less disables the check.
func WithCapacityLimit(limit int) Option {
	return func(s *dpSolver) {
		s.capacityLimit = limit
	}
}

// WithProgress invokes fn every `every` capacities and once when the sweep completes.
func WithProgress(every int, fn ProgressFunc) Option {
	return func(s *dpSolver) {
		s.progressEvery = every
		s.progress = fn
	}
}

type dpSolver struct {
	capacityLimit int
	progressEvery int
	progress      ProgressFunc
}

// New creates a Solver that sweeps capacities in ascending order and tracks
// remaining stock in a StockWindow as deep as the heaviest item that fits.
func New(opts ...Option) Solver {
	s := &dpSolver{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *dpSolver) Solve(capacity int, items []Item) (Result, error) {
	if err := Validate(capacity, items); err != nil {
		return Result{}, err
	}
	if s.capacityLimit > 0 && capacity > s.capacityLimit {
		return Result{}, fmt.Errorf("%w: %d > %d", ErrCapacityTooLarge, capacity, s.capacityLimit)
	}

	maxCounts := make([]int, len(items))
	maxWeight := 0
	for j, item := range items {
		maxCounts[j] = item.MaxCount
		if item.Weight > maxWeight {
			maxWeight = item.Weight
		}
	}

	// The newest snapshot always belongs to capacity i-1 when step i starts,
	// so the stock at capacity i-w sits w-1 steps back. Items heavier than
	// capacity never reach a lookup, so the window never needs to be deeper
	// than capacity.
	window := NewStockWindow(maxCounts, windowDepth(maxWeight, capacity))
	best := make([]float64, capacity+1)
	total := capacity + 1

	for i := 0; i <= capacity; i++ {
		if i > 0 {
			best[i] = best[i-1]
		}

		chosen := -1
		for j, item := range items {
			if item.Weight > i || window.At(item.Weight - 1)[j] <= 0 {
				continue
			}
			if candidate := best[i-item.Weight] + item.Value; candidate > best[i] {
				best[i] = candidate
				chosen = j
			}
		}

		if chosen >= 0 {
			window.Push(window.At(items[chosen].Weight-1), chosen)
		} else {
			window.Push(window.At(0), -1)
		}

		if s.progress != nil && s.progressEvery > 0 && (i+1)%s.progressEvery == 0 && i+1 < total {
			s.progress(i+1, total)
		}
	}
	if s.progress != nil {
		s.progress(total, total)
	}

	remaining := window.At(0)
	selection := make([]int, len(items))
	for j := range selection {
		selection[j] = maxCounts[j] - remaining[j]
	}

	return Result{
		Selection: selection,
		Value:     best[capacity],
	}, nil
}

func windowDepth(maxWeight, capacity int) int {
	return max(1, min(maxWeight, capacity))
}

// Validate checks the engine preconditions without running a sweep.
func Validate(capacity int, items []Item) error {
	if capacity < 0 {
		return ErrInvalidCapacity
	}
	if len(items) == 0 {
		return ErrNoItems
	}
	for j, item := range items {
		switch {
		case item.Weight < 1:
			return fmt.Errorf("%w: item %d has weight %d", ErrInvalidItem, j, item.Weight)
		case item.MaxCount < 0:
			return fmt.Errorf("%w: item %d has count %d", ErrInvalidItem, j, item.MaxCount)
		case item.Value < 0 || math.IsNaN(item.Value) || math.IsInf(item.Value, 0):
			return fmt.Errorf("%w: item %d has value %v", ErrInvalidItem, j, item.Value)
		}
	}
	return nil
}
