package knapsack

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"testing"
)

func TestSolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		capacity      int
		items         []Item
		wantSelection []int
		wantValue     float64
	}{
		{
			name:          "SingleItemTypeRepeated",
			capacity:      12,
			items:         []Item{{Value: 10, Weight: 5, MaxCount: 3}},
			wantSelection: []int{2},
			wantValue:     20,
		},
		{
			name:     "TwoIdenticalSingletons",
			capacity: 10,
			items: []Item{
				{Value: 10, Weight: 5, MaxCount: 1},
				{Value: 10, Weight: 5, MaxCount: 1},
			},
			wantSelection: []int{1, 1},
			wantValue:     20,
		},
		{
			name:     "ZeroCapacity",
			capacity: 0,
			items: []Item{
				{Value: 10, Weight: 5, MaxCount: 1},
				{Value: 3, Weight: 1, MaxCount: 4},
			},
			wantSelection: []int{0, 0},
			wantValue:     0,
		},
		{
			name:          "StockExhaustedBeforeCapacity",
			capacity:      5,
			items:         []Item{{Value: 10, Weight: 1, MaxCount: 2}},
			wantSelection: []int{2},
			wantValue:     20,
		},
		{
			name:     "NothingFits",
			capacity: 3,
			items: []Item{
				{Value: 7, Weight: 4, MaxCount: 2},
				{Value: 9, Weight: 6, MaxCount: 1},
			},
			wantSelection: []int{0, 0},
			wantValue:     0,
		},
		{
			name:     "ZeroStockIgnored",
			capacity: 10,
			items: []Item{
				{Value: 100, Weight: 1, MaxCount: 0},
				{Value: 1, Weight: 2, MaxCount: 5},
			},
			wantSelection: []int{0, 5},
			wantValue:     5,
		},
		{
			name:     "PrefersDenserItem",
			capacity: 6,
			items: []Item{
				{Value: 5, Weight: 3, MaxCount: 2},
				{Value: 4, Weight: 2, MaxCount: 3},
			},
			wantSelection: []int{0, 3},
			wantValue:     12,
		},
		{
			name:     "TieKeepsLowestIndex",
			capacity: 4,
			items: []Item{
				{Value: 6, Weight: 4, MaxCount: 1},
				{Value: 6, Weight: 4, MaxCount: 1},
			},
			wantSelection: []int{1, 0},
			wantValue:     6,
		},
		{
			name:     "FractionalValues",
			capacity: 3,
			items: []Item{
				{Value: 0.5, Weight: 1, MaxCount: 3},
				{Value: 1.25, Weight: 2, MaxCount: 1},
			},
			wantSelection: []int{1, 1},
			wantValue:     1.75,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := New().Solve(tc.capacity, tc.items)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !slices.Equal(got.Selection, tc.wantSelection) {
				t.Fatalf("unexpected selection: got %v want %v", got.Selection, tc.wantSelection)
			}
			if got.Value != tc.wantValue {
				t.Fatalf("unexpected value: got %v want %v", got.Value, tc.wantValue)
			}
		})
	}
}

func TestSolve_InvalidInput(t *testing.T) {
	t.Parallel()

	valid := []Item{{Value: 1, Weight: 1, MaxCount: 1}}

	tests := []struct {
		name     string
		capacity int
		items    []Item
		wantErr  error
	}{
		{name: "NegativeCapacity", capacity: -1, items: valid, wantErr: ErrInvalidCapacity},
		{name: "NoItems", capacity: 5, items: nil, wantErr: ErrNoItems},
		{name: "ZeroWeight", capacity: 5, items: []Item{{Value: 1, Weight: 0, MaxCount: 1}}, wantErr: ErrInvalidItem},
		{name: "NegativeWeight", capacity: 5, items: []Item{{Value: 1, Weight: -2, MaxCount: 1}}, wantErr: ErrInvalidItem},
		{name: "NegativeCount", capacity: 5, items: []Item{{Value: 1, Weight: 1, MaxCount: -1}}, wantErr: ErrInvalidItem},
		{name: "NegativeValue", capacity: 5, items: []Item{{Value: -1, Weight: 1, MaxCount: 1}}, wantErr: ErrInvalidItem},
		{name: "NaNValue", capacity: 5, items: []Item{{Value: math.NaN(), Weight: 1, MaxCount: 1}}, wantErr: ErrInvalidItem},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if _, err := New().Solve(tc.capacity, tc.items); !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestSolve_CapacityLimit(t *testing.T) {
	t.Parallel()

	solver := New(WithCapacityLimit(100))
	items := []Item{{Value: 1, Weight: 1, MaxCount: 1}}

	if _, err := solver.Solve(100, items); err != nil {
		t.Fatalf("capacity at the limit should be accepted: %v", err)
	}
	if _, err := solver.Solve(101, items); !errors.Is(err, ErrCapacityTooLarge) {
		t.Fatalf("expected ErrCapacityTooLarge, got %v", err)
	}
}

func TestSolve_OversizedItemDoesNotGrowWindow(t *testing.T) {
	t.Parallel()

	items := []Item{
		{Value: 100, Weight: 1 << 50, MaxCount: 1},
		{Value: 1, Weight: 1, MaxCount: 1},
	}

	got, err := New(WithCapacityLimit(100)).Solve(10, items)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(got.Selection, []int{0, 1}) || got.Value != 1 {
		t.Fatalf("unexpected result %+v", got)
	}
}

func TestWindowDepth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		maxWeight, capacity, want int
	}{
		{maxWeight: 3, capacity: 10, want: 3},
		{maxWeight: 1 << 50, capacity: 10, want: 10},
		{maxWeight: 5, capacity: 0, want: 1},
	}
	for _, tc := range tests {
		if got := windowDepth(tc.maxWeight, tc.capacity); got != tc.want {
			t.Fatalf("windowDepth(%d, %d) = %d, want %d", tc.maxWeight, tc.capacity, got, tc.want)
		}
	}
}

func TestSolve_ReportsProgress(t *testing.T) {
	t.Parallel()

	var calls [][2]int
	solver := New(WithProgress(4, func(done, total int) {
		calls = append(calls, [2]int{done, total})
	}))

	if _, err := solver.Solve(9, []Item{{Value: 1, Weight: 2, MaxCount: 3}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := [][2]int{{4, 10}, {8, 10}, {10, 10}}
	if !slices.Equal(calls, want) {
		t.Fatalf("unexpected progress calls: got %v want %v", calls, want)
	}
}

func TestSolve_MatchesFullMemoryReference(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(7, 42))
	solver := New()

	for round := 0; round < 300; round++ {
		items := randomItems(rng)
		capacity := rng.IntN(60)

		t.Run(fmt.Sprintf("round_%d", round), func(t *testing.T) {
			got, err := solver.Solve(capacity, items)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			want := referenceSolve(capacity, items)

			if !slices.Equal(got.Selection, want.Selection) || got.Value != want.Value {
				t.Fatalf("window result %+v differs from reference %+v for items %+v capacity %d",
					got, want, items, capacity)
			}
		})
	}
}

func TestSolve_Invariants(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(3, 11))
	solver := New()

	for round := 0; round < 100; round++ {
		items := randomItems(rng)
		previous := -1.0

		for capacity := 0; capacity <= 40; capacity++ {
			got, err := solver.Solve(capacity, items)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			for j, count := range got.Selection {
				if count < 0 || count > items[j].MaxCount {
					t.Fatalf("selection %v violates stock of item %d (%d)", got.Selection, j, items[j].MaxCount)
				}
			}
			if w := TotalWeight(got.Selection, items); w > capacity {
				t.Fatalf("selection %v weighs %d over capacity %d", got.Selection, w, capacity)
			}
			if v := TotalValue(got.Selection, items); v != got.Value {
				t.Fatalf("selection %v is worth %v, engine reported %v", got.Selection, v, got.Value)
			}
			if got.Value < previous {
				t.Fatalf("value dropped from %v to %v at capacity %d", previous, got.Value, capacity)
			}
			previous = got.Value

			again, err := solver.Solve(capacity, items)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !slices.Equal(again.Selection, got.Selection) || again.Value != got.Value {
				t.Fatalf("repeated solve returned %+v, first returned %+v", again, got)
			}
		}
	}
}

func TestSolve_DoesNotMutateItems(t *testing.T) {
	t.Parallel()

	items := []Item{
		{Name: "a", Value: 3, Weight: 2, MaxCount: 2},
		{Name: "b", Value: 4, Weight: 3, MaxCount: 1},
	}
	snapshot := slices.Clone(items)

	if _, err := New().Solve(7, items); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(items, snapshot) {
		t.Fatalf("items were modified: %+v", items)
	}
}

// referenceSolve runs the same capacity-major sweep but keeps the stock
// snapshot of every capacity instead of a sliding window.
func referenceSolve(capacity int, items []Item) Result {
	full := make([]int, len(items))
	for j, item := range items {
		full[j] = item.MaxCount
	}

	stock := make([][]int, capacity+1)
	best := make([]float64, capacity+1)
	for i := 0; i <= capacity; i++ {
		if i > 0 {
			best[i] = best[i-1]
		}
		chosen := -1
		for j, item := range items {
			if item.Weight > i || stock[i-item.Weight][j] <= 0 {
				continue
			}
			if candidate := best[i-item.Weight] + item.Value; candidate > best[i] {
				best[i] = candidate
				chosen = j
			}
		}

		switch {
		case chosen >= 0:
			stock[i] = slices.Clone(stock[i-items[chosen].Weight])
			stock[i][chosen]--
		case i == 0:
			stock[i] = slices.Clone(full)
		default:
			stock[i] = slices.Clone(stock[i-1])
		}
	}

	selection := make([]int, len(items))
	for j := range selection {
		selection[j] = full[j] - stock[capacity][j]
	}
	return Result{Selection: selection, Value: best[capacity]}
}

func randomItems(rng *rand.Rand) []Item {
	n := 1 + rng.IntN(5)
	items := make([]Item, n)
	for j := range items {
		items[j] = Item{
			Value:    float64(rng.IntN(20)),
			Weight:   1 + rng.IntN(9),
			MaxCount: rng.IntN(5),
		}
	}
	return items
}

func BenchmarkSolveSmall(b *testing.B) {
	solver := New()
	items := benchmarkItems()
	for i := 0; i < b.N; i++ {
		if _, err := solver.Solve(1_000, items); err != nil {
			b.Fatalf("unexpected error: %v", err)
		}
	}
}

func BenchmarkSolveLarge(b *testing.B) {
	solver := New()
	items := benchmarkItems()
	for i := 0; i < b.N; i++ {
		if _, err := solver.Solve(500_000, items); err != nil {
			b.Fatalf("unexpected error: %v", err)
		}
	}
}

func benchmarkItems() []Item {
	return []Item{
		{Value: 40, Weight: 2451, MaxCount: 205},
		{Value: 35, Weight: 2978, MaxCount: 420},
		{Value: 80, Weight: 723, MaxCount: 450},
		{Value: 90, Weight: 3500, MaxCount: 60},
		{Value: 45, Weight: 8050, MaxCount: 157},
		{Value: 15, Weight: 1300, MaxCount: 220},
		{Value: 60, Weight: 4600, MaxCount: 620},
		{Value: 65, Weight: 1200, MaxCount: 250},
	}
}
