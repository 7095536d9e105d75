package knapsack

// Item describes one item type: its score, the capacity one unit consumes and
// how many units exist in total.
type Item struct {
	Name     string
	Value    float64
	Weight   int
	MaxCount int
}

// Result is the outcome of a single sweep.
// Selection is aligned with the input items by index.
type Result struct {
	Selection []int
	Value     float64
}

// Solver describes the behaviour required from a bounded knapsack engine.
type Solver interface {
	Solve(capacity int, items []Item) (Result, error)
}

// ProgressFunc receives the number of processed capacities and the total.
type ProgressFunc func(done, total int)

// TotalWeight returns the capacity consumed by selection.
func TotalWeight(selection []int, items []Item) int {
	total := 0
	for j, count := range selection {
		total += count * items[j].Weight
	}
	return total
}

// TotalValue returns the summed value of selection.
func TotalValue(selection []int, items []Item) float64 {
	total := 0.0
	for j, count := range selection {
		total += float64(count) * items[j].Value
	}
	return total
}
