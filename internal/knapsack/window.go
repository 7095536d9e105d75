package knapsack

// StockWindow keeps the remaining per-item stock for the most recent Depth
// capacities of a sweep. Snapshots live in a single backing slice that is
// reused as a ring, so memory stays at depth*len(items) regardless of capacity.
type StockWindow struct {
	slots  [][]int
	newest int
}

// NewStockWindow fills a window of the given depth with copies of maxCounts.
// Depth must be at least 1.
func NewStockWindow(maxCounts []int, depth int) *StockWindow {
	if depth < 1 {
		depth = 1
	}

	width := len(maxCounts)
	backing := make([]int, depth*width)
	slots := make([][]int, depth)
	for d := range slots {
		slot := backing[d*width : (d+1)*width : (d+1)*width]
		copy(slot, maxCounts)
		slots[d] = slot
	}

	return &StockWindow{
		slots:  slots,
		newest: depth - 1,
	}
}

// Depth reports how many snapshots the window retains.
func (w *StockWindow) Depth() int {
	return len(w.slots)
}

// At returns the snapshot distance steps behind the newest one.
// The slice is a view into the window and must not be modified; it is only
// valid until the next call to Push.
func (w *StockWindow) At(distance int) []int {
	depth := len(w.slots)
	if distance < 0 || distance >= depth {
		panic("knapsack: stock window distance out of range")
	}
	return w.slots[(w.newest-distance+depth)%depth]
}

// Push appends a copy of base with one unit of item removed and evicts the
// oldest snapshot. An item of -1 appends an unmodified copy.
func (w *StockWindow) Push(base []int, item int) {
	oldest := (w.newest + 1) % len(w.slots)
	slot := w.slots[oldest]
	// base may be the oldest slot itself; copy handles the overlap.
	copy(slot, base)
	if item >= 0 {
		slot[item]--
	}
	w.newest = oldest
}
