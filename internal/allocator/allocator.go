package allocator

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/eugenenazirov/cargo-allocator/internal/knapsack"
)

var (
	// ErrInvalidContainer is returned when a container has a negative tare or
	// a tare larger than its capacity.
	ErrInvalidContainer = errors.New("container tare must be between 0 and its capacity")
	// ErrNoFeasibleSplit is returned when the second container would be overloaded
	// by the items left over from the first one.
	ErrNoFeasibleSplit = errors.New("no feasible split found")
)

// Container is a vehicle or bin with a gross weight limit. Tare is the weight
// already on board before any item is loaded.
type Container struct {
	Name     string
	Capacity int
	Tare     int
}

// NetCapacity is the weight left for items.
func (c Container) NetCapacity() int {
	return c.Capacity - c.Tare
}

func (c Container) validate() error {
	if c.Tare < 0 || c.Capacity < 0 || c.NetCapacity() < 0 {
		return fmt.Errorf("%w: %q has capacity %d and tare %d", ErrInvalidContainer, c.Name, c.Capacity, c.Tare)
	}
	return nil
}

// Load is the share of a plan assigned to one container.
type Load struct {
	Container Container
	Selection []int
	Value     float64
	// Payload is the weight of the selected items, GrossWeight adds the tare.
	Payload     int
	GrossWeight int
	Unused      int
}

// Plan is the outcome of splitting the combined optimum across two containers.
type Plan struct {
	Selection   []int
	Value       float64
	Payload     int
	GrossWeight int
	Capacity    int
	Unused      int
	Loads       [2]Load
	Feasible    bool
}

// Allocator finds the best item multiset for two containers combined and then
// tries to split it between them.
type Allocator struct {
	solver knapsack.Solver
	logger *zap.Logger
}

// New constructs an Allocator around the provided solver.
func New(solver knapsack.Solver, logger *zap.Logger) *Allocator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Allocator{
		solver: solver,
		logger: logger,
	}
}

// Allocate runs the combined optimisation and packs the first container as
// full as possible by weight; the second container receives the rest.
// When the rest does not fit, the populated plan is returned together with
// ErrNoFeasibleSplit.
func (a *Allocator) Allocate(items []knapsack.Item, first, second Container) (Plan, error) {
	if err := first.validate(); err != nil {
		return Plan{}, err
	}
	if err := second.validate(); err != nil {
		return Plan{}, err
	}

	combined := first.NetCapacity() + second.NetCapacity()
	a.logger.Debug("solving combined capacity",
		zap.Int("capacity", combined),
		zap.Int("item_types", len(items)),
	)
	total, err := a.solver.Solve(combined, items)
	if err != nil {
		return Plan{}, fmt.Errorf("solve combined capacity: %w", err)
	}

	// Second pass scores every unit by its weight and only offers what the
	// combined optimum selected.
	byWeight := make([]knapsack.Item, len(items))
	for j, item := range items {
		byWeight[j] = knapsack.Item{
			Name:     item.Name,
			Value:    float64(item.Weight),
			Weight:   item.Weight,
			MaxCount: total.Selection[j],
		}
	}
	a.logger.Debug("packing first container",
		zap.String("container", first.Name),
		zap.Int("capacity", first.NetCapacity()),
	)
	firstPass, err := a.solver.Solve(first.NetCapacity(), byWeight)
	if err != nil {
		return Plan{}, fmt.Errorf("pack %q: %w", first.Name, err)
	}

	rest := make([]int, len(items))
	for j := range rest {
		rest[j] = total.Selection[j] - firstPass.Selection[j]
	}

	payload := knapsack.TotalWeight(total.Selection, items)
	plan := Plan{
		Selection:   total.Selection,
		Value:       total.Value,
		Payload:     payload,
		GrossWeight: payload + first.Tare + second.Tare,
		Capacity:    first.Capacity + second.Capacity,
		Unused:      combined - payload,
		Loads: [2]Load{
			newLoad(first, firstPass.Selection, items),
			newLoad(second, rest, items),
		},
	}
	plan.Feasible = plan.Unused-plan.Loads[0].Unused > 0

	if !plan.Feasible {
		a.logger.Info("split rejected",
			zap.Int("total_unused", plan.Unused),
			zap.Int("first_unused", plan.Loads[0].Unused),
		)
		return plan, ErrNoFeasibleSplit
	}

	a.logger.Debug("split accepted",
		zap.Float64("value", plan.Value),
		zap.Int("payload", plan.Payload),
	)
	return plan, nil
}

func newLoad(c Container, selection []int, items []knapsack.Item) Load {
	payload := knapsack.TotalWeight(selection, items)
	return Load{
		Container:   c,
		Selection:   selection,
		Value:       knapsack.TotalValue(selection, items),
		Payload:     payload,
		GrossWeight: payload + c.Tare,
		Unused:      c.NetCapacity() - payload,
	}
}
