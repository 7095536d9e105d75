// Package allocator splits the optimal item selection for two containers
// combined into one load per container. The split is a greedy post-process:
// the first container is packed as full as possible by weight and the second
// takes whatever remains, which may not fit. That outcome is reported as
// ErrNoFeasibleSplit rather than hidden.
package allocator
