// Package knapsack solves the bounded knapsack problem with a single forward
// sweep over capacities. Remaining stock is tracked in a StockWindow that only
// reaches back as far as the heaviest item, so memory for stock bookkeeping
// grows with the item weights rather than with the capacity.
package knapsack
