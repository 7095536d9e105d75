// Package report renders allocation plans for people: a plain-text summary
// for terminals and HTTP clients, and a one-page PDF.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/eugenenazirov/cargo-allocator/internal/allocator"
	"github.com/eugenenazirov/cargo-allocator/internal/knapsack"
)

// WriteText writes the summary of a feasible plan followed by a per-item table.
func WriteText(w io.Writer, plan allocator.Plan, items []knapsack.Item) error {
	var b strings.Builder

	b.WriteString("The following solution was discovered\n")
	fmt.Fprintf(&b, "Total items transported: %s\n", formatVector(plan.Selection))
	fmt.Fprintf(&b, "Total value: %s\n", formatValue(plan.Value))
	fmt.Fprintf(&b, "Total weight: %s of %s grams\n", grams(plan.GrossWeight), grams(plan.Capacity))

	for _, load := range plan.Loads {
		b.WriteString("\n")
		name := containerName(load.Container)
		fmt.Fprintf(&b, "Items in %s: %s\n", name, formatVector(load.Selection))
		fmt.Fprintf(&b, "%s value: %s\n", name, formatValue(load.Value))
		fmt.Fprintf(&b, "%s weight utilization: %s of %s grams, %s unused grams\n",
			name, grams(load.GrossWeight), grams(load.Container.Capacity), grams(load.Unused))
	}
	b.WriteString("\n")

	if _, err := io.WriteString(w, b.String()); err != nil {
		return err
	}
	return writeItemTable(w, plan, items)
}

// WriteInfeasible explains why a plan could not be split.
func WriteInfeasible(w io.Writer, plan allocator.Plan) error {
	first, second := plan.Loads[0], plan.Loads[1]

	var b strings.Builder
	b.WriteString("No feasible split found\n")
	fmt.Fprintf(&b, "Best combined selection: %s (value %s)\n", formatVector(plan.Selection), formatValue(plan.Value))
	fmt.Fprintf(&b, "Combined unused capacity: %s grams\n", grams(plan.Unused))
	fmt.Fprintf(&b, "%s unused capacity after packing: %s grams\n", containerName(first.Container), grams(first.Unused))
	fmt.Fprintf(&b, "%s would carry %s of %s grams\n",
		containerName(second.Container), grams(second.GrossWeight), grams(second.Container.Capacity))

	_, err := io.WriteString(w, b.String())
	return err
}

func writeItemTable(w io.Writer, plan allocator.Plan, items []knapsack.Item) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "Item\tWeight\tValue\tAvailable\tSelected\t%s\t%s\t\n",
		containerName(plan.Loads[0].Container), containerName(plan.Loads[1].Container))

	for j, item := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t\n",
			itemName(item, j),
			humanize.Comma(int64(item.Weight)),
			formatValue(item.Value),
			item.MaxCount,
			at(plan.Selection, j),
			at(plan.Loads[0].Selection, j),
			at(plan.Loads[1].Selection, j),
		)
	}
	return tw.Flush()
}

func at(selection []int, j int) int {
	if j < len(selection) {
		return selection[j]
	}
	return 0
}

func containerName(c allocator.Container) string {
	if c.Name == "" {
		return "Container"
	}
	return c.Name
}

func itemName(item knapsack.Item, j int) string {
	if item.Name == "" {
		return fmt.Sprintf("#%d", j+1)
	}
	return item.Name
}

func grams(v int) string {
	return humanize.Comma(int64(v))
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatVector(selection []int) string {
	parts := make([]string, len(selection))
	for i, v := range selection {
		parts[i] = strconv.Itoa(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
