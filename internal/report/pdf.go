package report

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"

	"github.com/eugenenazirov/cargo-allocator/internal/allocator"
	"github.com/eugenenazirov/cargo-allocator/internal/knapsack"
)

// Page layout constants (A4 portrait in mm).
const (
	pageWidth   = 210.0
	marginLeft  = 15.0
	marginRight = 15.0
	marginTop   = 15.0
	lineHeight  = 6.0
	rowHeight   = 5.5
)

// WritePDF renders the plan summary and item breakdown as a single-page PDF.
func WritePDF(w io.Writer, plan allocator.Plan, items []knapsack.Item) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(marginLeft, marginTop, marginRight)
	pdf.SetAutoPageBreak(true, marginTop)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	contentWidth := pageWidth - marginLeft - marginRight

	pdf.SetFont("Helvetica", "B", 14)
	title := "Allocation plan"
	if !plan.Feasible {
		title = "Allocation plan (no feasible split found)"
	}
	pdf.CellFormat(contentWidth, 10, title, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	lines := []string{
		fmt.Sprintf("Total items: %s", formatVector(plan.Selection)),
		fmt.Sprintf("Total value: %s", formatValue(plan.Value)),
		fmt.Sprintf("Total weight: %s of %s grams, %s unused", grams(plan.GrossWeight), grams(plan.Capacity), grams(plan.Unused)),
	}
	for _, load := range plan.Loads {
		lines = append(lines, fmt.Sprintf("%s: value %s, %s of %s grams, %s unused",
			containerName(load.Container), formatValue(load.Value),
			grams(load.GrossWeight), grams(load.Container.Capacity), grams(load.Unused)))
	}
	for _, line := range lines {
		pdf.CellFormat(contentWidth, lineHeight, tr(line), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	headers := []string{"Item", "Weight", "Value", "Available", "Selected",
		containerName(plan.Loads[0].Container), containerName(plan.Loads[1].Container)}
	widths := []float64{50, 22, 20, 22, 22, 22, 22}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for i, header := range headers {
		pdf.CellFormat(widths[i], rowHeight+1, tr(header), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for j, item := range items {
		row := []string{
			tr(itemName(item, j)),
			grams(item.Weight),
			formatValue(item.Value),
			fmt.Sprintf("%d", item.MaxCount),
			fmt.Sprintf("%d", at(plan.Selection, j)),
			fmt.Sprintf("%d", at(plan.Loads[0].Selection, j)),
			fmt.Sprintf("%d", at(plan.Loads[1].Selection, j)),
		}
		for i, value := range row {
			align := "R"
			if i == 0 {
				align = "L"
			}
			pdf.CellFormat(widths[i], rowHeight, value, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return pdf.Output(w)
}
