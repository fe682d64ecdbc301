package export

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/diillson/nsf-awards-rollup/internal/domain/entity"
	"github.com/jung-kurt/gofpdf"
)

// ExportHierarchyToPDF gera um relatório com uma página por diretoria,
// listando divisões e programas com seus totais.
func (r *ExportRepositoryImpl) ExportHierarchyToPDF(tree entity.Tree, title, filename, outputDir string) (string, error) {
	outputFilename, err := generateFilename(filename, outputDir, "pdf")
	if err != nil {
		return "", err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	headerColor := [3]int{40, 40, 40}
	headerTextColor := [3]int{255, 255, 255}
	bodyTextColor := [3]int{50, 50, 50}
	lineColor := [3]int{200, 200, 200}

	nameWidth, countWidth, amountWidth := 120.0, 25.0, 45.0

	row := func(name string, m entity.Metrics, style string, indent float64) {
		if pdf.GetY() > 270 {
			pdf.AddPage()
		}
		pdf.SetFont("Arial", style, 9)
		pdf.SetTextColor(bodyTextColor[0], bodyTextColor[1], bodyTextColor[2])
		pdf.SetX(10 + indent)
		pdf.CellFormat(nameWidth-indent, 6, tr(clip(cleanText(name), 70)), "", 0, "L", false, 0, "")
		pdf.CellFormat(countWidth, 6, fmt.Sprintf("%d", m.NumAwards), "", 0, "R", false, 0, "")
		pdf.CellFormat(amountWidth, 6, fmt.Sprintf("$%.2f", m.AmtAwarded), "", 1, "R", false, 0, "")
	}

	footer := func(page int) {
		pdf.SetY(-15)
		pdf.SetFont("Arial", "I", 8)
		pdf.SetTextColor(128, 128, 128)
		footerText := fmt.Sprintf("Generated by NSF Awards Rollup | %s", time.Now().Format("2006-01-02"))
		pdf.CellFormat(0, 10, tr(footerText), "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d", page), "", 0, "R", false, 0, "")
	}
	pdf.SetFooterFunc(func() { footer(pdf.PageNo()) })

	if len(tree) == 0 {
		pdf.AddPage()
		pdf.SetFont("Arial", "B", 14)
		pdf.Cell(0, 10, tr(title))
		pdf.Ln(12)
		pdf.SetFont("Arial", "", 10)
		pdf.Cell(0, 8, "No awards found.")
	}

	for _, dir := range tree {
		pdf.AddPage()

		pdf.SetFillColor(headerColor[0], headerColor[1], headerColor[2])
		pdf.SetTextColor(headerTextColor[0], headerTextColor[1], headerTextColor[2])
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 12, tr(fmt.Sprintf("  %s", clip(cleanText(dir.Name), 80))), "", 1, "L", true, 0, "")

		pdf.SetFont("Arial", "", 10)
		pdf.SetFillColor(240, 240, 240)
		pdf.SetTextColor(bodyTextColor[0], bodyTextColor[1], bodyTextColor[2])
		summary := fmt.Sprintf("  %s | %d awards | $%.2f", title, dir.Node.Metrics.NumAwards, dir.Node.Metrics.AmtAwarded)
		pdf.CellFormat(0, 8, tr(summary), "", 1, "L", true, 0, "")
		pdf.Ln(6)

		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(nameWidth, 7, "Division / Program", "B", 0, "L", false, 0, "")
		pdf.CellFormat(countWidth, 7, "Awards", "B", 0, "R", false, 0, "")
		pdf.CellFormat(amountWidth, 7, "Amount", "B", 1, "R", false, 0, "")
		pdf.Ln(1)

		for _, div := range dir.Node.Children {
			row(div.Name, div.Node.Metrics, "B", 0)
			for _, prog := range div.Node.Children {
				row(prog.Name, prog.Node.Metrics, "", 6)
			}
			pdf.SetDrawColor(lineColor[0], lineColor[1], lineColor[2])
			pdf.Line(10, pdf.GetY()+1, 200, pdf.GetY()+1)
			pdf.Ln(3)
		}
	}

	if err := pdf.OutputFileAndClose(outputFilename); err != nil {
		return "", fmt.Errorf("error writing PDF file: %w", err)
	}

	return filepath.Abs(outputFilename)
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
