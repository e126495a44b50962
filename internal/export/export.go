// Package export writes a batch analysis result to spreadsheet formats.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/prodlens/prodlens/internal/domain"
)

var columns = []string{
	"Name", "Price", "Rating", "Recommended", "Verdict", "Pros", "Cons", "URL", "Image URL",
}

// WriteCSV writes the products as CSV rows.
func WriteCSV(w io.Writer, products []*domain.Product) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, p := range products {
		if err := cw.Write(row(p)); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes the products to an Excel workbook at path.
func WriteXLSX(path string, products []*domain.Product) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sheet1"

	for col, header := range columns {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("failed to build cell name: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	for i, p := range products {
		for col, value := range row(p) {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return fmt.Errorf("failed to build cell name: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return fmt.Errorf("failed to write row: %w", err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}

	return nil
}

func row(p *domain.Product) []string {
	return []string{
		p.Name,
		p.Price,
		strconv.FormatFloat(p.Rating, 'f', 1, 64),
		strconv.FormatBool(p.Recommended),
		p.Verdict,
		strings.Join(p.Pros, "; "),
		strings.Join(p.Cons, "; "),
		p.URL,
		p.ImageURL,
	}
}
