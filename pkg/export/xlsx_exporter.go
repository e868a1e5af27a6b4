package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Gradebook"

// XLSXExporter renders datasets into a single-sheet workbook.
type XLSXExporter struct{}

// NewXLSXExporter constructs an XLSX exporter.
func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

// Render writes the optional title on row 1, headers on the next row and data below.
func (e *XLSXExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("xlsx requires at least one header")
	}

	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	_ = f.DeleteSheet("Sheet1")

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	row := 1
	if data.Title != "" {
		_ = f.SetCellValue(sheetName, cell(1, row), data.Title)
		lastCol, _ := excelize.ColumnNumberToName(len(data.Headers))
		_ = f.MergeCell(sheetName, cell(1, row), fmt.Sprintf("%s%d", lastCol, row))
		row++
	}

	for i, header := range data.Headers {
		_ = f.SetCellValue(sheetName, cell(i+1, row), header)
	}
	_ = f.SetCellStyle(sheetName, cell(1, row), cell(len(data.Headers), row), headerStyle)

	for _, values := range data.Rows {
		row++
		for i, value := range record(data.Headers, values) {
			_ = f.SetCellValue(sheetName, cell(i+1, row), value)
		}
	}

	firstCol, _ := excelize.ColumnNumberToName(1)
	lastCol, _ := excelize.ColumnNumberToName(len(data.Headers))
	_ = f.SetColWidth(sheetName, firstCol, lastCol, 16)

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
