package zipstock

import (
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"
)

// ExportItemsXLSX writes the given items as a spreadsheet.
func ExportItemsXLSX(w io.Writer, items []Item) error {
	headers := []string{"ID", "Material Type", "Manufacturer", "Model", "Part Number",
		"Serial Number", "Capacity", "Interface", "Notes", "Arrival Date",
		"Invoice Number", "Status"}

	data := make([][]string, len(items))
	for i, it := range items {
		data[i] = []string{
			strconv.FormatInt(it.ID, 10), it.MaterialType, it.Manufacturer, it.Model,
			it.PartNumber, it.SerialNumber, it.Capacity, it.InterfaceType,
			it.Notes, it.ArrivalDate, it.InvoiceNumber, it.Status,
		}
	}
	return writeExcel(w, "Inventory", headers, data)
}

// ExportHistoryXLSX writes write-off records as a spreadsheet.
func ExportHistoryXLSX(w io.Writer, records []WriteOffRecord) error {
	headers := []string{"ID", "Item ID", "Material Type", "Manufacturer", "Model",
		"Serial Number", "Issued To", "Issue Date", "Comments", "Recorded At"}

	data := make([][]string, len(records))
	for i, r := range records {
		data[i] = []string{
			strconv.FormatInt(r.ID, 10), strconv.FormatInt(r.InventoryID, 10),
			r.MaterialType, r.Manufacturer, r.Model, r.SerialNumber,
			r.IssuedTo, r.IssueDate, r.Comments, r.CreatedAt,
		}
	}
	return writeExcel(w, "WriteOffHistory", headers, data)
}

func writeExcel(w io.Writer, sheetName string, headers []string, data [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D3D3D3"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	for i, header := range headers {
		cell := fmt.Sprintf("%s1", string(rune('A'+i)))
		f.SetCellValue(sheetName, cell, header)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for rowIdx, row := range data {
		for colIdx, value := range row {
			cell := fmt.Sprintf("%s%d", string(rune('A'+colIdx)), rowIdx+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	for i := range headers {
		col := string(rune('A' + i))
		f.SetColWidth(sheetName, col, col, 15)
	}

	if sheetName != "Sheet1" {
		f.DeleteSheet("Sheet1")
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
