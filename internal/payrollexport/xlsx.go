package payrollexport

import (
	"github.com/xuri/excelize/v2"

	"tipsettle/internal/domain"
)

const sheetName = "Allocations"

func renderXLSX(batch *domain.AllocationBatch, lines []domain.AllocationLine) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, err
	}
	_ = f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	for c, v := range columns {
		cell, _ := excelize.CoordinatesToCellName(c+1, 1)
		if err := f.SetCellValue(sheetName, cell, v); err != nil {
			return nil, err
		}
	}
	for r := range lines {
		row := lineToRow(batch, &lines[r])
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			// gross_amount stays numeric so payroll sheets can sum it.
			if c == 4 {
				err = f.SetCellValue(sheetName, cell, lines[r].GrossAmount)
			} else {
				err = f.SetCellValue(sheetName, cell, v)
			}
			if err != nil {
				return nil, err
			}
		}
	}

	_ = f.SetColWidth(sheetName, "A", "D", 38)
	_ = f.SetColWidth(sheetName, "E", "I", 16)
	_ = f.SetColWidth(sheetName, "J", "J", 66)
	_ = f.SetColWidth(sheetName, "K", "L", 22)

	style, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	_ = f.SetCellStyle(sheetName, "A1", "L1", style)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
