// Package export renders forecasts as spreadsheets.
package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/arnavshah/capacity-planner-api/pkg/models"
)

// SheetName is the worksheet holding the forecast table
const SheetName = "Forecast"

// ContentType is the MIME type of the generated workbook
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var header = []string{"Bucket start", "Available hours", "Needed hours", "Balance", "Overloaded"}

// Filename suggests a download name for a forecast over [from, to]
func Filename(from, to, bucket string) string {
	return fmt.Sprintf("capacity_%s_%s_%s.xlsx", bucket, from, to)
}

// Workbook writes one row per bucket point below a title and a header row
func Workbook(result models.ForecastResult, from, to string) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(SheetName)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("drop default sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("create style: %w", err)
	}
	overloadStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#C00000"},
	})
	if err != nil {
		return nil, fmt.Errorf("create style: %w", err)
	}

	_ = f.SetColWidth(SheetName, "A", "A", 14)
	_ = f.SetColWidth(SheetName, "B", "E", 16)

	title := fmt.Sprintf("Capacity forecast %s to %s (%s)", from, to, result.Bucket)
	if err := f.SetCellValue(SheetName, "A1", title); err != nil {
		return nil, err
	}
	if err := f.MergeCell(SheetName, "A1", "E1"); err != nil {
		return nil, err
	}

	for i, h := range header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		if err := f.SetCellValue(SheetName, cell, h); err != nil {
			return nil, err
		}
	}
	_ = f.SetCellStyle(SheetName, "A2", "E2", headerStyle)

	for i, p := range result.Points {
		row := i + 3
		values := []any{p.BucketStart, p.Available, p.Needed, p.Available - p.Needed, p.Overloaded()}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(SheetName, cell, v); err != nil {
				return nil, err
			}
		}
		if p.Overloaded() {
			first, _ := excelize.CoordinatesToCellName(1, row)
			last, _ := excelize.CoordinatesToCellName(len(values), row)
			_ = f.SetCellStyle(SheetName, first, last, overloadStyle)
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf, nil
}
