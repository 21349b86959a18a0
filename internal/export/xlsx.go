// Package export writes collected company records to XLSX workbooks with
// the Vietnamese column layout downstream consumers expect.
package export

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/vnreg-cli/internal/model"
)

const (
	dataSheetName    = "Danh sách công ty"
	summarySheetName = "Tổng hợp"
)

// DefaultFilename returns a timestamped workbook path under dir.
func DefaultFilename(dir string) string {
	stamp := time.Now().Format("20060102_150405")
	return filepath.Join(dir, fmt.Sprintf("companies_%s.xlsx", stamp))
}

// WriteXLSX writes the companies to path: a data sheet with the fixed
// header row plus a summary sheet with source and status breakdowns.
func WriteXLSX(path string, companies []model.Company) error {
	f := xlsx.NewFile()

	if err := addDataSheet(f, companies); err != nil {
		return err
	}
	if err := addSummarySheet(f, companies); err != nil {
		return err
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: save workbook %s", path)
	}
	return nil
}

func addDataSheet(f *xlsx.File, companies []model.Company) error {
	sheet, err := f.AddSheet(dataSheetName)
	if err != nil {
		return eris.Wrap(err, "export: add data sheet")
	}

	header := sheet.AddRow()
	style := headerStyle()
	for _, title := range model.ExcelHeaders {
		cell := header.AddCell()
		cell.SetString(title)
		cell.SetStyle(style)
	}

	for i := range companies {
		row := sheet.AddRow()
		for _, value := range companies[i].ExcelRow() {
			row.AddCell().SetString(value)
		}
	}

	// Keep the header visible while scrolling.
	sheet.SheetViews = []xlsx.SheetView{{
		Pane: &xlsx.Pane{
			XSplit:      0,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
			State:       "frozen",
		},
	}}

	// Wide columns for name and the address pair.
	sheet.SetColWidth(1, 1, 45)
	sheet.SetColWidth(2, 3, 50)
	return nil
}

func addSummarySheet(f *xlsx.File, companies []model.Company) error {
	sheet, err := f.AddSheet(summarySheetName)
	if err != nil {
		return eris.Wrap(err, "export: add summary sheet")
	}

	bySource := make(map[string]int)
	byStatus := make(map[string]int)
	for i := range companies {
		bySource[string(companies[i].Source)]++
		if companies[i].OperatingStatus != "" {
			byStatus[companies[i].OperatingStatus]++
		}
	}

	style := headerStyle()
	addPair := func(label, value string, bold bool) {
		row := sheet.AddRow()
		l := row.AddCell()
		l.SetString(label)
		if bold {
			l.SetStyle(style)
		}
		row.AddCell().SetString(value)
	}

	addPair("Tổng số công ty", fmt.Sprintf("%d", len(companies)), true)
	addPair("Thời điểm xuất", time.Now().Format("02/01/2006 15:04"), false)

	sheet.AddRow()
	addPair("Theo nguồn dữ liệu", "", true)
	for _, source := range []string{"api", "hsctvn", "dual"} {
		if n := bySource[source]; n > 0 {
			addPair(source, fmt.Sprintf("%d", n), false)
		}
	}

	sheet.AddRow()
	addPair("Theo trạng thái", "", true)
	for status, n := range byStatus {
		addPair(status, fmt.Sprintf("%d", n), false)
	}

	sheet.SetColWidth(0, 0, 30)
	return nil
}

func headerStyle() *xlsx.Style {
	style := xlsx.NewStyle()
	style.Font.Bold = true
	style.ApplyFont = true
	return style
}
