package interfaces

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	lights "wiz-fleet/internal/lights/domain"
)

// StatusReport is a point-in-time status snapshot of the fleet.
type StatusReport struct {
	GeneratedAt time.Time
	Status      string
	Lights      []lights.LightStatus
}

func (r StatusReport) online() int {
	n := 0
	for _, l := range r.Lights {
		if l.Online {
			n++
		}
	}
	return n
}

// BuildStatusPDF renders a status snapshot as a one-table PDF.
func BuildStatusPDF(report StatusReport) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Light Fleet Status")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", report.GeneratedAt.Format(time.RFC3339)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Status: %s", report.Status))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Online: %d / %d", report.online(), len(report.Lights)))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(40, 6, "IP", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Online", "1", 0, "C", false, 0, "")
	pdf.CellFormat(20, 6, "State", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Brightness", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Temp (K)", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Color", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, l := range report.Lights {
		pdf.CellFormat(40, 6, l.Address, "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 6, yesNo(l.Online), "1", 0, "C", false, 0, "")
		pdf.CellFormat(20, 6, onOff(l.State), "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%d%%", l.Brightness), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, kelvinText(l.Temp), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, l.Color, "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildStatusXLSX renders a status snapshot as a workbook with a summary
// sheet and one row per light.
func BuildStatusXLSX(report StatusReport) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	summarySheet := "summary"
	lightsSheet := "lights"
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(lightsSheet); err != nil {
		return nil, err
	}

	_ = f.SetCellValue(summarySheet, "A1", "Light Fleet Status")
	_ = f.SetCellValue(summarySheet, "A3", "Generated")
	_ = f.SetCellValue(summarySheet, "B3", report.GeneratedAt.Format(time.RFC3339))
	_ = f.SetCellValue(summarySheet, "A4", "Status")
	_ = f.SetCellValue(summarySheet, "B4", report.Status)
	_ = f.SetCellValue(summarySheet, "A5", "Lights")
	_ = f.SetCellValue(summarySheet, "B5", len(report.Lights))
	_ = f.SetCellValue(summarySheet, "A6", "Online")
	_ = f.SetCellValue(summarySheet, "B6", report.online())

	for i, header := range []string{"IP", "Online", "State", "Brightness", "Temp (K)", "Color"} {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(lightsSheet, cell, header)
	}
	for i, l := range report.Lights {
		row := i + 2
		_ = f.SetCellValue(lightsSheet, fmt.Sprintf("A%d", row), l.Address)
		_ = f.SetCellValue(lightsSheet, fmt.Sprintf("B%d", row), l.Online)
		_ = f.SetCellValue(lightsSheet, fmt.Sprintf("C%d", row), onOff(l.State))
		_ = f.SetCellValue(lightsSheet, fmt.Sprintf("D%d", row), l.Brightness)
		if l.Temp != nil {
			_ = f.SetCellValue(lightsSheet, fmt.Sprintf("E%d", row), *l.Temp)
		}
		_ = f.SetCellValue(lightsSheet, fmt.Sprintf("F%d", row), l.Color)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func kelvinText(temp *int) string {
	if temp == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *temp)
}
