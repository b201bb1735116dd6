package application

import (
	"bytes"
	"fmt"
	"time"

	"playlink/internal/models"

	"github.com/xuri/excelize/v2"
)

const exportSheetName = "Link Records"

// ExportReport renders the full record table as an xlsx workbook for support
// staff. Requires the same role as ListAll.
func (s *LinkServiceImpl) ExportReport(requesterID string) ([]byte, error) {
	recs, err := s.ListAll(requesterID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	f.NewSheet(exportSheetName)
	f.DeleteSheet("Sheet1")

	headers := []string{"Code", "Game Account", "Hardware ID", "Network Address", "Caller", "State", "Created At", "Linked At"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(exportSheetName, cell, h)
	}

	row := 2
	for _, rec := range recs {
		linkedAt := ""
		if rec.LinkedAt != nil {
			linkedAt = rec.LinkedAt.Format(time.RFC3339)
		}

		f.SetCellValue(exportSheetName, fmt.Sprintf("A%d", row), rec.Code)
		f.SetCellValue(exportSheetName, fmt.Sprintf("B%d", row), rec.GameAccountID)
		f.SetCellValue(exportSheetName, fmt.Sprintf("C%d", row), rec.HardwareID)
		f.SetCellValue(exportSheetName, fmt.Sprintf("D%d", row), rec.NetworkAddress)
		f.SetCellValue(exportSheetName, fmt.Sprintf("E%d", row), rec.CallerID)
		f.SetCellValue(exportSheetName, fmt.Sprintf("F%d", row), string(rec.State))
		f.SetCellValue(exportSheetName, fmt.Sprintf("G%d", row), rec.CreatedAt.Format(time.RFC3339))
		f.SetCellValue(exportSheetName, fmt.Sprintf("H%d", row), linkedAt)
		row++
	}

	f.SetColWidth(exportSheetName, "A", "A", 10)
	f.SetColWidth(exportSheetName, "B", "E", 24)
	f.SetColWidth(exportSheetName, "F", "F", 12)
	f.SetColWidth(exportSheetName, "G", "H", 22)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to build export file: %w", err)
	}
	return buf.Bytes(), nil
}

// Summarize is the one-line record rendering shared by audit notifications
// and command responses.
func Summarize(rec models.LinkRecord) string {
	return fmt.Sprintf("code=%s account=%s hw=%s addr=%s caller=%s state=%s",
		rec.Code, rec.GameAccountID, rec.HardwareID, rec.NetworkAddress, rec.CallerID, rec.State)
}
