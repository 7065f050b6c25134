package services

import (
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/lms-service/internal/models"
)

const (
	xlsxContentType   = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	progressSheetName = "Progress"
	reportTimeLayout  = "2006-01-02 15:04"
)

var progressReportHeader = []interface{}{
	"User ID", "Name", "Email", "Enrolled At", "Completed Lessons", "Total Lessons", "Progress %", "Completed At",
}

// buildProgressWorkbook renders one sheet with a header row and one row per enrollment
func buildProgressWorkbook(course *models.Course, rows []models.ProgressReportRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", progressSheetName); err != nil {
		return nil, err
	}
	if err := f.SetDocProps(&excelize.DocProperties{Title: course.Title + " progress"}); err != nil {
		return nil, err
	}

	if err := f.SetSheetRow(progressSheetName, "A1", &progressReportHeader); err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	if err := f.SetRowStyle(progressSheetName, 1, 1, bold); err != nil {
		return nil, err
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		values := []interface{}{
			r.UserID,
			r.UserName,
			r.Email,
			formatReportTime(&r.EnrolledAt),
			r.CompletedLessons,
			r.TotalLessons,
			r.Percentage,
			formatReportTime(r.CompletedAt),
		}
		if err := f.SetSheetRow(progressSheetName, cell, &values); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatReportTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(reportTimeLayout)
}
