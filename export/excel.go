package export

import (
	"fmt"
	"time"

	"guitar-club-rental/db"
	"guitar-club-rental/models"

	"github.com/xuri/excelize/v2"
)

const SheetName = "租借記錄"

const timeLayout = "2006-01-02 15:04:05"

// BuildRentalReport 把攤平的租借列寫成 xlsx；時間以指定時區呈現。
func BuildRentalReport(rows []db.ExportRow, loc *time.Location) (*excelize.File, error) {
	if loc == nil {
		loc = time.UTC
	}
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, err
	}

	headers := []any{"借用人", "學號", "器材類型", "型號", "租借時間", "歸還時間", "狀態"}
	if err := f.SetSheetRow(SheetName, "A1", &headers); err != nil {
		return nil, err
	}

	for i, row := range rows {
		returnTime := ""
		if row.ReturnTime != nil {
			returnTime = row.ReturnTime.In(loc).Format(timeLayout)
		}
		status := "未歸還"
		if row.Status == models.StatusReturned {
			status = "已歸還"
		}
		cells := []any{
			row.MemberName,
			row.StudentID,
			row.Category,
			row.Model,
			row.RentalTime.In(loc).Format(timeLayout),
			returnTime,
			status,
		}
		if err := f.SetSheetRow(SheetName, fmt.Sprintf("A%d", i+2), &cells); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// Filename 匯出檔名帶時間戳
func Filename(now time.Time) string {
	return fmt.Sprintf("guitar_club_rental_records_%s.xlsx", now.Format("20060102_150405"))
}
