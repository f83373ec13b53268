package db

import (
	"context"
	"database/sql/driver"
	"fmt"
	"time"

	"guitar-club-rental/models"
)

// 唯讀投影：儀表板、管理面板、匯出用的彙總查詢。
// 歷史類查詢刻意不過濾軟刪除器材（歷史要留得住）；
// 現役清單類查詢一律帶 deleted_at IS NULL。

func (r *Repo) ListCategories(ctx context.Context) ([]string, error) {
	var cats []string
	err := r.DB.WithContext(ctx).Model(&models.Equipment{}).
		Where("deleted_at IS NULL").
		Distinct().
		Order("category ASC").
		Pluck("category", &cats).Error
	return cats, err
}

// ListModelsByCategory 可借的型號（還有存量、未刪除）
func (r *Repo) ListModelsByCategory(ctx context.Context, category string) ([]models.Equipment, error) {
	var eqs []models.Equipment
	err := r.DB.WithContext(ctx).
		Where("category = ? AND available_quantity > 0 AND deleted_at IS NULL", category).
		Order("model ASC").
		Find(&eqs).Error
	return eqs, err
}

type EquipmentStatusRow struct {
	ID                uint    `json:"id"`
	Category          string  `json:"category"`
	Model             string  `json:"model"`
	TotalQuantity     int     `json:"totalQuantity"`
	AvailableQuantity int     `json:"availableQuantity"`
	BorrowedQuantity  int     `json:"borrowedQuantity"`
	ImageFullURL      *string `json:"imageFullUrl,omitempty"`
	ImageThumbURL     *string `json:"imageThumbUrl,omitempty"`
}

// ListEquipmentStatus 管理面板的庫存總覽
func (r *Repo) ListEquipmentStatus(ctx context.Context) ([]EquipmentStatusRow, error) {
	var rows []EquipmentStatusRow
	err := r.DB.WithContext(ctx).Model(&models.Equipment{}).
		Select(`id, category, model, total_quantity, available_quantity,
			total_quantity - available_quantity AS borrowed_quantity,
			image_full_url, image_thumb_url`).
		Where("deleted_at IS NULL").
		Order("category ASC, model ASC").
		Scan(&rows).Error
	return rows, err
}

// aggTime 專門接 MIN/MAX 時間聚合欄位。聚合後欄位失去宣告型別，
// sqlite 驅動會回原始字串而不是 time.Time，這裡兩種都收、統一解析。
type aggTime struct {
	T     time.Time
	Valid bool
}

var aggTimeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

func (a *aggTime) Scan(v any) error {
	switch x := v.(type) {
	case nil:
		a.Valid = false
		return nil
	case time.Time:
		a.T, a.Valid = x, true
		return nil
	case string:
		return a.parse(x)
	case []byte:
		return a.parse(string(x))
	}
	return fmt.Errorf("cannot scan %T into aggTime", v)
}

func (a *aggTime) parse(s string) error {
	for _, layout := range aggTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			a.T, a.Valid = t, true
			return nil
		}
	}
	return fmt.Errorf("cannot parse time %q", s)
}

// Value 讓 GORM 的 schema parser 把 aggTime 當資料欄位而不是關聯。
func (a aggTime) Value() (driver.Value, error) {
	if !a.Valid {
		return nil, nil
	}
	return a.T, nil
}

func (a aggTime) ptr() *time.Time {
	if !a.Valid {
		return nil
	}
	t := a.T
	return &t
}

// MemberRentalRow 社員儀表板：一列 = 一個 (批次, 器材) 群組
type MemberRentalRow struct {
	RentalTime      time.Time  `json:"rentalTime"`
	Category        string     `json:"category"`
	Model           string     `json:"model"`
	Quantity        int        `json:"quantity"`
	BorrowedCount   int        `json:"borrowedCount"` // 尚未歸還件數
	FirstReturnTime *time.Time `json:"firstReturnTime,omitempty"`
	LastReturnTime  *time.Time `json:"lastReturnTime,omitempty"`
}

func (r *Repo) ListMemberRentals(ctx context.Context, memberID uint, limit int) ([]MemberRentalRow, error) {
	if limit <= 0 {
		limit = 10
	}
	var raw []struct {
		RentalTime      time.Time
		Category        string
		Model           string
		Quantity        int
		BorrowedCount   int
		FirstReturnTime aggTime
		LastReturnTime  aggTime
	}
	err := r.DB.WithContext(ctx).
		Table(models.RentalTable+" rr").
		Select(`rr.rental_time, e.category, e.model,
			COUNT(*) AS quantity,
			SUM(CASE WHEN rr.status = 'borrowed' THEN 1 ELSE 0 END) AS borrowed_count,
			MIN(rr.return_time) AS first_return_time,
			MAX(rr.return_time) AS last_return_time`).
		Joins("JOIN "+models.EquipmentTable+" e ON e.id = rr.equipment_id").
		Where("rr.member_id = ?", memberID).
		Group("rr.rental_time, e.id, e.category, e.model").
		Order("rr.rental_time DESC").
		Limit(limit).
		Scan(&raw).Error
	if err != nil {
		return nil, err
	}

	rows := make([]MemberRentalRow, len(raw))
	for i, g := range raw {
		rows[i] = MemberRentalRow{
			RentalTime:      g.RentalTime,
			Category:        g.Category,
			Model:           g.Model,
			Quantity:        g.Quantity,
			BorrowedCount:   g.BorrowedCount,
			FirstReturnTime: g.FirstReturnTime.ptr(),
			LastReturnTime:  g.LastReturnTime.ptr(),
		}
	}
	return rows, nil
}

// OutstandingRow 管理面板：未歸還彙總，一列 = 一個 (社員, 器材) 群組
type OutstandingRow struct {
	MemberName      string     `json:"memberName"`
	StudentID       string     `json:"studentId"`
	Category        string     `json:"category"`
	Model           string     `json:"model"`
	Quantity        int        `json:"quantity"`
	FirstRentalTime time.Time  `json:"firstRentalTime"`
	LastRentalTime  time.Time  `json:"lastRentalTime"`
	RentalDays      *float64   `json:"rentalDays,omitempty"`
	ExpectedReturn  *time.Time `json:"expectedReturn,omitempty"`
}

func (r *Repo) ListOutstanding(ctx context.Context) ([]OutstandingRow, error) {
	var raw []struct {
		MemberName      string
		StudentID       string
		Category        string
		Model           string
		Quantity        int
		FirstRentalTime aggTime
		LastRentalTime  aggTime
		RentalDays      *float64
		ExpectedReturn  aggTime
	}
	err := r.DB.WithContext(ctx).
		Table(models.RentalTable+" rr").
		Select(`rr.member_name, rr.student_id, e.category, e.model,
			COUNT(*) AS quantity,
			MIN(rr.rental_time) AS first_rental_time,
			MAX(rr.rental_time) AS last_rental_time,
			MAX(rr.rental_days) AS rental_days,
			MAX(rr.expected_return) AS expected_return`).
		Joins("JOIN "+models.EquipmentTable+" e ON e.id = rr.equipment_id").
		Where("rr.status = ? AND e.deleted_at IS NULL", models.StatusBorrowed).
		Group("rr.member_id, rr.equipment_id, rr.member_name, rr.student_id, e.category, e.model").
		Order("first_rental_time ASC").
		Scan(&raw).Error
	if err != nil {
		return nil, err
	}

	rows := make([]OutstandingRow, len(raw))
	for i, g := range raw {
		rows[i] = OutstandingRow{
			MemberName:      g.MemberName,
			StudentID:       g.StudentID,
			Category:        g.Category,
			Model:           g.Model,
			Quantity:        g.Quantity,
			FirstRentalTime: g.FirstRentalTime.T,
			LastRentalTime:  g.LastRentalTime.T,
			RentalDays:      g.RentalDays,
			ExpectedReturn:  g.ExpectedReturn.ptr(),
		}
	}
	return rows, nil
}

// HistoryRow 管理面板的流水帳：每個批次一筆 rental 事件，
// 批次內每個歸還時間點再各一筆 return 事件。
type HistoryRow struct {
	MemberName string     `json:"memberName"`
	StudentID  string     `json:"studentId"`
	Category   string     `json:"category"`
	Model      string     `json:"model"`
	RentalTime time.Time  `json:"rentalTime"`
	ReturnTime *time.Time `json:"returnTime,omitempty"`
	Quantity   int        `json:"quantity"`
	RecordType string     `json:"recordType"` // "rental" | "return"
}

func (r *Repo) ListRentalHistory(ctx context.Context, limit int) ([]HistoryRow, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `
		SELECT member_name, student_id, category, model,
		       rental_time, return_time, quantity, record_type
		FROM (
			SELECT rr.member_name, rr.student_id, e.category, e.model,
			       rr.rental_time, CAST(NULL AS TIMESTAMP) AS return_time,
			       COUNT(*) AS quantity, 'rental' AS record_type, 0 AS sort_order
			FROM ` + models.RentalTable + ` rr
			JOIN ` + models.EquipmentTable + ` e ON e.id = rr.equipment_id
			GROUP BY rr.member_id, rr.equipment_id, rr.rental_time,
			         rr.member_name, rr.student_id, e.category, e.model
			UNION ALL
			SELECT rr.member_name, rr.student_id, e.category, e.model,
			       rr.rental_time, rr.return_time,
			       COUNT(*) AS quantity, 'return' AS record_type, 1 AS sort_order
			FROM ` + models.RentalTable + ` rr
			JOIN ` + models.EquipmentTable + ` e ON e.id = rr.equipment_id
			WHERE rr.return_time IS NOT NULL
			GROUP BY rr.member_id, rr.equipment_id, rr.rental_time, rr.return_time,
			         rr.member_name, rr.student_id, e.category, e.model
		) events
		ORDER BY rental_time DESC, sort_order ASC, return_time DESC
		LIMIT ?`

	var rows []HistoryRow
	err := r.DB.WithContext(ctx).Raw(query, limit).Scan(&rows).Error
	return rows, err
}

// ExportRow 匯出報表用的攤平列，一筆租借記錄一列
type ExportRow struct {
	MemberName string
	StudentID  string
	Category   string
	Model      string
	RentalTime time.Time
	ReturnTime *time.Time
	Status     string
}

func (r *Repo) ListExportRows(ctx context.Context) ([]ExportRow, error) {
	var rows []ExportRow
	err := r.DB.WithContext(ctx).
		Table(models.RentalTable+" rr").
		Select(`rr.member_name, rr.student_id, e.category, e.model,
			rr.rental_time, rr.return_time, rr.status`).
		Joins("JOIN "+models.EquipmentTable+" e ON e.id = rr.equipment_id").
		Order("rr.rental_time DESC, rr.id ASC").
		Scan(&rows).Error
	return rows, err
}
