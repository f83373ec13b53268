package db

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"guitar-club-rental/models"

	"gorm.io/gorm"
)

// 時間單位；小時會換算成天（可為小數）後落庫
const (
	UnitHours = "hours"
	UnitDays  = "days"
)

type BorrowInput struct {
	MemberID    uint
	EquipmentID uint
	Quantity    int
	Duration    float64 // 數值 + Unit 共同決定租期
	Unit        string  // UnitHours | UnitDays
}

type BorrowResult struct {
	Model          string    `json:"model"`
	Quantity       int       `json:"quantity"`
	RentalTime     time.Time `json:"rentalTime"`
	ExpectedReturn time.Time `json:"expectedReturn"`
	RentalDays     float64   `json:"rentalDays"`
	DisplayDays    int       `json:"displayDays"` // 顯示用，至少 1 天
}

// BorrowBatch 借出一批：同一交易內完成「扣可用量 + 建 N 筆記錄」。
// N 筆記錄共用同一個 RentalTime，之後的分組顯示與指定批次歸還
// 都以它為鍵。扣量用帶條件的 UPDATE（available_quantity >= ?），
// UPDATE 的列鎖就是唯一的序列化點，不需要應用層鎖。
func (r *Repo) BorrowBatch(ctx context.Context, in BorrowInput) (*BorrowResult, error) {
	if in.Quantity < 1 {
		return nil, fmt.Errorf("quantity must be at least 1, got %d", in.Quantity)
	}
	if in.Duration <= 0 {
		return nil, fmt.Errorf("rental duration must be positive, got %v", in.Duration)
	}

	var span time.Duration
	var rentalDays float64
	var displayDays int
	switch in.Unit {
	case UnitHours:
		span = time.Duration(in.Duration * float64(time.Hour))
		rentalDays = in.Duration / 24
		displayDays = int(math.Max(1, math.Round(rentalDays)))
	case UnitDays:
		span = time.Duration(in.Duration * 24 * float64(time.Hour))
		rentalDays = in.Duration
		displayDays = int(math.Max(1, math.Round(in.Duration)))
	default:
		return nil, fmt.Errorf("unknown time unit %q", in.Unit)
	}

	var res BorrowResult
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m models.Member
		if err := tx.First(&m, "id = ?", in.MemberID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		var eq models.Equipment
		if err := tx.First(&eq, "id = ? AND deleted_at IS NULL", in.EquipmentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if eq.AvailableQuantity < in.Quantity {
			return &InsufficientStockError{
				Model:     eq.Model,
				Requested: in.Quantity,
				Available: eq.AvailableQuantity,
			}
		}

		// 先扣量：條件式 UPDATE 擋掉並發下的超借
		dec := tx.Model(&models.Equipment{}).
			Where("id = ? AND deleted_at IS NULL AND available_quantity >= ?", eq.ID, in.Quantity).
			UpdateColumn("available_quantity", gorm.Expr("available_quantity - ?", in.Quantity))
		if dec.Error != nil {
			return dec.Error
		}
		if dec.RowsAffected == 0 {
			// 剛才的預檢通過但被並發借走了，重讀一次給出準確數字
			var cur models.Equipment
			if err := tx.First(&cur, "id = ?", eq.ID).Error; err != nil {
				return err
			}
			return &InsufficientStockError{
				Model:     cur.Model,
				Requested: in.Quantity,
				Available: cur.AvailableQuantity,
			}
		}

		now := r.now()
		expected := now.Add(span)
		records := make([]models.RentalRecord, in.Quantity)
		for i := range records {
			records[i] = models.RentalRecord{
				MemberID:       m.ID,
				MemberName:     m.Name,
				StudentID:      m.StudentID,
				EquipmentID:    eq.ID,
				RentalTime:     now,
				ExpectedReturn: &expected,
				RentalDays:     &rentalDays,
				Status:         models.StatusBorrowed,
			}
		}
		if err := tx.Create(&records).Error; err != nil {
			return err
		}

		res = BorrowResult{
			Model:          eq.Model,
			Quantity:       in.Quantity,
			RentalTime:     now,
			ExpectedReturn: expected,
			RentalDays:     rentalDays,
			DisplayDays:    displayDays,
		}
		return nil
	})
	if err != nil {
		// 業務錯誤原樣往上；其餘是交易內的意外失敗，已整筆回滾
		var insufficient *InsufficientStockError
		if errors.Is(err, ErrNotFound) || errors.As(err, &insufficient) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrBorrowFailed, err)
	}
	return &res, nil
}

type ReturnInput struct {
	MemberID uint
	Category string
	Model    string
	Quantity int        // 0 = 全部歸還
	Batch    *time.Time // 指定批次（rental_time 精確比對）；nil = 不限
}

type ReturnResult struct {
	Returned   int       `json:"returned"`
	Category   string    `json:"category"`
	Model      string    `json:"model"`
	ReturnTime time.Time `json:"returnTime"`
}

// ReturnBatch 歸還：挑出該社員在此 category+model 下所有 borrowed
// 記錄（可選擇限定單一批次），FIFO 標記前 N 筆為 returned，再用
// 一次 GROUP BY 聚合算出每個 equipment 各回補幾件、逐一加回可用量。
// 已 returned 的列永遠不會再被選中，所以不可能重複歸還。
func (r *Repo) ReturnBatch(ctx context.Context, in ReturnInput) (*ReturnResult, error) {
	if in.Quantity < 0 {
		return nil, fmt.Errorf("return quantity cannot be negative, got %d", in.Quantity)
	}

	var res ReturnResult
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Table(models.RentalTable+" rr").
			Joins("JOIN "+models.EquipmentTable+" e ON e.id = rr.equipment_id").
			Where("rr.member_id = ? AND e.category = ? AND e.model = ? AND rr.status = ?",
				in.MemberID, in.Category, in.Model, models.StatusBorrowed)
		if in.Batch != nil {
			q = q.Where("rr.rental_time = ?", *in.Batch).Order("rr.id ASC")
		} else {
			// 未指定批次：最早借的先還
			q = q.Order("rr.rental_time ASC, rr.id ASC")
		}

		var ids []uint
		if err := q.Pluck("rr.id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return ErrNothingToReturn
		}

		n := in.Quantity
		if n == 0 {
			n = len(ids)
		}
		if n > len(ids) {
			return &OverReturnError{Requested: n, Outstanding: len(ids)}
		}
		ids = ids[:n]

		now := r.now()
		upd := tx.Model(&models.RentalRecord{}).
			Where("id IN ? AND status = ?", ids, models.StatusBorrowed).
			Updates(map[string]any{
				"status":      models.StatusReturned,
				"return_time": now,
			})
		if upd.Error != nil {
			return upd.Error
		}
		if upd.RowsAffected != int64(n) {
			return fmt.Errorf("expected to return %d records, updated %d", n, upd.RowsAffected)
		}

		// 一次聚合：每個 equipment 各歸還幾件，再逐一回補計數
		var groups []struct {
			EquipmentID uint
			N           int
		}
		if err := tx.Model(&models.RentalRecord{}).
			Select("equipment_id, COUNT(*) AS n").
			Where("id IN ?", ids).
			Group("equipment_id").
			Scan(&groups).Error; err != nil {
			return err
		}
		for _, g := range groups {
			if err := tx.Model(&models.Equipment{}).
				Where("id = ?", g.EquipmentID).
				UpdateColumn("available_quantity", gorm.Expr("available_quantity + ?", g.N)).Error; err != nil {
				return err
			}
		}

		res = ReturnResult{Returned: n, Category: in.Category, Model: in.Model, ReturnTime: now}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// AddEquipment 新增器材。同 category+model 的現役器材視為重複；
// 已軟刪除的同名器材不算（可以重新建）。
func (r *Repo) AddEquipment(ctx context.Context, category, model string, total int) (*models.Equipment, error) {
	category = strings.TrimSpace(category)
	model = strings.TrimSpace(model)
	if category == "" || model == "" {
		return nil, errors.New("category and model are required")
	}
	if total < 1 {
		return nil, fmt.Errorf("total quantity must be at least 1, got %d", total)
	}

	eq := &models.Equipment{
		Category:          category,
		Model:             model,
		TotalQuantity:     total,
		AvailableQuantity: total,
	}
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Equipment{}).
			Where("category = ? AND model = ? AND deleted_at IS NULL", category, model).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return &DuplicateEquipmentError{Category: category, Model: model}
		}
		return tx.Create(eq).Error
	})
	if err != nil {
		return nil, err
	}
	return eq, nil
}

// ReviseQuantity 調整總量。不可低於已借出數；可用量跟著重算，
// 讓 available = total - borrowed 恆成立。可順帶更新圖片 URL。
func (r *Repo) ReviseQuantity(ctx context.Context, equipmentID uint, newTotal int, fullURL, thumbURL *string) (*models.Equipment, error) {
	var eq models.Equipment
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&eq, "id = ? AND deleted_at IS NULL", equipmentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		borrowed := eq.TotalQuantity - eq.AvailableQuantity
		if newTotal < borrowed {
			return &BelowBorrowedError{Model: eq.Model, Borrowed: borrowed}
		}

		updates := map[string]any{
			"total_quantity":     newTotal,
			"available_quantity": newTotal - borrowed,
		}
		if fullURL != nil && thumbURL != nil {
			updates["image_full_url"] = *fullURL
			updates["image_thumb_url"] = *thumbURL
		}
		if err := tx.Model(&models.Equipment{}).Where("id = ?", eq.ID).Updates(updates).Error; err != nil {
			return err
		}
		eq.TotalQuantity = newTotal
		eq.AvailableQuantity = newTotal - borrowed
		if fullURL != nil && thumbURL != nil {
			eq.ImageFullURL = fullURL
			eq.ImageThumbURL = thumbURL
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &eq, nil
}

// SetEquipmentImages 只更新圖片 URL（新增器材後補上傳用）
func (r *Repo) SetEquipmentImages(ctx context.Context, equipmentID uint, fullURL, thumbURL string) error {
	return r.DB.WithContext(ctx).Model(&models.Equipment{}).
		Where("id = ? AND deleted_at IS NULL", equipmentID).
		Updates(map[string]any{
			"image_full_url":  fullURL,
			"image_thumb_url": thumbURL,
		}).Error
}

// SoftDeleteEquipment 軟刪除：還有未歸還件數時拒絕。刪除後不再
// 出現在現役清單，歷史記錄照常可查。
func (r *Repo) SoftDeleteEquipment(ctx context.Context, equipmentID uint) (*models.Equipment, error) {
	var eq models.Equipment
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&eq, "id = ? AND deleted_at IS NULL", equipmentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		var borrowed int64
		if err := tx.Model(&models.RentalRecord{}).
			Where("equipment_id = ? AND status = ?", eq.ID, models.StatusBorrowed).
			Count(&borrowed).Error; err != nil {
			return err
		}
		if borrowed > 0 {
			return &OutstandingLoansError{Name: eq.Model, Count: int(borrowed)}
		}
		return tx.Model(&models.Equipment{}).
			Where("id = ?", eq.ID).
			Update("deleted_at", r.now()).Error
	})
	if err != nil {
		return nil, err
	}
	return &eq, nil
}
