package db

import (
	"context"
	"errors"
	"strings"
	"time"

	"guitar-club-rental/models"

	"gorm.io/gorm"
)

// Repo 是唯一的持久層介面：所有查詢走 GORM 參數化語句，
// 任何地方都不分資料庫方言。
type Repo struct {
	DB  *gorm.DB
	now func() time.Time
}

func NewRepo(db *gorm.DB) *Repo { return &Repo{DB: db, now: time.Now} }

// NewRepoWithClock 讓呼叫端決定時間來源（時區、測試用假時鐘）
func NewRepoWithClock(db *gorm.DB, now func() time.Time) *Repo {
	if now == nil {
		now = time.Now
	}
	return &Repo{DB: db, now: now}
}

// Members

func (r *Repo) CreateMember(ctx context.Context, m *models.Member) error {
	// 先查重給出明確錯誤；student_id 的唯一索引仍是最終防線
	var n int64
	if err := r.DB.WithContext(ctx).Model(&models.Member{}).
		Where("student_id = ?", m.StudentID).
		Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return ErrDuplicateStudentID
	}
	if err := r.DB.WithContext(ctx).Create(m).Error; err != nil {
		if isDuplicateErr(err) {
			return ErrDuplicateStudentID
		}
		return err
	}
	return nil
}

func isDuplicateErr(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}

func (r *Repo) FindMemberByID(ctx context.Context, id uint) (*models.Member, error) {
	var m models.Member
	if err := r.DB.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *Repo) FindMemberByStudentID(ctx context.Context, studentID string) (*models.Member, error) {
	var m models.Member
	if err := r.DB.WithContext(ctx).Where("student_id = ?", studentID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// ListMembers 一般社員清單（不含管理員），給管理介面用
func (r *Repo) ListMembers(ctx context.Context) ([]models.Member, error) {
	var ms []models.Member
	err := r.DB.WithContext(ctx).
		Where("is_admin = ?", false).
		Order("created_at ASC").
		Find(&ms).Error
	return ms, err
}

// RemoveMember 實體刪除社員。管理員不可刪；還有未歸還器材也不可刪。
// 歷史租借記錄靠借出時寫入的快照欄位存活，不受刪除影響。
func (r *Repo) RemoveMember(ctx context.Context, memberID uint) (*models.Member, error) {
	var m models.Member
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND is_admin = ?", memberID, false).First(&m).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		var outstanding int64
		if err := tx.Model(&models.RentalRecord{}).
			Where("member_id = ? AND status = ?", memberID, models.StatusBorrowed).
			Count(&outstanding).Error; err != nil {
			return err
		}
		if outstanding > 0 {
			return &OutstandingLoansError{Name: m.Name, Count: int(outstanding)}
		}
		return tx.Delete(&models.Member{}, m.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ResetMemberPassword 管理員重設一般社員密碼（不可動管理員帳號）
func (r *Repo) ResetMemberPassword(ctx context.Context, memberID uint, passwordHash string) (*models.Member, error) {
	var m models.Member
	if err := r.DB.WithContext(ctx).
		Where("id = ? AND is_admin = ?", memberID, false).
		First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := r.DB.WithContext(ctx).Model(&models.Member{}).
		Where("id = ?", m.ID).
		Update("password", passwordHash).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *Repo) TouchMemberSeen(ctx context.Context, memberID uint) error {
	return r.DB.WithContext(ctx).Model(&models.Member{}).
		Where("id = ?", memberID).
		Update("last_seen_at", r.now()).Error
}
