package models

import "time"

const EquipmentTable = "equipment"
const RentalTable = "rental_records"

// 租借記錄狀態機：borrowed → returned，不可逆、無其他狀態
const (
	StatusBorrowed = "borrowed"
	StatusReturned = "returned"
)

// Equipment 器材庫存。AvailableQuantity 是冗餘計數欄，
// 恆等式 available = total - (status='borrowed' 的記錄數) 由 db.Repo 的
// 交易維護。DeletedAt 非空代表軟刪除：不再出現在任何現役清單，
// 但歷史租借記錄仍可 JOIN。
type Equipment struct {
	ID                uint    `gorm:"primaryKey" json:"id"`
	Category          string  `gorm:"size:100;not null;index:idx_equipment_cat_model" json:"category"`
	Model             string  `gorm:"size:200;not null;index:idx_equipment_cat_model" json:"model"`
	TotalQuantity     int     `gorm:"not null;default:1" json:"totalQuantity"`
	AvailableQuantity int     `gorm:"not null;default:1" json:"availableQuantity"`
	ImageFullURL      *string `gorm:"type:text" json:"imageFullUrl,omitempty"`
	ImageThumbURL     *string `gorm:"type:text" json:"imageThumbUrl,omitempty"`

	DeletedAt *time.Time `gorm:"index" json:"deletedAt,omitempty"`
}

// RentalRecord 一列 = 一件實體器材的一次租借。同一批借走 N 件就會有
// N 列，共用同一個 RentalTime（批次的識別鍵）。
// MemberName/StudentID 是借出當下的快照：社員被刪除後歷史仍然完整。
type RentalRecord struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	MemberID    uint   `gorm:"index;not null" json:"memberId"`
	MemberName  string `gorm:"size:100;not null" json:"memberName"`
	StudentID   string `gorm:"size:50;not null" json:"studentId"`
	EquipmentID uint   `gorm:"index;not null" json:"equipmentId"`

	RentalTime     time.Time  `gorm:"index;not null" json:"rentalTime"`
	ReturnTime     *time.Time `json:"returnTime,omitempty"`
	ExpectedReturn *time.Time `json:"expectedReturn,omitempty"`
	RentalDays     *float64   `json:"rentalDays,omitempty"`

	Status string `gorm:"size:20;not null;default:'borrowed';index" json:"status"`
}

func (Equipment) TableName() string    { return EquipmentTable }
func (RentalRecord) TableName() string { return RentalTable }
