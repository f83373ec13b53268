package db

import (
	"errors"
	"fmt"
)

// 可恢復的業務錯誤。這裡只帶上下文，不產生給使用者看的文案；
// 翻譯成訊息是 controller 的事。
var (
	ErrNotFound           = errors.New("record not found")
	ErrBorrowFailed       = errors.New("borrow failed")
	ErrNothingToReturn    = errors.New("no returnable records")
	ErrDuplicateStudentID = errors.New("student id already registered")
)

// InsufficientStockError 庫存不足：帶型號與 requested/available 數量
type InsufficientStockError struct {
	Model     string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d",
		e.Model, e.Requested, e.Available)
}

// OverReturnError 歸還數量超過未歸還件數
type OverReturnError struct {
	Requested   int
	Outstanding int
}

func (e *OverReturnError) Error() string {
	return fmt.Sprintf("cannot return %d: only %d outstanding", e.Requested, e.Outstanding)
}

// DuplicateEquipmentError 已存在同 category+model 的現役器材
type DuplicateEquipmentError struct {
	Category string
	Model    string
}

func (e *DuplicateEquipmentError) Error() string {
	return fmt.Sprintf("equipment %s - %s already exists", e.Category, e.Model)
}

// BelowBorrowedError 新總量低於目前已借出件數
type BelowBorrowedError struct {
	Model    string
	Borrowed int
}

func (e *BelowBorrowedError) Error() string {
	return fmt.Sprintf("total quantity for %s cannot go below %d currently borrowed", e.Model, e.Borrowed)
}

// OutstandingLoansError 還有未歸還的件數，不能刪（器材或社員通用）
type OutstandingLoansError struct {
	Name  string
	Count int
}

func (e *OutstandingLoansError) Error() string {
	return fmt.Sprintf("%s still has %d unreturned", e.Name, e.Count)
}
