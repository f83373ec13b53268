package db

import (
	"context"
	"errors"
	"testing"

	"guitar-club-rental/models"
)

func TestBorrowDecrementsAvailability(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	m := seedMember(t, r, "D1234567", "王小明")
	eq := seedEquipment(t, r, "插電吉他", "Fender Stratocaster", 2)

	res, err := r.BorrowBatch(ctx, BorrowInput{
		MemberID: m.ID, EquipmentID: eq.ID, Quantity: 1, Duration: 2, Unit: UnitDays,
	})
	if err != nil {
		t.Fatalf("borrow 1 for 2 days: %v", err)
	}
	if res.RentalDays != 2 {
		t.Errorf("rentalDays = %v, want 2", res.RentalDays)
	}
	if res.DisplayDays != 2 {
		t.Errorf("displayDays = %d, want 2", res.DisplayDays)
	}
	if got := availableOf(t, r, eq.ID); got != 1 {
		t.Errorf("available after first borrow = %d, want 1", got)
	}

	res, err = r.BorrowBatch(ctx, BorrowInput{
		MemberID: m.ID, EquipmentID: eq.ID, Quantity: 1, Duration: 24, Unit: UnitHours,
	})
	if err != nil {
		t.Fatalf("borrow 1 for 24 hours: %v", err)
	}
	if res.RentalDays != 1 {
		t.Errorf("rentalDays for 24 hours = %v, want 1", res.RentalDays)
	}
	if res.DisplayDays != 1 {
		t.Errorf("displayDays for 24 hours = %d, want 1", res.DisplayDays)
	}
	if got := availableOf(t, r, eq.ID); got != 0 {
		t.Errorf("available after second borrow = %d, want 0", got)
	}

	_, err = r.BorrowBatch(ctx, BorrowInput{
		MemberID: m.ID, EquipmentID: eq.ID, Quantity: 1, Duration: 1, Unit: UnitDays,
	})
	var insufficient *InsufficientStockError
	if !errors.As(err, &insufficient) {
		t.Fatalf("borrow beyond stock: err = %v, want InsufficientStockError", err)
	}
	if insufficient.Available != 0 {
		t.Errorf("reported available = %d, want 0", insufficient.Available)
	}
}

func TestBorrowFractionalHours(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	m := seedMember(t, r, "D1234567", "王小明")
	eq := seedEquipment(t, r, "喇叭", "JBL EON615", 3)

	res, err := r.BorrowBatch(ctx, BorrowInput{
		MemberID: m.ID, EquipmentID: eq.ID, Quantity: 1, Duration: 6, Unit: UnitHours,
	})
	if err != nil {
		t.Fatalf("borrow for 6 hours: %v", err)
	}
	if res.RentalDays != 0.25 {
		t.Errorf("rentalDays = %v, want 0.25", res.RentalDays)
	}
	// 不足一天顯示時仍至少算 1 天
	if res.DisplayDays != 1 {
		t.Errorf("displayDays = %d, want 1", res.DisplayDays)
	}

	var rec models.RentalRecord
	if err := r.DB.First(&rec, "equipment_id = ?", eq.ID).Error; err != nil {
		t.Fatalf("load record: %v", err)
	}
	if rec.RentalDays == nil || *rec.RentalDays != 0.25 {
		t.Errorf("persisted rental_days = %v, want 0.25", rec.RentalDays)
	}
	if rec.ExpectedReturn == nil {
		t.Fatal("expected_return not set")
	}
	if got := rec.ExpectedReturn.Sub(rec.RentalTime).Hours(); got != 6 {
		t.Errorf("expected_return - rental_time = %v hours, want 6", got)
	}
}

func TestBorrowFractionalDaysDisplay(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	m := seedMember(t, r, "D1234567", "王小明")
	eq := seedEquipment(t, r, "喇叭", "Yamaha DBR15", 2)

	// 半天：落庫 0.5，顯示至少 1 天
	res, err := r.BorrowBatch(ctx, BorrowInput{
		MemberID: m.ID, EquipmentID: eq.ID, Quantity: 1, Duration: 0.5, Unit: UnitDays,
	})
	if err != nil {
		t.Fatalf("borrow for half a day: %v", err)
	}
	if res.RentalDays != 0.5 {
		t.Errorf("rentalDays = %v, want 0.5", res.RentalDays)
	}
	if res.DisplayDays != 1 {
		t.Errorf("displayDays = %d, want 1", res.DisplayDays)
	}

	res, err = r.BorrowBatch(ctx, BorrowInput{
		MemberID: m.ID, EquipmentID: eq.ID, Quantity: 1, Duration: 2.6, Unit: UnitDays,
	})
	if err != nil {
		t.Fatalf("borrow for 2.6 days: %v", err)
	}
	if res.RentalDays != 2.6 {
		t.Errorf("rentalDays = %v, want 2.6", res.RentalDays)
	}
	if res.DisplayDays != 3 {
		t.Errorf("displayDays = %d, want 3", res.DisplayDays)
	}
}

func TestBorrowTransactionFailureRollsBack(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	m := seedMember(t, r, "D1234567", "王小明")
	eq := seedEquipment(t, r, "控台", "Behringer X32", 1)

	// 交易中途炸掉（記錄表不存在）：回傳包裝過的哨兵，扣量也要回滾
	if err := r.DB.Exec("DROP TABLE " + models.RentalTable).Error; err != nil {
		t.Fatalf("drop rental table: %v", err)
	}
	_, err := r.BorrowBatch(ctx, BorrowInput{
		MemberID: m.ID, EquipmentID: eq.ID, Quantity: 1, Duration: 1, Unit: UnitDays,
	})
	if !errors.Is(err, ErrBorrowFailed) {
		t.Fatalf("err = %v, want wrapped ErrBorrowFailed", err)
	}
	if got := availableOf(t, r, eq.ID); got != 1 {
		t.Errorf("available after rolled-back borrow = %d, want 1", got)
	}
}

func TestBorrowBatchSharesRentalTime(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	m := seedMember(t, r, "D1234567", "王小明")
	eq := seedEquipment(t, r, "不插電吉他", "Yamaha FG830", 4)

	res, err := r.BorrowBatch(ctx, BorrowInput{
		MemberID: m.ID, EquipmentID: eq.ID, Quantity: 3, Duration: 1, Unit: UnitDays,
	})
	if err != nil {
		t.Fatalf("borrow 3: %v", err)
	}

	var recs []models.RentalRecord
	if err := r.DB.Where("equipment_id = ?", eq.ID).Find(&recs).Error; err != nil {
		t.Fatalf("load records: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("record count = %d, want 3", len(recs))
	}
	for _, rec := range recs {
		if !rec.RentalTime.Equal(res.RentalTime) {
			t.Errorf("record %d rental_time = %v, want %v", rec.ID, rec.RentalTime, res.RentalTime)
		}
		if rec.MemberName != "王小明" || rec.StudentID != "D1234567" {
			t.Errorf("record %d snapshot = (%q, %q)", rec.ID, rec.MemberName, rec.StudentID)
		}
	}
	if got := availableOf(t, r, eq.ID); got != 1 {
		t.Errorf("available = %d, want 1", got)
	}
}

func TestBorrowRejectsBadInput(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	m := seedMember(t, r, "D1234567", "王小明")
	eq := seedEquipment(t, r, "控台", "Yamaha MG16XU", 2)

	cases := []BorrowInput{
		{MemberID: m.ID, EquipmentID: eq.ID, Quantity: 0, Duration: 1, Unit: UnitDays},
		{MemberID: m.ID, EquipmentID: eq.ID, Quantity: 1, Duration: 0, Unit: UnitDays},
		{MemberID: m.ID, EquipmentID: eq.ID, Quantity: 1, Duration: -2, Unit: UnitHours},
		{MemberID: m.ID, EquipmentID: eq.ID, Quantity: 1, Duration: 1, Unit: "weeks"},
	}
	for i, in := range cases {
		if _, err := r.BorrowBatch(ctx, in); err == nil {
			t.Errorf("case %d: expected error, got nil", i)
		}
	}
	if got := availableOf(t, r, eq.ID); got != 2 {
		t.Errorf("available changed by rejected borrows: %d, want 2", got)
	}
}

func TestBorrowUnknownTargets(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	m := seedMember(t, r, "D1234567", "王小明")
	eq := seedEquipment(t, r, "控台", "Behringer X32", 1)

	if _, err := r.BorrowBatch(ctx, BorrowInput{
		MemberID: 999, EquipmentID: eq.ID, Quantity: 1, Duration: 1, Unit: UnitDays,
	}); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown member: err = %v, want ErrNotFound", err)
	}
	if _, err := r.BorrowBatch(ctx, BorrowInput{
		MemberID: m.ID, EquipmentID: 999, Quantity: 1, Duration: 1, Unit: UnitDays,
	}); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown equipment: err = %v, want ErrNotFound", err)
	}

	// 軟刪除後視同不存在
	if _, err := r.SoftDeleteEquipment(ctx, eq.ID); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	if _, err := r.BorrowBatch(ctx, BorrowInput{
		MemberID: m.ID, EquipmentID: eq.ID, Quantity: 1, Duration: 1, Unit: UnitDays,
	}); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted equipment: err = %v, want ErrNotFound", err)
	}
}

func TestReturnFIFO(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	m := seedMember(t, r, "D1234567", "王小明")
	eq := seedEquipment(t, r, "插電吉他", "Fender Stratocaster", 2)

	first, err := r.BorrowBatch(ctx, BorrowInput{
		MemberID: m.ID, EquipmentID: eq.ID, Quantity: 1, Duration: 2, Unit: UnitDays,
	})
	if err != nil {
		t.Fatalf("first borrow: %v", err)
	}
	second, err := r.BorrowBatch(ctx, BorrowInput{
		MemberID: m.ID, EquipmentID: eq.ID, Quantity: 1, Duration: 1, Unit: UnitDays,
	})
	if err != nil {
		t.Fatalf("second borrow: %v", err)
	}

	// 未指定批次：先借先還
	res, err := r.ReturnBatch(ctx, ReturnInput{
		MemberID: m.ID, Category: "插電吉他", Model: "Fender Stratocaster", Quantity: 1,
	})
	if err != nil {
		t.Fatalf("return 1: %v", err)
	}
	if res.Returned != 1 {
		t.Errorf("returned = %d, want 1", res.Returned)
	}

	var returned models.RentalRecord
	if err := r.DB.Where("status = ?", models.StatusReturned).First(&returned).Error; err != nil {
		t.Fatalf("load returned record: %v", err)
	}
	if !returned.RentalTime.Equal(first.RentalTime) {
		t.Errorf("returned batch = %v, want earliest %v", returned.RentalTime, first.RentalTime)
	}
	var open models.RentalRecord
	if err := r.DB.Where("status = ?", models.StatusBorrowed).First(&open).Error; err != nil {
		t.Fatalf("load open record: %v", err)
	}
	if !open.RentalTime.Equal(second.RentalTime) {
		t.Errorf("open batch = %v, want latest %v", open.RentalTime, second.RentalTime)
	}
	if got := availableOf(t, r, eq.ID); got != 1 {
		t.Errorf("available = %d, want 1", got)
	}
}

func TestReturnScopedToBatch(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	m := seedMember(t, r, "D1234567", "王小明")
	eq := seedEquipment(t, r, "不插電吉他", "Taylor 814ce", 2)

	first, err := r.BorrowBatch(ctx, BorrowInput{
		MemberID: m.ID, EquipmentID: eq.ID, Quantity: 1, Duration: 1, Unit: UnitDays,
	})
	if err != nil {
		t.Fatalf("first borrow: %v", err)
	}
	second, err := r.BorrowBatch(ctx, BorrowInput{
		MemberID: m.ID, EquipmentID: eq.ID, Quantity: 1, Duration: 1, Unit: UnitDays,
	})
	if err != nil {
		t.Fatalf("second borrow: %v", err)
	}

	// 指定第二批：FIFO 被批次鍵覆蓋
	if _, err := r.ReturnBatch(ctx, ReturnInput{
		MemberID: m.ID, Category: "不插電吉他", Model: "Taylor 814ce",
		Batch: &second.RentalTime,
	}); err != nil {
		t.Fatalf("return second batch: %v", err)
	}

	var open models.RentalRecord
	if err := r.DB.Where("status = ?", models.StatusBorrowed).First(&open).Error; err != nil {
		t.Fatalf("load open record: %v", err)
	}
	if !open.RentalTime.Equal(first.RentalTime) {
		t.Errorf("open batch = %v, want first %v", open.RentalTime, first.RentalTime)
	}
}

func TestReturnAllWhenQuantityZero(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	m := seedMember(t, r, "D1234567", "王小明")
	eq := seedEquipment(t, r, "不插電吉他", "Yamaha FG830", 4)

	for i := 0; i < 2; i++ {
		if _, err := r.BorrowBatch(ctx, BorrowInput{
			MemberID: m.ID, EquipmentID: eq.ID, Quantity: 2, Duration: 1, Unit: UnitDays,
		}); err != nil {
			t.Fatalf("borrow %d: %v", i, err)
		}
	}
	if got := availableOf(t, r, eq.ID); got != 0 {
		t.Fatalf("available = %d, want 0", got)
	}

	res, err := r.ReturnBatch(ctx, ReturnInput{
		MemberID: m.ID, Category: "不插電吉他", Model: "Yamaha FG830",
	})
	if err != nil {
		t.Fatalf("return all: %v", err)
	}
	if res.Returned != 4 {
		t.Errorf("returned = %d, want 4", res.Returned)
	}
	if got := availableOf(t, r, eq.ID); got != 4 {
		t.Errorf("available = %d, want 4", got)
	}
	if got := borrowedCountOf(t, r, eq.ID); got != 0 {
		t.Errorf("open records = %d, want 0", got)
	}
}

func TestReturnErrors(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	m := seedMember(t, r, "D1234567", "王小明")
	eq := seedEquipment(t, r, "控台", "Behringer X32", 1)

	// 沒借過就還
	if _, err := r.ReturnBatch(ctx, ReturnInput{
		MemberID: m.ID, Category: "控台", Model: "Behringer X32",
	}); !errors.Is(err, ErrNothingToReturn) {
		t.Errorf("nothing to return: err = %v, want ErrNothingToReturn", err)
	}

	if _, err := r.BorrowBatch(ctx, BorrowInput{
		MemberID: m.ID, EquipmentID: eq.ID, Quantity: 1, Duration: 1, Unit: UnitDays,
	}); err != nil {
		t.Fatalf("borrow: %v", err)
	}

	// 超量歸還：整筆拒絕，狀態不變
	var over *OverReturnError
	if _, err := r.ReturnBatch(ctx, ReturnInput{
		MemberID: m.ID, Category: "控台", Model: "Behringer X32", Quantity: 2,
	}); !errors.As(err, &over) {
		t.Fatalf("over-return: err = %v, want OverReturnError", err)
	} else if over.Outstanding != 1 {
		t.Errorf("reported outstanding = %d, want 1", over.Outstanding)
	}
	if got := availableOf(t, r, eq.ID); got != 0 {
		t.Errorf("available after rejected return = %d, want 0", got)
	}
	if got := borrowedCountOf(t, r, eq.ID); got != 1 {
		t.Errorf("open records after rejected return = %d, want 1", got)
	}

	// 全還之後再還一次
	if _, err := r.ReturnBatch(ctx, ReturnInput{
		MemberID: m.ID, Category: "控台", Model: "Behringer X32",
	}); err != nil {
		t.Fatalf("return all: %v", err)
	}
	if _, err := r.ReturnBatch(ctx, ReturnInput{
		MemberID: m.ID, Category: "控台", Model: "Behringer X32",
	}); !errors.Is(err, ErrNothingToReturn) {
		t.Errorf("double return: err = %v, want ErrNothingToReturn", err)
	}
	if got := availableOf(t, r, eq.ID); got != 1 {
		t.Errorf("available after double return = %d, want 1", got)
	}
}

func TestAvailabilityInvariantAcrossMembers(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	a := seedMember(t, r, "D1111111", "王小明")
	b := seedMember(t, r, "D2222222", "李大華")
	eq := seedEquipment(t, r, "喇叭", "Yamaha DBR15", 5)

	ops := []struct {
		member *models.Member
		qty    int
	}{
		{a, 2}, {b, 1}, {a, 1},
	}
	for _, op := range ops {
		if _, err := r.BorrowBatch(ctx, BorrowInput{
			MemberID: op.member.ID, EquipmentID: eq.ID, Quantity: op.qty, Duration: 1, Unit: UnitDays,
		}); err != nil {
			t.Fatalf("borrow %d for %s: %v", op.qty, op.member.Name, err)
		}
	}
	if _, err := r.ReturnBatch(ctx, ReturnInput{
		MemberID: a.ID, Category: "喇叭", Model: "Yamaha DBR15", Quantity: 1,
	}); err != nil {
		t.Fatalf("partial return: %v", err)
	}

	// available = total - 借出中件數 恆成立
	avail := availableOf(t, r, eq.ID)
	open := borrowedCountOf(t, r, eq.ID)
	if avail != 5-open {
		t.Errorf("available = %d, open = %d, want available = %d", avail, open, 5-open)
	}
	if avail != 2 {
		t.Errorf("available = %d, want 2", avail)
	}

	// 乙的歸還不會動到甲的記錄
	if _, err := r.ReturnBatch(ctx, ReturnInput{
		MemberID: b.ID, Category: "喇叭", Model: "Yamaha DBR15",
	}); err != nil {
		t.Fatalf("member b return: %v", err)
	}
	var openA int64
	if err := r.DB.Model(&models.RentalRecord{}).
		Where("member_id = ? AND status = ?", a.ID, models.StatusBorrowed).
		Count(&openA).Error; err != nil {
		t.Fatalf("count member a open: %v", err)
	}
	if openA != 2 {
		t.Errorf("member a open records = %d, want 2", openA)
	}
}

func TestAddEquipmentDuplicate(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	seedEquipment(t, r, "控台", "Behringer X32", 1)

	var dup *DuplicateEquipmentError
	if _, err := r.AddEquipment(ctx, "控台", "Behringer X32", 2); !errors.As(err, &dup) {
		t.Fatalf("duplicate add: err = %v, want DuplicateEquipmentError", err)
	}

	// 同型號不同類別不算重複
	if _, err := r.AddEquipment(ctx, "混音器", "Behringer X32", 1); err != nil {
		t.Errorf("same model in another category: %v", err)
	}
}

func TestAddEquipmentAfterSoftDelete(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	eq := seedEquipment(t, r, "控台", "Behringer X32", 1)

	if _, err := r.SoftDeleteEquipment(ctx, eq.ID); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	// 軟刪除後可以重建同名器材
	again, err := r.AddEquipment(ctx, "控台", "Behringer X32", 2)
	if err != nil {
		t.Fatalf("re-add after delete: %v", err)
	}
	if again.ID == eq.ID {
		t.Error("re-added equipment reused the deleted row")
	}
	if again.AvailableQuantity != 2 {
		t.Errorf("available = %d, want 2", again.AvailableQuantity)
	}
}

func TestReviseQuantity(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	m := seedMember(t, r, "D1234567", "王小明")
	eq := seedEquipment(t, r, "插電吉他", "Ibanez RG", 3)

	if _, err := r.BorrowBatch(ctx, BorrowInput{
		MemberID: m.ID, EquipmentID: eq.ID, Quantity: 2, Duration: 1, Unit: UnitDays,
	}); err != nil {
		t.Fatalf("borrow: %v", err)
	}

	// 低於已借出數：拒絕
	var below *BelowBorrowedError
	if _, err := r.ReviseQuantity(ctx, eq.ID, 1, nil, nil); !errors.As(err, &below) {
		t.Fatalf("revise below borrowed: err = %v, want BelowBorrowedError", err)
	} else if below.Borrowed != 2 {
		t.Errorf("reported borrowed = %d, want 2", below.Borrowed)
	}

	// 調高總量：可用量跟著重算
	out, err := r.ReviseQuantity(ctx, eq.ID, 5, nil, nil)
	if err != nil {
		t.Fatalf("revise up: %v", err)
	}
	if out.TotalQuantity != 5 || out.AvailableQuantity != 3 {
		t.Errorf("after revise: total = %d, available = %d, want 5/3",
			out.TotalQuantity, out.AvailableQuantity)
	}

	// 等於已借出數：可用量歸零但合法
	out, err = r.ReviseQuantity(ctx, eq.ID, 2, nil, nil)
	if err != nil {
		t.Fatalf("revise to borrowed count: %v", err)
	}
	if out.AvailableQuantity != 0 {
		t.Errorf("available = %d, want 0", out.AvailableQuantity)
	}
}

func TestSoftDeleteGuards(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	m := seedMember(t, r, "D1234567", "王小明")
	eq := seedEquipment(t, r, "控台", "Behringer X32", 1)

	if _, err := r.BorrowBatch(ctx, BorrowInput{
		MemberID: m.ID, EquipmentID: eq.ID, Quantity: 1, Duration: 1, Unit: UnitDays,
	}); err != nil {
		t.Fatalf("borrow: %v", err)
	}

	// 還有未歸還件數：拒絕刪除
	var outstanding *OutstandingLoansError
	if _, err := r.SoftDeleteEquipment(ctx, eq.ID); !errors.As(err, &outstanding) {
		t.Fatalf("delete with open loans: err = %v, want OutstandingLoansError", err)
	}

	if _, err := r.ReturnBatch(ctx, ReturnInput{
		MemberID: m.ID, Category: "控台", Model: "Behringer X32",
	}); err != nil {
		t.Fatalf("return: %v", err)
	}
	if _, err := r.SoftDeleteEquipment(ctx, eq.ID); err != nil {
		t.Fatalf("delete after return: %v", err)
	}

	// 現役清單不再出現，歷史流水帳仍查得到
	cats, err := r.ListCategories(ctx)
	if err != nil {
		t.Fatalf("list categories: %v", err)
	}
	if len(cats) != 0 {
		t.Errorf("categories after delete = %v, want empty", cats)
	}
	history, err := r.ListRentalHistory(ctx, 0)
	if err != nil {
		t.Fatalf("list history: %v", err)
	}
	if len(history) == 0 {
		t.Error("history lost after equipment deletion")
	}
}

func TestListMemberRentalsGroupsByBatch(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	m := seedMember(t, r, "D1234567", "王小明")
	eq := seedEquipment(t, r, "不插電吉他", "Yamaha FG830", 4)

	if _, err := r.BorrowBatch(ctx, BorrowInput{
		MemberID: m.ID, EquipmentID: eq.ID, Quantity: 2, Duration: 1, Unit: UnitDays,
	}); err != nil {
		t.Fatalf("first borrow: %v", err)
	}
	if _, err := r.BorrowBatch(ctx, BorrowInput{
		MemberID: m.ID, EquipmentID: eq.ID, Quantity: 1, Duration: 1, Unit: UnitDays,
	}); err != nil {
		t.Fatalf("second borrow: %v", err)
	}
	if _, err := r.ReturnBatch(ctx, ReturnInput{
		MemberID: m.ID, Category: "不插電吉他", Model: "Yamaha FG830", Quantity: 1,
	}); err != nil {
		t.Fatalf("return: %v", err)
	}

	rows, err := r.ListMemberRentals(ctx, m.ID, 0)
	if err != nil {
		t.Fatalf("list member rentals: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("row count = %d, want 2 (one per batch)", len(rows))
	}
	// 最新批次在前
	if rows[0].Quantity != 1 || rows[0].BorrowedCount != 1 {
		t.Errorf("latest batch = %d/%d, want quantity 1, borrowed 1",
			rows[0].Quantity, rows[0].BorrowedCount)
	}
	if rows[1].Quantity != 2 || rows[1].BorrowedCount != 1 {
		t.Errorf("earliest batch = %d/%d, want quantity 2, borrowed 1",
			rows[1].Quantity, rows[1].BorrowedCount)
	}
	if rows[1].FirstReturnTime == nil {
		t.Error("earliest batch missing return time after partial return")
	} else if rows[1].FirstReturnTime.IsZero() {
		t.Error("earliest batch return time scanned as zero")
	}
	if rows[0].FirstReturnTime != nil {
		t.Errorf("latest batch has no returns, got return time %v", rows[0].FirstReturnTime)
	}
}

func TestListOutstandingUsesSnapshot(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	m := seedMember(t, r, "D1234567", "王小明")
	eq := seedEquipment(t, r, "插電吉他", "Gibson Les Paul", 1)

	if _, err := r.BorrowBatch(ctx, BorrowInput{
		MemberID: m.ID, EquipmentID: eq.ID, Quantity: 1, Duration: 1, Unit: UnitDays,
	}); err != nil {
		t.Fatalf("borrow: %v", err)
	}

	rows, err := r.ListOutstanding(ctx)
	if err != nil {
		t.Fatalf("list outstanding: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("row count = %d, want 1", len(rows))
	}
	if rows[0].MemberName != "王小明" || rows[0].StudentID != "D1234567" {
		t.Errorf("snapshot = (%q, %q)", rows[0].MemberName, rows[0].StudentID)
	}
	if rows[0].Quantity != 1 || rows[0].Model != "Gibson Les Paul" {
		t.Errorf("row = %+v", rows[0])
	}
	if rows[0].FirstRentalTime.IsZero() || rows[0].LastRentalTime.IsZero() {
		t.Errorf("rental time range scanned as zero: %v .. %v",
			rows[0].FirstRentalTime, rows[0].LastRentalTime)
	}
	if rows[0].ExpectedReturn == nil || rows[0].ExpectedReturn.IsZero() {
		t.Errorf("expected return = %v, want the borrow's deadline", rows[0].ExpectedReturn)
	}
	if rows[0].RentalDays == nil || *rows[0].RentalDays != 1 {
		t.Errorf("rental days = %v, want 1", rows[0].RentalDays)
	}
}

func TestListModelsByCategoryHidesExhausted(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	m := seedMember(t, r, "D1234567", "王小明")
	full := seedEquipment(t, r, "控台", "Yamaha MG16XU", 2)
	empty := seedEquipment(t, r, "控台", "Behringer X32", 1)

	if _, err := r.BorrowBatch(ctx, BorrowInput{
		MemberID: m.ID, EquipmentID: empty.ID, Quantity: 1, Duration: 1, Unit: UnitDays,
	}); err != nil {
		t.Fatalf("borrow: %v", err)
	}

	eqs, err := r.ListModelsByCategory(ctx, "控台")
	if err != nil {
		t.Fatalf("list models: %v", err)
	}
	if len(eqs) != 1 || eqs[0].ID != full.ID {
		t.Errorf("models = %+v, want only %q", eqs, full.Model)
	}
}
