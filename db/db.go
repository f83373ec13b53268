package db

import (
	"fmt"
	"log"
	"os"

	"guitar-club-rental/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func ConnectDB() *gorm.DB {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
	)

	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}
	log.Println("Database connected")
	return conn
}

// InitOptions 首次啟動的種子資料設定
type InitOptions struct {
	AdminStudentID string
	AdminName      string
	AdminPassword  string // 明碼，這裡負責雜湊
	SeedCatalog    bool
}

// Init 建表 + 索引 + 種子資料。整段可重複執行（每一步都有存在性
// 防護），啟動時呼叫一次即可，不需要任何 process 級旗標。
func Init(db *gorm.DB, opts InitOptions) error {
	if err := db.AutoMigrate(&models.Member{}, &models.Equipment{}, &models.RentalRecord{}); err != nil {
		return err
	}

	// 借出中的記錄是最熱的查詢路徑（可用量核對、歸還候選、刪除防護）
	if err := db.Exec(fmt.Sprintf(`
	  CREATE INDEX IF NOT EXISTS %s_open_equipment
	  ON %s (equipment_id)
	  WHERE status = 'borrowed';
	`, models.RentalTable, models.RentalTable)).Error; err != nil {
		return err
	}

	// 批次鍵：同批記錄共用 rental_time，歸還與儀表板都按它分組
	if err := db.Exec(fmt.Sprintf(`
	  CREATE INDEX IF NOT EXISTS %s_member_batch
	  ON %s (member_id, rental_time);
	`, models.RentalTable, models.RentalTable)).Error; err != nil {
		return err
	}

	if opts.SeedCatalog {
		if err := seedCatalog(db); err != nil {
			return err
		}
	}
	return seedAdmin(db, opts)
}

// 預設器材目錄：只有在完全沒有現役器材時才灌入
func seedCatalog(db *gorm.DB) error {
	var n int64
	if err := db.Model(&models.Equipment{}).Where("deleted_at IS NULL").Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	catalog := []struct {
		category string
		model    string
		qty      int
	}{
		{"插電吉他", "Fender Stratocaster", 2},
		{"插電吉他", "Ibanez RG", 3},
		{"插電吉他", "Gibson Les Paul", 1},
		{"不插電吉他", "Yamaha FG830", 4},
		{"不插電吉他", "Martin D-28", 1},
		{"不插電吉他", "Taylor 814ce", 2},
		{"控台", "Behringer X32", 1},
		{"控台", "Yamaha MG16XU", 2},
		{"喇叭", "JBL EON615", 3},
		{"喇叭", "Yamaha DBR15", 2},
	}
	for _, c := range catalog {
		eq := models.Equipment{
			Category:          c.category,
			Model:             c.model,
			TotalQuantity:     c.qty,
			AvailableQuantity: c.qty,
		}
		if err := db.Create(&eq).Error; err != nil {
			return err
		}
	}
	return nil
}

// 沒有任何管理員時建立預設管理員帳號
func seedAdmin(db *gorm.DB, opts InitOptions) error {
	if opts.AdminStudentID == "" || opts.AdminPassword == "" {
		return nil
	}
	var n int64
	if err := db.Model(&models.Member{}).Where("is_admin = ?", true).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(opts.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	name := opts.AdminName
	if name == "" {
		name = "系統管理員"
	}
	admin := models.Member{
		StudentID: opts.AdminStudentID,
		Name:      name,
		ClassName: "管理組",
		ClubRole:  "系統管理員",
		Password:  string(hash),
		IsAdmin:   true,
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}
	log.Printf("seeded default admin account %s", opts.AdminStudentID)
	return nil
}
