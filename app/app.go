package app

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"guitar-club-rental/db"
	"guitar-club-rental/session"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// 簡化別名，便於 handlers 呼叫
type Ctx = gin.Context
type H = gin.H

// App 聚合各依賴
type App struct {
	Router *gin.Engine
	DB     *gorm.DB
	RDB    *redis.Client
	Config Config

	appSess *session.AppSessionStore
}

// Config 從環境變數讀取
type Config struct {
	RedisAddr   string
	RedisPwd    string
	WebOrigin   string
	SessionTTL  time.Duration
	RememberTTL time.Duration // 勾「記住我」時的會話長度
	Location    *time.Location

	SupabaseURL    string
	SupabaseKey    string
	SupabaseBucket string

	AdminStudentID string
	AdminPassword  string
}

func (a *App) AppSessions() *session.AppSessionStore { return a.appSess }

// Clock 回傳統一的時間來源：一律打上設定的時區再落庫
func (a *App) Clock() func() time.Time {
	loc := a.Config.Location
	return func() time.Time { return time.Now().In(loc) }
}

func MustNew() *App {
	cfg := loadConfig()

	// --- DB: Postgres ---
	dbConn := db.ConnectDB()
	if err := db.Init(dbConn, db.InitOptions{
		AdminStudentID: cfg.AdminStudentID,
		AdminName:      "系統管理員",
		AdminPassword:  cfg.AdminPassword,
		SeedCatalog:    true,
	}); err != nil {
		log.Fatalf("init db: %v", err)
	}

	// --- Redis ---
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPwd, DB: 0})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("redis: %v", err)
	}

	// --- Gin ---
	r := gin.Default()
	useCORS(r, cfg.WebOrigin)
	return &App{
		Router: r, DB: dbConn, RDB: rdb, Config: cfg,
		appSess: session.NewAppSessionStore(rdb, cfg.SessionTTL),
	}
}

func (a *App) Close() { _ = a.RDB.Close() }

func loadConfig() Config {
	get := func(k, def string) string {
		v := os.Getenv(k)
		if v == "" {
			return def
		}
		return v
	}

	ttl := 24 * time.Hour
	if sec, err := strconv.Atoi(get("SESSION_TTL_SECONDS", "")); err == nil && sec > 0 {
		ttl = time.Duration(sec) * time.Second
	}
	remember := 30 * 24 * time.Hour
	if sec, err := strconv.Atoi(get("REMEMBER_TTL_SECONDS", "")); err == nil && sec > 0 {
		remember = time.Duration(sec) * time.Second
	}

	tz := get("APP_TIMEZONE", "Asia/Taipei")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("unknown timezone %q, falling back to UTC", tz)
		loc = time.UTC
	}

	return Config{
		RedisAddr:   get("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPwd:    os.Getenv("REDIS_PASSWORD"),
		WebOrigin:   get("WEB_ORIGIN", "http://localhost:5173"),
		SessionTTL:  ttl,
		RememberTTL: remember,
		Location:    loc,

		SupabaseURL:    os.Getenv("SUPABASE_URL"),
		SupabaseKey:    os.Getenv("SUPABASE_SERVICE_KEY"),
		SupabaseBucket: get("SUPABASE_BUCKET", "equipment-images"),

		AdminStudentID: get("BOOTSTRAP_ADMIN_STUDENT_ID", "fcuguitar"),
		AdminPassword:  get("BOOTSTRAP_ADMIN_PASSWORD", ""),
	}
}
