// controllers/srv.go
package controllers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"guitar-club-rental/app"
	"guitar-club-rental/db"
	"guitar-club-rental/images"
	"guitar-club-rental/models"
	"guitar-club-rental/session"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Srv struct {
	Repo    *db.Repo
	AppSess *session.AppSessionStore
	Images  *images.Store
	Cfg     app.Config
}

func GetSrv(a *app.App) *Srv {
	return &Srv{
		Repo:    db.NewRepoWithClock(a.DB, a.Clock()),
		AppSess: a.AppSessions(),
		Images:  images.NewStore(a.Config.SupabaseURL, a.Config.SupabaseKey, a.Config.SupabaseBucket),
		Cfg:     a.Config,
	}
}

// --- helpers ---

// 統一設定會話 Cookie
func (s *Srv) setAppCookie(w http.ResponseWriter, sessionID string, maxAge time.Duration) {
	secure := strings.HasPrefix(s.Cfg.WebOrigin, "https://")
	http.SetCookie(w, &http.Cookie{
		Name:     app.AppSessionCookie,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   secure,
		MaxAge:   int(maxAge / time.Second),
	})
}

// 登入成功：建 Redis 會話 + 發 Cookie；remember 拉長 TTL
func (s *Srv) issueSession(ctx context.Context, w http.ResponseWriter, m *models.Member, remember bool) error {
	ttl := s.Cfg.SessionTTL
	if remember {
		ttl = s.Cfg.RememberTTL
	}
	id := uuid.NewString()
	if err := s.AppSess.Create(ctx, id, m.ID, m.IsAdmin, ttl); err != nil {
		return err
	}
	s.setAppCookie(w, id, ttl)
	return nil
}

func memberIDFrom(c *gin.Context) (uint, bool) {
	v, ok := c.Get("memberID")
	if !ok {
		return 0, false
	}
	id, _ := v.(uint)
	return id, id != 0
}

// 把 repo 的錯誤分類翻成 HTTP 回應；文案在這層，不在 ledger
func respondRepoError(c *gin.Context, err error) {
	var insufficient *db.InsufficientStockError
	var overReturn *db.OverReturnError
	var duplicate *db.DuplicateEquipmentError
	var belowBorrowed *db.BelowBorrowedError
	var outstanding *db.OutstandingLoansError

	switch {
	case errors.Is(err, db.ErrNotFound):
		c.JSON(http.StatusNotFound, app.H{"error": "not found"})
	case errors.Is(err, db.ErrNothingToReturn):
		c.JSON(http.StatusNotFound, app.H{"error": "no returnable records"})
	case errors.Is(err, db.ErrDuplicateStudentID):
		c.JSON(http.StatusConflict, app.H{"error": "student id already registered"})
	case errors.As(err, &insufficient):
		c.JSON(http.StatusConflict, app.H{
			"error":     "insufficient stock",
			"model":     insufficient.Model,
			"requested": insufficient.Requested,
			"available": insufficient.Available,
		})
	case errors.As(err, &overReturn):
		c.JSON(http.StatusConflict, app.H{
			"error":       "return quantity exceeds outstanding",
			"requested":   overReturn.Requested,
			"outstanding": overReturn.Outstanding,
		})
	case errors.As(err, &duplicate):
		c.JSON(http.StatusConflict, app.H{
			"error":    "equipment already exists",
			"category": duplicate.Category,
			"model":    duplicate.Model,
		})
	case errors.As(err, &belowBorrowed):
		c.JSON(http.StatusConflict, app.H{
			"error":    "total quantity below borrowed count",
			"model":    belowBorrowed.Model,
			"borrowed": belowBorrowed.Borrowed,
		})
	case errors.As(err, &outstanding):
		c.JSON(http.StatusConflict, app.H{
			"error": "still has unreturned equipment",
			"name":  outstanding.Name,
			"count": outstanding.Count,
		})
	case errors.Is(err, db.ErrBorrowFailed):
		c.JSON(http.StatusInternalServerError, app.H{"error": "borrow failed"})
	default:
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
	}
}
