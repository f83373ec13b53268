package controllers

import (
	"net/http"
	"time"

	"guitar-club-rental/app"
	"guitar-club-rental/db"

	"github.com/gin-gonic/gin"
)

type RentalController struct{ *Srv }

func NewRentalController(s *Srv) *RentalController { return &RentalController{Srv: s} }

// POST /api/rentals/borrow
func (rc *RentalController) Borrow(c *gin.Context) {
	mid, ok := memberIDFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, app.H{"error": "unauthorized"})
		return
	}

	var in struct {
		EquipmentID uint    `json:"equipmentId" binding:"required"`
		Quantity    int     `json:"quantity"`
		Duration    float64 `json:"duration" binding:"required"`
		Unit        string  `json:"unit"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	if in.Quantity == 0 {
		in.Quantity = 1
	}
	if in.Unit == "" {
		in.Unit = db.UnitDays
	}
	if in.Quantity < 1 || in.Duration <= 0 || (in.Unit != db.UnitHours && in.Unit != db.UnitDays) {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid borrow request"})
		return
	}

	res, err := rc.Repo.BorrowBatch(c.Request.Context(), db.BorrowInput{
		MemberID:    mid,
		EquipmentID: in.EquipmentID,
		Quantity:    in.Quantity,
		Duration:    in.Duration,
		Unit:        in.Unit,
	})
	if err != nil {
		respondRepoError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// POST /api/rentals/return — quantity 0 = 全部；rentalTime 指定批次
func (rc *RentalController) Return(c *gin.Context) {
	mid, ok := memberIDFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, app.H{"error": "unauthorized"})
		return
	}

	var in struct {
		Category   string     `json:"category" binding:"required"`
		Model      string     `json:"model" binding:"required"`
		Quantity   int        `json:"quantity"`
		RentalTime *time.Time `json:"rentalTime"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	if in.Quantity < 0 {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid return quantity"})
		return
	}

	res, err := rc.Repo.ReturnBatch(c.Request.Context(), db.ReturnInput{
		MemberID: mid,
		Category: in.Category,
		Model:    in.Model,
		Quantity: in.Quantity,
		Batch:    in.RentalTime,
	})
	if err != nil {
		respondRepoError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /api/dashboard — 類別清單 + 自己的最近租借批次
func (rc *RentalController) Dashboard(c *gin.Context) {
	mid, ok := memberIDFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, app.H{"error": "unauthorized"})
		return
	}

	cats, err := rc.Repo.ListCategories(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	rentals, err := rc.Repo.ListMemberRentals(c.Request.Context(), mid, 10)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"categories": cats, "rentals": rentals})
}

// GET /api/admin/panel — 管理面板的彙總資料
func (rc *RentalController) AdminPanel(c *gin.Context) {
	ctx := c.Request.Context()

	members, err := rc.Repo.ListMembers(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	equipment, err := rc.Repo.ListEquipmentStatus(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	outstanding, err := rc.Repo.ListOutstanding(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	history, err := rc.Repo.ListRentalHistory(ctx, 100)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, app.H{
		"members":     members,
		"equipment":   equipment,
		"outstanding": outstanding,
		"history":     history,
	})
}
