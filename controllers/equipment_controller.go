package controllers

import (
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strconv"

	"guitar-club-rental/app"

	"github.com/gin-gonic/gin"
)

type EquipmentController struct{ *Srv }

func NewEquipmentController(s *Srv) *EquipmentController { return &EquipmentController{Srv: s} }

// GET /api/categories
func (ec *EquipmentController) ListCategories(c *gin.Context) {
	cats, err := ec.Repo.ListCategories(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"categories": cats})
}

// GET /api/categories/:category/models — 還有存量的型號
func (ec *EquipmentController) ListModels(c *gin.Context) {
	category := c.Param("category")
	eqs, err := ec.Repo.ListModelsByCategory(c.Request.Context(), category)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"models": eqs})
}

// GET /api/admin/equipment — 庫存總覽
func (ec *EquipmentController) ListEquipmentStatus(c *gin.Context) {
	rows, err := ec.Repo.ListEquipmentStatus(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"equipment": rows})
}

// POST /api/admin/equipment — multipart：category/model/totalQuantity + 可選 image
func (ec *EquipmentController) AddEquipment(c *gin.Context) {
	category := c.PostForm("category")
	model := c.PostForm("model")
	total, err := strconv.Atoi(c.PostForm("totalQuantity"))
	if err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid total quantity"})
		return
	}

	eq, err := ec.Repo.AddEquipment(c.Request.Context(), category, model, total)
	if err != nil {
		respondRepoError(c, err)
		return
	}

	// 圖片上傳失敗不影響新增結果，只降級回報
	imageUploaded := false
	if fh, err := c.FormFile("image"); err == nil && fh != nil {
		if full, thumb, upErr := ec.uploadImage(c, fh, eq.ID); upErr != nil {
			log.Printf("image upload for equipment %d: %v", eq.ID, upErr)
		} else if dbErr := ec.Repo.SetEquipmentImages(c.Request.Context(), eq.ID, full, thumb); dbErr != nil {
			log.Printf("save image urls for equipment %d: %v", eq.ID, dbErr)
		} else {
			imageUploaded = true
			eq.ImageFullURL = &full
			eq.ImageThumbURL = &thumb
		}
	}

	c.JSON(http.StatusCreated, app.H{"equipment": eq, "imageUploaded": imageUploaded})
}

// POST /api/admin/equipment/:id — multipart：totalQuantity + 可選 image
func (ec *EquipmentController) UpdateEquipment(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid equipment id"})
		return
	}
	total, err := strconv.Atoi(c.PostForm("totalQuantity"))
	if err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid total quantity"})
		return
	}

	var fullPtr, thumbPtr *string
	imageUploaded := false
	if fh, err := c.FormFile("image"); err == nil && fh != nil {
		if full, thumb, upErr := ec.uploadImage(c, fh, uint(id)); upErr != nil {
			log.Printf("image upload for equipment %d: %v", id, upErr)
		} else {
			fullPtr, thumbPtr = &full, &thumb
			imageUploaded = true
		}
	}

	eq, err := ec.Repo.ReviseQuantity(c.Request.Context(), uint(id), total, fullPtr, thumbPtr)
	if err != nil {
		respondRepoError(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"equipment": eq, "imageUploaded": imageUploaded})
}

// DELETE /api/admin/equipment/:id — 軟刪除
func (ec *EquipmentController) DeleteEquipment(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid equipment id"})
		return
	}
	eq, err := ec.Repo.SoftDeleteEquipment(c.Request.Context(), uint(id))
	if err != nil {
		respondRepoError(c, err)
		return
	}
	if err := ec.Images.DeleteEquipmentImages(c.Request.Context(), eq.ID); err != nil {
		log.Printf("delete images for equipment %d: %v", eq.ID, err)
	}
	c.JSON(http.StatusOK, app.H{"ok": true, "equipment": eq})
}

func (ec *EquipmentController) uploadImage(c *gin.Context, fh *multipart.FileHeader, equipmentID uint) (string, string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", "", err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return "", "", err
	}
	return ec.Images.ProcessAndUpload(c.Request.Context(), data, equipmentID)
}
