package controllers

import (
	"fmt"
	"net/http"
	"time"

	"guitar-club-rental/app"
	"guitar-club-rental/export"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ExportController struct{ *Srv }

func NewExportController(s *Srv) *ExportController { return &ExportController{Srv: s} }

// GET /api/admin/export — 全部租借記錄的 xlsx 下載
func (xc *ExportController) Export(c *gin.Context) {
	rows, err := xc.Repo.ListExportRows(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}

	f, err := export.BuildRentalReport(rows, xc.Cfg.Location)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}

	filename := export.Filename(time.Now().In(xc.Cfg.Location))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
