package controllers

import (
	"net/http"
	"strconv"

	"guitar-club-rental/app"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

type MemberController struct{ *Srv }

func GetMemberController(s *Srv) *MemberController { return &MemberController{Srv: s} }

// GET /api/admin/members
func (mc *MemberController) ListMembers(c *gin.Context) {
	ms, err := mc.Repo.ListMembers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"members": ms})
}

// DELETE /api/admin/members/:id
func (mc *MemberController) DeleteMember(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid member id"})
		return
	}

	// 不允許刪自己，避免把自己鎖在外面
	if self, ok := memberIDFrom(c); ok && self == uint(id) {
		c.JSON(http.StatusBadRequest, app.H{"error": "cannot delete yourself"})
		return
	}

	m, err := mc.Repo.RemoveMember(c.Request.Context(), uint(id))
	if err != nil {
		respondRepoError(c, err)
		return
	}
	// 撤銷該社員的所有登入會話
	_ = mc.AppSess.RevokeAllForMember(c.Request.Context(), m.ID)
	c.JSON(http.StatusOK, app.H{"ok": true, "member": m})
}

// POST /api/admin/members/:id/password
func (mc *MemberController) ResetPassword(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid member id"})
		return
	}
	var in struct {
		NewPassword string `json:"newPassword" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	if len(in.NewPassword) < 4 {
		c.JSON(http.StatusBadRequest, app.H{"error": "password must be at least 4 characters"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	m, err := mc.Repo.ResetMemberPassword(c.Request.Context(), uint(id), string(hash))
	if err != nil {
		respondRepoError(c, err)
		return
	}
	// 密碼重設後舊會話一併失效
	_ = mc.AppSess.RevokeAllForMember(c.Request.Context(), m.ID)
	c.JSON(http.StatusOK, app.H{"ok": true, "member": m})
}
