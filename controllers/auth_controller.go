package controllers

import (
	"net/http"
	"time"

	"guitar-club-rental/app"
	"guitar-club-rental/models"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

type AuthController struct{ *Srv }

func GetAuthController(s *Srv) *AuthController { return &AuthController{Srv: s} }

func (ac *AuthController) Register(c *gin.Context) {
	var in struct {
		StudentID       string `json:"studentId" binding:"required"`
		Name            string `json:"name" binding:"required"`
		ClassName       string `json:"className" binding:"required"`
		ClubRole        string `json:"clubRole" binding:"required"`
		Password        string `json:"password" binding:"required"`
		ConfirmPassword string `json:"confirmPassword" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	if in.Password != in.ConfirmPassword {
		c.JSON(http.StatusBadRequest, app.H{"error": "passwords do not match"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	m := &models.Member{
		StudentID: in.StudentID,
		Name:      in.Name,
		ClassName: in.ClassName,
		ClubRole:  in.ClubRole,
		Password:  string(hash),
	}
	if err := ac.Repo.CreateMember(c.Request.Context(), m); err != nil {
		respondRepoError(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

func (ac *AuthController) Login(c *gin.Context) {
	var in struct {
		StudentID  string `json:"studentId" binding:"required"`
		Password   string `json:"password" binding:"required"`
		RememberMe bool   `json:"rememberMe"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}

	m, err := ac.Repo.FindMemberByStudentID(c.Request.Context(), in.StudentID)
	if err != nil {
		// 帳號不存在與密碼錯誤回同一個訊息
		c.JSON(http.StatusUnauthorized, app.H{"error": "invalid student id or password"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(m.Password), []byte(in.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, app.H{"error": "invalid student id or password"})
		return
	}

	if err := ac.issueSession(c.Request.Context(), c.Writer, m, in.RememberMe); err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"ok": true, "member": m})
}

func (ac *AuthController) Logout(c *gin.Context) {
	if ck, err := c.Request.Cookie(app.AppSessionCookie); err == nil && ck.Value != "" {
		_ = ac.AppSess.Delete(c.Request.Context(), ck.Value)
	}
	ac.setAppCookie(c.Writer, "", -time.Second) // MaxAge -1：刪除 Cookie
	c.JSON(http.StatusOK, app.H{"ok": true})
}

func (ac *AuthController) Whoami(c *gin.Context) {
	mid, ok := memberIDFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, app.H{"error": "unauthorized"})
		return
	}
	m, err := ac.Repo.FindMemberByID(c.Request.Context(), mid)
	if err != nil {
		respondRepoError(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"member": m})
}
