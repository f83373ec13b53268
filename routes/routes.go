package routes

import (
	"time"

	"guitar-club-rental/app"
	"guitar-club-rental/controllers"
)

func RegisterRoutes(a *app.App) {
	s := controllers.GetSrv(a)

	authC := controllers.GetAuthController(s)
	memberC := controllers.GetMemberController(s)
	equipC := controllers.NewEquipmentController(s)
	rentalC := controllers.NewRentalController(s)
	exportC := controllers.NewExportController(s)

	authMW := app.AuthRequired(s.AppSess, s.Repo)
	adminMW := app.AdminOnly()
	seenMW := app.TouchLastSeen(s.Repo, a.RDB, 5*time.Minute)

	r := a.Router

	// 公開
	r.POST("/api/register", authC.Register)
	r.POST("/api/login", authC.Login)

	// 需登入
	api := r.Group("/api", authMW, seenMW)
	{
		api.POST("/logout", authC.Logout)
		api.GET("/whoami", authC.Whoami)

		api.GET("/dashboard", rentalC.Dashboard)
		api.GET("/categories", equipC.ListCategories)
		api.GET("/categories/:category/models", equipC.ListModels)

		api.POST("/rentals/borrow", rentalC.Borrow)
		api.POST("/rentals/return", rentalC.Return)
	}

	// 管理員
	admin := api.Group("/admin", adminMW)
	{
		admin.GET("/panel", rentalC.AdminPanel)

		admin.GET("/members", memberC.ListMembers)
		admin.DELETE("/members/:id", memberC.DeleteMember)
		admin.POST("/members/:id/password", memberC.ResetPassword)

		admin.GET("/equipment", equipC.ListEquipmentStatus)
		admin.POST("/equipment", equipC.AddEquipment)
		admin.POST("/equipment/:id", equipC.UpdateEquipment)
		admin.DELETE("/equipment/:id", equipC.DeleteEquipment)

		admin.GET("/export", exportC.Export)
	}
}
