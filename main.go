package main

import (
	"log"
	"net/http"
	"os"

	"guitar-club-rental/app"
	"guitar-club-rental/config"
	"guitar-club-rental/routes"
)

func main() {
	config.LoadEnv()

	a := app.MustNew()
	defer a.Close()

	a.Router.GET("/healthz", func(c *app.Ctx) {
		c.JSON(http.StatusOK, app.H{"ok": true})
	})
	routes.RegisterRoutes(a)

	port := os.Getenv("PORT")
	if port == "" {
		port = "3001"
	}
	if err := a.Router.Run(":" + port); err != nil {
		log.Fatalf("server: %v", err)
	}
}
