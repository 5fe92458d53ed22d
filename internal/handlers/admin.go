package handlers

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
)

// AdminPages maps admin UI routes to the HTML files shipped in ADMIN_UI_DIR.
var AdminPages = map[string]string{
	"/admin":          "index.html",
	"/admin/orders":   "orders.html",
	"/admin/products": "products.html",
	"/admin/reports":  "reports.html",
	"/admin/settings": "settings.html",
	"/admin/login":    "login.html",
	"/login":          "login.html",
}

// AdminPage serves one static page, or 404 when the UI bundle is missing it.
func AdminPage(dir, file string) gin.HandlerFunc {
	full := filepath.Join(dir, file)
	return func(c *gin.Context) {
		if info, err := os.Stat(full); err != nil || info.IsDir() {
			c.JSON(http.StatusNotFound, gin.H{"error": "page not found"})
			return
		}
		c.File(full)
	}
}
