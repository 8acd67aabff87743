package server

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

// mountStatic serves the browser frontend from the configured directory.
// Unknown non-API paths fall back to index.html.
func (s *Server) mountStatic() {
	apiNotFound := func(c *gin.Context) bool {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"error": "endpoint not found"})
			return true
		}
		return false
	}

	dir := s.opts.StaticDir
	if dir == "" {
		s.logger.Warn("static directory not configured; API only mode")
		s.engine.NoRoute(func(c *gin.Context) {
			if !apiNotFound(c) {
				c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			}
		})
		return
	}

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		s.logger.Warn("static directory missing", "path", dir, "error", err)
		s.engine.NoRoute(func(c *gin.Context) {
			if !apiNotFound(c) {
				c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			}
		})
		return
	}

	indexPath := filepath.Join(dir, "index.html")
	hasIndex := true
	if _, err := os.Stat(indexPath); err != nil {
		s.logger.Warn("index.html not found", "path", indexPath, "error", err)
		hasIndex = false
	} else {
		s.engine.GET("/", func(c *gin.Context) {
			c.File(indexPath)
		})
	}

	s.engine.NoRoute(func(c *gin.Context) {
		if apiNotFound(c) {
			return
		}
		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead {
			// path.Clean on a rooted path cannot climb above dir.
			name := filepath.Join(dir, filepath.FromSlash(path.Clean("/"+c.Request.URL.Path)))
			if fi, err := os.Stat(name); err == nil && !fi.IsDir() {
				c.File(name)
				return
			}
			if hasIndex {
				c.File(indexPath)
				return
			}
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
}
