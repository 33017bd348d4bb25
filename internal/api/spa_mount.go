package api

import (
	"embed"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-contrib/static"
	"github.com/gin-gonic/gin"
)

// Embedded admin UI assets. If a real single-page app is ever built for
// DNSProxy, its production build output replaces dist/browser/ before
// compiling Go; until then this serves a placeholder page.
//
//go:embed dist/browser/*
var embeddedUI embed.FS

func getEmbedFs() static.ServeFileSystem {
	fs, err := static.EmbedFolder(embeddedUI, "dist/browser")
	if err != nil {
		panic("failed to get embedded UI filesystem: " + err.Error())
	}
	return fs
}

// mountSPA serves the embedded admin UI for any non-API route.
func mountSPA(r *gin.Engine, logger *slog.Logger) {
	distFS := getEmbedFs()
	r.Use(static.Serve("/", distFS))

	r.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.RequestURI, "/api") || strings.HasPrefix(c.Request.RequestURI, "/swagger") {
			return
		}
		index, err := distFS.Open("index.html")
		if err != nil {
			logger.Error("failed to open index.html", "error", err)
			c.Status(http.StatusNotFound)
			return
		}
		defer index.Close()
		stat, _ := index.Stat()
		http.ServeContent(c.Writer, c.Request, "index.html", stat.ModTime(), index)
	})
}
