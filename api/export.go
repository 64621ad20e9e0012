package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"puzzle2profit/config"
	"puzzle2profit/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// archiveURLHeader trägt den S3-Link eines archivierten Exports.
const archiveURLHeader = "X-Archive-Url"

// exportBody erlaubt die Parameter bei POST auch im JSON-Body. Query-Parameter haben Vorrang.
type exportBody struct {
	Format  string   `json:"format"`
	IDs     []string `json:"ids"`
	Archive bool     `json:"archive"`
}

func setupExportRoutes(router *gin.Engine, cfg *config.Config, svc *services.ExportService, verifier *services.JWTVerifier, log *zap.Logger) {
	handler := func(c *gin.Context) {
		var body exportBody
		if c.Request.Method == http.MethodPost {
			if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
				return
			}
		}

		rawFormat := c.DefaultQuery("format", body.Format)
		format, err := services.ParseExportFormat(rawFormat)
		if err != nil {
			respondError(c, log, err)
			return
		}
		ids := body.IDs
		if q, ok := c.GetQuery("ids"); ok {
			ids = services.ParseIDs(q)
		}
		archive := body.Archive
		if q, ok := c.GetQuery("archive"); ok {
			if archive, err = strconv.ParseBool(q); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "archive must be a boolean"})
				return
			}
		}

		doc, err := svc.Export(c.Request.Context(), services.ExportRequest{Format: format, IDs: ids, Archive: archive})
		if err != nil {
			respondError(c, log, err)
			return
		}

		if doc.Filename != "" {
			c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, doc.Filename))
		}
		if doc.ArchiveURL != "" {
			c.Header(archiveURLHeader, doc.ArchiveURL)
		}
		c.Data(http.StatusOK, doc.ContentType+"; charset=utf-8", doc.Body)
	}

	rg := router.Group("/export-research")
	rg.Use(bearerAuthMiddleware(cfg, verifier))
	rg.GET("", handler)
	rg.POST("", handler)
}
