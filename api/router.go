package api

import (
	"net/http"
	"strings"
	"time"

	"puzzle2profit/config"
	"puzzle2profit/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Services bündelt die Handler-Abhängigkeiten des Routers.
type Services struct {
	Research   *services.ResearchService
	Copy       *services.CopyService
	Contracts  *services.ContractService
	Export     *services.ExportService
	Populator  *services.PopulatorService
	Newsletter *services.NewsletterService
	Verifier   *services.JWTVerifier
}

// NewRouter baut die gin-Engine mit allen Routen.
func NewRouter(cfg *config.Config, db *gorm.DB, svc Services, log *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(log))
	router.Use(corsMiddleware())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/health", healthHandler(db))
	// Preflight ohne Origin-Header beantwortet die CORS-Middleware nicht
	router.OPTIONS("/*path", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	admin := router.Group("/")
	admin.Use(apiKeyAuthMiddleware(cfg))

	setupResearchRoutes(admin, svc.Research, log)
	setupCopyRoutes(admin, svc.Copy, log)
	setupContractRoutes(admin, svc.Contracts, log)
	setupPopulateRoutes(admin, svc.Populator, log)
	setupDigestRoutes(admin, svc.Newsletter, log)

	setupSignupRoutes(router, svc.Newsletter, log)
	setupExportRoutes(router, cfg, svc.Export, svc.Verifier, log)

	return router
}

func corsMiddleware() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowAllOrigins:           true,
		AllowMethods:              []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:              []string{"Content-Type", "Authorization", "X-Client-Info", "Apikey", "X-API-KEY"},
		ExposeHeaders:             []string{"Content-Disposition", archiveURLHeader},
		OptionsResponseStatusCode: http.StatusOK,
	})
}

// apiKeyAuthMiddleware schützt die Admin-Routen. Ohne API_SECRET_KEY ist sie offen.
func apiKeyAuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.APISecretKey == "" {
			c.Next()
			return
		}
		apiKey := c.GetHeader("X-API-KEY")
		if apiKey != cfg.APISecretKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Invalid API Key"})
			return
		}
		c.Next()
	}
}

// bearerAuthMiddleware löst das Bearer-Token zu einem Benutzer auf, bevor der
// Handler die Datenbank anfasst.
func bearerAuthMiddleware(cfg *config.Config, verifier *services.JWTVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing authorization header"})
			return
		}
		if details, ok := cfg.CredentialStatus(config.CredentialJWT); !ok || verifier == nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":   services.ErrMissingCredentials.Error(),
				"details": details,
			})
			return
		}
		user, err := verifier.Verify(services.BearerToken(header))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

const userKey = "user"

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", strings.ToUpper(c.Request.Method)),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		}
		switch {
		case status >= 500:
			log.Error("HTTP request", fields...)
		case status >= 400:
			log.Warn("HTTP request", fields...)
		default:
			log.Debug("HTTP request", fields...)
		}
	}
}

func healthHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "healthy"
		code := http.StatusOK
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{"status": status, "service": "puzzle2profit"})
	}
}
