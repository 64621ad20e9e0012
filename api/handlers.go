package api

import (
	"net/http"

	"puzzle2profit/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func setupResearchRoutes(rg *gin.RouterGroup, svc *services.ResearchService, log *zap.Logger) {
	rg.POST("/research-agent", func(c *gin.Context) {
		// Leerer oder kaputter Body bedeutet: Topic aus dem Curriculum, alle Tracks
		var req services.ResearchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			req = services.ResearchRequest{}
		}

		run, err := svc.Run(c.Request.Context(), req)
		if err != nil {
			respondError(c, log, err)
			return
		}
		if !run.Success && !run.Partial {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   run.Message,
				"success": false,
				"results": run.Results,
			})
			return
		}
		c.JSON(http.StatusOK, run)
	})
}

func setupCopyRoutes(rg *gin.RouterGroup, svc *services.CopyService, log *zap.Logger) {
	rg.POST("/grok-copywriter", func(c *gin.Context) {
		var req services.CopyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		result, err := svc.Generate(c.Request.Context(), req)
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, result)
	})
}

func setupContractRoutes(rg *gin.RouterGroup, svc *services.ContractService, log *zap.Logger) {
	rg.POST("/affiliate-contract-analyzer", func(c *gin.Context) {
		var req services.ContractRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		result, err := svc.Analyze(c.Request.Context(), req)
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, result)
	})
}

func setupPopulateRoutes(rg *gin.RouterGroup, svc *services.PopulatorService, log *zap.Logger) {
	rg.POST("/populate-tech-stacks", func(c *gin.Context) {
		var req services.PopulateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		result, err := svc.Populate(c.Request.Context(), req)
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, result)
	})
}

func setupSignupRoutes(router *gin.Engine, svc *services.NewsletterService, log *zap.Logger) {
	router.POST("/newsletter/signup", func(c *gin.Context) {
		var req services.SignupRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		if err := svc.Signup(c.Request.Context(), req); err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Successfully subscribed"})
	})
}

func setupDigestRoutes(rg *gin.RouterGroup, svc *services.NewsletterService, log *zap.Logger) {
	rg.POST("/blog/publish-digest", func(c *gin.Context) {
		result, err := svc.PublishDigest(c.Request.Context())
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, result)
	})
}
