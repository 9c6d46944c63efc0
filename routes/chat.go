package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"college-helpdesk-backend/internal/chat"
	"college-helpdesk-backend/internal/config"
	"college-helpdesk-backend/internal/session"
	"college-helpdesk-backend/internal/telemetry"
	"college-helpdesk-backend/models"
	"college-helpdesk-backend/utils"
)

// SetupChatRoutes registers the conversational endpoints and the status
// probe the admin panel polls.
func SetupChatRoutes(router *gin.Engine, cfg *config.Config, orchestrator *chat.Orchestrator, sessions *session.Store, index indexLoaded, metrics *telemetry.Metrics) {
	router.POST("/chat", handleChat(cfg, orchestrator, metrics))
	router.GET("/status", handleStatus(cfg, sessions, index))
	router.POST("/admission-options", handleAdmissionOptions(cfg, orchestrator))
}

// indexLoaded is the minimal view of the index the status probe needs.
type indexLoaded interface {
	Loaded() bool
}

func handleChat(cfg *config.Config, orchestrator *chat.Orchestrator, metrics *telemetry.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ChatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request body", err.Error())
			return
		}
		if req.SessionID == "" {
			req.SessionID = "default_session"
		}

		start := time.Now()
		resp := orchestrator.Respond(c.Request.Context(), req.Query, req.SessionID)
		if metrics != nil {
			metrics.RecordChatLatency(time.Since(start).Seconds(), cfg.GeminiModel)
		}

		c.JSON(http.StatusOK, resp)
	}
}

func handleStatus(cfg *config.Config, sessions *session.Store, index indexLoaded) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":              "online",
			"api_key_set":         cfg.GeminiAPIKey != "",
			"vector_store_loaded": index.Loaded(),
			"active_sessions":     sessions.Count(),
			"timestamp":           time.Now().Format("2006-01-02 15:04:05"),
		})
	}
}

func handleAdmissionOptions(cfg *config.Config, orchestrator *chat.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		opts := orchestrator.AdmissionOptions(c.Request.Context(),
			cfg.AdmissionSearchK,
			time.Duration(cfg.AdmissionOptionsTimeout)*time.Second)
		c.JSON(http.StatusOK, opts)
	}
}
