package routes

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"college-helpdesk-backend/internal/config"
	"college-helpdesk-backend/internal/ingest"
	"college-helpdesk-backend/internal/telemetry"
	"college-helpdesk-backend/internal/vectorindex"
	"college-helpdesk-backend/models"
	"college-helpdesk-backend/utils"
)

// SetupKnowledgeRoutes registers the admin endpoints that manage the
// knowledge base: document upload, URL training, and reset.
func SetupKnowledgeRoutes(router *gin.Engine, cfg *config.Config, processor *ingest.Processor, index *vectorindex.Index, metrics *telemetry.Metrics) {
	router.POST("/uploadknowledgebase", uploadKnowledgeBase(cfg, processor, metrics))
	router.POST("/trainurl", trainURL(cfg, processor, metrics))
	router.POST("/resetknowledgebase", resetKnowledgeBase(cfg, index))
}

// uploadKnowledgeBase replaces the entire knowledge base with one
// document: old files and the old index are dropped first.
func uploadKnowledgeBase(cfg *config.Config, processor *ingest.Processor, metrics *telemetry.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		file, err := c.FormFile("file")
		if err != nil {
			utils.RespondWithBadRequest(c, "No file provided", nil)
			return
		}

		ext := strings.ToLower(filepath.Ext(file.Filename))
		if !ingest.AllowedExtensions[ext] {
			utils.RespondWithBadRequest(c,
				fmt.Sprintf("Unsupported file type %s. Allowed: .pdf, .txt, .docx", ext), nil)
			return
		}

		if err := clearDir(cfg.KnowledgeDir); err != nil {
			utils.RespondWithInternalError(c, "Failed to clear knowledge base directory", err.Error())
			return
		}

		path := filepath.Join(cfg.KnowledgeDir, filepath.Base(file.Filename))
		if err := c.SaveUploadedFile(file, path); err != nil {
			utils.RespondWithInternalError(c, "Failed to save uploaded file", err.Error())
			return
		}

		start := time.Now()
		numChunks, err := processor.ProcessFiles(c.Request.Context(), []string{path}, true)
		if err != nil {
			if errors.Is(err, ingest.ErrUnsupportedFormat) {
				utils.RespondWithBadRequest(c, err.Error(), nil)
				return
			}
			utils.RespondWithInternalError(c, "Failed to process document", err.Error())
			return
		}
		if metrics != nil {
			metrics.RecordIngest(time.Since(start).Seconds(), numChunks, "upload")
		}

		c.JSON(http.StatusOK, gin.H{
			"message": fmt.Sprintf("Successfully replaced Knowledge Base with %s. Found %d data points.",
				file.Filename, numChunks),
			"status": "synchronized",
		})
	}
}

// trainURL fetches one web page and appends it to the knowledge base.
func trainURL(cfg *config.Config, processor *ingest.Processor, metrics *telemetry.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.URLRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request body", err.Error())
			return
		}

		url := strings.TrimSpace(req.URL)
		if !strings.HasPrefix(url, "http") {
			utils.RespondWithBadRequest(c, "Invalid URL format.", nil)
			return
		}

		start := time.Now()
		numChunks, err := processor.ProcessURL(c.Request.Context(), url,
			time.Duration(cfg.ChatTimeout)*time.Second)
		if err != nil {
			if errors.Is(err, ingest.ErrUnsupportedFormat) {
				utils.RespondWithBadRequest(c, err.Error(), nil)
				return
			}
			utils.RespondWithInternalError(c, "Failed to train from URL", err.Error())
			return
		}
		if metrics != nil {
			metrics.RecordIngest(time.Since(start).Seconds(), numChunks, "url")
		}

		c.JSON(http.StatusOK, gin.H{
			"message": fmt.Sprintf("Successfully crawled and embedded %d data points from %s into the AI Knowledge Base.",
				numChunks, url),
			"status": "synchronized",
		})
	}
}

// resetKnowledgeBase wipes the uploaded documents and the vector index.
func resetKnowledgeBase(cfg *config.Config, index *vectorindex.Index) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := clearDir(cfg.KnowledgeDir); err != nil {
			utils.RespondWithInternalError(c, "Failed to clear knowledge base directory", err.Error())
			return
		}
		if err := index.Reset(); err != nil {
			utils.RespondWithInternalError(c, "Failed to reset vector index", err.Error())
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message": "Knowledge base has been manually reset. All documents and embeddings cleared.",
			"status":  "reset",
		})
	}
}

// clearDir removes the directory's entries but keeps the directory.
func clearDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return os.MkdirAll(dir, 0o755)
		}
		return err
	}
	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}
