package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"college-helpdesk-backend/internal/admissions"
	"college-helpdesk-backend/models"
	"college-helpdesk-backend/services"
	"college-helpdesk-backend/utils"
)

// SetupAdmissionRoutes registers the admission form endpoints and the
// admin listing/export endpoints.
func SetupAdmissionRoutes(router *gin.Engine, store *admissions.Store, mailer services.ConfirmationSender) {
	router.POST("/submit-admission", submitAdmission(store, mailer))
	router.GET("/admissions", listAdmissions(store))
	router.GET("/admissions/export", exportAdmissions(store))
}

func submitAdmission(store *admissions.Store, mailer services.ConfirmationSender) gin.HandlerFunc {
	return func(c *gin.Context) {
		var sub models.AdmissionSubmission
		if err := c.ShouldBindJSON(&sub); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request body", err.Error())
			return
		}

		id, submittedAt, err := store.Insert(sub)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to store admission data", nil)
			return
		}

		slog.Info("admission stored", "application_id", id, "course", sub.Course)

		// Email failure is reported, never fatal: the application is
		// already persisted.
		emailSent := false
		if sub.Email != "" {
			err := mailer.SendConfirmation(services.ConfirmationData{
				StudentEmail:  sub.Email,
				StudentName:   sub.FullName,
				CourseName:    sub.Course,
				ApplicationID: id,
				SubmittedAt:   submittedAt,
			})
			if err != nil {
				slog.Warn("confirmation email failed", "application_id", id, "error", err)
			} else {
				emailSent = true
			}
		}

		message := "Application stored, but email confirmation failed. Please check your contact details or contact support."
		if emailSent {
			message = "Application submitted successfully! A confirmation email has been sent."
		}
		c.JSON(http.StatusOK, gin.H{
			"status":     "success",
			"email_sent": emailSent,
			"message":    message,
		})
	}
}

func listAdmissions(store *admissions.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		records, err := store.List()
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to fetch admissions", nil)
			return
		}
		if records == nil {
			records = []models.AdmissionRecord{}
		}
		c.JSON(http.StatusOK, records)
	}
}

func exportAdmissions(store *admissions.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		records, err := store.List()
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to fetch admissions", nil)
			return
		}

		buf, err := services.ExportAdmissionsExcel(records)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to build export file", nil)
			return
		}

		filename := fmt.Sprintf("admissions_%s.xlsx", time.Now().Format("20060102_150405"))
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
		c.Data(http.StatusOK,
			"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			buf.Bytes())
	}
}
