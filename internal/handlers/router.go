package handlers

import (
	"github.com/SAP-F-2025/question-bank-service/internal/services"
	"github.com/SAP-F-2025/question-bank-service/internal/utils"
	"github.com/SAP-F-2025/question-bank-service/internal/validator"
	"github.com/gin-gonic/gin"
)

type HandlerManager struct {
	questionHandler *QuestionHandler
	adminHandler    *AdminHandler
}

func NewHandlerManager(
	bankService services.QuestionBankService,
	importExportService services.ImportExportService,
	validator *validator.Validator,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		questionHandler: NewQuestionHandler(bankService, importExportService, validator, logger),
		adminHandler:    NewAdminHandler(bankService, importExportService, logger),
	}
}

// SetupRoutes sets up all API routes. adminAuth guards the admin group.
func (hm *HandlerManager) SetupRoutes(router *gin.Engine, adminAuth gin.HandlerFunc) {
	router.GET("/health", HealthCheck)

	v1 := router.Group("/api/v1")
	{
		questions := v1.Group("/questions")
		{
			questions.GET("", hm.questionHandler.ListQuestions)
			questions.GET("/export", hm.questionHandler.ExportQuestions)
			questions.GET("/:id", hm.questionHandler.GetQuestion)
		}

		v1.GET("/tags", hm.questionHandler.ListTags)

		admin := v1.Group("/admin")
		if adminAuth != nil {
			admin.Use(adminAuth)
		}
		{
			admin.GET("/stats", hm.adminHandler.GetBankStats)
			admin.POST("/reload", hm.adminHandler.ReloadBank)
			admin.POST("/import", hm.adminHandler.ImportQuestions)
		}
	}
}
