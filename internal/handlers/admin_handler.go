package handlers

import (
	"net/http"
	"path/filepath"

	"github.com/SAP-F-2025/question-bank-service/internal/models"
	"github.com/SAP-F-2025/question-bank-service/internal/services"
	"github.com/SAP-F-2025/question-bank-service/internal/utils"
	"github.com/gin-gonic/gin"
)

const maxImportSize = 10 << 20

type AdminHandler struct {
	BaseHandler
	bankService   services.QuestionBankService
	importService services.ImportExportService
}

func NewAdminHandler(
	bankService services.QuestionBankService,
	importService services.ImportExportService,
	logger utils.Logger,
) *AdminHandler {
	return &AdminHandler{
		BaseHandler:   NewBaseHandler(logger),
		bankService:   bankService,
		importService: importService,
	}
}

// ImportResponse pairs the row summary with the bank that was installed
type ImportResponse struct {
	Summary models.ImportSummary `json:"summary"`
	Bank    *services.BankStats  `json:"bank,omitempty"`
}

// ReloadBank rebuilds the bank from its configured source
// @Summary Reload question bank
// @Tags admin
// @Produce json
// @Success 200 {object} SuccessResponse{data=services.BankStats}
// @Failure 422 {object} ErrorResponse
// @Router /admin/reload [post]
func (h *AdminHandler) ReloadBank(c *gin.Context) {
	stats, err := h.bankService.Reload(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogInfo(c, "Question bank reloaded", "source", stats.Source, "count", stats.QuestionCount)
	h.RespondWithSuccess(c, http.StatusOK, "Question bank reloaded", stats)
}

// GetBankStats describes the bank currently being served
// @Summary Question bank stats
// @Tags admin
// @Produce json
// @Success 200 {object} SuccessResponse{data=services.BankStats}
// @Router /admin/stats [get]
func (h *AdminHandler) GetBankStats(c *gin.Context) {
	h.RespondWithSuccess(c, http.StatusOK, "Question bank stats", h.bankService.Stats(c.Request.Context()))
}

// ImportQuestions replaces the bank with the rows of an uploaded CSV or XLSX file
// @Summary Import questions
// @Tags admin
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV or XLSX file"
// @Success 200 {object} SuccessResponse{data=ImportResponse}
// @Failure 400 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /admin/import [post]
func (h *AdminHandler) ImportQuestions(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImportSize)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, CodeBadRequest, "File is required", err, err.Error())
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, CodeBadRequest, "Unable to read uploaded file", err)
		return
	}
	defer file.Close()

	filename := filepath.Base(fileHeader.Filename)
	result, err := h.importService.ImportQuestions(c.Request.Context(), file, filename)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	if result.Status != models.ImportCompleted {
		h.RespondWithError(c, http.StatusUnprocessableEntity, CodeMalformedRecord, "Import rejected", nil,
			ImportResponse{Summary: result.ImportSummary})
		return
	}

	stats, err := h.bankService.Replace(c.Request.Context(), result.Questions, "import:"+filename)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogInfo(c, "Question bank imported", "filename", filename, "count", stats.QuestionCount)
	h.RespondWithSuccess(c, http.StatusOK, "Questions imported", ImportResponse{
		Summary: result.ImportSummary,
		Bank:    stats,
	})
}
