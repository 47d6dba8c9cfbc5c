package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/SAP-F-2025/question-bank-service/internal/models"
	"github.com/SAP-F-2025/question-bank-service/internal/services"
	"github.com/SAP-F-2025/question-bank-service/internal/utils"
	"github.com/SAP-F-2025/question-bank-service/internal/validator"
	"github.com/gin-gonic/gin"
)

type QuestionHandler struct {
	BaseHandler
	bankService   services.QuestionBankService
	exportService services.ImportExportService
	validator     *validator.Validator
}

func NewQuestionHandler(
	bankService services.QuestionBankService,
	exportService services.ImportExportService,
	validator *validator.Validator,
	logger utils.Logger,
) *QuestionHandler {
	return &QuestionHandler{
		BaseHandler:   NewBaseHandler(logger),
		bankService:   bankService,
		exportService: exportService,
		validator:     validator,
	}
}

// ListQuestions returns the bank in authoring order
// @Summary List questions
// @Tags questions
// @Produce json
// @Param tag query string false "Only questions carrying this tag"
// @Param type query string false "single, multiple or judge"
// @Success 200 {object} SuccessResponse{data=[]models.Question}
// @Failure 400 {object} ErrorResponse
// @Router /questions [get]
func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	questions, err := h.filteredQuestions(c, c.Query("tag"), c.Query("type"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.RespondWithSuccess(c, http.StatusOK, "Questions retrieved successfully", questions, "count", len(questions))
}

// GetQuestion retrieves a question by ID
// @Summary Get question
// @Tags questions
// @Produce json
// @Param id path uint true "Question ID"
// @Success 200 {object} SuccessResponse{data=models.Question}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /questions/{id} [get]
func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	id, ok := ParseUintIDParam(c, "id")
	if !ok {
		return
	}

	question, err := h.bankService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.RespondWithSuccess(c, http.StatusOK, "Question retrieved successfully", question, "question_id", id)
}

// ListTags returns every tag with its question count
// @Summary List tags
// @Tags questions
// @Produce json
// @Success 200 {object} SuccessResponse{data=[]models.TagCount}
// @Router /tags [get]
func (h *QuestionHandler) ListTags(c *gin.Context) {
	tags := h.bankService.ListTags(c.Request.Context())
	h.RespondWithSuccess(c, http.StatusOK, "Tags retrieved successfully", tags, "count", len(tags))
}

// ExportQuestions downloads the bank as CSV or XLSX
// @Summary Export questions
// @Tags questions
// @Produce octet-stream
// @Param format query string false "csv (default) or xlsx"
// @Param tag query string false "Only questions carrying this tag"
// @Success 200 {file} file
// @Failure 400 {object} ErrorResponse
// @Router /questions/export [get]
func (h *QuestionHandler) ExportQuestions(c *gin.Context) {
	var req models.ExportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, CodeBadRequest, "Invalid query parameters", err, err.Error())
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, CodeValidation, "Validation failed", err, validator.ToValidationErrors(err))
		return
	}
	if req.Format == "" {
		req.Format = models.ExportCSV
	}

	questions, err := h.filteredQuestions(c, req.Tag, "")
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	data, err := h.exportService.ExportQuestions(c.Request.Context(), questions, req.Format)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	contentType, ext := services.ExportContentType(req.Format)
	filename := fmt.Sprintf("questions-%s.%s", time.Now().UTC().Format("20060102-150405"), ext)

	h.LogInfo(c, "Exported questions", "format", req.Format, "count", len(questions))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, data)
}

// filteredQuestions applies the optional tag and type filters in that order.
// Both keep authoring order, so the result is a stable subsequence of the bank.
func (h *QuestionHandler) filteredQuestions(c *gin.Context, tag, questionType string) ([]models.Question, error) {
	ctx := c.Request.Context()

	if questionType == "" {
		if tag == "" {
			return h.bankService.GetAll(ctx), nil
		}
		return h.bankService.FilterByTag(ctx, tag), nil
	}

	byType, err := h.bankService.FilterByType(ctx, models.QuestionType(questionType))
	if err != nil {
		return nil, err
	}
	if tag == "" {
		return byType, nil
	}

	out := make([]models.Question, 0, len(byType))
	for _, q := range byType {
		if q.HasTag(tag) {
			out = append(out, q)
		}
	}
	return out, nil
}
