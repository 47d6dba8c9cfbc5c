package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/SAP-F-2025/question-bank-service/internal/models"
	"github.com/SAP-F-2025/question-bank-service/internal/validator"
	"github.com/xuri/excelize/v2"
)

const questionSheet = "Questions"

// Spreadsheet columns. List cells hold JSON so any option text survives a round trip;
// on import a plain "a | b" cell is accepted too.
var questionColumns = []string{
	"id", "type", "question", "options", "answer", "correct_explanation", "wrong_explanations", "tags",
}

var requiredColumns = []string{"id", "type", "question", "options", "answer"}

// ImportExportService converts question sets to and from CSV and XLSX
type ImportExportService interface {
	ImportQuestions(ctx context.Context, reader io.Reader, filename string) (*ImportResult, error)
	ImportQuestionsFromCSV(ctx context.Context, reader io.Reader) (*ImportResult, error)
	ImportQuestionsFromExcel(ctx context.Context, reader io.Reader) (*ImportResult, error)

	ExportQuestions(ctx context.Context, questions []models.Question, format models.ExportFormat) ([]byte, error)
	ExportQuestionsToCSV(ctx context.Context, questions []models.Question) ([]byte, error)
	ExportQuestionsToExcel(ctx context.Context, questions []models.Question) ([]byte, error)
}

type importExportService struct {
	logger    *slog.Logger
	validator *validator.Validator
}

func NewImportExportService(logger *slog.Logger, validator *validator.Validator) ImportExportService {
	return &importExportService{
		logger:    logger,
		validator: validator,
	}
}

// ImportResult carries the parsed records. Questions is only set when the
// summary status is completed.
type ImportResult struct {
	models.ImportSummary
	Questions []models.Question `json:"-"`
}

// ===== IMPORT OPERATIONS =====

func (s *importExportService) ImportQuestions(ctx context.Context, reader io.Reader, filename string) (*ImportResult, error) {
	s.logger.Info("Starting file import", "filename", filename)

	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".csv":
		return s.ImportQuestionsFromCSV(ctx, reader)
	case ".xlsx":
		return s.ImportQuestionsFromExcel(ctx, reader)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedImportFormat, ext)
	}
}

func (s *importExportService) ImportQuestionsFromCSV(ctx context.Context, reader io.Reader) (*ImportResult, error) {
	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read CSV: %v", ErrBadRequest, err)
	}

	return s.importRows(ctx, records)
}

func (s *importExportService) ImportQuestionsFromExcel(ctx context.Context, reader io.Reader) (*ImportResult, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open Excel file: %v", ErrBadRequest, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, NewValidationError("file", "Excel file has no sheets", nil)
	}

	sheetName := sheets[0]
	if idx, err := f.GetSheetIndex(questionSheet); err == nil && idx >= 0 {
		sheetName = questionSheet
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read Excel rows: %w", err)
	}

	return s.importRows(ctx, rows)
}

func (s *importExportService) importRows(ctx context.Context, rows [][]string) (*ImportResult, error) {
	start := time.Now()

	if len(rows) < 2 {
		return nil, NewValidationError("file", "file must have a header row and at least one data row", len(rows))
	}

	headerMap := make(map[string]int, len(rows[0]))
	for i, header := range rows[0] {
		headerMap[strings.ToLower(strings.TrimSpace(header))] = i
	}
	for _, col := range requiredColumns {
		if _, exists := headerMap[col]; !exists {
			return nil, NewValidationError("headers", fmt.Sprintf("missing required column: %s", col), col)
		}
	}

	result := &ImportResult{
		ImportSummary: models.ImportSummary{
			TotalRows: len(rows) - 1,
			Errors:    []models.ImportValidationError{},
		},
	}

	questions := make([]models.Question, 0, len(rows)-1)
	rowNumbers := make([]int, 0, len(rows)-1)

	for i, row := range rows[1:] {
		rowNum := i + 2
		if isBlankRow(row) {
			result.TotalRows--
			continue
		}
		result.ProcessedRows++

		question, rowErrors := parseQuestionRow(row, headerMap, rowNum)
		if len(rowErrors) > 0 {
			result.Errors = append(result.Errors, rowErrors...)
			result.ErrorCount++
			continue
		}
		questions = append(questions, question)
		rowNumbers = append(rowNumbers, rowNum)
	}

	// Rows that parsed still have to form a valid bank together.
	if result.ErrorCount == 0 {
		if issues := s.validator.ValidateBank(questions); len(issues) > 0 {
			failedRows := make(map[int]bool)
			for _, issue := range issues {
				rowErr := models.ImportValidationError{
					Message: issue.Message,
					Code:    issue.Rule,
				}
				if issue.Value != nil {
					rowErr.Value = fmt.Sprint(issue.Value)
				}
				if idx, column, ok := validator.SplitQuestionPath(issue.Field); ok && idx < len(rowNumbers) {
					rowErr.Row = rowNumbers[idx]
					rowErr.Column = column
					failedRows[idx] = true
				} else {
					rowErr.Column = issue.Field
				}
				result.Errors = append(result.Errors, rowErr)
			}
			result.ErrorCount = len(failedRows)
		}
	}

	SortImportErrors(result.Errors)
	result.SuccessCount = result.ProcessedRows - result.ErrorCount
	result.ProcessingTime = time.Since(start)

	if len(result.Errors) > 0 {
		result.Status = models.ImportValidationFailed
		result.SuccessCount = 0
	} else {
		result.Status = models.ImportCompleted
		result.Questions = questions
	}

	s.logger.InfoContext(ctx, "Question import finished",
		"status", result.Status,
		"total_rows", result.TotalRows,
		"success_count", result.SuccessCount,
		"error_count", result.ErrorCount)

	return result, nil
}

func parseQuestionRow(row []string, headerMap map[string]int, rowNum int) (models.Question, []models.ImportValidationError) {
	var errs []models.ImportValidationError
	fail := func(column, message, value, code string) {
		errs = append(errs, models.ImportValidationError{
			Row: rowNum, Column: column, Message: message, Value: value, Code: code,
		})
	}

	getColumn := func(name string) string {
		if index, exists := headerMap[name]; exists && index < len(row) {
			return strings.TrimSpace(row[index])
		}
		return ""
	}

	var question models.Question

	idStr := getColumn("id")
	id, err := strconv.ParseUint(idStr, 10, 0)
	if err != nil {
		fail("id", "must be a non-negative integer", idStr, "invalid_id")
	}
	question.ID = uint(id)

	question.Type = models.QuestionType(strings.ToLower(getColumn("type")))
	if !question.Type.IsValid() {
		fail("type", "must be one of single, multiple, judge", string(question.Type), "question_type")
	}

	question.Text = getColumn("question")
	if question.Text == "" {
		fail("question", "required field", "", "required")
	}

	optionsStr := getColumn("options")
	if question.Options, err = parseStringList(optionsStr); err != nil {
		fail("options", "must be a JSON array or a | separated list", optionsStr, "invalid_list")
	}

	answerStr := getColumn("answer")
	if question.Answer, err = parseIndexList(answerStr); err != nil {
		fail("answer", "must be a comma separated list of option indexes", answerStr, "invalid_answer")
	}

	question.Explanation.Correct = getColumn("correct_explanation")

	wrongStr := getColumn("wrong_explanations")
	if question.Explanation.Wrong, err = parseWrongExplanations(wrongStr); err != nil {
		fail("wrong_explanations", "must be a JSON object keyed by option index", wrongStr, "invalid_wrong")
	}

	tagsStr := getColumn("tags")
	if question.Tags, err = parseStringList(tagsStr); err != nil {
		fail("tags", "must be a JSON array or a | separated list", tagsStr, "invalid_list")
	}

	return question, errs
}

func parseStringList(raw string) ([]string, error) {
	if raw == "" {
		return nil, nil
	}
	if strings.HasPrefix(raw, "[") || raw == "null" {
		var list []string
		if err := json.Unmarshal([]byte(raw), &list); err != nil {
			return nil, err
		}
		return list, nil
	}

	parts := strings.Split(raw, "|")
	list := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			list = append(list, part)
		}
	}
	return list, nil
}

func parseIndexList(raw string) ([]int, error) {
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	indexes := make([]int, 0, len(parts))
	for _, part := range parts {
		idx, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		indexes = append(indexes, idx)
	}
	return indexes, nil
}

func parseWrongExplanations(raw string) (map[int]string, error) {
	if raw == "" {
		return nil, nil
	}
	var wrong map[int]string
	if err := json.Unmarshal([]byte(raw), &wrong); err != nil {
		return nil, err
	}
	return wrong, nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// ===== EXPORT OPERATIONS =====

func (s *importExportService) ExportQuestions(ctx context.Context, questions []models.Question, format models.ExportFormat) ([]byte, error) {
	switch format {
	case models.ExportCSV, "":
		return s.ExportQuestionsToCSV(ctx, questions)
	case models.ExportXLSX:
		return s.ExportQuestionsToExcel(ctx, questions)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedExportFormat, format)
	}
}

func (s *importExportService) ExportQuestionsToCSV(ctx context.Context, questions []models.Question) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(questionColumns); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	for i := range questions {
		row, err := questionToRow(&questions[i])
		if err != nil {
			return nil, err
		}
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	s.logger.InfoContext(ctx, "Exported questions", "format", models.ExportCSV, "count", len(questions))
	return buf.Bytes(), nil
}

func (s *importExportService) ExportQuestionsToExcel(ctx context.Context, questions []models.Question) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), questionSheet); err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}

	for col, header := range questionColumns {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(questionSheet, cell, header); err != nil {
			return nil, fmt.Errorf("failed to write Excel header: %w", err)
		}
	}

	for rowIndex := range questions {
		row, err := questionToRow(&questions[rowIndex])
		if err != nil {
			return nil, err
		}
		for col, value := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, rowIndex+2)
			if err != nil {
				return nil, err
			}
			// Text cells keep ids and index lists from being coerced to numbers.
			if err := f.SetCellStr(questionSheet, cell, value); err != nil {
				return nil, fmt.Errorf("failed to write Excel row: %w", err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}

	s.logger.InfoContext(ctx, "Exported questions", "format", models.ExportXLSX, "count", len(questions))
	return buf.Bytes(), nil
}

func questionToRow(question *models.Question) ([]string, error) {
	options, err := marshalCell(question.Options)
	if err != nil {
		return nil, fmt.Errorf("question %d options: %w", question.ID, err)
	}
	wrong, err := marshalCell(question.Explanation.Wrong)
	if err != nil {
		return nil, fmt.Errorf("question %d wrong explanations: %w", question.ID, err)
	}
	tags, err := marshalCell(question.Tags)
	if err != nil {
		return nil, fmt.Errorf("question %d tags: %w", question.ID, err)
	}

	answer := make([]string, len(question.Answer))
	for i, idx := range question.Answer {
		answer[i] = strconv.Itoa(idx)
	}

	return []string{
		strconv.FormatUint(uint64(question.ID), 10),
		string(question.Type),
		question.Text,
		options,
		strings.Join(answer, ","),
		question.Explanation.Correct,
		wrong,
		tags,
	}, nil
}

// marshalCell writes compact JSON without escaping markup such as <div>.
func marshalCell(v interface{}) (string, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// ExportContentType returns the MIME type and file extension for a format.
func ExportContentType(format models.ExportFormat) (string, string) {
	switch format {
	case models.ExportXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "xlsx"
	default:
		return "text/csv; charset=utf-8", "csv"
	}
}

// SortImportErrors orders errors by row then column for stable reporting.
func SortImportErrors(errs []models.ImportValidationError) {
	sort.SliceStable(errs, func(i, j int) bool {
		if errs[i].Row != errs[j].Row {
			return errs[i].Row < errs[j].Row
		}
		return errs[i].Column < errs[j].Column
	})
}
