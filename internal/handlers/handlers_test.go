package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/SAP-F-2025/question-bank-service/internal/models"
	"github.com/SAP-F-2025/question-bank-service/internal/seed"
	"github.com/SAP-F-2025/question-bank-service/internal/services"
	"github.com/SAP-F-2025/question-bank-service/internal/utils"
	"github.com/SAP-F-2025/question-bank-service/internal/validator"
	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiResponse struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Details json.RawMessage `json:"details"`
	Code    string          `json:"code"`
}

// swappableSource starts with the embedded bank and can be pointed at other records.
type swappableSource struct {
	mu      sync.Mutex
	records []models.Question
}

func (s *swappableSource) Name() string { return "test" }

func (s *swappableSource) Load(context.Context) ([]models.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.records == nil {
		return seed.Questions()
	}
	return append([]models.Question(nil), s.records...), nil
}

func (s *swappableSource) set(records []models.Question) {
	s.mu.Lock()
	s.records = records
	s.mu.Unlock()
}

func setupRouter(t *testing.T, adminAuth gin.HandlerFunc) (*gin.Engine, *swappableSource) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	slogger := slog.New(slog.NewTextHandler(io.Discard, nil))
	source := &swappableSource{}
	v := validator.New()

	bankService, err := services.NewQuestionBankService(context.Background(), source, slogger, services.WithValidator(v))
	require.NoError(t, err)

	logger := utils.NewNopLogger()
	router := gin.New()
	router.Use(utils.ContextLogger(logger))
	NewHandlerManager(bankService, services.NewImportExportService(slogger, v), v, logger).
		SetupRoutes(router, adminAuth)
	return router, source
}

func perform(router *gin.Engine, req *http.Request) (*httptest.ResponseRecorder, apiResponse) {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var body apiResponse
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func get(router *gin.Engine, path string) (*httptest.ResponseRecorder, apiResponse) {
	return perform(router, httptest.NewRequest(http.MethodGet, path, nil))
}

func decodeQuestions(t *testing.T, raw json.RawMessage) []models.Question {
	t.Helper()
	var questions []models.Question
	require.NoError(t, json.Unmarshal(raw, &questions))
	return questions
}

func ids(questions []models.Question) []uint {
	out := make([]uint, len(questions))
	for i, q := range questions {
		out[i] = q.ID
	}
	return out
}

func TestHealthCheck(t *testing.T) {
	router, _ := setupRouter(t, nil)

	w, _ := get(router, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestListQuestions(t *testing.T) {
	router, _ := setupRouter(t, nil)
	all, err := seed.Questions()
	require.NoError(t, err)

	w, body := get(router, "/api/v1/questions")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, ids(all), ids(decodeQuestions(t, body.Data)))
}

func TestListQuestions_ByTag(t *testing.T) {
	router, _ := setupRouter(t, nil)

	w, body := get(router, "/api/v1/questions?tag=并发渲染")
	require.Equal(t, http.StatusOK, w.Code)

	questions := decodeQuestions(t, body.Data)
	require.NotEmpty(t, questions)
	assert.Equal(t, uint(1), questions[0].ID)
	for _, q := range questions {
		assert.Contains(t, q.Tags, "并发渲染")
		assert.NotEqual(t, []string{"Context"}, q.Tags)
	}

	w, body = get(router, "/api/v1/questions?tag=Vue")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, string(body.Data))
}

func TestListQuestions_ByType(t *testing.T) {
	router, _ := setupRouter(t, nil)

	w, body := get(router, "/api/v1/questions?type=judge")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []uint{4, 8, 12, 16}, ids(decodeQuestions(t, body.Data)))

	w, body = get(router, "/api/v1/questions?type=essay")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, CodeValidation, body.Code)
}

func TestGetQuestion(t *testing.T) {
	router, _ := setupRouter(t, nil)

	w, body := get(router, "/api/v1/questions/1")
	require.Equal(t, http.StatusOK, w.Code)

	var q models.Question
	require.NoError(t, json.Unmarshal(body.Data, &q))
	assert.Equal(t, uint(1), q.ID)
	assert.Equal(t, models.QuestionSingle, q.Type)
	assert.Len(t, q.Options, 4)
	assert.Equal(t, []int{1}, q.Answer)
}

func TestGetQuestion_Errors(t *testing.T) {
	router, _ := setupRouter(t, nil)

	tests := []struct {
		path   string
		status int
		code   string
	}{
		{"/api/v1/questions/999", http.StatusNotFound, CodeNotFound},
		{"/api/v1/questions/abc", http.StatusBadRequest, CodeBadRequest},
		{"/api/v1/questions/0", http.StatusNotFound, CodeNotFound},
		{"/api/v1/questions/4294967296", http.StatusNotFound, CodeNotFound},
		{"/api/v1/questions/99999999999999999999", http.StatusNotFound, CodeNotFound},
		{"/api/v1/questions/-1", http.StatusBadRequest, CodeBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w, body := get(router, tt.path)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, body.Code)
		})
	}
}

func TestListTags(t *testing.T) {
	router, _ := setupRouter(t, nil)

	w, body := get(router, "/api/v1/tags")
	require.Equal(t, http.StatusOK, w.Code)

	var tags []models.TagCount
	require.NoError(t, json.Unmarshal(body.Data, &tags))
	require.NotEmpty(t, tags)
	for i := 1; i < len(tags); i++ {
		assert.GreaterOrEqual(t, tags[i-1].Count, tags[i].Count)
	}
}

func TestExportQuestions(t *testing.T) {
	router, _ := setupRouter(t, nil)

	w, _ := get(router, "/api/v1/questions/export")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".csv")
	assert.True(t, strings.HasPrefix(w.Body.String(), "id,type,question"))

	w, _ = get(router, "/api/v1/questions/export?format=xlsx&tag=Context")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("PK")))

	w, body := get(router, "/api/v1/questions/export?format=pdf")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, CodeValidation, body.Code)
}

func TestReloadBank(t *testing.T) {
	router, source := setupRouter(t, nil)

	source.set([]models.Question{{
		ID:      100,
		Type:    models.QuestionJudge,
		Text:    "React 19 移除了 forwardRef 的必要性。",
		Options: []string{"正确", "错误"},
		Answer:  []int{0},
	}})

	w, body := perform(router, httptest.NewRequest(http.MethodPost, "/api/v1/admin/reload", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var stats services.BankStats
	require.NoError(t, json.Unmarshal(body.Data, &stats))
	assert.Equal(t, 1, stats.QuestionCount)

	w, _ = get(router, "/api/v1/questions/100")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestReloadBank_MalformedKeepsServing(t *testing.T) {
	router, source := setupRouter(t, nil)

	source.set([]models.Question{{ID: 1, Type: models.QuestionSingle, Text: "q", Options: []string{"a"}, Answer: []int{3}}})

	w, body := perform(router, httptest.NewRequest(http.MethodPost, "/api/v1/admin/reload", nil))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, CodeMalformedRecord, body.Code)
	assert.Contains(t, string(body.Details), "option_index")

	w, _ = get(router, "/api/v1/questions/18")
	assert.Equal(t, http.StatusOK, w.Code)
}

func multipartRequest(t *testing.T, path, filename, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestImportQuestions(t *testing.T) {
	router, _ := setupRouter(t, nil)

	csvData := "id,type,question,options,answer,tags\n" +
		"1,single,useState 返回什么？,值|更新函数|二者,2,Hooks\n" +
		"2,judge,useEffect 在服务端执行。,正确|错误,1,SSR\n"

	w, body := perform(router, multipartRequest(t, "/api/v1/admin/import", "questions.csv", csvData))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp ImportResponse
	require.NoError(t, json.Unmarshal(body.Data, &resp))
	assert.Equal(t, models.ImportCompleted, resp.Summary.Status)
	assert.Equal(t, 2, resp.Bank.QuestionCount)
	assert.Equal(t, "import:questions.csv", resp.Bank.Source)

	w, body = get(router, "/api/v1/questions")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []uint{1, 2}, ids(decodeQuestions(t, body.Data)))
}

func TestImportQuestions_Rejected(t *testing.T) {
	router, _ := setupRouter(t, nil)

	csvData := "id,type,question,options,answer\n1,single,q,a|b,7\n"
	w, body := perform(router, multipartRequest(t, "/api/v1/admin/import", "questions.csv", csvData))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, CodeMalformedRecord, body.Code)

	w, body = perform(router, multipartRequest(t, "/api/v1/admin/import", "questions.pdf", "x"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, CodeBadRequest, body.Code)

	w, _ = perform(router, httptest.NewRequest(http.MethodPost, "/api/v1/admin/import", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = get(router, "/api/v1/questions/18")
	assert.Equal(t, http.StatusOK, w.Code)
}

type stubTokenParser struct {
	claims map[string]*casdoorsdk.Claims
}

func (p stubTokenParser) ParseJwtToken(token string) (*casdoorsdk.Claims, error) {
	if claims, ok := p.claims[token]; ok {
		return claims, nil
	}
	return nil, errors.New("token signature is invalid")
}

func TestRequireAdmin(t *testing.T) {
	admin := &casdoorsdk.Claims{}
	admin.Owner, admin.Name, admin.IsAdmin = "quiz", "alice", true
	reader := &casdoorsdk.Claims{}
	reader.Owner, reader.Name = "quiz", "bob"

	parser := stubTokenParser{claims: map[string]*casdoorsdk.Claims{"admin-token": admin, "reader-token": reader}}
	router, _ := setupRouter(t, RequireAdmin(parser))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"invalid token", "Bearer forged", http.StatusUnauthorized},
		{"not admin", "Bearer reader-token", http.StatusForbidden},
		{"admin", "Bearer admin-token", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/stats", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w, _ := perform(router, req)
			assert.Equal(t, tt.status, w.Code)
		})
	}

	w, _ := get(router, "/api/v1/questions/1")
	assert.Equal(t, http.StatusOK, w.Code)
}
