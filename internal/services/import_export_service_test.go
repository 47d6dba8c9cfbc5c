package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/SAP-F-2025/question-bank-service/internal/models"
	"github.com/SAP-F-2025/question-bank-service/internal/seed"
	"github.com/SAP-F-2025/question-bank-service/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newImportExportService() ImportExportService {
	return NewImportExportService(discardLogger(), validator.New())
}

func TestExportImport_RoundTrip(t *testing.T) {
	questions, err := seed.Questions()
	require.NoError(t, err)
	svc := newImportExportService()
	ctx := context.Background()

	for _, format := range []models.ExportFormat{models.ExportCSV, models.ExportXLSX} {
		t.Run(string(format), func(t *testing.T) {
			data, err := svc.ExportQuestions(ctx, questions, format)
			require.NoError(t, err)

			result, err := svc.ImportQuestions(ctx, bytes.NewReader(data), "questions."+string(format))
			require.NoError(t, err)

			assert.Equal(t, models.ImportCompleted, result.Status)
			assert.Empty(t, result.Errors)
			assert.Equal(t, len(questions), result.SuccessCount)
			assert.Equal(t, questions, result.Questions)
		})
	}
}

func TestExportQuestionsToCSV_Header(t *testing.T) {
	svc := newImportExportService()
	data, err := svc.ExportQuestionsToCSV(context.Background(), []models.Question{{
		ID:      3,
		Type:    models.QuestionMultiple,
		Text:    "哪些会触发渲染？",
		Options: []string{"<Child />", "setState"},
		Answer:  []int{0, 1},
		Tags:    []string{"渲染"},
	}})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "id,type,question,options,answer,correct_explanation,wrong_explanations,tags", lines[0])
	assert.Contains(t, lines[1], "<Child />")
	assert.Contains(t, lines[1], `"0,1"`)
}

func TestImportQuestionsFromCSV_RowErrors(t *testing.T) {
	csvData := `id,type,question,options,answer
1,single,第一题,甲|乙,0
x,single,第二题,甲|乙,0
3,essay,第三题,甲|乙,0
4,single,,甲|乙,zero
`
	result, err := newImportExportService().ImportQuestionsFromCSV(context.Background(), strings.NewReader(csvData))
	require.NoError(t, err)

	assert.Equal(t, models.ImportValidationFailed, result.Status)
	assert.Equal(t, 4, result.TotalRows)
	assert.Equal(t, 3, result.ErrorCount)
	assert.Equal(t, 0, result.SuccessCount)
	assert.Nil(t, result.Questions)

	var got []string
	for _, e := range result.Errors {
		got = append(got, fmt.Sprintf("%s@%d", e.Column, e.Row))
	}
	assert.Equal(t, []string{"id@3", "type@4", "answer@5", "question@5"}, got)
}

func TestImportQuestionsFromCSV_BankErrorsMapToRows(t *testing.T) {
	csvData := `id,type,question,options,answer,tags
1,single,第一题,"[""甲"",""乙""]",0,Hooks
1,judge,第二题,正确|错误,1,
2,single,第三题,甲|乙,5,
`
	result, err := newImportExportService().ImportQuestionsFromCSV(context.Background(), strings.NewReader(csvData))
	require.NoError(t, err)

	assert.Equal(t, models.ImportValidationFailed, result.Status)
	assert.Equal(t, 2, result.ErrorCount)
	require.Len(t, result.Errors, 2)

	assert.Equal(t, 3, result.Errors[0].Row)
	assert.Equal(t, "id", result.Errors[0].Column)
	assert.Equal(t, "unique_id", result.Errors[0].Code)

	assert.Equal(t, 4, result.Errors[1].Row)
	assert.Equal(t, "option_index", result.Errors[1].Code)
}

func TestImportQuestionsFromCSV_PlainLists(t *testing.T) {
	csvData := `id,type,question,options,answer,tags
9,multiple,多选题,useState | useEffect | render,"0,1",Hooks|基础
`
	result, err := newImportExportService().ImportQuestionsFromCSV(context.Background(), strings.NewReader(csvData))
	require.NoError(t, err)
	require.Equal(t, models.ImportCompleted, result.Status)
	require.Len(t, result.Questions, 1)

	q := result.Questions[0]
	assert.Equal(t, []string{"useState", "useEffect", "render"}, q.Options)
	assert.Equal(t, []int{0, 1}, q.Answer)
	assert.Equal(t, []string{"Hooks", "基础"}, q.Tags)
}

func TestImportQuestions_FileLevelErrors(t *testing.T) {
	svc := newImportExportService()
	ctx := context.Background()

	_, err := svc.ImportQuestions(ctx, strings.NewReader("id\n"), "questions.txt")
	assert.ErrorIs(t, err, ErrUnsupportedImportFormat)
	assert.True(t, IsBadRequest(err))

	_, err = svc.ImportQuestions(ctx, strings.NewReader("id,type,question,options\n1,single,q,a|b\n"), "q.csv")
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	_, err = svc.ImportQuestions(ctx, strings.NewReader("id,type,question,options,answer\n"), "q.csv")
	assert.True(t, IsValidation(err))

	_, err = svc.ImportQuestions(ctx, strings.NewReader("not a zip"), "q.xlsx")
	assert.True(t, IsBadRequest(err))
}

func TestExportQuestions_UnsupportedFormat(t *testing.T) {
	_, err := newImportExportService().ExportQuestions(context.Background(), nil, "pdf")
	assert.ErrorIs(t, err, ErrUnsupportedExportFormat)
}
