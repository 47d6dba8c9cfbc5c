package seed

import (
	"testing"

	"github.com/SAP-F-2025/question-bank-service/internal/models"
	"github.com/SAP-F-2025/question-bank-service/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuestions_DecodesEmbeddedSet(t *testing.T) {
	questions, err := Questions()
	require.NoError(t, err)
	require.NotEmpty(t, questions)

	for i, q := range questions {
		assert.Equal(t, uint(i+1), q.ID, "ids are sequential in authoring order")
	}

	first := questions[0]
	assert.Equal(t, models.QuestionSingle, first.Type)
	assert.Len(t, first.Options, 4)
	assert.Equal(t, []int{1}, first.Answer)
	assert.Contains(t, first.Tags, "并发渲染")
}

func TestQuestions_EmbeddedSetIsValid(t *testing.T) {
	questions, err := Questions()
	require.NoError(t, err)

	errs := validator.New().ValidateBank(questions)
	assert.Empty(t, errs, "embedded set must pass validation: %v", errs.Fields())
}

func TestQuestions_ReturnsFreshRecords(t *testing.T) {
	a, err := Questions()
	require.NoError(t, err)
	a[0].Options[0] = "changed"

	b, err := Questions()
	require.NoError(t, err)
	assert.NotEqual(t, "changed", b[0].Options[0])
}
