package validator

import (
	"testing"

	"github.com/SAP-F-2025/question-bank-service/internal/models"
	"github.com/stretchr/testify/assert"
)

func validSingle() models.Question {
	return models.Question{
		ID:      1,
		Type:    models.QuestionSingle,
		Text:    "useTransition 返回的第一个值表示什么？",
		Options: []string{"过渡函数", "是否处于 pending 状态", "当前渲染优先级", "上一次的 state"},
		Answer:  []int{1},
		Explanation: models.Explanation{
			Correct: "isPending 表示过渡是否仍在进行。",
			Wrong:   map[int]string{0: "过渡函数是第二个返回值。"},
		},
		Tags: []string{"并发渲染"},
	}
}

func TestValidator_ValidateQuestion(t *testing.T) {
	v := New()

	tests := []struct {
		name       string
		mutate     func(q *models.Question)
		wantFields []string
	}{
		{
			name:   "valid single choice",
			mutate: func(q *models.Question) {},
		},
		{
			name:   "zero id",
			mutate: func(q *models.Question) { q.ID = 0 },
		},
		{
			name:       "unknown type",
			mutate:     func(q *models.Question) { q.Type = "essay" },
			wantFields: []string{"type"},
		},
		{
			name: "empty options",
			mutate: func(q *models.Question) {
				q.Options = []string{}
				q.Explanation.Wrong = nil
			},
			wantFields: []string{"options", "answer[0]"},
		},
		{
			name:   "blank option text",
			mutate: func(q *models.Question) { q.Options[2] = "" },
		},
		{
			name:       "empty answer",
			mutate:     func(q *models.Question) { q.Answer = []int{} },
			wantFields: []string{"answer"},
		},
		{
			name:       "answer out of range",
			mutate:     func(q *models.Question) { q.Answer = []int{4} },
			wantFields: []string{"answer[0]"},
		},
		{
			name:       "negative answer",
			mutate:     func(q *models.Question) { q.Answer = []int{-1} },
			wantFields: []string{"answer[0]"},
		},
		{
			name:       "single with two answers",
			mutate:     func(q *models.Question) { q.Answer = []int{1, 2} },
			wantFields: []string{"answer"},
		},
		{
			name:       "duplicate answer index",
			mutate:     func(q *models.Question) { q.Type = models.QuestionMultiple; q.Answer = []int{1, 1} },
			wantFields: []string{"answer[1]"},
		},
		{
			name:       "wrong explanation on correct option",
			mutate:     func(q *models.Question) { q.Explanation.Wrong[1] = "不应出现" },
			wantFields: []string{"explanation.wrong[1]"},
		},
		{
			name:       "wrong explanation out of range",
			mutate:     func(q *models.Question) { q.Explanation.Wrong[9] = "越界" },
			wantFields: []string{"explanation.wrong[9]"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := validSingle()
			tt.mutate(&q)

			errs := v.ValidateQuestion(&q)

			if len(tt.wantFields) == 0 {
				assert.Nil(t, errs)
				return
			}
			assert.ElementsMatch(t, tt.wantFields, errs.Fields())
		})
	}
}

func TestValidator_ValidateQuestion_Judge(t *testing.T) {
	v := New()

	judge := models.Question{
		ID:      2,
		Type:    models.QuestionJudge,
		Text:    "Suspense 只能用于代码分割。",
		Options: []string{"正确", "错误"},
		Answer:  []int{1},
		Explanation: models.Explanation{
			Correct: "Suspense 也可以配合数据获取使用。",
			Wrong:   map[int]string{0: "React 18 起 Suspense 支持更多场景。"},
		},
		Tags: []string{"Suspense"},
	}
	assert.Nil(t, v.ValidateQuestion(&judge))

	judge.Options = append(judge.Options, "不确定")
	assert.Nil(t, v.ValidateQuestion(&judge), "judge questions are not limited to two options")

	judge.Answer = []int{0, 1}
	judge.Explanation.Wrong = nil
	errs := v.ValidateQuestion(&judge)
	assert.Equal(t, []string{"answer"}, errs.Fields())
	assert.Equal(t, "answer_count", errs[0].Rule)
}

func TestValidator_ValidateQuestion_MultipleAllowsSeveralAnswers(t *testing.T) {
	v := New()

	q := validSingle()
	q.Type = models.QuestionMultiple
	q.Answer = []int{1, 2, 3}

	assert.Nil(t, v.ValidateQuestion(&q))
}

func TestValidator_ValidateBank(t *testing.T) {
	v := New()

	first := validSingle()
	second := validSingle()
	third := validSingle()
	third.ID = 3
	third.Answer = []int{7}

	errs := v.ValidateBank([]models.Question{first, second, third})

	assert.ElementsMatch(t, []string{"questions[1].id", "questions[2].answer[0]"}, errs.Fields())
}

func TestValidator_ValidateBank_ZeroID(t *testing.T) {
	v := New()

	zero := validSingle()
	zero.ID = 0
	other := validSingle()

	assert.Nil(t, v.ValidateBank([]models.Question{zero, other}))

	errs := v.ValidateBank([]models.Question{zero, zero})
	assert.Equal(t, []string{"questions[1].id"}, errs.Fields())
	assert.Equal(t, "unique_id", errs[0].Rule)
}

func TestValidator_ValidateBank_Valid(t *testing.T) {
	v := New()

	first := validSingle()
	second := validSingle()
	second.ID = 2

	assert.Nil(t, v.ValidateBank([]models.Question{first, second}))
}

func TestSplitQuestionPath(t *testing.T) {
	tests := []struct {
		field string
		index int
		rest  string
		ok    bool
	}{
		{"questions[3].answer", 3, "answer", true},
		{"questions[0].options[1]", 0, "options[1]", true},
		{"questions[12]", 12, "", true},
		{"answer", 0, "", false},
		{"questions[x].id", 0, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			index, rest, ok := SplitQuestionPath(tt.field)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.index, index)
			assert.Equal(t, tt.rest, rest)
		})
	}
}
