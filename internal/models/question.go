package models

import (
	"encoding/json"
	"sort"
)

type QuestionType string

const (
	QuestionSingle   QuestionType = "single"
	QuestionMultiple QuestionType = "multiple"
	QuestionJudge    QuestionType = "judge"
)

// QuestionTypes lists every supported question type in display order.
var QuestionTypes = []QuestionType{QuestionSingle, QuestionMultiple, QuestionJudge}

// IsValid reports whether t is one of the supported question types.
func (t QuestionType) IsValid() bool {
	for _, known := range QuestionTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Explanation carries the reasoning shown after a question is answered.
// Wrong is keyed by option index and only covers options that are not correct.
type Explanation struct {
	Correct string         `json:"correct" yaml:"correct"`
	Wrong   map[int]string `json:"wrong" yaml:"wrong"`
}

// Question is one quiz item of the bank.
type Question struct {
	ID          uint         `json:"id" yaml:"id"`
	Type        QuestionType `json:"type" yaml:"type" validate:"required,question_type"`
	Text        string       `json:"question" yaml:"question" validate:"required"`
	Options     []string     `json:"options" yaml:"options" validate:"required,min=1"`
	Answer      []int        `json:"answer" yaml:"answer" validate:"required,min=1"`
	Explanation Explanation  `json:"explanation" yaml:"explanation"`
	Tags        []string     `json:"tags" yaml:"tags"`
}

// questionWire has Question's fields without its methods.
type questionWire Question

// withEmptyCollections swaps nil lists and maps for empty ones so every
// collection encodes as [] or {} rather than null.
func (q Question) withEmptyCollections() questionWire {
	if q.Options == nil {
		q.Options = []string{}
	}
	if q.Answer == nil {
		q.Answer = []int{}
	}
	if q.Tags == nil {
		q.Tags = []string{}
	}
	if q.Explanation.Wrong == nil {
		q.Explanation.Wrong = map[int]string{}
	}
	return questionWire(q)
}

func (q Question) MarshalJSON() ([]byte, error) {
	return json.Marshal(q.withEmptyCollections())
}

func (q Question) MarshalYAML() (interface{}, error) {
	return q.withEmptyCollections(), nil
}

// HasTag reports whether the question is labelled with tag.
func (q Question) HasTag(tag string) bool {
	for _, t := range q.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// IsCorrect reports whether option index idx is one of the correct answers.
func (q Question) IsCorrect(idx int) bool {
	for _, a := range q.Answer {
		if a == idx {
			return true
		}
	}
	return false
}

// WrongIndexes returns the keys of Explanation.Wrong in ascending order.
func (q Question) WrongIndexes() []int {
	keys := make([]int, 0, len(q.Explanation.Wrong))
	for k := range q.Explanation.Wrong {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// Clone returns a deep copy so callers never share slices or maps with the bank.
// Nil slices and maps stay nil.
func (q Question) Clone() Question {
	out := q
	if q.Options != nil {
		out.Options = append([]string(nil), q.Options...)
	}
	if q.Answer != nil {
		out.Answer = append([]int(nil), q.Answer...)
	}
	if q.Tags != nil {
		out.Tags = append([]string(nil), q.Tags...)
	}
	if q.Explanation.Wrong != nil {
		out.Explanation.Wrong = make(map[int]string, len(q.Explanation.Wrong))
		for k, v := range q.Explanation.Wrong {
			out.Explanation.Wrong[k] = v
		}
	}
	return out
}

// TagCount is the number of questions labelled with a tag.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}
