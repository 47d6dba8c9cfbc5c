// Package bank holds the validated, read-only question bank and its lookup indexes.
package bank

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/SAP-F-2025/question-bank-service/internal/models"
	"github.com/SAP-F-2025/question-bank-service/internal/validator"
)

// QuestionBank is an immutable, ordered set of questions indexed by id and tag.
// It is safe for concurrent readers; nothing mutates it after New returns.
type QuestionBank struct {
	questions []models.Question
	byID      map[uint]int
	byTag     map[string][]int
	byType    map[models.QuestionType][]int
	checksum  string
}

// New validates records and builds the bank. Any broken record rejects the whole
// bank with a *MalformedBankError.
func New(records []models.Question) (*QuestionBank, error) {
	return NewWithValidator(validator.New(), records)
}

// NewWithValidator is New with a caller supplied validator.
func NewWithValidator(v *validator.Validator, records []models.Question) (*QuestionBank, error) {
	if errs := v.ValidateBank(records); len(errs) > 0 {
		return nil, &MalformedBankError{Issues: errs}
	}

	b := &QuestionBank{
		questions: make([]models.Question, len(records)),
		byID:      make(map[uint]int, len(records)),
		byTag:     make(map[string][]int),
		byType:    make(map[models.QuestionType][]int, len(models.QuestionTypes)),
	}

	for i, record := range records {
		q := record.Clone()
		b.questions[i] = q
		b.byID[q.ID] = i
		b.byType[q.Type] = append(b.byType[q.Type], i)

		seenTag := make(map[string]bool, len(q.Tags))
		for _, tag := range q.Tags {
			if seenTag[tag] {
				continue
			}
			seenTag[tag] = true
			b.byTag[tag] = append(b.byTag[tag], i)
		}
	}

	sum, err := checksum(b.questions)
	if err != nil {
		return nil, fmt.Errorf("failed to compute bank checksum: %w", err)
	}
	b.checksum = sum

	return b, nil
}

// GetAll returns every question in authoring order.
func (b *QuestionBank) GetAll() []models.Question {
	out := make([]models.Question, len(b.questions))
	for i, q := range b.questions {
		out[i] = q.Clone()
	}
	return out
}

// GetByID returns the question with the given id, or an error wrapping ErrNotFound.
func (b *QuestionBank) GetByID(id uint) (models.Question, error) {
	idx, ok := b.byID[id]
	if !ok {
		return models.Question{}, fmt.Errorf("question %d: %w", id, ErrNotFound)
	}
	return b.questions[idx].Clone(), nil
}

// FilterByTag returns the questions labelled with tag in authoring order.
// Unknown tags yield an empty slice.
func (b *QuestionBank) FilterByTag(tag string) []models.Question {
	return b.collect(b.byTag[tag])
}

// FilterByType returns the questions of type t in authoring order.
func (b *QuestionBank) FilterByType(t models.QuestionType) []models.Question {
	return b.collect(b.byType[t])
}

// Tags lists every tag with its question count, most used first, then by name.
func (b *QuestionBank) Tags() []models.TagCount {
	tags := make([]models.TagCount, 0, len(b.byTag))
	for tag, idxs := range b.byTag {
		tags = append(tags, models.TagCount{Tag: tag, Count: len(idxs)})
	}
	sort.Slice(tags, func(i, j int) bool {
		if tags[i].Count != tags[j].Count {
			return tags[i].Count > tags[j].Count
		}
		return tags[i].Tag < tags[j].Tag
	})
	return tags
}

// Len returns the number of questions.
func (b *QuestionBank) Len() int {
	return len(b.questions)
}

// Checksum is a sha256 over the canonical JSON encoding of the questions.
// Two banks with the same content in the same order share a checksum.
func (b *QuestionBank) Checksum() string {
	return b.checksum
}

func (b *QuestionBank) collect(idxs []int) []models.Question {
	out := make([]models.Question, 0, len(idxs))
	for _, idx := range idxs {
		out = append(out, b.questions[idx].Clone())
	}
	return out
}

func checksum(questions []models.Question) (string, error) {
	data, err := json.Marshal(questions)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
