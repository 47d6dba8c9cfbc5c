package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the kinds of question bank events
type EventType string

const (
	EventQuestionBankLoaded     EventType = "question_bank.loaded"
	EventQuestionBankLoadFailed EventType = "question_bank.load_failed"
)

const (
	eventSource  = "question-bank-service"
	eventVersion = "1.0"
)

// Event is the envelope for all question bank events
type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

type QuestionBankLoadedEvent struct {
	Source        string    `json:"source"`
	QuestionCount int       `json:"question_count"`
	TagCount      int       `json:"tag_count"`
	Checksum      string    `json:"checksum"`
	LoadedAt      time.Time `json:"loaded_at"`
}

type QuestionBankLoadFailedEvent struct {
	Source     string    `json:"source"`
	Reason     string    `json:"reason"`
	IssueCount int       `json:"issue_count"`
	FailedAt   time.Time `json:"failed_at"`
}

// NewEvent wraps data in an envelope with a fresh id
func NewEvent(eventType EventType, data interface{}) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Source:    eventSource,
		Version:   eventVersion,
		Data:      data,
	}
}

func NewQuestionBankLoadedEvent(payload QuestionBankLoadedEvent) *Event {
	return NewEvent(EventQuestionBankLoaded, payload)
}

func NewQuestionBankLoadFailedEvent(payload QuestionBankLoadFailedEvent) *Event {
	return NewEvent(EventQuestionBankLoadFailed, payload)
}
