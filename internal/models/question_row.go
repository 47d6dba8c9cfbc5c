package models

import (
	"time"

	"gorm.io/datatypes"
)

// QuestionRow is the persisted form of a Question.
type QuestionRow struct {
	ID          uint           `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Position    int            `json:"position" gorm:"not null;index"` // authoring order
	Type        QuestionType   `json:"type" gorm:"not null;size:20;index"`
	Text        string         `json:"question" gorm:"type:text;not null"`
	Options     datatypes.JSON `json:"options" gorm:"type:jsonb;not null"`
	Answer      datatypes.JSON `json:"answer" gorm:"type:jsonb;not null"`
	Explanation datatypes.JSON `json:"explanation" gorm:"type:jsonb"`
	Tags        datatypes.JSON `json:"tags" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (QuestionRow) TableName() string {
	return "quiz_questions"
}
