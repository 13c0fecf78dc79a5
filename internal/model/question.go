package model

import "encoding/json"

type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	TrueFalse      QuestionType = "true_false"
	Numerical      QuestionType = "numerical"
	ShortAnswer    QuestionType = "short_answer"
)

type QuestionStatus string

const (
	QuestionDraft   QuestionStatus = "draft"
	QuestionActive  QuestionStatus = "active"
	QuestionRetired QuestionStatus = "retired"
)

// swagger:model Question
type Question struct {
	BaseModel
	Text            string          `gorm:"type:text;not null" json:"text"`
	Type            QuestionType    `gorm:"size:30;not null" json:"type"`
	Options         json.RawMessage `gorm:"type:json" json:"options,omitempty"`
	CorrectAnswer   string          `gorm:"type:text;not null" json:"-"`
	DifficultyLevel int             `gorm:"default:1" json:"difficultyLevel"`
	GradeLevel      int             `gorm:"index;not null" json:"gradeLevel"`
	SkillID         uint            `gorm:"index;not null" json:"skillId"`
	Skill           *Skill          `gorm:"foreignKey:SkillID" json:"skill,omitempty"`
	Status          QuestionStatus  `gorm:"size:20;default:'draft'" json:"status"`
}

func (Question) TableName() string {
	return "questions"
}

// PublicQuestion is the learner-facing projection. It never carries the
// correct answer.
type PublicQuestion struct {
	ID              uint            `json:"id"`
	Text            string          `json:"text"`
	Type            QuestionType    `json:"type"`
	Options         json.RawMessage `json:"options,omitempty"`
	DifficultyLevel int             `json:"difficultyLevel"`
	GradeLevel      int             `json:"gradeLevel"`
	SkillID         uint            `json:"skillId"`
}

func (q *Question) Public() *PublicQuestion {
	return &PublicQuestion{
		ID:              q.ID,
		Text:            q.Text,
		Type:            q.Type,
		Options:         q.Options,
		DifficultyLevel: q.DifficultyLevel,
		GradeLevel:      q.GradeLevel,
		SkillID:         q.SkillID,
	}
}
