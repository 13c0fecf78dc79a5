package model

import "time"

type SessionStatus string

const (
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
	SessionCancelled  SessionStatus = "cancelled"
)

// AssessmentSession is a fixed-length question run for one (user, skill)
// pair. QuestionIDs is fixed at creation and defines both the question
// order and the completion criterion.
// swagger:model AssessmentSession
type AssessmentSession struct {
	UUIDBase
	UserID       uint          `gorm:"index;not null" json:"userId"`
	SkillID      uint          `gorm:"index;not null" json:"skillId"`
	Status       SessionStatus `gorm:"size:20;default:'in_progress'" json:"status"`
	QuestionIDs  UintList      `gorm:"type:json" json:"questionIds"`
	StartedAt    time.Time     `json:"startedAt"`
	CompletedAt  *time.Time    `json:"completedAt,omitempty"`
	OverallScore *int          `json:"overallScore,omitempty"`
	OverallLevel *int          `json:"overallLevel,omitempty"`
}

func (AssessmentSession) TableName() string {
	return "assessment_sessions"
}

// swagger:model AssessmentResponse
type AssessmentResponse struct {
	UUIDBase
	SessionID    string    `gorm:"index:idx_session_question,unique;type:varchar(36);not null" json:"sessionId"`
	QuestionID   uint      `gorm:"index:idx_session_question,unique;not null" json:"questionId"`
	UserResponse string    `gorm:"type:text" json:"userResponse"`
	IsCorrect    bool      `gorm:"default:false" json:"isCorrect"`
	AnsweredAt   time.Time `json:"answeredAt"`
}

func (AssessmentResponse) TableName() string {
	return "assessment_responses"
}
