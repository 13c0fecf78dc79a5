package model

import "time"

// AssessmentSkillScore is the single source of truth for a learner's
// current proficiency on a skill. One row per (user, skill), created
// lazily on the first accepted answer and updated in place afterwards.
// swagger:model AssessmentSkillScore
type AssessmentSkillScore struct {
	BaseModel
	UserID             uint      `gorm:"index:idx_user_skill,unique;not null" json:"userId"`
	SkillID            uint      `gorm:"index:idx_user_skill,unique;not null" json:"skillId"`
	Score              float64   `gorm:"default:500" json:"score"`
	Level              *int      `json:"level,omitempty"`
	QuestionsAttempted int       `gorm:"default:0" json:"questionsAttempted"`
	LastAssessedAt     time.Time `gorm:"index" json:"lastAssessedAt"`
}

func (AssessmentSkillScore) TableName() string {
	return "assessment_skill_scores"
}
