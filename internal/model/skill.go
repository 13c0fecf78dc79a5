package model

type SkillStatus string

const (
	SkillActive   SkillStatus = "active"
	SkillInactive SkillStatus = "inactive"
)

// Skill is a curated competency a learner can be assessed on.
// swagger:model Skill
type Skill struct {
	BaseModel
	Name       string      `gorm:"size:255;not null" json:"name"`
	Subject    string      `gorm:"size:100;index" json:"subject"`
	GradeLevel int         `gorm:"index;not null" json:"gradeLevel"`
	Status     SkillStatus `gorm:"size:20;default:'active'" json:"status"`
}

func (Skill) TableName() string {
	return "skills"
}
