package model

import "time"

type ResourceType string

const (
	Video        ResourceType = "video"
	Article      ResourceType = "article"
	Worksheet    ResourceType = "worksheet"
	Interactive  ResourceType = "interactive"
	PracticeQuiz ResourceType = "practice_quiz"
)

type RecommendationPriority string

const (
	PriorityLow      RecommendationPriority = "low"
	PriorityMedium   RecommendationPriority = "medium"
	PriorityHigh     RecommendationPriority = "high"
	PriorityCritical RecommendationPriority = "critical"
)

// RecommendationResource is a candidate learning resource. Standard
// resources are curated; AI resources are created on demand and subject
// to a per-skill retention cap.
// swagger:model RecommendationResource
type RecommendationResource struct {
	BaseModel
	Title                string       `gorm:"size:255;not null" json:"title"`
	Description          string       `gorm:"type:text" json:"description"`
	URL                  string       `gorm:"size:512" json:"url"`
	Type                 ResourceType `gorm:"size:30;not null" json:"type"`
	EstimatedTimeMinutes int          `gorm:"default:0" json:"estimatedTimeMinutes"`
	GradeLevel           int          `gorm:"index" json:"gradeLevel"`
	Tags                 StringList   `gorm:"type:json" json:"tags"`
	RelatedSkills        []Skill      `gorm:"many2many:resource_skills" json:"relatedSkills,omitempty"`
	IsAIGenerated        bool         `gorm:"index;default:false" json:"isAiGenerated"`
}

func (RecommendationResource) TableName() string {
	return "recommendation_resources"
}

// RecommendationHistory is an append-only log of what was recommended.
// It drives the cooldown window and retrospective effectiveness scoring.
// swagger:model RecommendationHistory
type RecommendationHistory struct {
	UUIDBase
	UserID        uint                    `gorm:"index:idx_user_skill_hist;not null" json:"userId"`
	SkillID       uint                    `gorm:"index:idx_user_skill_hist;not null" json:"skillId"`
	ResourceID    uint                    `gorm:"index;not null" json:"resourceId"`
	Resource      *RecommendationResource `gorm:"foreignKey:ResourceID" json:"resource,omitempty"`
	Priority      RecommendationPriority  `gorm:"size:20" json:"priority"`
	UserScore     float64                 `json:"userScore"`
	TargetScore   float64                 `json:"targetScore"`
	Explanation   string                  `gorm:"type:text" json:"explanation"`
	IsCompleted   bool                    `gorm:"default:false" json:"isCompleted"`
	CompletedAt   *time.Time              `json:"completedAt,omitempty"`
	WasHelpful    *bool                   `json:"wasHelpful,omitempty"`
	IsAIGenerated bool                    `gorm:"default:false" json:"isAiGenerated"`
}

func (RecommendationHistory) TableName() string {
	return "recommendation_histories"
}
