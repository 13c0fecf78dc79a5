package repository

import (
	"learnpulse_backend/internal/model"

	"gorm.io/gorm"
)

type SkillScoreRepository struct {
	DB *gorm.DB
}

func NewSkillScoreRepository(db *gorm.DB) *SkillScoreRepository {
	return &SkillScoreRepository{DB: db}
}

// FindAllByUser returns every score row for the user ordered by
// last_assessed_at descending, so the first row per skill is the latest.
func (r *SkillScoreRepository) FindAllByUser(userID uint) ([]model.AssessmentSkillScore, error) {
	var scores []model.AssessmentSkillScore
	err := r.DB.Where("user_id = ?", userID).
		Order("last_assessed_at DESC").
		Find(&scores).Error
	return scores, err
}
