package repository

import (
	"learnpulse_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type RecommendationHistoryRepository struct {
	DB *gorm.DB
}

func NewRecommendationHistoryRepository(db *gorm.DB) *RecommendationHistoryRepository {
	return &RecommendationHistoryRepository{DB: db}
}

func (r *RecommendationHistoryRepository) Create(h *model.RecommendationHistory) error {
	return r.DB.Create(h).Error
}

func (r *RecommendationHistoryRepository) FindByID(id string) (*model.RecommendationHistory, error) {
	var h model.RecommendationHistory
	err := r.DB.Where("id = ?", id).First(&h).Error
	return &h, err
}

func (r *RecommendationHistoryRepository) Update(h *model.RecommendationHistory) error {
	return r.DB.Save(h).Error
}

// CompletedResourceIDs returns resources the user already completed for
// the skill. These are never recommended again.
func (r *RecommendationHistoryRepository) CompletedResourceIDs(userID, skillID uint) ([]uint, error) {
	var ids []uint
	err := r.DB.Model(&model.RecommendationHistory{}).
		Where("user_id = ? AND skill_id = ? AND is_completed = ?", userID, skillID, true).
		Distinct().
		Pluck("resource_id", &ids).Error
	return ids, err
}

// RecentResourceIDs returns resources recommended to the user for the
// skill since the cutoff (the cooldown window).
func (r *RecommendationHistoryRepository) RecentResourceIDs(userID, skillID uint, since time.Time) ([]uint, error) {
	var ids []uint
	err := r.DB.Model(&model.RecommendationHistory{}).
		Where("user_id = ? AND skill_id = ? AND created_at >= ?", userID, skillID, since).
		Distinct().
		Pluck("resource_id", &ids).Error
	return ids, err
}

// FindByResource returns the full usage history of a resource, oldest
// first, for retrospective effectiveness scoring.
func (r *RecommendationHistoryRepository) FindByResource(resourceID uint) ([]model.RecommendationHistory, error) {
	var rows []model.RecommendationHistory
	err := r.DB.Where("resource_id = ?", resourceID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

// FindByUserAndSkill returns the user's history rows for a skill ordered
// by creation time.
func (r *RecommendationHistoryRepository) FindByUserAndSkill(userID, skillID uint) ([]model.RecommendationHistory, error) {
	var rows []model.RecommendationHistory
	err := r.DB.Where("user_id = ? AND skill_id = ?", userID, skillID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

// CompletedTypeCounts tallies the user's completed recommendations per
// resource type, used as a preference signal.
func (r *RecommendationHistoryRepository) CompletedTypeCounts(userID uint) (map[model.ResourceType]int, error) {
	type row struct {
		Type  model.ResourceType
		Count int
	}
	var rows []row
	err := r.DB.Model(&model.RecommendationHistory{}).
		Select("recommendation_resources.type AS type, COUNT(*) AS count").
		Joins("JOIN recommendation_resources ON recommendation_resources.id = recommendation_histories.resource_id").
		Where("recommendation_histories.user_id = ? AND recommendation_histories.is_completed = ?", userID, true).
		Group("recommendation_resources.type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[model.ResourceType]int, len(rows))
	for _, r := range rows {
		counts[r.Type] = r.Count
	}
	return counts, nil
}
