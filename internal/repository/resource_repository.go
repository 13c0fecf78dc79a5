package repository

import (
	"learnpulse_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type ResourceRepository struct {
	DB *gorm.DB
}

func NewResourceRepository(db *gorm.DB) *ResourceRepository {
	return &ResourceRepository{DB: db}
}

func (r *ResourceRepository) Create(resource *model.RecommendationResource) error {
	return r.DB.Create(resource).Error
}

func (r *ResourceRepository) FindByID(id uint) (*model.RecommendationResource, error) {
	var resource model.RecommendationResource
	err := r.DB.Preload("RelatedSkills").First(&resource, id).Error
	return &resource, err
}

// FindCandidates returns curated (non-AI) resources linked to the skill
// at the grade level, excluding the given resource ids.
func (r *ResourceRepository) FindCandidates(skillID uint, gradeLevel int, excludeIDs []uint, limit int) ([]model.RecommendationResource, error) {
	var resources []model.RecommendationResource
	q := r.DB.
		Joins("JOIN resource_skills ON resource_skills.recommendation_resource_id = recommendation_resources.id").
		Where("resource_skills.skill_id = ?", skillID).
		Where("recommendation_resources.is_ai_generated = ?", false)
	if gradeLevel > 0 {
		q = q.Where("recommendation_resources.grade_level = ?", gradeLevel)
	}
	if len(excludeIDs) > 0 {
		q = q.Where("recommendation_resources.id NOT IN ?", excludeIDs)
	}
	err := q.Order("recommendation_resources.created_at DESC").
		Limit(limit).
		Find(&resources).Error
	return resources, err
}

// FindAIGeneratedBySkill returns the newest AI resource already linked to
// the skill, if any, so generation cost can be skipped.
func (r *ResourceRepository) FindAIGeneratedBySkill(skillID uint) (*model.RecommendationResource, error) {
	var resource model.RecommendationResource
	err := r.DB.
		Joins("JOIN resource_skills ON resource_skills.recommendation_resource_id = recommendation_resources.id").
		Where("resource_skills.skill_id = ?", skillID).
		Where("recommendation_resources.is_ai_generated = ?", true).
		Order("recommendation_resources.created_at DESC").
		First(&resource).Error
	return &resource, err
}

func (r *ResourceRepository) List(resourceType model.ResourceType, gradeLevel, page, limit int) ([]model.RecommendationResource, int64, error) {
	var resources []model.RecommendationResource
	var total int64

	q := r.DB.Model(&model.RecommendationResource{})
	if resourceType != "" {
		q = q.Where("type = ?", resourceType)
	}
	if gradeLevel > 0 {
		q = q.Where("grade_level = ?", gradeLevel)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Preload("RelatedSkills").
		Order("id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&resources).Error
	return resources, total, err
}

func (r *ResourceRepository) Update(resource *model.RecommendationResource) error {
	return r.DB.Save(resource).Error
}

func (r *ResourceRepository) Delete(id uint) error {
	return r.DB.Delete(&model.RecommendationResource{}, id).Error
}

// StaleAIResources returns AI resources for the skill beyond keep, oldest
// first, that are older than cutoff. The retention sweeper deletes them.
func (r *ResourceRepository) StaleAIResources(skillID uint, keep int, cutoff time.Time) ([]model.RecommendationResource, error) {
	var all []model.RecommendationResource
	err := r.DB.
		Joins("JOIN resource_skills ON resource_skills.recommendation_resource_id = recommendation_resources.id").
		Where("resource_skills.skill_id = ?", skillID).
		Where("recommendation_resources.is_ai_generated = ?", true).
		Order("recommendation_resources.created_at DESC").
		Find(&all).Error
	if err != nil {
		return nil, err
	}

	if len(all) <= keep {
		return nil, nil
	}

	var stale []model.RecommendationResource
	for _, res := range all[keep:] {
		if res.CreatedAt.Before(cutoff) {
			stale = append(stale, res)
		}
	}
	return stale, nil
}

// SkillIDsWithAIResources lists the skills that currently have AI
// resources attached.
func (r *ResourceRepository) SkillIDsWithAIResources() ([]uint, error) {
	var ids []uint
	err := r.DB.Model(&model.RecommendationResource{}).
		Joins("JOIN resource_skills ON resource_skills.recommendation_resource_id = recommendation_resources.id").
		Where("recommendation_resources.is_ai_generated = ?", true).
		Distinct().
		Pluck("resource_skills.skill_id", &ids).Error
	return ids, err
}
