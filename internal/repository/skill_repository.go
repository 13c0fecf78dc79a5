package repository

import (
	"learnpulse_backend/internal/model"

	"gorm.io/gorm"
)

type SkillRepository struct {
	DB *gorm.DB
}

func NewSkillRepository(db *gorm.DB) *SkillRepository {
	return &SkillRepository{DB: db}
}

func (r *SkillRepository) Create(skill *model.Skill) error {
	return r.DB.Create(skill).Error
}

func (r *SkillRepository) FindByID(id uint) (*model.Skill, error) {
	var skill model.Skill
	err := r.DB.First(&skill, id).Error
	return &skill, err
}

// FirstActiveByGrade returns the oldest active skill at the grade level,
// used when a session request names no skill.
func (r *SkillRepository) FirstActiveByGrade(gradeLevel int) (*model.Skill, error) {
	var skill model.Skill
	err := r.DB.Where("grade_level = ? AND status = ?", gradeLevel, model.SkillActive).
		Order("id ASC").
		First(&skill).Error
	return &skill, err
}

func (r *SkillRepository) List(gradeLevel int, subject string) ([]model.Skill, error) {
	var skills []model.Skill
	q := r.DB.Model(&model.Skill{})
	if gradeLevel > 0 {
		q = q.Where("grade_level = ?", gradeLevel)
	}
	if subject != "" {
		q = q.Where("subject = ?", subject)
	}
	err := q.Order("id ASC").Find(&skills).Error
	return skills, err
}

func (r *SkillRepository) Update(skill *model.Skill) error {
	return r.DB.Save(skill).Error
}

func (r *SkillRepository) SetStatus(id uint, status model.SkillStatus) error {
	return r.DB.Model(&model.Skill{}).
		Where("id = ?", id).
		Update("status", status).
		Error
}
