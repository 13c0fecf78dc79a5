package repository

import (
	"learnpulse_backend/internal/model"

	"gorm.io/gorm"
)

type QuestionRepository struct {
	DB *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) *QuestionRepository {
	return &QuestionRepository{DB: db}
}

func (r *QuestionRepository) Create(q *model.Question) error {
	return r.DB.Create(q).Error
}

func (r *QuestionRepository) FindByID(id uint) (*model.Question, error) {
	var q model.Question
	err := r.DB.First(&q, id).Error
	return &q, err
}

func (r *QuestionRepository) FindByIDs(ids []uint) ([]model.Question, error) {
	var qs []model.Question
	err := r.DB.Where("id IN ?", ids).Find(&qs).Error
	return qs, err
}

// FindActivePool returns up to limit active questions for the skill and
// grade, newest first. The caller shuffles and samples from this pool.
func (r *QuestionRepository) FindActivePool(gradeLevel int, skillID uint, limit int) ([]model.Question, error) {
	var qs []model.Question
	err := r.DB.Where("grade_level = ? AND skill_id = ? AND status = ?",
		gradeLevel, skillID, model.QuestionActive).
		Order("created_at DESC").
		Limit(limit).
		Find(&qs).Error
	return qs, err
}

func (r *QuestionRepository) List(skillID uint, status model.QuestionStatus, page, limit int) ([]model.Question, int64, error) {
	var qs []model.Question
	var total int64

	q := r.DB.Model(&model.Question{})
	if skillID > 0 {
		q = q.Where("skill_id = ?", skillID)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Order("id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&qs).Error
	return qs, total, err
}

func (r *QuestionRepository) Update(q *model.Question) error {
	return r.DB.Save(q).Error
}

func (r *QuestionRepository) SetStatus(id uint, status model.QuestionStatus) error {
	return r.DB.Model(&model.Question{}).
		Where("id = ?", id).
		Update("status", status).
		Error
}
