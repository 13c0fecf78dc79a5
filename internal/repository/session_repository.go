package repository

import (
	"learnpulse_backend/internal/model"

	"gorm.io/gorm"
)

type SessionRepository struct {
	DB *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{DB: db}
}

func (r *SessionRepository) FindByID(id string) (*model.AssessmentSession, error) {
	var session model.AssessmentSession
	err := r.DB.Where("id = ?", id).First(&session).Error
	return &session, err
}

func (r *SessionRepository) FindResponses(sessionID string) ([]model.AssessmentResponse, error) {
	var responses []model.AssessmentResponse
	err := r.DB.Where("session_id = ?", sessionID).
		Order("answered_at ASC").
		Find(&responses).Error
	return responses, err
}

// FindRecentAnswers returns the user's latest responses on questions of
// the given skill, newest first. Feeds the AI generation prompt.
func (r *SessionRepository) FindRecentAnswers(userID uint, skillID uint, limit int) ([]model.AssessmentResponse, error) {
	var responses []model.AssessmentResponse
	err := r.DB.
		Joins("JOIN assessment_sessions ON assessment_sessions.id = assessment_responses.session_id").
		Joins("JOIN questions ON questions.id = assessment_responses.question_id").
		Where("assessment_sessions.user_id = ? AND questions.skill_id = ?", userID, skillID).
		Order("assessment_responses.answered_at DESC").
		Limit(limit).
		Find(&responses).Error
	return responses, err
}
