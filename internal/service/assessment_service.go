package service

import (
	"context"
	"errors"
	"learnpulse_backend/internal/model"
	"learnpulse_backend/internal/repository"
	"learnpulse_backend/internal/util"
	"learnpulse_backend/pkg/logger"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	SessionQuestionCount   = 10
	QuestionPoolMultiplier = 3
)

type AssessmentService struct {
	DB           *gorm.DB
	SessionRepo  *repository.SessionRepository
	QuestionRepo *repository.QuestionRepository
	SkillRepo    *repository.SkillRepository
	ScoreRepo    *repository.SkillScoreRepository
	UserRepo     *repository.UserRepository
	Cache        *ResultCache

	mu  sync.Mutex
	rng *rand.Rand
}

func NewAssessmentService(
	db *gorm.DB,
	sessionRepo *repository.SessionRepository,
	questionRepo *repository.QuestionRepository,
	skillRepo *repository.SkillRepository,
	scoreRepo *repository.SkillScoreRepository,
	userRepo *repository.UserRepository,
	cache *ResultCache,
) *AssessmentService {
	return &AssessmentService{
		DB:           db,
		SessionRepo:  sessionRepo,
		QuestionRepo: questionRepo,
		SkillRepo:    skillRepo,
		ScoreRepo:    scoreRepo,
		UserRepo:     userRepo,
		Cache:        cache,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

type StartSessionRequest struct {
	SkillID    uint `json:"skillId"`
	GradeLevel int  `json:"gradeLevel" binding:"omitempty,min=1,max=12"`
}

type SubmitAnswerRequest struct {
	QuestionID uint   `json:"questionId" binding:"required"`
	Response   string `json:"response" binding:"required"`
}

// StartSession resolves a skill for the learner, samples a fixed set of
// questions from the active pool and creates an in_progress session.
func (s *AssessmentService) StartSession(userID uint, req *StartSessionRequest) (*model.AssessmentSession, error) {
	grade := req.GradeLevel
	if grade == 0 {
		user, err := s.UserRepo.FindByID(userID)
		if err != nil {
			return nil, err
		}
		grade = user.GradeLevel
	}

	var skill *model.Skill
	var err error
	if req.SkillID != 0 {
		skill, err = s.SkillRepo.FindByID(req.SkillID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, util.ErrSkillNotFound
			}
			return nil, err
		}
		if grade == 0 {
			grade = skill.GradeLevel
		}
	} else {
		if grade == 0 {
			return nil, util.ErrNoSkillResolvable
		}
		skill, err = s.SkillRepo.FirstActiveByGrade(grade)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, util.ErrSkillNotFound
			}
			return nil, err
		}
	}

	pool, err := s.QuestionRepo.FindActivePool(grade, skill.ID, QuestionPoolMultiplier*SessionQuestionCount)
	if err != nil {
		return nil, err
	}
	if len(pool) < SessionQuestionCount {
		return nil, util.ErrInsufficientQuestions
	}

	s.mu.Lock()
	s.rng.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	s.mu.Unlock()

	questionIDs := make(model.UintList, 0, SessionQuestionCount)
	for _, q := range pool[:SessionQuestionCount] {
		questionIDs = append(questionIDs, q.ID)
	}

	session := &model.AssessmentSession{
		UserID:      userID,
		SkillID:     skill.ID,
		Status:      model.SessionInProgress,
		QuestionIDs: questionIDs,
		StartedAt:   time.Now(),
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		return tx.Create(session).Error
	})
	if err != nil {
		return nil, err
	}

	logger.Log.Info("assessment session started",
		zap.String("session_id", session.ID),
		zap.Uint("user_id", userID),
		zap.Uint("skill_id", skill.ID),
		zap.Int("grade_level", grade))

	return session, nil
}

// GetNextQuestion returns the first unanswered question of the session in
// session order, or a completion marker. Reading the last unanswered
// question after it was answered finalizes the session lazily.
func (s *AssessmentService) GetNextQuestion(ctx context.Context, userID uint, sessionID string) (*NextQuestionView, error) {
	if view, ok := s.Cache.GetNextQuestion(ctx, userID, sessionID); ok {
		return view, nil
	}

	session, err := s.loadOwnedSession(userID, sessionID)
	if err != nil {
		return nil, err
	}

	if session.Status == model.SessionCompleted {
		view := &NextQuestionView{IsComplete: true}
		s.Cache.SetNextQuestion(ctx, userID, sessionID, view)
		return view, nil
	}
	if session.Status != model.SessionInProgress {
		return nil, util.ErrSessionNotInProgress
	}

	responses, err := s.SessionRepo.FindResponses(sessionID)
	if err != nil {
		return nil, err
	}

	nextID, found := firstUnanswered(session.QuestionIDs, responses)
	if !found {
		err = s.DB.Transaction(func(tx *gorm.DB) error {
			return s.finalizeSession(tx, session, responses)
		})
		if err != nil {
			return nil, err
		}
		view := &NextQuestionView{IsComplete: true}
		s.Cache.SetNextQuestion(ctx, userID, sessionID, view)
		return view, nil
	}

	question, err := s.QuestionRepo.FindByID(nextID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Log.Error("session references missing question",
				zap.String("session_id", sessionID),
				zap.Uint("question_id", nextID))
			return nil, util.ErrSessionCorrupted
		}
		return nil, err
	}

	view := &NextQuestionView{NextQuestion: question.Public()}
	s.Cache.SetNextQuestion(ctx, userID, sessionID, view)
	return view, nil
}

// SubmitAnswer grades one answer, records it and updates the learner's
// skill score, all inside a single transaction. The skill score row is
// locked for the duration so concurrent sessions on the same skill never
// lose an update.
func (s *AssessmentService) SubmitAnswer(ctx context.Context, userID uint, sessionID string, req *SubmitAnswerRequest) (*model.AssessmentResponse, error) {
	var response *model.AssessmentResponse
	var correct bool

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var session model.AssessmentSession
		if err := lockForUpdate(tx).
			Where("id = ?", sessionID).First(&session).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ErrSessionNotFound
			}
			return err
		}
		if session.UserID != userID {
			return util.ErrNotSessionOwner
		}
		if session.Status != model.SessionInProgress {
			return util.ErrSessionNotInProgress
		}

		if !containsID(session.QuestionIDs, req.QuestionID) {
			return util.ErrQuestionNotInSession
		}

		var dup int64
		if err := tx.Model(&model.AssessmentResponse{}).
			Where("session_id = ? AND question_id = ?", sessionID, req.QuestionID).
			Count(&dup).Error; err != nil {
			return err
		}
		if dup > 0 {
			return util.ErrAlreadyAnswered
		}

		var question model.Question
		if err := tx.First(&question, req.QuestionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ErrSessionCorrupted
			}
			return err
		}

		correct = CheckAnswer(&question, req.Response)
		now := time.Now()

		response = &model.AssessmentResponse{
			SessionID:    sessionID,
			QuestionID:   req.QuestionID,
			UserResponse: req.Response,
			IsCorrect:    correct,
			AnsweredAt:   now,
		}
		if err := tx.Create(response).Error; err != nil {
			return err
		}

		if err := s.applyScoreUpdate(tx, userID, question.SkillID, correct, now); err != nil {
			return err
		}

		var answered int64
		if err := tx.Model(&model.AssessmentResponse{}).
			Where("session_id = ?", sessionID).
			Count(&answered).Error; err != nil {
			return err
		}
		if int(answered) >= len(session.QuestionIDs) {
			var responses []model.AssessmentResponse
			if err := tx.Where("session_id = ?", sessionID).
				Order("answered_at ASC").
				Find(&responses).Error; err != nil {
				return err
			}
			return s.finalizeSession(tx, &session, responses)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Cache.InvalidateNextQuestion(ctx, userID, sessionID)
	if correct {
		s.Cache.InvalidateSessionResult(ctx, userID, sessionID)
	}

	return response, nil
}

// GetSessionResult returns the summary of a completed session.
func (s *AssessmentService) GetSessionResult(ctx context.Context, userID uint, sessionID string) (*SessionResultView, error) {
	if view, ok := s.Cache.GetSessionResult(ctx, userID, sessionID); ok {
		return view, nil
	}

	session, err := s.loadOwnedSession(userID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != model.SessionCompleted {
		return nil, util.ErrSessionNotCompleted
	}

	responses, err := s.SessionRepo.FindResponses(sessionID)
	if err != nil {
		return nil, err
	}

	correctCount := 0
	for _, r := range responses {
		if r.IsCorrect {
			correctCount++
		}
	}

	view := &SessionResultView{
		SessionID:      session.ID,
		SkillID:        session.SkillID,
		Status:         string(session.Status),
		CorrectCount:   correctCount,
		TotalQuestions: len(session.QuestionIDs),
		CompletedAt:    session.CompletedAt,
	}
	if session.OverallScore != nil {
		view.OverallScore = *session.OverallScore
	}
	if session.OverallLevel != nil {
		view.OverallLevel = *session.OverallLevel
	}

	s.Cache.SetSessionResult(ctx, userID, sessionID, view)
	return view, nil
}

// GetUserScores lists the learner's skill scores, most recently assessed
// first.
func (s *AssessmentService) GetUserScores(userID uint) ([]model.AssessmentSkillScore, error) {
	return s.ScoreRepo.FindAllByUser(userID)
}

func (s *AssessmentService) loadOwnedSession(userID uint, sessionID string) (*model.AssessmentSession, error) {
	session, err := s.SessionRepo.FindByID(sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrSessionNotFound
		}
		return nil, err
	}
	if session.UserID != userID {
		return nil, util.ErrNotSessionOwner
	}
	return session, nil
}

// applyScoreUpdate moves the (user, skill) score by the adaptive delta.
// The row is created lazily at the base score on the first answer.
func (s *AssessmentService) applyScoreUpdate(tx *gorm.DB, userID, skillID uint, correct bool, now time.Time) error {
	var score model.AssessmentSkillScore
	err := lockForUpdate(tx).
		Where("user_id = ? AND skill_id = ?", userID, skillID).
		First(&score).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		score = model.AssessmentSkillScore{
			UserID:  userID,
			SkillID: skillID,
			Score:   BaseSkillScore,
		}
	} else if err != nil {
		return err
	}

	score.Score = UpdateAdaptiveScore(score.Score, score.QuestionsAttempted, correct)
	score.QuestionsAttempted++
	level := ProficiencyLevel(score.Score)
	score.Level = &level
	score.LastAssessedAt = now

	return tx.Save(&score).Error
}

// finalizeSession computes the difficulty-weighted summary and marks the
// session completed. Callers run it inside a transaction.
func (s *AssessmentService) finalizeSession(tx *gorm.DB, session *model.AssessmentSession, responses []model.AssessmentResponse) error {
	var questions []model.Question
	if err := tx.Where("id IN ?", []uint(session.QuestionIDs)).Find(&questions).Error; err != nil {
		return err
	}
	byID := make(map[uint]*model.Question, len(questions))
	for i := range questions {
		byID[questions[i].ID] = &questions[i]
	}

	overallScore, overallLevel := SessionSummary(responses, byID)
	now := time.Now()

	session.Status = model.SessionCompleted
	session.CompletedAt = &now
	session.OverallScore = &overallScore
	session.OverallLevel = &overallLevel

	if err := tx.Model(&model.AssessmentSession{}).
		Where("id = ?", session.ID).
		Updates(map[string]interface{}{
			"status":        model.SessionCompleted,
			"completed_at":  now,
			"overall_score": overallScore,
			"overall_level": overallLevel,
		}).Error; err != nil {
		return err
	}

	logger.Log.Info("assessment session completed",
		zap.String("session_id", session.ID),
		zap.Int("overall_score", overallScore),
		zap.Int("overall_level", overallLevel))
	return nil
}

// lockForUpdate takes a row lock on databases that support it. SQLite
// serializes writers on its own and rejects the FOR UPDATE syntax.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

func firstUnanswered(questionIDs model.UintList, responses []model.AssessmentResponse) (uint, bool) {
	answered := make(map[uint]bool, len(responses))
	for _, r := range responses {
		answered[r.QuestionID] = true
	}
	for _, id := range questionIDs {
		if !answered[id] {
			return id, true
		}
	}
	return 0, false
}

func containsID(ids model.UintList, id uint) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
