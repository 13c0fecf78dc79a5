package service

import (
	"learnpulse_backend/internal/model"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdaptiveKFactor(t *testing.T) {
	assert.InDelta(t, 32.0, AdaptiveKFactor(0), 1e-9)
	assert.InDelta(t, 32.0/1.5, AdaptiveKFactor(10), 1e-9)
	assert.InDelta(t, 16.0, AdaptiveKFactor(20), 1e-9)
}

func TestUpdateAdaptiveScore(t *testing.T) {
	// first ever answer, correct: 500 + 32*(1-0.5) = 516
	assert.InDelta(t, 516.0, UpdateAdaptiveScore(BaseSkillScore, 0, true), 1e-9)
	// first ever answer, wrong: 500 - 16
	assert.InDelta(t, 484.0, UpdateAdaptiveScore(BaseSkillScore, 0, false), 1e-9)
	// later answers move the score less
	assert.InDelta(t, 600.0+16.0/1.5, UpdateAdaptiveScore(600, 10, true), 1e-9)
}

func TestProficiencyLevel(t *testing.T) {
	assert.Equal(t, 0, ProficiencyLevel(400))
	assert.Equal(t, 1, ProficiencyLevel(450))
	assert.Equal(t, 2, ProficiencyLevel(550))
	assert.Equal(t, 3, ProficiencyLevel(700))
}

func TestSessionSummaryWeightsByDifficulty(t *testing.T) {
	questions := map[uint]*model.Question{
		1: {BaseModel: model.BaseModel{ID: 1}, DifficultyLevel: 1},
		2: {BaseModel: model.BaseModel{ID: 2}, DifficultyLevel: 3},
	}
	responses := []model.AssessmentResponse{
		{QuestionID: 1, IsCorrect: false},
		{QuestionID: 2, IsCorrect: true},
	}

	score, level := SessionSummary(responses, questions)
	// 3 of 4 weight earned
	assert.Equal(t, 75, score)
	assert.Equal(t, 4, level)
}

func TestSessionSummaryLevels(t *testing.T) {
	cases := []struct {
		correct int
		total   int
		level   int
	}{
		{10, 10, 5},
		{8, 10, 4},
		{6, 10, 3},
		{4, 10, 2},
		{1, 10, 1},
	}

	for _, tc := range cases {
		questions := make(map[uint]*model.Question)
		var responses []model.AssessmentResponse
		for i := 1; i <= tc.total; i++ {
			questions[uint(i)] = &model.Question{BaseModel: model.BaseModel{ID: uint(i)}, DifficultyLevel: 2}
			responses = append(responses, model.AssessmentResponse{
				QuestionID: uint(i),
				IsCorrect:  i <= tc.correct,
			})
		}

		score, level := SessionSummary(responses, questions)
		assert.Equal(t, tc.correct*10, score)
		assert.Equal(t, tc.level, level, "for %d/%d correct", tc.correct, tc.total)
	}
}

func TestSessionSummaryEmpty(t *testing.T) {
	score, level := SessionSummary(nil, nil)
	assert.Equal(t, 0, score)
	assert.Equal(t, 1, level)
}

func TestCheckAnswerCaseInsensitive(t *testing.T) {
	q := &model.Question{Type: model.ShortAnswer, CorrectAnswer: "Photosynthesis"}
	assert.True(t, CheckAnswer(q, "photosynthesis"))
	assert.True(t, CheckAnswer(q, "  PHOTOSYNTHESIS  "))
	assert.False(t, CheckAnswer(q, "respiration"))
}

func TestCheckAnswerTrueFalse(t *testing.T) {
	q := &model.Question{Type: model.TrueFalse, CorrectAnswer: "true"}
	assert.True(t, CheckAnswer(q, "True"))
	assert.True(t, CheckAnswer(q, "yes"))
	assert.True(t, CheckAnswer(q, "1"))
	assert.False(t, CheckAnswer(q, "false"))
	assert.False(t, CheckAnswer(q, "banana"))
}

func TestCheckAnswerNumerical(t *testing.T) {
	q := &model.Question{Type: model.Numerical, CorrectAnswer: "0.5"}
	assert.True(t, CheckAnswer(q, "0.5"))
	assert.True(t, CheckAnswer(q, " .5 "))
	assert.False(t, CheckAnswer(q, "0.51"))
}

func TestCheckAnswerUnknownTypeFallsBack(t *testing.T) {
	q := &model.Question{Type: "essay", CorrectAnswer: "42"}
	assert.True(t, CheckAnswer(q, "42"))
	assert.False(t, CheckAnswer(q, "41"))
}
