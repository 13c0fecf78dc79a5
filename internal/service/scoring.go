package service

import (
	"learnpulse_backend/internal/model"
	"math"
	"strconv"
	"strings"
)

// Adaptive (per-answer) scoring. Every accepted answer moves the
// learner's skill score by K * (actual - expected) where K decays with the
// number of prior attempts, so early answers move the estimate more.
const (
	BaseSkillScore   = 500.0
	KFactorBase      = 32.0
	KFactorDecayRate = 0.05
	ExpectedOutcome  = 0.5
)

func AdaptiveKFactor(priorAttempts int) float64 {
	return KFactorBase / (1 + float64(priorAttempts)*KFactorDecayRate)
}

func UpdateAdaptiveScore(current float64, priorAttempts int, correct bool) float64 {
	actual := 0.0
	if correct {
		actual = 1.0
	}
	return current + AdaptiveKFactor(priorAttempts)*(actual-ExpectedOutcome)
}

// ProficiencyLevel maps a continuous skill score to a coarse level.
func ProficiencyLevel(score float64) int {
	switch {
	case score >= 650:
		return 3
	case score >= 550:
		return 2
	case score >= 450:
		return 1
	default:
		return 0
	}
}

// Session summary scoring. The canonical formula is difficulty weighted:
// each question contributes its difficulty level when answered correctly,
// and the percentage is taken over the total difficulty of the session.
func SessionSummary(responses []model.AssessmentResponse, questions map[uint]*model.Question) (overallScore int, overallLevel int) {
	totalWeight := 0
	earnedWeight := 0

	for _, resp := range responses {
		q, ok := questions[resp.QuestionID]
		if !ok {
			continue
		}
		weight := q.DifficultyLevel
		if weight < 1 {
			weight = 1
		}
		totalWeight += weight
		if resp.IsCorrect {
			earnedWeight += weight
		}
	}

	if totalWeight == 0 {
		return 0, 1
	}

	pct := 100.0 * float64(earnedWeight) / float64(totalWeight)
	overallScore = int(math.Round(pct))

	switch {
	case pct >= 90:
		overallLevel = 5
	case pct >= 75:
		overallLevel = 4
	case pct >= 60:
		overallLevel = 3
	case pct >= 40:
		overallLevel = 2
	default:
		overallLevel = 1
	}
	return overallScore, overallLevel
}

// Answer checking. A closed dispatch table per question type; unknown
// types fall back to case-insensitive string equality.
type AnswerChecker func(correctAnswer, userResponse string) bool

func checkCaseInsensitive(correctAnswer, userResponse string) bool {
	return strings.EqualFold(strings.TrimSpace(correctAnswer), strings.TrimSpace(userResponse))
}

func checkTrueFalse(correctAnswer, userResponse string) bool {
	return normalizeBool(correctAnswer) == normalizeBool(userResponse) && normalizeBool(userResponse) != ""
}

func normalizeBool(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "t", "yes", "1":
		return "true"
	case "false", "f", "no", "0":
		return "false"
	default:
		return ""
	}
}

func checkNumerical(correctAnswer, userResponse string) bool {
	want, err1 := strconv.ParseFloat(strings.TrimSpace(correctAnswer), 64)
	got, err2 := strconv.ParseFloat(strings.TrimSpace(userResponse), 64)
	if err1 != nil || err2 != nil {
		return checkCaseInsensitive(correctAnswer, userResponse)
	}
	return math.Abs(want-got) < 1e-9
}

var answerCheckers = map[model.QuestionType]AnswerChecker{
	model.MultipleChoice: checkCaseInsensitive,
	model.ShortAnswer:    checkCaseInsensitive,
	model.TrueFalse:      checkTrueFalse,
	model.Numerical:      checkNumerical,
}

// CheckAnswer determines correctness of a response for a question.
func CheckAnswer(q *model.Question, userResponse string) bool {
	checker, ok := answerCheckers[q.Type]
	if !ok {
		checker = checkCaseInsensitive
	}
	return checker(q.CorrectAnswer, userResponse)
}
