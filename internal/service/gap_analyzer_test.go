package service

import (
	"learnpulse_backend/internal/model"
	"learnpulse_backend/internal/repository"
	"learnpulse_backend/internal/util"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newGapAnalyzer(db *gorm.DB) *GapAnalyzer {
	return NewGapAnalyzer(repository.NewSkillScoreRepository(db), repository.NewSkillRepository(db))
}

func seedScore(t *testing.T, db *gorm.DB, userID, skillID uint, score float64, assessedAt time.Time) {
	t.Helper()
	require.NoError(t, db.Create(&model.AssessmentSkillScore{
		UserID:             userID,
		SkillID:            skillID,
		Score:              score,
		QuestionsAttempted: 5,
		LastAssessedAt:     assessedAt,
	}).Error)
}

func TestFindGapsSortsWeakestFirst(t *testing.T) {
	db := newTestDB(t)
	analyzer := newGapAnalyzer(db)
	user := seedUser(t, db, 5)
	weak := seedSkill(t, db, "Fractions", 5)
	weaker := seedSkill(t, db, "Decimals", 5)
	strong := seedSkill(t, db, "Addition", 5)

	now := time.Now()
	seedScore(t, db, user.ID, weak.ID, 520, now)
	seedScore(t, db, user.ID, weaker.ID, 430, now)
	seedScore(t, db, user.ID, strong.ID, 610, now)

	gaps, err := analyzer.FindGaps(user.ID, 0)
	require.NoError(t, err)
	require.Len(t, gaps, 2)
	assert.Equal(t, weaker.ID, gaps[0].SkillID)
	assert.Equal(t, weak.ID, gaps[1].SkillID)
	assert.NotNil(t, gaps[0].Skill)
}

func TestFindGapsThresholdIsExclusive(t *testing.T) {
	db := newTestDB(t)
	analyzer := newGapAnalyzer(db)
	user := seedUser(t, db, 5)
	skill := seedSkill(t, db, "Fractions", 5)

	seedScore(t, db, user.ID, skill.ID, LowScoreThreshold, time.Now())

	gaps, err := analyzer.FindGaps(user.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, gaps)
}

func TestFindGapsExplicitSkillAboveThreshold(t *testing.T) {
	db := newTestDB(t)
	analyzer := newGapAnalyzer(db)
	user := seedUser(t, db, 5)
	skill := seedSkill(t, db, "Fractions", 5)

	seedScore(t, db, user.ID, skill.ID, 700, time.Now())

	gaps, err := analyzer.FindGaps(user.ID, skill.ID)
	require.NoError(t, err)
	assert.Empty(t, gaps, "a well-scored skill is not a gap even when asked for directly")
}

func TestFindGapsExplicitSkillBelowThreshold(t *testing.T) {
	db := newTestDB(t)
	analyzer := newGapAnalyzer(db)
	user := seedUser(t, db, 5)
	skill := seedSkill(t, db, "Fractions", 5)

	seedScore(t, db, user.ID, skill.ID, 520, time.Now())

	gaps, err := analyzer.FindGaps(user.ID, skill.ID)
	require.NoError(t, err)
	require.Len(t, gaps, 1)
	assert.InDelta(t, 520.0, gaps[0].Score, 1e-9)
	assert.Equal(t, 5, gaps[0].QuestionsAttempted)
}

func TestFindGapsSyntheticForUnassessedSkill(t *testing.T) {
	db := newTestDB(t)
	analyzer := newGapAnalyzer(db)
	user := seedUser(t, db, 5)
	skill := seedSkill(t, db, "Fractions", 5)

	gaps, err := analyzer.FindGaps(user.ID, skill.ID)
	require.NoError(t, err)
	require.Len(t, gaps, 1)
	assert.InDelta(t, BaseSkillScore, gaps[0].Score, 1e-9)
	assert.Zero(t, gaps[0].QuestionsAttempted)
}

func TestFindGapsUnknownSkill(t *testing.T) {
	db := newTestDB(t)
	analyzer := newGapAnalyzer(db)
	user := seedUser(t, db, 5)

	_, err := analyzer.FindGaps(user.ID, 9999)
	assert.ErrorIs(t, err, util.ErrSkillNotFound)
}
