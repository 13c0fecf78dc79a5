package service

import (
	"context"
	"learnpulse_backend/internal/model"
	"learnpulse_backend/internal/repository"
	"learnpulse_backend/internal/util"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubAI struct {
	enabled bool
	rec     *AIRecommendation
	err     error
	calls   int
}

func (s *stubAI) Enabled() bool { return s.enabled }

func (s *stubAI) Generate(ctx context.Context, userID uint, skill *model.Skill, score float64, recentAnswers []model.AssessmentResponse) (*AIRecommendation, error) {
	s.calls++
	return s.rec, s.err
}

func newRecommendationService(db *gorm.DB, ai AIGenerator) *RecommendationService {
	return NewRecommendationService(
		newGapAnalyzer(db),
		newScorer(db),
		repository.NewResourceRepository(db),
		repository.NewRecommendationHistoryRepository(db),
		repository.NewSkillScoreRepository(db),
		repository.NewSessionRepository(db),
		ai,
	)
}

func TestGetRecommendationsStandard(t *testing.T) {
	db := newTestDB(t)
	svc := newRecommendationService(db, nil)
	ctx := context.Background()
	user := seedUser(t, db, 5)
	skill := seedSkill(t, db, "Fractions", 5)
	res := seedResource(t, db, "fraction-drills", model.Worksheet, 5, skill)

	seedScore(t, db, user.ID, skill.ID, 500, time.Now())

	set, err := svc.GetRecommendations(ctx, user.ID, &RecommendationRequest{})
	require.NoError(t, err)
	require.Len(t, set.Recommendations, 1)

	item := set.Recommendations[0]
	assert.Equal(t, res.ID, item.Resource.ID)
	assert.Equal(t, skill.ID, item.SkillID)
	assert.Equal(t, model.PriorityMedium, item.Priority)
	assert.False(t, item.IsAIGenerated)
	assert.NotEmpty(t, item.Explanation)
	assert.NotEmpty(t, item.HistoryID)
	assert.NotEmpty(t, set.Summary)
	assert.GreaterOrEqual(t, set.Progress, 0)
	assert.LessOrEqual(t, set.Progress, 100)

	// the recommendation was logged
	var count int64
	require.NoError(t, db.Model(&model.RecommendationHistory{}).
		Where("user_id = ? AND resource_id = ?", user.ID, res.ID).
		Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestGetRecommendationsCriticalGapUsesAI(t *testing.T) {
	db := newTestDB(t)
	ai := &stubAI{
		enabled: true,
		rec: &AIRecommendation{
			Title:       "Targeted fraction practice",
			Description: "A short generated worksheet",
			URL:         "https://generated.example.com/1",
			Type:        string(model.Worksheet),
			Priority:    string(model.PriorityCritical),
			Explanation: "You struggle with equivalent fractions.",
			Tags:        []string{"fractions"},
		},
	}
	svc := newRecommendationService(db, ai)
	user := seedUser(t, db, 5)
	skill := seedSkill(t, db, "Fractions", 5)

	seedScore(t, db, user.ID, skill.ID, 430, time.Now())

	set, err := svc.GetRecommendations(context.Background(), user.ID, &RecommendationRequest{})
	require.NoError(t, err)
	require.Len(t, set.Recommendations, 1)
	assert.Equal(t, 1, ai.calls)

	item := set.Recommendations[0]
	assert.True(t, item.IsAIGenerated)
	assert.Equal(t, model.PriorityCritical, item.Priority)
	assert.Equal(t, "Targeted fraction practice", item.Resource.Title)

	// the generated resource persists for reuse
	var stored model.RecommendationResource
	require.NoError(t, db.Where("is_ai_generated = ?", true).First(&stored).Error)
	assert.Equal(t, item.Resource.ID, stored.ID)
}

func TestGetRecommendationsReusesExistingAIResource(t *testing.T) {
	db := newTestDB(t)
	ai := &stubAI{enabled: true, rec: &AIRecommendation{Title: "fresh"}}
	svc := newRecommendationService(db, ai)
	user := seedUser(t, db, 5)
	skill := seedSkill(t, db, "Fractions", 5)

	existing := seedResource(t, db, "already-generated", model.Article, 5, skill)
	require.NoError(t, db.Model(existing).Update("is_ai_generated", true).Error)

	seedScore(t, db, user.ID, skill.ID, 430, time.Now())

	set, err := svc.GetRecommendations(context.Background(), user.ID, &RecommendationRequest{})
	require.NoError(t, err)
	require.Len(t, set.Recommendations, 1)
	assert.Equal(t, existing.ID, set.Recommendations[0].Resource.ID)
	assert.Zero(t, ai.calls, "generation must be skipped when an AI resource exists")
}

func TestGetRecommendationsAIFailureFallsBack(t *testing.T) {
	db := newTestDB(t)
	ai := &stubAI{enabled: true, err: util.NewAIError("provider_error", "upstream down", false, nil)}
	svc := newRecommendationService(db, ai)
	user := seedUser(t, db, 5)
	skill := seedSkill(t, db, "Fractions", 5)
	curated := seedResource(t, db, "curated-fallback", model.Article, 5, skill)

	seedScore(t, db, user.ID, skill.ID, 420, time.Now())

	set, err := svc.GetRecommendations(context.Background(), user.ID, &RecommendationRequest{})
	require.NoError(t, err)
	require.Len(t, set.Recommendations, 1)

	item := set.Recommendations[0]
	assert.Equal(t, curated.ID, item.Resource.ID)
	assert.False(t, item.IsAIGenerated)
	assert.Equal(t, 1, ai.calls)
}

func TestGetRecommendationsExcludesCompletedResources(t *testing.T) {
	db := newTestDB(t)
	svc := newRecommendationService(db, nil)
	user := seedUser(t, db, 5)
	skill := seedSkill(t, db, "Fractions", 5)
	res := seedResource(t, db, "done-already", model.Article, 5, skill)

	seedScore(t, db, user.ID, skill.ID, 500, time.Now())
	require.NoError(t, db.Create(&model.RecommendationHistory{
		UserID:      user.ID,
		SkillID:     skill.ID,
		ResourceID:  res.ID,
		IsCompleted: true,
	}).Error)

	set, err := svc.GetRecommendations(context.Background(), user.ID, &RecommendationRequest{})
	require.NoError(t, err)
	assert.Empty(t, set.Recommendations)
}

func TestGetRecommendationsCooldownExcludesRecent(t *testing.T) {
	db := newTestDB(t)
	svc := newRecommendationService(db, nil)
	user := seedUser(t, db, 5)
	skill := seedSkill(t, db, "Fractions", 5)
	res := seedResource(t, db, "just-suggested", model.Article, 5, skill)

	seedScore(t, db, user.ID, skill.ID, 500, time.Now())
	require.NoError(t, db.Create(&model.RecommendationHistory{
		UserID:     user.ID,
		SkillID:    skill.ID,
		ResourceID: res.ID,
	}).Error)

	set, err := svc.GetRecommendations(context.Background(), user.ID, &RecommendationRequest{})
	require.NoError(t, err)
	assert.Empty(t, set.Recommendations)
}

func TestGetRecommendationsSkipsGapWhenExclusionLookupFails(t *testing.T) {
	db := newTestDB(t)
	svc := newRecommendationService(db, nil)
	user := seedUser(t, db, 5)
	skill := seedSkill(t, db, "Fractions", 5)
	seedResource(t, db, "maybe-repeated", model.Article, 5, skill)

	seedScore(t, db, user.ID, skill.ID, 500, time.Now())
	require.NoError(t, db.Migrator().DropTable(&model.RecommendationHistory{}))

	set, err := svc.GetRecommendations(context.Background(), user.ID, &RecommendationRequest{})
	require.NoError(t, err)
	assert.Empty(t, set.Recommendations,
		"without the exclusion list a completed resource could resurface, so the gap must be skipped")
}

func TestGetRecommendationsHonorsLimit(t *testing.T) {
	db := newTestDB(t)
	svc := newRecommendationService(db, nil)
	user := seedUser(t, db, 5)

	now := time.Now()
	for i := 0; i < 4; i++ {
		skill := seedSkill(t, db, "Skill", 5)
		seedResource(t, db, skill.Name, model.Article, 5, skill)
		seedScore(t, db, user.ID, skill.ID, 480+float64(i), now)
	}

	set, err := svc.GetRecommendations(context.Background(), user.ID, &RecommendationRequest{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, set.Recommendations, 2)
}

func TestMarkRecommendationCompleted(t *testing.T) {
	db := newTestDB(t)
	svc := newRecommendationService(db, nil)
	user := seedUser(t, db, 5)
	other := seedUser(t, db, 5)
	skill := seedSkill(t, db, "Fractions", 5)
	res := seedResource(t, db, "to-complete", model.Article, 5, skill)

	seedScore(t, db, user.ID, skill.ID, 500, time.Now())

	set, err := svc.GetRecommendations(context.Background(), user.ID, &RecommendationRequest{})
	require.NoError(t, err)
	require.Len(t, set.Recommendations, 1)
	historyID := set.Recommendations[0].HistoryID

	_, err = svc.MarkRecommendationCompleted(other.ID, historyID, nil)
	assert.ErrorIs(t, err, util.ErrRecommendationNotFound)

	helpful := true
	h, err := svc.MarkRecommendationCompleted(user.ID, historyID, &helpful)
	require.NoError(t, err)
	assert.True(t, h.IsCompleted)
	assert.NotNil(t, h.CompletedAt)
	require.NotNil(t, h.WasHelpful)
	assert.True(t, *h.WasHelpful)
	assert.Equal(t, res.ID, h.ResourceID)
}

func TestCleanupStaleAIResources(t *testing.T) {
	db := newTestDB(t)
	svc := newRecommendationService(db, nil)
	skill := seedSkill(t, db, "Fractions", 5)

	old := time.Now().Add(-AIResourceMaxAge - 24*time.Hour)
	total := MaxAIResourcesPerSkill + 3
	for i := 0; i < total; i++ {
		res := seedResource(t, db, "generated", model.Article, 5, skill)
		require.NoError(t, db.Model(res).Updates(map[string]interface{}{
			"is_ai_generated": true,
			"created_at":      old.Add(time.Duration(i) * time.Minute),
		}).Error)
	}

	svc.CleanupStaleAIResources()

	var remaining int64
	require.NoError(t, db.Model(&model.RecommendationResource{}).
		Where("is_ai_generated = ?", true).
		Count(&remaining).Error)
	assert.Equal(t, int64(MaxAIResourcesPerSkill), remaining)
}
