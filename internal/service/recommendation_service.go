package service

import (
	"context"
	"errors"
	"fmt"
	"learnpulse_backend/internal/model"
	"learnpulse_backend/internal/repository"
	"learnpulse_backend/internal/util"
	"learnpulse_backend/pkg/logger"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	MaxRecommendations   = 5
	ResourceCooldownDays = 30
	TargetSkillScore     = 600.0

	MaxAIResourcesPerSkill = 20
	AIResourceMaxAge       = 7 * 24 * time.Hour
)

type RecommendationService struct {
	Gaps         *GapAnalyzer
	Scorer       *ResourceScorer
	ResourceRepo *repository.ResourceRepository
	HistoryRepo  *repository.RecommendationHistoryRepository
	ScoreRepo    *repository.SkillScoreRepository
	SessionRepo  *repository.SessionRepository
	AI           AIGenerator
}

func NewRecommendationService(
	gaps *GapAnalyzer,
	scorer *ResourceScorer,
	resourceRepo *repository.ResourceRepository,
	historyRepo *repository.RecommendationHistoryRepository,
	scoreRepo *repository.SkillScoreRepository,
	sessionRepo *repository.SessionRepository,
	ai AIGenerator,
) *RecommendationService {
	return &RecommendationService{
		Gaps:         gaps,
		Scorer:       scorer,
		ResourceRepo: resourceRepo,
		HistoryRepo:  historyRepo,
		ScoreRepo:    scoreRepo,
		SessionRepo:  sessionRepo,
		AI:           ai,
	}
}

type RecommendationRequest struct {
	SkillID uint   `form:"skillId"`
	Type    string `form:"type"`
	Limit   int    `form:"limit"`
}

type RecommendationItem struct {
	HistoryID     string                        `json:"historyId,omitempty"`
	Resource      *model.RecommendationResource `json:"resource"`
	SkillID       uint                          `json:"skillId"`
	SkillName     string                        `json:"skillName"`
	Priority      model.RecommendationPriority  `json:"priority"`
	UserScore     float64                       `json:"userScore"`
	TargetScore   float64                       `json:"targetScore"`
	Explanation   string                        `json:"explanation"`
	IsAIGenerated bool                          `json:"isAiGenerated"`
}

type RecommendationSet struct {
	Recommendations []RecommendationItem `json:"recommendations"`
	Progress        int                  `json:"progress"`
	Summary         string               `json:"summary"`
	GeneratedAt     time.Time            `json:"generatedAt"`
}

// GetRecommendations analyzes the learner's skill gaps and builds one
// recommendation per gap, weakest skills first. Gaps are processed
// concurrently; the AI path is taken for critical gaps or on explicit
// request and always falls back to curated resources on failure.
func (s *RecommendationService) GetRecommendations(ctx context.Context, userID uint, req *RecommendationRequest) (*RecommendationSet, error) {
	gaps, err := s.Gaps.FindGaps(userID, req.SkillID)
	if err != nil {
		return nil, err
	}

	limit := req.Limit
	if limit <= 0 || limit > MaxRecommendations {
		limit = MaxRecommendations
	}
	if len(gaps) > limit {
		gaps = gaps[:limit]
	}

	typeCounts, err := s.HistoryRepo.CompletedTypeCounts(userID)
	if err != nil {
		logger.Log.Warn("type preference lookup failed", zap.Error(err))
		typeCounts = nil
	}

	results := make([]*RecommendationItem, len(gaps))
	var wg sync.WaitGroup
	for i, gap := range gaps {
		wg.Add(1)
		go func(i int, gap SkillGap) {
			defer wg.Done()
			results[i] = s.recommendForGap(ctx, userID, gap, req.Type, typeCounts)
		}(i, gap)
	}
	wg.Wait()

	set := &RecommendationSet{
		Recommendations: make([]RecommendationItem, 0, len(results)),
		GeneratedAt:     time.Now(),
	}
	for _, item := range results {
		if item == nil {
			continue
		}
		s.logHistory(userID, item)
		set.Recommendations = append(set.Recommendations, *item)
	}

	set.Progress = s.overallProgress(userID)
	set.Summary = buildSummary(set.Recommendations, set.Progress)
	return set, nil
}

// recommendForGap builds a single recommendation. A nil return means no
// suitable resource exists for the gap.
func (s *RecommendationService) recommendForGap(ctx context.Context, userID uint, gap SkillGap, reqType string, typeCounts map[model.ResourceType]int) *RecommendationItem {
	useAI := s.AI != nil && s.AI.Enabled() &&
		(gap.Score < CriticalScoreThreshold || reqType == "personalized")

	if useAI {
		if item := s.aiRecommendation(ctx, userID, gap); item != nil {
			return item
		}
		logger.Log.Info("falling back to curated recommendation",
			zap.Uint("user_id", userID),
			zap.Uint("skill_id", gap.SkillID))
	}
	return s.standardRecommendation(userID, gap, typeCounts)
}

func (s *RecommendationService) standardRecommendation(userID uint, gap SkillGap, typeCounts map[model.ResourceType]int) *RecommendationItem {
	// Recommending without the exclusion list could resurface a resource
	// the learner already completed, so the gap is skipped instead.
	excluded, err := s.excludedResourceIDs(userID, gap.SkillID)
	if err != nil {
		logger.Log.Error("exclusion lookup failed",
			zap.Uint("skill_id", gap.SkillID), zap.Error(err))
		return nil
	}

	grade := 0
	if gap.Skill != nil {
		grade = gap.Skill.GradeLevel
	}
	candidates, err := s.ResourceRepo.FindCandidates(gap.SkillID, grade, excluded, MaxScoredCandidates)
	if err != nil {
		logger.Log.Error("candidate lookup failed",
			zap.Uint("skill_id", gap.SkillID), zap.Error(err))
		return nil
	}

	best := s.Scorer.PickBest(gap.Score, typeCounts, candidates)
	if best == nil {
		return nil
	}

	priority := priorityForScore(gap.Score)
	return &RecommendationItem{
		Resource:    best,
		SkillID:     gap.SkillID,
		SkillName:   skillName(gap),
		Priority:    priority,
		UserScore:   gap.Score,
		TargetScore: TargetSkillScore,
		Explanation: fmt.Sprintf("Your score on %s is %.0f, below the %.0f target. %q matches your current level and should help close the gap.",
			skillName(gap), gap.Score, TargetSkillScore, best.Title),
	}
}

// aiRecommendation reuses an existing AI resource for the skill when one
// is present, otherwise asks the generator for a fresh one and persists
// it as a reusable resource.
func (s *RecommendationService) aiRecommendation(ctx context.Context, userID uint, gap SkillGap) *RecommendationItem {
	if existing, err := s.ResourceRepo.FindAIGeneratedBySkill(gap.SkillID); err == nil {
		return &RecommendationItem{
			Resource:      existing,
			SkillID:       gap.SkillID,
			SkillName:     skillName(gap),
			Priority:      priorityForScore(gap.Score),
			UserScore:     gap.Score,
			TargetScore:   TargetSkillScore,
			Explanation:   existing.Description,
			IsAIGenerated: true,
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Log.Warn("ai resource lookup failed", zap.Error(err))
	}

	recent, err := s.SessionRepo.FindRecentAnswers(userID, gap.SkillID, 10)
	if err != nil {
		logger.Log.Warn("recent answer lookup failed", zap.Error(err))
	}

	generated, err := s.AI.Generate(ctx, userID, gap.Skill, gap.Score, recent)
	if err != nil || generated == nil {
		logger.Log.Warn("ai generation failed",
			zap.Uint("user_id", userID),
			zap.Uint("skill_id", gap.SkillID),
			zap.Error(err))
		return nil
	}

	resource := &model.RecommendationResource{
		Title:                generated.Title,
		Description:          generated.Description,
		URL:                  generated.URL,
		Type:                 model.ResourceType(generated.Type),
		EstimatedTimeMinutes: generated.EstimatedTimeMinutes,
		GradeLevel:           gradeOf(gap),
		Tags:                 model.StringList(generated.Tags),
		IsAIGenerated:        true,
	}
	if gap.Skill != nil {
		resource.RelatedSkills = []model.Skill{*gap.Skill}
	}
	if err := s.ResourceRepo.Create(resource); err != nil {
		logger.Log.Error("failed to persist ai resource", zap.Error(err))
		return nil
	}

	return &RecommendationItem{
		Resource:      resource,
		SkillID:       gap.SkillID,
		SkillName:     skillName(gap),
		Priority:      model.RecommendationPriority(generated.Priority),
		UserScore:     gap.Score,
		TargetScore:   TargetSkillScore,
		Explanation:   generated.Explanation,
		IsAIGenerated: true,
	}
}

// excludedResourceIDs merges completed resources with those recommended
// inside the cooldown window.
func (s *RecommendationService) excludedResourceIDs(userID, skillID uint) ([]uint, error) {
	completed, err := s.HistoryRepo.CompletedResourceIDs(userID, skillID)
	if err != nil {
		return nil, err
	}
	cutoff := time.Now().AddDate(0, 0, -ResourceCooldownDays)
	recent, err := s.HistoryRepo.RecentResourceIDs(userID, skillID, cutoff)
	if err != nil {
		return nil, err
	}

	seen := make(map[uint]bool, len(completed)+len(recent))
	merged := make([]uint, 0, len(completed)+len(recent))
	for _, id := range append(completed, recent...) {
		if !seen[id] {
			seen[id] = true
			merged = append(merged, id)
		}
	}
	return merged, nil
}

// logHistory records the recommendation best effort; a failed write never
// blocks the response.
func (s *RecommendationService) logHistory(userID uint, item *RecommendationItem) {
	h := &model.RecommendationHistory{
		UserID:        userID,
		SkillID:       item.SkillID,
		ResourceID:    item.Resource.ID,
		Priority:      item.Priority,
		UserScore:     item.UserScore,
		TargetScore:   item.TargetScore,
		Explanation:   item.Explanation,
		IsAIGenerated: item.IsAIGenerated,
	}
	if err := s.HistoryRepo.Create(h); err != nil {
		logger.Log.Warn("failed to log recommendation history",
			zap.Uint("user_id", userID),
			zap.Uint("resource_id", item.Resource.ID),
			zap.Error(err))
		return
	}
	item.HistoryID = h.ID
}

// MarkRecommendationCompleted flags a history entry as done and stores
// the learner's helpfulness verdict.
func (s *RecommendationService) MarkRecommendationCompleted(userID uint, historyID string, wasHelpful *bool) (*model.RecommendationHistory, error) {
	h, err := s.HistoryRepo.FindByID(historyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrRecommendationNotFound
		}
		return nil, err
	}
	if h.UserID != userID {
		return nil, util.ErrRecommendationNotFound
	}

	now := time.Now()
	h.IsCompleted = true
	h.CompletedAt = &now
	h.WasHelpful = wasHelpful
	if err := s.HistoryRepo.Update(h); err != nil {
		return nil, err
	}
	return h, nil
}

// CleanupStaleAIResources enforces the per-skill retention cap on AI
// resources. Called periodically by the background sweeper.
func (s *RecommendationService) CleanupStaleAIResources() {
	skillIDs, err := s.ResourceRepo.SkillIDsWithAIResources()
	if err != nil {
		logger.Log.Error("ai resource sweep failed", zap.Error(err))
		return
	}

	cutoff := time.Now().Add(-AIResourceMaxAge)
	removed := 0
	for _, skillID := range skillIDs {
		stale, err := s.ResourceRepo.StaleAIResources(skillID, MaxAIResourcesPerSkill, cutoff)
		if err != nil {
			logger.Log.Warn("stale ai resource lookup failed",
				zap.Uint("skill_id", skillID), zap.Error(err))
			continue
		}
		for _, res := range stale {
			if err := s.ResourceRepo.Delete(res.ID); err != nil {
				logger.Log.Warn("failed to delete stale ai resource",
					zap.Uint("resource_id", res.ID), zap.Error(err))
				continue
			}
			removed++
		}
	}
	if removed > 0 {
		logger.Log.Info("ai resource sweep finished", zap.Int("removed", removed))
	}
}

// overallProgress rescales the learner's average skill score onto 0..100.
func (s *RecommendationService) overallProgress(userID uint) int {
	scores, err := s.ScoreRepo.FindAllByUser(userID)
	if err != nil || len(scores) == 0 {
		return 0
	}

	latest := make(map[uint]float64, len(scores))
	for _, sc := range scores {
		if _, seen := latest[sc.SkillID]; !seen {
			latest[sc.SkillID] = sc.Score
		}
	}

	var sum float64
	for _, v := range latest {
		sum += v
	}
	avg := sum / float64(len(latest))

	pct := (avg - 300) / 400 * 100
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return int(math.Round(pct))
}

func buildSummary(items []RecommendationItem, progress int) string {
	if len(items) == 0 {
		return "No skill gaps detected right now. Keep up the good work!"
	}
	for _, item := range items {
		if item.Priority == model.PriorityCritical {
			return fmt.Sprintf("Some skills need urgent attention. Start with %s and work through the %d suggestions below. Overall progress: %d%%.",
				items[0].SkillName, len(items), progress)
		}
	}
	return fmt.Sprintf("Found %d areas to strengthen, starting with %s. Overall progress: %d%%.",
		len(items), items[0].SkillName, progress)
}

func priorityForScore(score float64) model.RecommendationPriority {
	switch {
	case score < CriticalScoreThreshold:
		return model.PriorityCritical
	case score < 500:
		return model.PriorityHigh
	case score < LowScoreThreshold:
		return model.PriorityMedium
	default:
		return model.PriorityLow
	}
}

func skillName(gap SkillGap) string {
	if gap.Skill != nil {
		return gap.Skill.Name
	}
	return fmt.Sprintf("skill %d", gap.SkillID)
}

func gradeOf(gap SkillGap) int {
	if gap.Skill != nil {
		return gap.Skill.GradeLevel
	}
	return 0
}
