package service

import (
	"learnpulse_backend/internal/model"
	"learnpulse_backend/internal/repository"
	"math"
	"sort"
	"time"
)

// Composite scoring weights for candidate resources.
const (
	WeightEffectiveness   = 0.4
	WeightDifficultyMatch = 0.3
	WeightRecency         = 0.2
	WeightTypePreference  = 0.1

	EffectivenessCompletionWeight  = 0.6
	EffectivenessImprovementWeight = 0.4
	NeutralEffectiveness           = 0.5

	MaxScoredCandidates = 10
	TopCandidates       = 3
)

type ResourceScorer struct {
	HistoryRepo *repository.RecommendationHistoryRepository
}

func NewResourceScorer(historyRepo *repository.RecommendationHistoryRepository) *ResourceScorer {
	return &ResourceScorer{HistoryRepo: historyRepo}
}

type scoredResource struct {
	resource *model.RecommendationResource
	score    float64
}

// PickBest scores up to MaxScoredCandidates resources against the
// learner's current skill score and type preferences, then breaks ties
// among the top few by difficulty proximity.
func (s *ResourceScorer) PickBest(userScore float64, typeCounts map[model.ResourceType]int, candidates []model.RecommendationResource) *model.RecommendationResource {
	if len(candidates) == 0 {
		return nil
	}
	if len(candidates) > MaxScoredCandidates {
		candidates = candidates[:MaxScoredCandidates]
	}

	scored := make([]scoredResource, 0, len(candidates))
	for i := range candidates {
		r := &candidates[i]
		composite := WeightEffectiveness*s.ResourceEffectiveness(r.ID) +
			WeightDifficultyMatch*difficultyMatch(r.GradeLevel, userScore) +
			WeightRecency*recencyScore(r.CreatedAt) +
			WeightTypePreference*typePreference(r.Type, typeCounts)
		scored = append(scored, scoredResource{resource: r, score: composite})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	top := scored
	if len(top) > TopCandidates {
		top = top[:TopCandidates]
	}

	best := top[0]
	bestDist := difficultyDistance(best.resource.GradeLevel, userScore)
	for _, c := range top[1:] {
		if d := difficultyDistance(c.resource.GradeLevel, userScore); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best.resource
}

// ResourceEffectiveness derives a 0..1 effectiveness signal from the
// resource's full recommendation history: how often it was completed and
// how much learners improved around it. Unused resources score neutral.
func (s *ResourceScorer) ResourceEffectiveness(resourceID uint) float64 {
	rows, err := s.HistoryRepo.FindByResource(resourceID)
	if err != nil || len(rows) == 0 {
		return NeutralEffectiveness
	}

	completed := 0
	for _, r := range rows {
		if r.IsCompleted {
			completed++
		}
	}
	completionRate := float64(completed) / float64(len(rows))

	improvement := s.averageImprovement(rows)
	return EffectivenessCompletionWeight*completionRate + EffectivenessImprovementWeight*improvement
}

// averageImprovement measures, per usage, the skill-score delta between
// the nearest prior and nearest subsequent score snapshots the history
// holds, defaulting either side to the base score.
func (s *ResourceScorer) averageImprovement(rows []model.RecommendationHistory) float64 {
	var total float64
	counted := 0

	for _, row := range rows {
		timeline, err := s.HistoryRepo.FindByUserAndSkill(row.UserID, row.SkillID)
		if err != nil || len(timeline) == 0 {
			continue
		}

		before := BaseSkillScore
		after := BaseSkillScore
		haveAfter := false
		for _, t := range timeline {
			if t.ID == row.ID {
				continue
			}
			if t.CreatedAt.Before(row.CreatedAt) {
				before = t.UserScore
			} else if !haveAfter {
				after = t.UserScore
				haveAfter = true
			}
		}

		delta := after - before
		if delta < 0 {
			delta = 0
		} else if delta > 100 {
			delta = 100
		}
		total += delta / 100
		counted++
	}

	if counted == 0 {
		return NeutralEffectiveness
	}
	return total / float64(counted)
}

// difficultyMatch compares the resource's grade band against the skill
// score; resources pitched far from the learner's level score low.
func difficultyMatch(gradeLevel int, userScore float64) float64 {
	v := 1 - difficultyDistance(gradeLevel, userScore)/500
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func difficultyDistance(gradeLevel int, userScore float64) float64 {
	return math.Abs(float64(gradeLevel*100) - userScore)
}

func recencyScore(createdAt time.Time) float64 {
	ageDays := time.Since(createdAt).Hours() / 24
	v := 1 - ageDays/365
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func typePreference(t model.ResourceType, counts map[model.ResourceType]int) float64 {
	total := 0
	for _, c := range counts {
		total += c
	}
	if total == 0 {
		return NeutralEffectiveness
	}
	return float64(counts[t]) / float64(total)
}
