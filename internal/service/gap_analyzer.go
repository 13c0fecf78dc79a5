package service

import (
	"errors"
	"learnpulse_backend/internal/model"
	"learnpulse_backend/internal/repository"
	"learnpulse_backend/internal/util"
	"sort"
	"time"

	"gorm.io/gorm"
)

const (
	LowScoreThreshold      = 550.0
	CriticalScoreThreshold = 450.0
)

// SkillGap is a skill whose score sits below the low threshold, ordered
// weakest first by the analyzer.
type SkillGap struct {
	SkillID            uint
	Skill              *model.Skill
	Score              float64
	QuestionsAttempted int
	LastAssessedAt     time.Time
}

type GapAnalyzer struct {
	ScoreRepo *repository.SkillScoreRepository
	SkillRepo *repository.SkillRepository
}

func NewGapAnalyzer(scoreRepo *repository.SkillScoreRepository, skillRepo *repository.SkillRepository) *GapAnalyzer {
	return &GapAnalyzer{ScoreRepo: scoreRepo, SkillRepo: skillRepo}
}

// FindGaps returns the learner's weak skills sorted ascending by score.
// When skillID is non-zero only that skill is considered, subject to the
// same threshold; a skill the learner was never assessed on yields a
// synthetic gap at the base score so recommendations still have something
// to work with.
func (g *GapAnalyzer) FindGaps(userID uint, skillID uint) ([]SkillGap, error) {
	scores, err := g.ScoreRepo.FindAllByUser(userID)
	if err != nil {
		return nil, err
	}

	// Rows come newest first; keep only the latest per skill.
	latest := make(map[uint]model.AssessmentSkillScore, len(scores))
	for _, s := range scores {
		if _, seen := latest[s.SkillID]; !seen {
			latest[s.SkillID] = s
		}
	}

	if skillID != 0 {
		skill, err := g.SkillRepo.FindByID(skillID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, util.ErrSkillNotFound
			}
			return nil, err
		}

		if s, ok := latest[skillID]; ok {
			if s.Score >= LowScoreThreshold {
				return nil, nil
			}
			return []SkillGap{{
				SkillID:            skillID,
				Skill:              skill,
				Score:              s.Score,
				QuestionsAttempted: s.QuestionsAttempted,
				LastAssessedAt:     s.LastAssessedAt,
			}}, nil
		}
		return []SkillGap{{
			SkillID: skillID,
			Skill:   skill,
			Score:   BaseSkillScore,
		}}, nil
	}

	var gaps []SkillGap
	for id, s := range latest {
		if s.Score >= LowScoreThreshold {
			continue
		}
		skill, err := g.SkillRepo.FindByID(id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, err
		}
		gaps = append(gaps, SkillGap{
			SkillID:            id,
			Skill:              skill,
			Score:              s.Score,
			QuestionsAttempted: s.QuestionsAttempted,
			LastAssessedAt:     s.LastAssessedAt,
		})
	}

	sort.Slice(gaps, func(i, j int) bool {
		return gaps[i].Score < gaps[j].Score
	})
	return gaps, nil
}
