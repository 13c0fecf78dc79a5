// Manual trigger for the AI resource retention sweep.
//
// The sweep runs hourly inside the main application; this script exists
// for one-off runs, e.g. after a bulk import.
//
// Usage: go run scripts/sweep_ai_resources.go

package main

import (
	"learnpulse_backend/internal/config"
	"learnpulse_backend/internal/repository"
	"learnpulse_backend/internal/service"
	"learnpulse_backend/pkg/database"
	"learnpulse_backend/pkg/logger"
	"log"
)

func main() {
	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.InitLogger(cfg)

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	scoreRepo := repository.NewSkillScoreRepository(db)
	skillRepo := repository.NewSkillRepository(db)
	resourceRepo := repository.NewResourceRepository(db)
	historyRepo := repository.NewRecommendationHistoryRepository(db)
	sessionRepo := repository.NewSessionRepository(db)

	rec := service.NewRecommendationService(
		service.NewGapAnalyzer(scoreRepo, skillRepo),
		service.NewResourceScorer(historyRepo),
		resourceRepo,
		historyRepo,
		scoreRepo,
		sessionRepo,
		nil,
	)

	log.Println("Running AI resource retention sweep...")
	rec.CleanupStaleAIResources()
	log.Println("Done")
}
