package database

import (
	"fmt"
	"learnpulse_backend/internal/config"
	"learnpulse_backend/internal/model"
	"log"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Println("Database migration completed")

	seedSkills(db)

	return db, nil
}

// Migrate runs AutoMigrate for every persisted entity. Test helpers
// reuse it against an in-memory database.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Skill{},
		&model.Question{},
		&model.AssessmentSession{},
		&model.AssessmentResponse{},
		&model.AssessmentSkillScore{},
		&model.RecommendationResource{},
		&model.RecommendationHistory{},
	)
}

func seedSkills(db *gorm.DB) {
	var count int64
	db.Model(&model.Skill{}).Count(&count)
	if count != 0 {
		return
	}

	defaultSkills := []model.Skill{
		{Name: "Number Sense", Subject: "math", GradeLevel: 5, Status: model.SkillActive},
		{Name: "Fractions", Subject: "math", GradeLevel: 5, Status: model.SkillActive},
		{Name: "Reading Comprehension", Subject: "language", GradeLevel: 5, Status: model.SkillActive},
		{Name: "Grammar", Subject: "language", GradeLevel: 5, Status: model.SkillActive},
	}
	for _, s := range defaultSkills {
		db.Create(&s)
	}
}
