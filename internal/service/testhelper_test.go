package service

import (
	"context"
	"fmt"
	"learnpulse_backend/internal/model"
	"learnpulse_backend/pkg/database"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// one connection so every query sees the same in-memory database
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, grade int) *model.User {
	t.Helper()
	user := &model.User{
		Name:       "Test Learner",
		Email:      fmt.Sprintf("learner-%d@example.com", time.Now().UnixNano()),
		Password:   "hashed",
		Role:       model.Student,
		GradeLevel: grade,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedSkill(t *testing.T, db *gorm.DB, name string, grade int) *model.Skill {
	t.Helper()
	skill := &model.Skill{
		Name:       name,
		Subject:    "math",
		GradeLevel: grade,
		Status:     model.SkillActive,
	}
	require.NoError(t, db.Create(skill).Error)
	return skill
}

func seedQuestions(t *testing.T, db *gorm.DB, skill *model.Skill, n int) []model.Question {
	t.Helper()
	questions := make([]model.Question, 0, n)
	for i := 0; i < n; i++ {
		q := model.Question{
			Text:            fmt.Sprintf("What is %d + %d?", i, i),
			Type:            model.Numerical,
			CorrectAnswer:   fmt.Sprintf("%d", i+i),
			DifficultyLevel: i%5 + 1,
			GradeLevel:      skill.GradeLevel,
			SkillID:         skill.ID,
			Status:          model.QuestionActive,
		}
		require.NoError(t, db.Create(&q).Error)
		questions = append(questions, q)
	}
	return questions
}

type memEntry struct {
	value     string
	expiresAt time.Time
	ttl       time.Duration
}

// memoryKV is an in-memory KV for tests.
type memoryKV struct {
	mu   sync.Mutex
	data map[string]memEntry
}

func newMemoryKV() *memoryKV {
	return &memoryKV{data: make(map[string]memEntry)}
}

func (m *memoryKV) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.data[key]
	if !ok || time.Now().After(e.expiresAt) {
		return "", ErrCacheMiss
	}
	return e.value, nil
}

func (m *memoryKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = memEntry{value: value, expiresAt: time.Now().Add(ttl), ttl: ttl}
	return nil
}

func (m *memoryKV) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *memoryKV) ttlOf(key string) (time.Duration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.data[key]
	return e.ttl, ok
}
