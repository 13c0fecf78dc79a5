package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"learnpulse_backend/internal/model"
	"learnpulse_backend/pkg/logger"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// ErrCacheMiss is returned by KV implementations when a key is absent.
var ErrCacheMiss = errors.New("cache miss")

// KV is the minimal key-value capability the caches need. Production
// wires Redis; tests substitute an in-memory fake.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// RedisKV adapts a redis client to the KV interface.
type RedisKV struct {
	Client *redis.Client
}

func NewRedisKV(client *redis.Client) *RedisKV {
	return &RedisKV{Client: client}
}

func (r *RedisKV) Get(ctx context.Context, key string) (string, error) {
	val, err := r.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", ErrCacheMiss
	}
	return val, err
}

func (r *RedisKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.Client.Set(ctx, key, value, ttl).Err()
}

func (r *RedisKV) Del(ctx context.Context, keys ...string) error {
	return r.Client.Del(ctx, keys...).Err()
}

// NextQuestionView is the cached projection of "what should the learner
// see next" for a session.
type NextQuestionView struct {
	IsComplete   bool                  `json:"isComplete"`
	NextQuestion *model.PublicQuestion `json:"nextQuestion,omitempty"`
}

// SessionResultView is the cached summary of a completed session.
type SessionResultView struct {
	SessionID      string     `json:"sessionId"`
	SkillID        uint       `json:"skillId"`
	Status         string     `json:"status"`
	OverallScore   int        `json:"overallScore"`
	OverallLevel   int        `json:"overallLevel"`
	CorrectCount   int        `json:"correctCount"`
	TotalQuestions int        `json:"totalQuestions"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
}

const (
	cacheOpNextQuestion  = "next_question"
	cacheOpSessionResult = "session_result"

	nextQuestionTTL = time.Minute
	completedTTL    = time.Hour
)

// ResultCache is an advisory cache of assessment views keyed by
// (operation, user, session). Misses always fall through to the store;
// staleness is handled by explicit invalidation after each accepted
// answer, not by synchronization.
type ResultCache struct {
	kv KV
}

func NewResultCache(kv KV) *ResultCache {
	return &ResultCache{kv: kv}
}

func cacheKey(op string, userID uint, sessionID string) string {
	return fmt.Sprintf("assessment:%s:%d:%s", op, userID, sessionID)
}

func (c *ResultCache) GetNextQuestion(ctx context.Context, userID uint, sessionID string) (*NextQuestionView, bool) {
	raw, err := c.kv.Get(ctx, cacheKey(cacheOpNextQuestion, userID, sessionID))
	if err != nil {
		if err != ErrCacheMiss {
			logger.Log.Warn("next question cache read failed", zap.Error(err))
		}
		return nil, false
	}

	var view NextQuestionView
	if err := json.Unmarshal([]byte(raw), &view); err != nil {
		return nil, false
	}
	return &view, true
}

// SetNextQuestion writes the view with a TTL that depends on whether the
// session is known complete. Complete results never change, so they keep
// a long TTL.
func (c *ResultCache) SetNextQuestion(ctx context.Context, userID uint, sessionID string, view *NextQuestionView) {
	ttl := nextQuestionTTL
	if view.IsComplete {
		ttl = completedTTL
	}
	c.set(ctx, cacheKey(cacheOpNextQuestion, userID, sessionID), view, ttl)
}

func (c *ResultCache) InvalidateNextQuestion(ctx context.Context, userID uint, sessionID string) {
	if err := c.kv.Del(ctx, cacheKey(cacheOpNextQuestion, userID, sessionID)); err != nil {
		logger.Log.Warn("next question cache invalidation failed", zap.Error(err))
	}
}

func (c *ResultCache) GetSessionResult(ctx context.Context, userID uint, sessionID string) (*SessionResultView, bool) {
	raw, err := c.kv.Get(ctx, cacheKey(cacheOpSessionResult, userID, sessionID))
	if err != nil {
		if err != ErrCacheMiss {
			logger.Log.Warn("session result cache read failed", zap.Error(err))
		}
		return nil, false
	}

	var view SessionResultView
	if err := json.Unmarshal([]byte(raw), &view); err != nil {
		return nil, false
	}
	return &view, true
}

func (c *ResultCache) SetSessionResult(ctx context.Context, userID uint, sessionID string, view *SessionResultView) {
	c.set(ctx, cacheKey(cacheOpSessionResult, userID, sessionID), view, completedTTL)
}

func (c *ResultCache) InvalidateSessionResult(ctx context.Context, userID uint, sessionID string) {
	if err := c.kv.Del(ctx, cacheKey(cacheOpSessionResult, userID, sessionID)); err != nil {
		logger.Log.Warn("session result cache invalidation failed", zap.Error(err))
	}
}

func (c *ResultCache) set(ctx context.Context, key string, view interface{}, ttl time.Duration) {
	raw, err := json.Marshal(view)
	if err != nil {
		return
	}
	if err := c.kv.Set(ctx, key, string(raw), ttl); err != nil {
		logger.Log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}
