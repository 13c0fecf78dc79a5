package service

import (
	"context"
	"learnpulse_backend/internal/model"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultCacheNextQuestionRoundTrip(t *testing.T) {
	kv := newMemoryKV()
	cache := NewResultCache(kv)
	ctx := context.Background()

	_, ok := cache.GetNextQuestion(ctx, 1, "s1")
	assert.False(t, ok)

	view := &NextQuestionView{
		NextQuestion: &model.PublicQuestion{ID: 7, Text: "2+2?", Type: model.Numerical},
	}
	cache.SetNextQuestion(ctx, 1, "s1", view)

	got, ok := cache.GetNextQuestion(ctx, 1, "s1")
	require.True(t, ok)
	assert.False(t, got.IsComplete)
	require.NotNil(t, got.NextQuestion)
	assert.Equal(t, uint(7), got.NextQuestion.ID)
}

func TestResultCacheTTLDependsOnCompletion(t *testing.T) {
	kv := newMemoryKV()
	cache := NewResultCache(kv)
	ctx := context.Background()

	cache.SetNextQuestion(ctx, 1, "in-progress", &NextQuestionView{
		NextQuestion: &model.PublicQuestion{ID: 1},
	})
	cache.SetNextQuestion(ctx, 1, "complete", &NextQuestionView{IsComplete: true})

	ttl, ok := kv.ttlOf("assessment:next_question:1:in-progress")
	require.True(t, ok)
	assert.Equal(t, time.Minute, ttl)

	ttl, ok = kv.ttlOf("assessment:next_question:1:complete")
	require.True(t, ok)
	assert.Equal(t, time.Hour, ttl)
}

func TestResultCacheKeysAreScopedPerUser(t *testing.T) {
	kv := newMemoryKV()
	cache := NewResultCache(kv)
	ctx := context.Background()

	cache.SetNextQuestion(ctx, 1, "s1", &NextQuestionView{IsComplete: true})

	_, ok := cache.GetNextQuestion(ctx, 2, "s1")
	assert.False(t, ok)
}

func TestResultCacheInvalidation(t *testing.T) {
	kv := newMemoryKV()
	cache := NewResultCache(kv)
	ctx := context.Background()

	cache.SetNextQuestion(ctx, 1, "s1", &NextQuestionView{IsComplete: true})
	cache.SetSessionResult(ctx, 1, "s1", &SessionResultView{SessionID: "s1", OverallScore: 80})

	cache.InvalidateNextQuestion(ctx, 1, "s1")
	_, ok := cache.GetNextQuestion(ctx, 1, "s1")
	assert.False(t, ok)

	// the result entry survives its own invalidation call only
	got, ok := cache.GetSessionResult(ctx, 1, "s1")
	require.True(t, ok)
	assert.Equal(t, 80, got.OverallScore)

	cache.InvalidateSessionResult(ctx, 1, "s1")
	_, ok = cache.GetSessionResult(ctx, 1, "s1")
	assert.False(t, ok)
}

func TestResultCacheIgnoresCorruptPayload(t *testing.T) {
	kv := newMemoryKV()
	cache := NewResultCache(kv)
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "assessment:session_result:1:s1", "{not json", time.Hour))

	_, ok := cache.GetSessionResult(ctx, 1, "s1")
	assert.False(t, ok)
}
