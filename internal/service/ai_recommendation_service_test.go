package service

import (
	"context"
	"encoding/json"
	"fmt"
	"learnpulse_backend/internal/config"
	"learnpulse_backend/internal/model"
	"learnpulse_backend/internal/util"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAIService(baseURL string, kv KV) *AIRecommendationService {
	svc := NewAIRecommendationService(config.AIConfig{
		Enabled: true,
		BaseURL: baseURL,
		APIKey:  "test-key",
		Model:   "test-model",
	}, kv)
	svc.sleep = func(time.Duration) {}
	return svc
}

func chatCompletionBody(t *testing.T, rec *AIRecommendation) string {
	t.Helper()
	content, err := json.Marshal(rec)
	require.NoError(t, err)

	body, err := json.Marshal(map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"content": string(content)}},
		},
	})
	require.NoError(t, err)
	return string(body)
}

func validGenerated() *AIRecommendation {
	return &AIRecommendation{
		Title:                "Equivalent fractions walkthrough",
		Description:          "Step by step introduction",
		URL:                  "https://example.com/fractions",
		Type:                 string(model.Video),
		Priority:             string(model.PriorityHigh),
		Explanation:          "Targets the misconception seen in recent answers.",
		EstimatedTimeMinutes: 12,
		Tags:                 []string{"fractions"},
	}
}

func testSkill() *model.Skill {
	return &model.Skill{
		BaseModel:  model.BaseModel{ID: 1},
		Name:       "Fractions",
		Subject:    "math",
		GradeLevel: 5,
	}
}

func TestGenerateSuccessAndCache(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		fmt.Fprint(w, chatCompletionBody(t, validGenerated()))
	}))
	defer server.Close()

	svc := newAIService(server.URL, newMemoryKV())
	ctx := context.Background()

	rec, err := svc.Generate(ctx, 1, testSkill(), 430, nil)
	require.NoError(t, err)
	assert.Equal(t, "Equivalent fractions walkthrough", rec.Title)
	assert.Equal(t, 1, hits)

	// second call is served from the response cache
	rec, err = svc.Generate(ctx, 1, testSkill(), 430, nil)
	require.NoError(t, err)
	assert.NotNil(t, rec)
	assert.Equal(t, 1, hits)

	snap := svc.Metrics()
	assert.Equal(t, int64(1), snap.TotalRequests)
	assert.Equal(t, int64(1), snap.SuccessfulRequests)
	assert.Equal(t, int64(1), snap.CacheHits)
	assert.Equal(t, int64(1), snap.CacheMisses)
}

func TestGenerateRetriesTransientErrors(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if hits < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, chatCompletionBody(t, validGenerated()))
	}))
	defer server.Close()

	svc := newAIService(server.URL, newMemoryKV())

	rec, err := svc.Generate(context.Background(), 1, testSkill(), 430, nil)
	require.NoError(t, err)
	assert.NotNil(t, rec)
	assert.Equal(t, 3, hits)

	snap := svc.Metrics()
	assert.Equal(t, int64(2), snap.FailedRequests)
	assert.Equal(t, int64(1), snap.SuccessfulRequests)
	assert.Equal(t, int64(2), snap.ErrorCounts["provider_error"])
}

func TestGenerateGivesUpAfterMaxAttempts(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	svc := newAIService(server.URL, newMemoryKV())

	_, err := svc.Generate(context.Background(), 1, testSkill(), 430, nil)
	require.Error(t, err)
	assert.Equal(t, AIRetryAttempts, hits)
	assert.False(t, util.IsFatalAIError(err))
}

func TestGenerateFatalErrorNotRetried(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"bad key","type":"invalid_api_key"}}`)
	}))
	defer server.Close()

	svc := newAIService(server.URL, newMemoryKV())

	_, err := svc.Generate(context.Background(), 1, testSkill(), 430, nil)
	require.Error(t, err)
	assert.True(t, util.IsFatalAIError(err))
	assert.Equal(t, 1, hits)

	snap := svc.Metrics()
	assert.Equal(t, int64(1), snap.ErrorCounts["invalid_api_key"])
	require.Len(t, snap.RecentErrors, 1)
	assert.Equal(t, "invalid_api_key", snap.RecentErrors[0].Code)
}

func TestGenerateQuotaExhaustedIsFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"message":"you exceeded your current quota"}}`)
	}))
	defer server.Close()

	svc := newAIService(server.URL, newMemoryKV())

	_, err := svc.Generate(context.Background(), 1, testSkill(), 430, nil)
	require.Error(t, err)
	assert.True(t, util.IsFatalAIError(err))
}

func TestGenerateMalformedContentRetries(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		fmt.Fprint(w, `{"choices":[{"message":{"content":"sorry, I cannot help with that"}}]}`)
	}))
	defer server.Close()

	svc := newAIService(server.URL, newMemoryKV())

	_, err := svc.Generate(context.Background(), 1, testSkill(), 430, nil)
	require.Error(t, err)
	assert.Equal(t, AIRetryAttempts, hits)

	snap := svc.Metrics()
	assert.Equal(t, int64(AIRetryAttempts), snap.ErrorCounts["malformed_response"])
}

func TestGenerateParsesFencedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		content, _ := json.Marshal(validGenerated())
		fenced := "```json\n" + string(content) + "\n```"
		body, _ := json.Marshal(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": fenced}},
			},
		})
		w.Write(body)
	}))
	defer server.Close()

	svc := newAIService(server.URL, newMemoryKV())

	rec, err := svc.Generate(context.Background(), 1, testSkill(), 430, nil)
	require.NoError(t, err)
	assert.Equal(t, "Equivalent fractions walkthrough", rec.Title)
}

func TestGenerateDiscardsMalformedCacheEntry(t *testing.T) {
	kv := newMemoryKV()
	require.NoError(t, kv.Set(context.Background(), "ai_rec:1:1", `{"title":""}`, time.Hour))

	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		fmt.Fprint(w, chatCompletionBody(t, validGenerated()))
	}))
	defer server.Close()

	svc := newAIService(server.URL, kv)

	rec, err := svc.Generate(context.Background(), 1, testSkill(), 430, nil)
	require.NoError(t, err)
	assert.NotNil(t, rec)
	assert.Equal(t, 1, hits, "a shape-invalid cache entry must not be served")
}

func TestErrorRingIsBounded(t *testing.T) {
	var m aiMetrics
	for i := 0; i < AIErrorRingSize+50; i++ {
		m.recordFailure(AIErrorRecord{Code: "provider_error", Attempt: i})
	}

	snap := m.snapshot()
	assert.Len(t, snap.RecentErrors, AIErrorRingSize)
	assert.Equal(t, int64(AIErrorRingSize+50), snap.FailedRequests)
}

func TestAIRecommendationShapeCheck(t *testing.T) {
	rec := validGenerated()
	assert.True(t, rec.valid())

	missingTitle := *rec
	missingTitle.Title = ""
	assert.False(t, missingTitle.valid())

	badType := *rec
	badType.Type = "podcast"
	assert.False(t, badType.valid())

	badPriority := *rec
	badPriority.Priority = "urgent"
	assert.False(t, badPriority.valid())
}
