package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"learnpulse_backend/internal/config"
	"learnpulse_backend/internal/model"
	"learnpulse_backend/internal/util"
	"learnpulse_backend/pkg/logger"
	"learnpulse_backend/pkg/monitoring"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	AIRetryAttempts = 3
	AIRetryDelay    = time.Second
	AIErrorRingSize = 100

	aiResponseCacheTTL = 24 * time.Hour
	aiRequestTimeout   = 30 * time.Second
)

// AIGenerator produces a personalized resource suggestion for a learner
// struggling with a skill. The production implementation calls an
// OpenAI-compatible chat completions endpoint; tests stub it.
type AIGenerator interface {
	Enabled() bool
	Generate(ctx context.Context, userID uint, skill *model.Skill, score float64, recentAnswers []model.AssessmentResponse) (*AIRecommendation, error)
}

// AIRecommendation is the structured payload the model must return.
type AIRecommendation struct {
	Title                string   `json:"title"`
	Description          string   `json:"description"`
	URL                  string   `json:"url"`
	Type                 string   `json:"type"`
	Priority             string   `json:"priority"`
	Explanation          string   `json:"explanation"`
	EstimatedTimeMinutes int      `json:"estimatedTimeMinutes"`
	Tags                 []string `json:"tags"`
}

// valid reports whether the payload has the structural shape downstream
// code relies on. Cached entries failing this check are discarded.
func (r *AIRecommendation) valid() bool {
	if r.Title == "" || r.Description == "" || r.Explanation == "" {
		return false
	}
	switch model.ResourceType(r.Type) {
	case model.Video, model.Article, model.Worksheet, model.Interactive, model.PracticeQuiz:
	default:
		return false
	}
	switch model.RecommendationPriority(r.Priority) {
	case model.PriorityLow, model.PriorityMedium, model.PriorityHigh, model.PriorityCritical:
	default:
		return false
	}
	return true
}

// AIErrorRecord is one entry of the bounded in-memory error log.
type AIErrorRecord struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	UserID    uint      `json:"userId"`
	SkillID   uint      `json:"skillId"`
	Attempt   int       `json:"attempt"`
	Timestamp time.Time `json:"timestamp"`
}

// AIMetricsSnapshot is the operator-facing view of generation health.
type AIMetricsSnapshot struct {
	TotalRequests      int64            `json:"totalRequests"`
	SuccessfulRequests int64            `json:"successfulRequests"`
	FailedRequests     int64            `json:"failedRequests"`
	CacheHits          int64            `json:"cacheHits"`
	CacheMisses        int64            `json:"cacheMisses"`
	AverageLatencyMs   float64          `json:"averageLatencyMs"`
	ErrorCounts        map[string]int64 `json:"errorCounts"`
	RecentErrors       []AIErrorRecord  `json:"recentErrors"`
}

type aiMetrics struct {
	mu             sync.Mutex
	total          int64
	success        int64
	failed         int64
	cacheHits      int64
	cacheMisses    int64
	latencySumMs   float64
	latencyCount   int64
	errorCounts    map[string]int64
	recentErrors   []AIErrorRecord
	nextErrorIndex int
}

func (m *aiMetrics) recordSuccess(latency time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.total++
	m.success++
	m.latencySumMs += float64(latency.Milliseconds())
	m.latencyCount++
}

func (m *aiMetrics) recordFailure(rec AIErrorRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.total++
	m.failed++
	if m.errorCounts == nil {
		m.errorCounts = make(map[string]int64)
	}
	m.errorCounts[rec.Code]++

	if len(m.recentErrors) < AIErrorRingSize {
		m.recentErrors = append(m.recentErrors, rec)
	} else {
		m.recentErrors[m.nextErrorIndex] = rec
	}
	m.nextErrorIndex = (m.nextErrorIndex + 1) % AIErrorRingSize
}

func (m *aiMetrics) recordCache(hit bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if hit {
		m.cacheHits++
	} else {
		m.cacheMisses++
	}
}

func (m *aiMetrics) snapshot() AIMetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := AIMetricsSnapshot{
		TotalRequests:      m.total,
		SuccessfulRequests: m.success,
		FailedRequests:     m.failed,
		CacheHits:          m.cacheHits,
		CacheMisses:        m.cacheMisses,
		ErrorCounts:        make(map[string]int64, len(m.errorCounts)),
		RecentErrors:       make([]AIErrorRecord, len(m.recentErrors)),
	}
	if m.latencyCount > 0 {
		snap.AverageLatencyMs = m.latencySumMs / float64(m.latencyCount)
	}
	for k, v := range m.errorCounts {
		snap.ErrorCounts[k] = v
	}
	copy(snap.RecentErrors, m.recentErrors)
	return snap
}

// AIRecommendationService drives generation against the configured model
// backend with bounded retries and response caching.
type AIRecommendationService struct {
	cfgMu   sync.RWMutex
	cfg     config.AIConfig
	client  *http.Client
	kv      KV
	metrics aiMetrics

	sleep func(time.Duration)
}

func NewAIRecommendationService(cfg config.AIConfig, kv KV) *AIRecommendationService {
	return &AIRecommendationService{
		cfg:    cfg,
		client: &http.Client{Timeout: aiRequestTimeout},
		kv:     kv,
		sleep:  time.Sleep,
	}
}

func (s *AIRecommendationService) config() config.AIConfig {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return s.cfg
}

// UpdateConfig swaps the backend settings, used by config hot reload.
func (s *AIRecommendationService) UpdateConfig(cfg config.AIConfig) {
	s.cfgMu.Lock()
	s.cfg = cfg
	s.cfgMu.Unlock()
}

func (s *AIRecommendationService) Enabled() bool {
	cfg := s.config()
	return cfg.Enabled && cfg.BaseURL != "" && cfg.APIKey != ""
}

func (s *AIRecommendationService) Metrics() AIMetricsSnapshot {
	return s.metrics.snapshot()
}

// Generate asks the model for one resource suggestion. Transient failures
// are retried with a linearly growing delay; fatal failures (credentials,
// quota, malformed request, content policy) abort immediately.
func (s *AIRecommendationService) Generate(ctx context.Context, userID uint, skill *model.Skill, score float64, recentAnswers []model.AssessmentResponse) (*AIRecommendation, error) {
	cacheKey := fmt.Sprintf("ai_rec:%d:%d", userID, skill.ID)
	if cached := s.readCache(ctx, cacheKey); cached != nil {
		monitoring.AIGenerationCounter.WithLabelValues("cache_hit").Inc()
		return cached, nil
	}

	var lastErr error
	for attempt := 1; attempt <= AIRetryAttempts; attempt++ {
		start := time.Now()
		rec, err := s.callModel(ctx, userID, skill, score, recentAnswers)
		latency := time.Since(start)
		monitoring.AIGenerationDuration.Observe(latency.Seconds())

		if err == nil {
			s.metrics.recordSuccess(latency)
			monitoring.AIGenerationCounter.WithLabelValues("success").Inc()
			s.writeCache(ctx, cacheKey, rec)
			return rec, nil
		}

		lastErr = err
		code := "unknown_error"
		var aiErr *util.AIError
		if errors.As(err, &aiErr) {
			code = aiErr.Code
		}
		s.metrics.recordFailure(AIErrorRecord{
			Code:      code,
			Message:   err.Error(),
			UserID:    userID,
			SkillID:   skill.ID,
			Attempt:   attempt,
			Timestamp: time.Now(),
		})
		monitoring.AIGenerationCounter.WithLabelValues("failure").Inc()

		logger.Log.Warn("ai generation attempt failed",
			zap.Uint("user_id", userID),
			zap.Uint("skill_id", skill.ID),
			zap.Int("attempt", attempt),
			zap.String("code", code),
			zap.Error(err))

		if util.IsFatalAIError(err) {
			return nil, err
		}
		if attempt < AIRetryAttempts {
			s.sleep(time.Duration(attempt) * AIRetryDelay)
		}
	}
	return nil, lastErr
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

func (s *AIRecommendationService) callModel(ctx context.Context, userID uint, skill *model.Skill, score float64, recentAnswers []model.AssessmentResponse) (*AIRecommendation, error) {
	cfg := s.config()
	payload := chatRequest{
		Model: cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildPrompt(skill, score, recentAnswers)},
		},
		Temperature: 0.7,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, util.NewAIError("invalid_request", "failed to encode request", true, err)
	}

	url := strings.TrimRight(cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, util.NewAIError("invalid_request", "failed to build request", true, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, util.NewAIError("network_error", err.Error(), false, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, util.NewAIError("network_error", "failed to read response body", false, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, classifyHTTPError(resp.StatusCode, raw)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, util.NewAIError("malformed_response", "response is not valid JSON", false, err)
	}
	if parsed.Error != nil {
		return nil, classifyAPIError(parsed.Error.Code, parsed.Error.Type, parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return nil, util.NewAIError("malformed_response", "response contains no choices", false, nil)
	}

	content := stripCodeFences(parsed.Choices[0].Message.Content)
	var rec AIRecommendation
	if err := json.Unmarshal([]byte(content), &rec); err != nil {
		return nil, util.NewAIError("malformed_response", "model output is not the expected JSON shape", false, err)
	}
	if !rec.valid() {
		return nil, util.NewAIError("malformed_response", "model output missing required fields", false, nil)
	}
	return &rec, nil
}

const systemPrompt = `You are a learning advisor for school students. ` +
	`Respond with a single JSON object containing the fields title, description, url, type, priority, explanation, estimatedTimeMinutes and tags. ` +
	`type must be one of video, article, worksheet, interactive, practice_quiz. ` +
	`priority must be one of low, medium, high, critical. Respond with JSON only.`

func buildPrompt(skill *model.Skill, score float64, recentAnswers []model.AssessmentResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The student is working on the skill %q (subject %s, grade %d) and currently scores %.0f on a 0-1000 scale where 500 is average.\n",
		skill.Name, skill.Subject, skill.GradeLevel, score)

	if len(recentAnswers) > 0 {
		correct := 0
		for _, a := range recentAnswers {
			if a.IsCorrect {
				correct++
			}
		}
		fmt.Fprintf(&b, "Of the last %d answers on this skill, %d were correct.\n", len(recentAnswers), correct)
	}

	b.WriteString("Suggest one concrete learning resource that addresses the weakness, with an explanation the student can understand.")
	return b.String()
}

func classifyHTTPError(status int, body []byte) error {
	var parsed chatResponse
	msg := http.StatusText(status)
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error != nil {
		msg = parsed.Error.Message
	}

	switch status {
	case http.StatusBadRequest:
		return util.NewAIError("invalid_request_error", msg, true, nil)
	case http.StatusUnauthorized:
		return util.NewAIError("invalid_api_key", msg, true, nil)
	case http.StatusForbidden:
		return util.NewAIError("invalid_api_key", msg, true, nil)
	case http.StatusPaymentRequired:
		return util.NewAIError("insufficient_quota", msg, true, nil)
	case http.StatusTooManyRequests:
		if strings.Contains(strings.ToLower(msg), "quota") {
			return util.NewAIError("insufficient_quota", msg, true, nil)
		}
		return util.NewAIError("rate_limited", msg, false, nil)
	default:
		return util.NewAIError("provider_error", fmt.Sprintf("upstream returned %d: %s", status, msg), false, nil)
	}
}

func classifyAPIError(code, errType, msg string) error {
	key := code
	if key == "" {
		key = errType
	}
	switch key {
	case "invalid_api_key", "insufficient_quota", "invalid_request_error", "content_policy_violation":
		return util.NewAIError(key, msg, true, nil)
	default:
		if key == "" {
			key = "provider_error"
		}
		return util.NewAIError(key, msg, false, nil)
	}
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

func (s *AIRecommendationService) readCache(ctx context.Context, key string) *AIRecommendation {
	if s.kv == nil {
		return nil
	}
	raw, err := s.kv.Get(ctx, key)
	if err != nil {
		s.metrics.recordCache(false)
		return nil
	}

	var rec AIRecommendation
	if err := json.Unmarshal([]byte(raw), &rec); err != nil || !rec.valid() {
		s.metrics.recordCache(false)
		return nil
	}
	s.metrics.recordCache(true)
	return &rec
}

func (s *AIRecommendationService) writeCache(ctx context.Context, key string, rec *AIRecommendation) {
	if s.kv == nil {
		return
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return
	}
	if err := s.kv.Set(ctx, key, string(raw), aiResponseCacheTTL); err != nil {
		logger.Log.Warn("ai response cache write failed", zap.Error(err))
	}
}
