package controller

import (
	"errors"
	"learnpulse_backend/internal/service"
	"learnpulse_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type RecommendationController struct {
	RecommendationService *service.RecommendationService
	AIService             *service.AIRecommendationService
}

func NewRecommendationController(recService *service.RecommendationService, aiService *service.AIRecommendationService) *RecommendationController {
	return &RecommendationController{
		RecommendationService: recService,
		AIService:             aiService,
	}
}

// GetRecommendations godoc
// @Summary Get learning recommendations
// @Description Analyzes skill gaps and recommends resources, weakest skills first
// @Tags recommendation
// @Produce  json
// @Security ApiKeyAuth
// @Param   skillId query int false "Restrict to one skill"
// @Param   type query string false "Recommendation type (standard or personalized)"
// @Param   limit query int false "Maximum number of recommendations"
// @Success 200 {object} util.Response{data=service.RecommendationSet} "Success"
// @Failure 404 {object} util.Response "Skill not found"
// @Router /api/recommendations [get]
func (c *RecommendationController) GetRecommendations(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.RecommendationRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	set, err := c.RecommendationService.GetRecommendations(ctx.Request.Context(), claims.UserID, &req)
	if err != nil {
		if errors.Is(err, util.ErrSkillNotFound) {
			util.NotFoundMsg(ctx, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, set)
}

type CompleteRecommendationRequest struct {
	WasHelpful *bool `json:"wasHelpful"`
}

// MarkCompleted godoc
// @Summary Mark a recommendation as completed
// @Tags recommendation
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "Recommendation history ID"
// @Param   body body CompleteRecommendationRequest false "Feedback payload"
// @Success 200 {object} util.Response{data=model.RecommendationHistory} "Success"
// @Failure 404 {object} util.Response "Recommendation not found"
// @Router /api/recommendations/{id}/complete [post]
func (c *RecommendationController) MarkCompleted(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req CompleteRecommendationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		util.BadRequest(ctx, err.Error())
		return
	}

	history, err := c.RecommendationService.MarkRecommendationCompleted(claims.UserID, ctx.Param("id"), req.WasHelpful)
	if err != nil {
		if errors.Is(err, util.ErrRecommendationNotFound) {
			util.NotFoundMsg(ctx, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, history)
}

// GetHistory godoc
// @Summary List the learner's recommendation history for a skill
// @Tags recommendation
// @Produce  json
// @Security ApiKeyAuth
// @Param   skillId query int true "Skill ID"
// @Success 200 {object} util.Response{data=[]model.RecommendationHistory} "Success"
// @Router /api/recommendations/history [get]
func (c *RecommendationController) GetHistory(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	skillID := util.MustParseUint(ctx.Query("skillId"))
	if skillID == 0 {
		util.BadRequest(ctx, "skillId is required")
		return
	}

	rows, err := c.RecommendationService.HistoryRepo.FindByUserAndSkill(claims.UserID, skillID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, rows)
}

// GetAIMetrics godoc
// @Summary AI generation health metrics
// @Description Counters, error log and latency of the AI generation backend
// @Tags recommendation
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.AIMetricsSnapshot} "Success"
// @Router /api/admin/ai-metrics [get]
func (c *RecommendationController) GetAIMetrics(ctx *gin.Context) {
	util.Success(ctx, c.AIService.Metrics())
}
