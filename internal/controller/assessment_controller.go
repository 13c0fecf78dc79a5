package controller

import (
	"errors"
	"learnpulse_backend/internal/service"
	"learnpulse_backend/internal/util"
	"net/http"

	"github.com/gin-gonic/gin"
)

type AssessmentController struct {
	AssessmentService *service.AssessmentService
}

func NewAssessmentController(assessmentService *service.AssessmentService) *AssessmentController {
	return &AssessmentController{AssessmentService: assessmentService}
}

// StartSession godoc
// @Summary Start an assessment session
// @Description Samples a fixed set of questions for a skill and opens a session
// @Tags assessment
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.StartSessionRequest true "Skill or grade to assess"
// @Success 201 {object} util.Response{data=model.AssessmentSession} "Created"
// @Failure 400 {object} util.Response "Not enough questions or no skill resolvable"
// @Failure 404 {object} util.Response "Skill not found"
// @Router /api/assessment/sessions [post]
func (c *AssessmentController) StartSession(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.StartSessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	session, err := c.AssessmentService.StartSession(claims.UserID, &req)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrSkillNotFound):
			util.NotFoundMsg(ctx, err.Error())
		case errors.Is(err, util.ErrNoSkillResolvable),
			errors.Is(err, util.ErrInsufficientQuestions):
			util.BadRequest(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Created(ctx, session)
}

// GetNextQuestion godoc
// @Summary Get the next question of a session
// @Description Returns the first unanswered question or a completion marker
// @Tags assessment
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "Session ID"
// @Success 200 {object} util.Response{data=service.NextQuestionView} "Success"
// @Failure 404 {object} util.Response "Session not found"
// @Router /api/assessment/sessions/{id}/next [get]
func (c *AssessmentController) GetNextQuestion(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	view, err := c.AssessmentService.GetNextQuestion(ctx.Request.Context(), claims.UserID, ctx.Param("id"))
	if err != nil {
		c.writeSessionError(ctx, err)
		return
	}

	util.Success(ctx, view)
}

// SubmitAnswer godoc
// @Summary Submit an answer for a session question
// @Description Grades the answer, records it and updates the skill score
// @Tags assessment
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "Session ID"
// @Param   body body service.SubmitAnswerRequest true "Answer payload"
// @Success 200 {object} util.Response{data=model.AssessmentResponse} "Success"
// @Failure 400 {object} util.Response "Invalid answer"
// @Failure 404 {object} util.Response "Session not found"
// @Failure 409 {object} util.Response "Question already answered"
// @Router /api/assessment/sessions/{id}/answers [post]
func (c *AssessmentController) SubmitAnswer(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.SubmitAnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	response, err := c.AssessmentService.SubmitAnswer(ctx.Request.Context(), claims.UserID, ctx.Param("id"), &req)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrAlreadyAnswered):
			util.Error(ctx, http.StatusConflict, err.Error())
		case errors.Is(err, util.ErrQuestionNotInSession),
			errors.Is(err, util.ErrSessionNotInProgress):
			util.BadRequest(ctx, err.Error())
		default:
			c.writeSessionError(ctx, err)
		}
		return
	}

	util.Success(ctx, response)
}

// GetSessionResult godoc
// @Summary Get the result of a completed session
// @Tags assessment
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "Session ID"
// @Success 200 {object} util.Response{data=service.SessionResultView} "Success"
// @Failure 400 {object} util.Response "Session not completed"
// @Failure 404 {object} util.Response "Session not found"
// @Router /api/assessment/sessions/{id}/result [get]
func (c *AssessmentController) GetSessionResult(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	view, err := c.AssessmentService.GetSessionResult(ctx.Request.Context(), claims.UserID, ctx.Param("id"))
	if err != nil {
		if errors.Is(err, util.ErrSessionNotCompleted) {
			util.BadRequest(ctx, err.Error())
		} else {
			c.writeSessionError(ctx, err)
		}
		return
	}

	util.Success(ctx, view)
}

// GetMyScores godoc
// @Summary List the learner's skill scores
// @Tags assessment
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.AssessmentSkillScore} "Success"
// @Router /api/assessment/scores [get]
func (c *AssessmentController) GetMyScores(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	scores, err := c.AssessmentService.GetUserScores(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, scores)
}

// Session ownership is reported as not-found so session ids cannot be
// probed across accounts.
func (c *AssessmentController) writeSessionError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrSessionNotFound),
		errors.Is(err, util.ErrNotSessionOwner):
		util.NotFoundMsg(ctx, util.ErrSessionNotFound.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}
