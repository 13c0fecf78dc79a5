package controller

import (
	"encoding/json"
	"errors"
	"learnpulse_backend/internal/model"
	"learnpulse_backend/internal/repository"
	"learnpulse_backend/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type QuestionController struct {
	QuestionRepo *repository.QuestionRepository
}

func NewQuestionController(questionRepo *repository.QuestionRepository) *QuestionController {
	return &QuestionController{QuestionRepo: questionRepo}
}

type QuestionRequest struct {
	Text            string          `json:"text" binding:"required"`
	Type            string          `json:"type" binding:"required,oneof=multiple_choice true_false numerical short_answer"`
	Options         json.RawMessage `json:"options"`
	CorrectAnswer   string          `json:"correctAnswer" binding:"required"`
	DifficultyLevel int             `json:"difficultyLevel" binding:"required,min=1,max=5"`
	GradeLevel      int             `json:"gradeLevel" binding:"required,min=1,max=12"`
	SkillID         uint            `json:"skillId" binding:"required"`
}

// ListQuestions godoc
// @Summary List questions
// @Tags question
// @Produce  json
// @Security ApiKeyAuth
// @Param   skillId query int false "Filter by skill"
// @Param   status query string false "Filter by status"
// @Param   page query int false "Page number"
// @Param   limit query int false "Page size"
// @Success 200 {object} util.Response{data=util.PageResponse} "Success"
// @Router /api/curator/questions [get]
func (c *QuestionController) ListQuestions(ctx *gin.Context) {
	page := int(util.MustParseUint(ctx.DefaultQuery("page", "1")))
	limit := int(util.MustParseUint(ctx.DefaultQuery("limit", "20")))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	questions, total, err := c.QuestionRepo.List(
		util.MustParseUint(ctx.Query("skillId")),
		model.QuestionStatus(ctx.Query("status")),
		page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{List: questions, Total: total, Page: page, Limit: limit})
}

// CreateQuestion godoc
// @Summary Create a question
// @Description New questions start in draft status and never enter sessions until activated
// @Tags question
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body QuestionRequest true "Question payload"
// @Success 201 {object} util.Response{data=model.Question} "Created"
// @Failure 400 {object} util.Response "Invalid payload"
// @Router /api/curator/questions [post]
func (c *QuestionController) CreateQuestion(ctx *gin.Context) {
	var req QuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	q := &model.Question{
		Text:            req.Text,
		Type:            model.QuestionType(req.Type),
		Options:         req.Options,
		CorrectAnswer:   req.CorrectAnswer,
		DifficultyLevel: req.DifficultyLevel,
		GradeLevel:      req.GradeLevel,
		SkillID:         req.SkillID,
		Status:          model.QuestionDraft,
	}
	if err := c.QuestionRepo.Create(q); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, q)
}

// UpdateQuestion godoc
// @Summary Update a question
// @Tags question
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "Question ID"
// @Param   body body QuestionRequest true "Question payload"
// @Success 200 {object} util.Response{data=model.Question} "Success"
// @Failure 404 {object} util.Response "Question not found"
// @Router /api/curator/questions/{id} [put]
func (c *QuestionController) UpdateQuestion(ctx *gin.Context) {
	q, err := c.QuestionRepo.FindByID(util.MustParseUint(ctx.Param("id")))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.NotFoundMsg(ctx, util.ErrQuestionNotFound.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	var req QuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	q.Text = req.Text
	q.Type = model.QuestionType(req.Type)
	q.Options = req.Options
	q.CorrectAnswer = req.CorrectAnswer
	q.DifficultyLevel = req.DifficultyLevel
	q.GradeLevel = req.GradeLevel
	q.SkillID = req.SkillID
	if err := c.QuestionRepo.Update(q); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, q)
}

type QuestionStatusRequest struct {
	Status model.QuestionStatus `json:"status" binding:"required,oneof=draft active retired"`
}

// SetQuestionStatus godoc
// @Summary Change a question's lifecycle status
// @Tags question
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "Question ID"
// @Param   body body QuestionStatusRequest true "Status payload"
// @Success 200 {object} util.Response{data=object} "Success"
// @Router /api/curator/questions/{id}/status [patch]
func (c *QuestionController) SetQuestionStatus(ctx *gin.Context) {
	var req QuestionStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	id := util.MustParseUint(ctx.Param("id"))
	if err := c.QuestionRepo.SetStatus(id, req.Status); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"id": id, "status": req.Status})
}
