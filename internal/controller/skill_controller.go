package controller

import (
	"errors"
	"learnpulse_backend/internal/model"
	"learnpulse_backend/internal/repository"
	"learnpulse_backend/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type SkillController struct {
	SkillRepo *repository.SkillRepository
}

func NewSkillController(skillRepo *repository.SkillRepository) *SkillController {
	return &SkillController{SkillRepo: skillRepo}
}

// ListSkills godoc
// @Summary List skills
// @Tags skill
// @Produce  json
// @Security ApiKeyAuth
// @Param   gradeLevel query int false "Filter by grade level"
// @Param   subject query string false "Filter by subject"
// @Success 200 {object} util.Response{data=[]model.Skill} "Success"
// @Router /api/skills [get]
func (c *SkillController) ListSkills(ctx *gin.Context) {
	grade := int(util.MustParseUint(ctx.Query("gradeLevel")))
	skills, err := c.SkillRepo.List(grade, ctx.Query("subject"))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, skills)
}

// GetSkill godoc
// @Summary Get one skill
// @Tags skill
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "Skill ID"
// @Success 200 {object} util.Response{data=model.Skill} "Success"
// @Failure 404 {object} util.Response "Skill not found"
// @Router /api/skills/{id} [get]
func (c *SkillController) GetSkill(ctx *gin.Context) {
	skill, err := c.SkillRepo.FindByID(util.MustParseUint(ctx.Param("id")))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.NotFoundMsg(ctx, util.ErrSkillNotFound.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, skill)
}

type SkillRequest struct {
	Name       string `json:"name" binding:"required"`
	Subject    string `json:"subject" binding:"required"`
	GradeLevel int    `json:"gradeLevel" binding:"required,min=1,max=12"`
}

// CreateSkill godoc
// @Summary Create a skill
// @Tags skill
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body SkillRequest true "Skill payload"
// @Success 201 {object} util.Response{data=model.Skill} "Created"
// @Failure 400 {object} util.Response "Invalid payload"
// @Router /api/curator/skills [post]
func (c *SkillController) CreateSkill(ctx *gin.Context) {
	var req SkillRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	skill := &model.Skill{
		Name:       req.Name,
		Subject:    req.Subject,
		GradeLevel: req.GradeLevel,
		Status:     model.SkillActive,
	}
	if err := c.SkillRepo.Create(skill); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, skill)
}

// UpdateSkill godoc
// @Summary Update a skill
// @Tags skill
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "Skill ID"
// @Param   body body SkillRequest true "Skill payload"
// @Success 200 {object} util.Response{data=model.Skill} "Success"
// @Failure 404 {object} util.Response "Skill not found"
// @Router /api/curator/skills/{id} [put]
func (c *SkillController) UpdateSkill(ctx *gin.Context) {
	skill, err := c.SkillRepo.FindByID(util.MustParseUint(ctx.Param("id")))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.NotFoundMsg(ctx, util.ErrSkillNotFound.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	var req SkillRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	skill.Name = req.Name
	skill.Subject = req.Subject
	skill.GradeLevel = req.GradeLevel
	if err := c.SkillRepo.Update(skill); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, skill)
}

type SkillStatusRequest struct {
	Status model.SkillStatus `json:"status" binding:"required,oneof=active inactive"`
}

// SetSkillStatus godoc
// @Summary Activate or deactivate a skill
// @Tags skill
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "Skill ID"
// @Param   body body SkillStatusRequest true "Status payload"
// @Success 200 {object} util.Response{data=object} "Success"
// @Router /api/curator/skills/{id}/status [patch]
func (c *SkillController) SetSkillStatus(ctx *gin.Context) {
	var req SkillStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	id := util.MustParseUint(ctx.Param("id"))
	if err := c.SkillRepo.SetStatus(id, req.Status); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"id": id, "status": req.Status})
}
