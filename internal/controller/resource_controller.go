package controller

import (
	"errors"
	"fmt"
	"learnpulse_backend/internal/model"
	"learnpulse_backend/internal/repository"
	"learnpulse_backend/internal/service"
	"learnpulse_backend/internal/util"
	"math"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ResourceController struct {
	ResourceRepo   *repository.ResourceRepository
	SkillRepo      *repository.SkillRepository
	StorageService *service.StorageService
}

func NewResourceController(resourceRepo *repository.ResourceRepository, skillRepo *repository.SkillRepository, storageService *service.StorageService) *ResourceController {
	return &ResourceController{
		ResourceRepo:   resourceRepo,
		SkillRepo:      skillRepo,
		StorageService: storageService,
	}
}

type ResourceRequest struct {
	Title                string   `json:"title" binding:"required"`
	Description          string   `json:"description"`
	URL                  string   `json:"url"`
	Type                 string   `json:"type" binding:"required,oneof=video article worksheet interactive practice_quiz"`
	EstimatedTimeMinutes int      `json:"estimatedTimeMinutes"`
	GradeLevel           int      `json:"gradeLevel" binding:"required,min=1,max=12"`
	Tags                 []string `json:"tags"`
	SkillIDs             []uint   `json:"skillIds" binding:"required,min=1"`
}

// ListResources godoc
// @Summary List learning resources
// @Tags resource
// @Produce  json
// @Security ApiKeyAuth
// @Param   type query string false "Filter by resource type"
// @Param   gradeLevel query int false "Filter by grade level"
// @Param   page query int false "Page number"
// @Param   limit query int false "Page size"
// @Success 200 {object} util.Response{data=util.PageResponse} "Success"
// @Router /api/resources [get]
func (c *ResourceController) ListResources(ctx *gin.Context) {
	page := int(util.MustParseUint(ctx.DefaultQuery("page", "1")))
	limit := int(util.MustParseUint(ctx.DefaultQuery("limit", "20")))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	resources, total, err := c.ResourceRepo.List(
		model.ResourceType(ctx.Query("type")),
		int(util.MustParseUint(ctx.Query("gradeLevel"))),
		page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{List: resources, Total: total, Page: page, Limit: limit})
}

// GetResource godoc
// @Summary Get one resource
// @Tags resource
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "Resource ID"
// @Success 200 {object} util.Response{data=model.RecommendationResource} "Success"
// @Failure 404 {object} util.Response "Resource not found"
// @Router /api/resources/{id} [get]
func (c *ResourceController) GetResource(ctx *gin.Context) {
	resource, err := c.ResourceRepo.FindByID(util.MustParseUint(ctx.Param("id")))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.NotFoundMsg(ctx, util.ErrResourceNotFound.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, resource)
}

// CreateResource godoc
// @Summary Create a curated resource
// @Tags resource
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body ResourceRequest true "Resource payload"
// @Success 201 {object} util.Response{data=model.RecommendationResource} "Created"
// @Failure 400 {object} util.Response "Invalid payload"
// @Router /api/curator/resources [post]
func (c *ResourceController) CreateResource(ctx *gin.Context) {
	var req ResourceRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	skills, err := c.loadSkills(req.SkillIDs)
	if err != nil {
		if errors.Is(err, util.ErrSkillNotFound) {
			util.BadRequest(ctx, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	resource := &model.RecommendationResource{
		Title:                req.Title,
		Description:          req.Description,
		URL:                  req.URL,
		Type:                 model.ResourceType(req.Type),
		EstimatedTimeMinutes: req.EstimatedTimeMinutes,
		GradeLevel:           req.GradeLevel,
		Tags:                 model.StringList(req.Tags),
		RelatedSkills:        skills,
	}
	if err := c.ResourceRepo.Create(resource); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, resource)
}

// UpdateResource godoc
// @Summary Update a curated resource
// @Tags resource
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "Resource ID"
// @Param   body body ResourceRequest true "Resource payload"
// @Success 200 {object} util.Response{data=model.RecommendationResource} "Success"
// @Failure 404 {object} util.Response "Resource not found"
// @Router /api/curator/resources/{id} [put]
func (c *ResourceController) UpdateResource(ctx *gin.Context) {
	resource, err := c.ResourceRepo.FindByID(util.MustParseUint(ctx.Param("id")))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.NotFoundMsg(ctx, util.ErrResourceNotFound.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	var req ResourceRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	skills, err := c.loadSkills(req.SkillIDs)
	if err != nil {
		if errors.Is(err, util.ErrSkillNotFound) {
			util.BadRequest(ctx, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	resource.Title = req.Title
	resource.Description = req.Description
	resource.URL = req.URL
	resource.Type = model.ResourceType(req.Type)
	resource.EstimatedTimeMinutes = req.EstimatedTimeMinutes
	resource.GradeLevel = req.GradeLevel
	resource.Tags = model.StringList(req.Tags)
	resource.RelatedSkills = skills
	if err := c.ResourceRepo.Update(resource); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, resource)
}

// DeleteResource godoc
// @Summary Delete a resource
// @Tags resource
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "Resource ID"
// @Success 200 {object} util.Response{data=object} "Success"
// @Router /api/curator/resources/{id} [delete]
func (c *ResourceController) DeleteResource(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))
	if err := c.ResourceRepo.Delete(id); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"id": id})
}

// UploadResourceFile godoc
// @Summary Upload a resource file
// @Description Stores the file and, for videos, probes the duration to fill estimatedTimeMinutes
// @Tags resource
// @Accept  multipart/form-data
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "Resource ID"
// @Param   file formData file true "Resource file"
// @Success 200 {object} util.Response{data=model.RecommendationResource} "Success"
// @Failure 400 {object} util.Response "Invalid file"
// @Failure 404 {object} util.Response "Resource not found"
// @Router /api/curator/resources/{id}/file [post]
func (c *ResourceController) UploadResourceFile(ctx *gin.Context) {
	resource, err := c.ResourceRepo.FindByID(util.MustParseUint(ctx.Param("id")))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.NotFoundMsg(ctx, util.ErrResourceNotFound.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	file, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "file is required")
		return
	}

	src, err := file.Open()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	mimeType, err := util.ValidateMimeType(src, []string{util.MimeVideo, util.MimeImage, util.MimePDF, util.MimeText})
	src.Close()
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	ext := filepath.Ext(file.Filename)
	objectPath := fmt.Sprintf("resources/%d/%s%s", resource.ID, uuid.New().String(), ext)

	if util.IsVideo(mimeType) {
		if !util.IsAllowedVideoExt(ext) {
			util.BadRequest(ctx, util.ErrInvalidVideoExt.Error())
			return
		}
		// Spool to disk so ffprobe can read the file before it ships
		// to the storage backend.
		tmpPath := filepath.Join(os.TempDir(), uuid.New().String()+ext)
		if err := ctx.SaveUploadedFile(file, tmpPath); err != nil {
			util.LogInternalError(ctx, err)
			return
		}
		defer os.Remove(tmpPath)

		if info, err := util.GetVideoInfo(tmpPath); err == nil && info.Duration > 0 {
			resource.EstimatedTimeMinutes = int(math.Ceil(info.Duration / 60))
		}

		url, err := c.StorageService.Provider.UploadFile(tmpPath, objectPath)
		if err != nil {
			util.LogInternalError(ctx, err)
			return
		}
		resource.URL = url
	} else {
		url, err := c.StorageService.Provider.Upload(file, objectPath)
		if err != nil {
			util.LogInternalError(ctx, err)
			return
		}
		resource.URL = url
	}

	if err := c.ResourceRepo.Update(resource); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, resource)
}

func (c *ResourceController) loadSkills(ids []uint) ([]model.Skill, error) {
	skills := make([]model.Skill, 0, len(ids))
	for _, id := range ids {
		skill, err := c.SkillRepo.FindByID(id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, util.ErrSkillNotFound
			}
			return nil, err
		}
		skills = append(skills, *skill)
	}
	return skills, nil
}
