package controller

import (
	"questline_backend/internal/service"
	"questline_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// CatalogController 管理侧的活动/任务/成就/依赖维护入口，仅管理员可用
type CatalogController struct {
	CatalogService *service.CatalogService
}

func NewCatalogController(catalogService *service.CatalogService) *CatalogController {
	return &CatalogController{CatalogService: catalogService}
}

// @Summary 创建活动
// @Tags 管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param data body service.CampaignRequest true "活动定义"
// @Success 201 {object} util.Response
// @Router /admin/campaigns [post]
func (c *CatalogController) CreateCampaign(ctx *gin.Context) {
	var req service.CampaignRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	campaign, err := c.CatalogService.CreateCampaign(req)
	if err != nil {
		util.ServiceError(ctx, err)
		return
	}
	util.Created(ctx, campaign)
}

// @Summary 下线活动
// @Description 停止报名与提交，已产生的积分与成就保留
// @Tags 管理
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "活动ID"
// @Success 200 {object} util.Response
// @Router /admin/campaigns/{id} [delete]
func (c *CatalogController) DeactivateCampaign(ctx *gin.Context) {
	campaignID := util.MustParseUint(ctx.Param("id"))
	if err := c.CatalogService.DeactivateCampaign(campaignID); err != nil {
		util.ServiceError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"deactivated": campaignID})
}

// @Summary 全量活动列表
// @Tags 管理
// @Produce json
// @Security ApiKeyAuth
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(10)
// @Success 200 {object} util.Response
// @Router /admin/campaigns [get]
func (c *CatalogController) ListAllCampaigns(ctx *gin.Context) {
	page, limit := pagination(ctx)
	campaigns, total, err := c.CatalogService.ListAllCampaigns(page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{
		List:  campaigns,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

// @Summary 创建任务
// @Tags 管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param data body service.TaskRequest true "任务定义"
// @Success 201 {object} util.Response
// @Router /admin/tasks [post]
func (c *CatalogController) CreateTask(ctx *gin.Context) {
	var req service.TaskRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	task, err := c.CatalogService.CreateTask(req)
	if err != nil {
		util.ServiceError(ctx, err)
		return
	}
	util.Created(ctx, task)
}

type AttachTaskRequest struct {
	CampaignID uint `json:"campaignId" binding:"required"`
	TaskID     uint `json:"taskId" binding:"required"`
	Order      int  `json:"order"`
}

// @Summary 复用任务到活动
// @Tags 管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param data body controller.AttachTaskRequest true "挂载参数"
// @Success 200 {object} util.Response
// @Router /admin/tasks/attach [post]
func (c *CatalogController) AttachTask(ctx *gin.Context) {
	var req AttachTaskRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.CatalogService.AttachTask(req.CampaignID, req.TaskID, req.Order); err != nil {
		util.ServiceError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"attached": req.TaskID})
}

// @Summary 新增任务依赖
// @Tags 管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param data body service.DependencyRequest true "依赖边"
// @Success 201 {object} util.Response
// @Router /admin/dependencies [post]
func (c *CatalogController) AddDependency(ctx *gin.Context) {
	var req service.DependencyRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.CatalogService.AddDependency(req); err != nil {
		util.ServiceError(ctx, err)
		return
	}
	util.Created(ctx, req)
}

// @Summary 新增成就定义
// @Tags 管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param data body service.AchievementRequest true "成就定义"
// @Success 201 {object} util.Response
// @Router /admin/achievements [post]
func (c *CatalogController) AddAchievement(ctx *gin.Context) {
	var req service.AchievementRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	achievement, err := c.CatalogService.AddAchievement(req)
	if err != nil {
		util.ServiceError(ctx, err)
		return
	}
	util.Created(ctx, achievement)
}
