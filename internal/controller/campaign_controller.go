package controller

import (
	"questline_backend/internal/model"
	"questline_backend/internal/service"
	"questline_backend/internal/util"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

type CampaignController struct {
	CatalogService    *service.CatalogService
	EnrollmentService *service.EnrollmentService
	UnlockService     *service.UnlockService
	TeamService       *service.TeamService
}

func NewCampaignController(
	catalogService *service.CatalogService,
	enrollmentService *service.EnrollmentService,
	unlockService *service.UnlockService,
	teamService *service.TeamService,
) *CampaignController {
	return &CampaignController{
		CatalogService:    catalogService,
		EnrollmentService: enrollmentService,
		UnlockService:     unlockService,
		TeamService:       teamService,
	}
}

// participantFromContext 解析本次请求的参与者身份。
// asTeam=true 时以战队身份操作，要求用户已入队；战队报名仅限队长。
func (c *CampaignController) participantFromContext(ctx *gin.Context, requireCaptain bool) (model.ParticipantKind, uint, bool) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return "", 0, false
	}

	if ctx.Query("asTeam") != "true" {
		return model.ParticipantUser, user.UserID, true
	}

	if user.TeamID == nil {
		util.BadRequest(ctx, "not a member of any team")
		return "", 0, false
	}
	if requireCaptain {
		team, _, err := c.TeamService.GetTeam(*user.TeamID)
		if err != nil {
			util.ServiceError(ctx, err)
			return "", 0, false
		}
		if team.CaptainID != user.UserID {
			util.Forbidden(ctx)
			return "", 0, false
		}
	}
	return model.ParticipantTeam, *user.TeamID, true
}

// @Summary 进行中的活动列表
// @Tags 活动
// @Produce json
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(10)
// @Success 200 {object} util.Response
// @Router /campaigns [get]
func (c *CampaignController) ListCampaigns(ctx *gin.Context) {
	page, limit := pagination(ctx)

	campaigns, total, err := c.CatalogService.ListOngoingCampaigns(time.Now(), page, limit)
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

// @Summary 活动详情
// @Tags 活动
// @Produce json
// @Param id path int true "活动ID"
// @Success 200 {object} util.Response
// @Router /campaigns/{id} [get]
func (c *CampaignController) GetCampaign(ctx *gin.Context) {
	campaignID := util.MustParseUint(ctx.Param("id"))
	detail, err := c.CatalogService.GetCampaign(campaignID)
	if err != nil {
		util.ServiceError(ctx, err)
		return
	}
	util.Success(ctx, detail)
}

// @Summary 报名活动
// @Description 以个人或战队身份报名，asTeam=true 时仅限队长操作
// @Tags 活动
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "活动ID"
// @Param asTeam query bool false "以战队身份报名"
// @Success 201 {object} util.Response
// @Router /campaigns/{id}/join [post]
func (c *CampaignController) JoinCampaign(ctx *gin.Context) {
	kind, participantID, ok := c.participantFromContext(ctx, true)
	if !ok {
		return
	}

	campaignID := util.MustParseUint(ctx.Param("id"))
	participation, err := c.EnrollmentService.Join(campaignID, kind, participantID)
	if err != nil {
		util.ServiceError(ctx, err)
		return
	}

	util.Created(ctx, participation)
}

// @Summary 已解锁任务
// @Description 依赖满足、当前可提交的任务ID列表
// @Tags 活动
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "活动ID"
// @Param asTeam query bool false "以战队身份查询"
// @Success 200 {object} util.Response
// @Router /campaigns/{id}/unlocked-tasks [get]
func (c *CampaignController) ListUnlockedTasks(ctx *gin.Context) {
	kind, participantID, ok := c.participantFromContext(ctx, false)
	if !ok {
		return
	}

	campaignID := util.MustParseUint(ctx.Param("id"))
	taskIDs, err := c.UnlockService.ListUnlockedTaskIDs(campaignID, kind, participantID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"taskIds": taskIDs})
}

// @Summary 活动进度
// @Tags 活动
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "活动ID"
// @Param asTeam query bool false "以战队身份查询"
// @Success 200 {object} util.Response
// @Router /campaigns/{id}/progress [get]
func (c *CampaignController) GetProgress(ctx *gin.Context) {
	kind, participantID, ok := c.participantFromContext(ctx, false)
	if !ok {
		return
	}

	campaignID := util.MustParseUint(ctx.Param("id"))
	progress, err := c.EnrollmentService.GetProgress(campaignID, kind, participantID)
	if err != nil {
		util.ServiceError(ctx, err)
		return
	}

	util.Success(ctx, progress)
}

func pagination(ctx *gin.Context) (int, int) {
	page := 1
	limit := 10
	if p, err := strconv.Atoi(ctx.Query("page")); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(ctx.Query("limit")); err == nil && l > 0 && l <= 100 {
		limit = l
	}
	return page, limit
}
