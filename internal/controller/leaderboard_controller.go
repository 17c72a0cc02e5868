package controller

import (
	"questline_backend/internal/model"
	"questline_backend/internal/service"
	"questline_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type LeaderboardController struct {
	LeaderboardService *service.LeaderboardService
}

func NewLeaderboardController(leaderboardService *service.LeaderboardService) *LeaderboardController {
	return &LeaderboardController{LeaderboardService: leaderboardService}
}

func scopeKind(ctx *gin.Context) (model.ParticipantKind, bool) {
	switch ctx.DefaultQuery("scope", "user") {
	case "user":
		return model.ParticipantUser, true
	case "team":
		return model.ParticipantTeam, true
	default:
		util.BadRequest(ctx, "scope must be user or team")
		return "", false
	}
}

// @Summary 活动排行榜
// @Description 按累计积分降序，同分者先到先排
// @Tags 排行榜
// @Produce json
// @Param id path int true "活动ID"
// @Param scope query string false "user 或 team" default(user)
// @Success 200 {object} util.Response
// @Router /campaigns/{id}/leaderboard [get]
func (c *LeaderboardController) GetLeaderboard(ctx *gin.Context) {
	kind, ok := scopeKind(ctx)
	if !ok {
		return
	}

	campaignID := util.MustParseUint(ctx.Param("id"))
	entries, err := c.LeaderboardService.Rank(ctx.Request.Context(), campaignID, kind)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, entries)
}

// @Summary 领奖台
// @Description 排行榜前三名
// @Tags 排行榜
// @Produce json
// @Param id path int true "活动ID"
// @Param scope query string false "user 或 team" default(user)
// @Success 200 {object} util.Response
// @Router /campaigns/{id}/podium [get]
func (c *LeaderboardController) GetPodium(ctx *gin.Context) {
	kind, ok := scopeKind(ctx)
	if !ok {
		return
	}

	campaignID := util.MustParseUint(ctx.Param("id"))
	entries, err := c.LeaderboardService.Podium(ctx.Request.Context(), campaignID, kind)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, entries)
}
