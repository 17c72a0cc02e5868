package controller

import (
	"questline_backend/internal/service"
	"questline_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type TeamController struct {
	TeamService *service.TeamService
}

func NewTeamController(teamService *service.TeamService) *TeamController {
	return &TeamController{TeamService: teamService}
}

// @Summary 创建战队
// @Tags 战队
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param team body service.TeamRequest true "战队信息"
// @Success 201 {object} util.Response
// @Router /teams [post]
func (c *TeamController) CreateTeam(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.TeamRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	team, err := c.TeamService.CreateTeam(user.UserID, req)
	if err != nil {
		util.ServiceError(ctx, err)
		return
	}

	util.Created(ctx, team)
}

// @Summary 加入战队
// @Tags 战队
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "战队ID"
// @Success 200 {object} util.Response
// @Router /teams/{id}/join [post]
func (c *TeamController) JoinTeam(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	teamID := util.MustParseUint(ctx.Param("id"))
	if err := c.TeamService.JoinTeam(user.UserID, teamID); err != nil {
		util.ServiceError(ctx, err)
		return
	}

	util.Success(ctx, nil)
}

// @Summary 战队详情
// @Tags 战队
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "战队ID"
// @Success 200 {object} util.Response
// @Router /teams/{id} [get]
func (c *TeamController) GetTeam(ctx *gin.Context) {
	teamID := util.MustParseUint(ctx.Param("id"))
	team, members, err := c.TeamService.GetTeam(teamID)
	if err != nil {
		util.ServiceError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"team": team, "members": members})
}
