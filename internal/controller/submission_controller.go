package controller

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"questline_backend/internal/config"
	"questline_backend/internal/model"
	"questline_backend/internal/service"
	"questline_backend/internal/util"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type SubmissionController struct {
	SubmissionService *service.SubmissionService
	StorageService    *service.StorageService
	TeamService       *service.TeamService
	Cfg               *config.Config
}

func NewSubmissionController(
	submissionService *service.SubmissionService,
	storageService *service.StorageService,
	teamService *service.TeamService,
	cfg *config.Config,
) *SubmissionController {
	return &SubmissionController{
		SubmissionService: submissionService,
		StorageService:    storageService,
		TeamService:       teamService,
		Cfg:               cfg,
	}
}

// @Summary 上传凭证文件
// @Description 图片或音频凭证先上传换取存储引用，再携带引用创建提交
// @Tags 提交
// @Accept multipart/form-data
// @Produce json
// @Security ApiKeyAuth
// @Param file formData file true "凭证文件"
// @Param kind formData string true "文件类别 image/audio"
// @Success 200 {object} util.Response
// @Router /submissions/proof [post]
func (c *SubmissionController) UploadProof(ctx *gin.Context) {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "file is required")
		return
	}

	maxSize := int64(c.Cfg.Proof.MaxFileSizeMB) << 20
	if fileHeader.Size > maxSize {
		util.BadRequest(ctx, fmt.Sprintf("file exceeds %dMB limit", c.Cfg.Proof.MaxFileSizeMB))
		return
	}

	kind := strings.ToLower(ctx.PostForm("kind"))
	var allowed []string
	var allowedExt []string
	switch kind {
	case "image":
		allowed = []string{util.MimeImage}
		allowedExt = util.AllowedImageExtensions
	case "audio":
		// m4a/flac 探测结果常为 octet-stream，真伪交给 ffprobe 兜底
		allowed = []string{util.MimeAudio, util.MimeOgg, util.MimeOctetStream}
		allowedExt = util.AllowedAudioExtensions
	default:
		util.BadRequest(ctx, "kind must be image or audio")
		return
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !extAllowed(ext, allowedExt) {
		util.BadRequest(ctx, "unsupported file extension "+ext)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer file.Close()

	mimeType, err := util.ValidateMimeType(file, allowed)
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	// 音频需要先落盘探测时长，超长的直接拒收
	if kind == "audio" {
		tmp, err := os.CreateTemp("", "proof-*"+ext)
		if err != nil {
			util.LogInternalError(ctx, err)
			return
		}
		defer os.Remove(tmp.Name())

		if _, err := io.Copy(tmp, file); err != nil {
			tmp.Close()
			util.LogInternalError(ctx, err)
			return
		}
		tmp.Close()

		info, err := util.GetAudioInfo(tmp.Name())
		if err != nil {
			util.BadRequest(ctx, "unable to read audio metadata")
			return
		}
		if info.Duration > float64(c.Cfg.Proof.AudioMaxDurationSec) {
			util.BadRequest(ctx, fmt.Sprintf("audio exceeds %d second limit", c.Cfg.Proof.AudioMaxDurationSec))
			return
		}
		if _, err := file.Seek(0, io.SeekStart); err != nil {
			util.LogInternalError(ctx, err)
			return
		}
	}

	filename := fmt.Sprintf("proofs/%s/%s%s", time.Now().Format("20060102"), uuid.New().String(), ext)
	ref, err := c.StorageService.Upload(ctx.Request.Context(), filename, file, fileHeader.Size, mimeType)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"proofRef": ref,
		"mimeType": mimeType,
		"size":     fileHeader.Size,
	})
}

// @Summary 创建提交
// @Description 同一任务同一参与者同时只允许一条待审提交
// @Tags 提交
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param asTeam query bool false "以战队身份提交"
// @Param data body service.SubmissionRequest true "提交内容"
// @Success 201 {object} util.Response
// @Router /submissions [post]
func (c *SubmissionController) CreateSubmission(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	kind, participantID := resolveParticipant(ctx, user)
	if kind == "" {
		return
	}

	var req service.SubmissionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	submission, err := c.SubmissionService.Create(kind, participantID, user.UserID, req)
	if err != nil {
		util.ServiceError(ctx, err)
		return
	}

	util.Created(ctx, submission)
}

// @Summary 审核提交
// @Description 通过或驳回一条待审提交，终态不可再改
// @Tags 审核
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "提交ID"
// @Param data body controller.ReviewRequest true "审核结论"
// @Success 200 {object} util.Response
// @Router /review/submissions/{id} [post]
func (c *SubmissionController) ReviewSubmission(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req ReviewRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	submission, err := c.SubmissionService.Review(user.UserID, ctx.Param("id"), req.Decision, req.Feedback)
	if err != nil {
		util.ServiceError(ctx, err)
		return
	}

	util.Success(ctx, submission)
}

type ReviewRequest struct {
	Decision service.ReviewDecision `json:"decision" binding:"required,oneof=APPROVE REJECT"`
	Feedback string                 `json:"feedback"`
}

// @Summary 我的提交记录
// @Tags 提交
// @Produce json
// @Security ApiKeyAuth
// @Param campaignId query int true "活动ID"
// @Param asTeam query bool false "以战队身份查询"
// @Success 200 {object} util.Response
// @Router /submissions [get]
func (c *SubmissionController) ListMySubmissions(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	kind, participantID := resolveParticipant(ctx, user)
	if kind == "" {
		return
	}

	campaignID := util.MustParseUint(ctx.Query("campaignId"))
	submissions, err := c.SubmissionService.ListMine(campaignID, kind, participantID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, submissions)
}

// @Summary 待审队列
// @Tags 审核
// @Produce json
// @Security ApiKeyAuth
// @Param campaignId query int true "活动ID"
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(10)
// @Success 200 {object} util.Response
// @Router /review/queue [get]
func (c *SubmissionController) PendingQueue(ctx *gin.Context) {
	campaignID := util.MustParseUint(ctx.Query("campaignId"))
	page, limit := pagination(ctx)

	submissions, total, err := c.SubmissionService.PendingQueue(campaignID, page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{
		List:  submissions,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

// resolveParticipant 解析提交/查询身份，队内任意成员都可代表战队。
// 返回空 kind 表示已写出错误响应。
func resolveParticipant(ctx *gin.Context, user *util.Claims) (model.ParticipantKind, uint) {
	if ctx.Query("asTeam") != "true" {
		return model.ParticipantUser, user.UserID
	}
	if user.TeamID == nil {
		util.BadRequest(ctx, "not a member of any team")
		return "", 0
	}
	return model.ParticipantTeam, *user.TeamID
}

func extAllowed(ext string, allowed []string) bool {
	for _, a := range allowed {
		if ext == a {
			return true
		}
	}
	return false
}
