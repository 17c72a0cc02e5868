package service

import (
	"context"
	"errors"
	"net/url"
	"questline_backend/internal/config"
	"questline_backend/internal/model"
	"questline_backend/internal/repository"
	"questline_backend/internal/util"
	"strings"
	"time"

	"gorm.io/gorm"
)

type ReviewDecision string

const (
	DecisionApprove ReviewDecision = "APPROVE"
	DecisionReject  ReviewDecision = "REJECT"
)

// SubmissionService 凭证提交的生命周期
//
// PENDING -> APPROVED 为终态；PENDING -> REJECTED 后允许对同一任务
// 另起新提交，被驳回的记录保留审计。前置检查与插入之间的竞争由
// 存储层唯一索引收口，见 model.Submission。
type SubmissionService struct {
	CampaignRepo      *repository.CampaignRepository
	TaskRepo          *repository.TaskRepository
	ParticipationRepo *repository.ParticipationRepository
	SubmissionRepo    *repository.SubmissionRepository
	Unlock            *UnlockService
	Award             *AwardService
	Leaderboard       *LeaderboardService
	Notifier          Notifier
	DB                *gorm.DB
	Cfg               *config.Config

	Now func() time.Time
}

func NewSubmissionService(
	campaignRepo *repository.CampaignRepository,
	taskRepo *repository.TaskRepository,
	participationRepo *repository.ParticipationRepository,
	submissionRepo *repository.SubmissionRepository,
	unlock *UnlockService,
	award *AwardService,
	leaderboard *LeaderboardService,
	notifier Notifier,
	db *gorm.DB,
	cfg *config.Config,
) *SubmissionService {
	return &SubmissionService{
		CampaignRepo:      campaignRepo,
		TaskRepo:          taskRepo,
		ParticipationRepo: participationRepo,
		SubmissionRepo:    submissionRepo,
		Unlock:            unlock,
		Award:             award,
		Leaderboard:       leaderboard,
		Notifier:          notifier,
		DB:                db,
		Cfg:               cfg,
	}
}

type SubmissionRequest struct {
	CampaignID uint            `json:"campaignId" binding:"required"`
	TaskID     uint            `json:"taskId" binding:"required"`
	ProofType  model.ProofType `json:"proofType" binding:"required"`
	ProofRef   string          `json:"proofRef"`
	Notes      string          `json:"notes"`
}

// Create 新建待审提交。文件类凭证要求调用层先完成上传，这里只
// 接受存储引用；外部上传失败时不会产生半截提交记录。
func (s *SubmissionService) Create(kind model.ParticipantKind, participantID, submitterID uint, req SubmissionRequest) (*model.Submission, error) {
	if err := s.validateProof(req.ProofType, req.ProofRef); err != nil {
		return nil, err
	}

	campaign, err := s.CampaignRepo.FindByID(req.CampaignID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCampaignNotFound
		}
		return nil, err
	}

	now := s.now()
	if !campaign.JoinableAt(now) {
		return nil, util.NotEligiblef("campaign %d is not active", req.CampaignID)
	}

	belongs, err := s.TaskRepo.BelongsToCampaign(req.CampaignID, req.TaskID)
	if err != nil {
		return nil, err
	}
	if !belongs {
		return nil, util.ErrTaskNotFound
	}
	task, err := s.TaskRepo.FindByID(req.TaskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrTaskNotFound
		}
		return nil, err
	}
	if !task.ActiveAt(now) {
		return nil, util.NotEligiblef("task %d is outside its active window", req.TaskID)
	}

	enrolled, err := s.ParticipationRepo.Exists(req.CampaignID, kind, participantID)
	if err != nil {
		return nil, err
	}
	if !enrolled {
		return nil, util.NotEligiblef("not enrolled in campaign %d", req.CampaignID)
	}

	unlocked, err := s.Unlock.IsUnlocked(kind, participantID, req.TaskID)
	if err != nil {
		return nil, err
	}
	if !unlocked {
		return nil, util.NotEligiblef("task %d is still locked", req.TaskID)
	}

	active := true
	submission := &model.Submission{
		TaskID:          req.TaskID,
		CampaignID:      req.CampaignID,
		ParticipantKind: kind,
		ParticipantID:   participantID,
		SubmitterID:     submitterID,
		ProofType:       req.ProofType,
		ProofRef:        strings.TrimSpace(req.ProofRef),
		Notes:           req.Notes,
		Status:          model.SubmissionPending,
		ActiveFlag:      &active,
	}
	if err := s.SubmissionRepo.Create(submission); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, util.NotEligiblef("a pending submission already exists for task %d", req.TaskID)
		}
		return nil, err
	}

	return submission, nil
}

// Review 审核落定。通过时在同一事务里执行积分发放并回填
// earned_points；已落定的提交再次审核返回冲突而不是幂等成功。
func (s *SubmissionService) Review(reviewerID uint, submissionID string, decision ReviewDecision, feedback string) (*model.Submission, error) {
	var status model.SubmissionStatus
	switch decision {
	case DecisionApprove:
		status = model.SubmissionApproved
	case DecisionReject:
		status = model.SubmissionRejected
	default:
		return nil, util.Validationf("decision must be APPROVE or REJECT")
	}

	var (
		reviewed     *model.Submission
		credited     int
		newlyAwarded []model.Achievement
	)

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		submission, err := s.SubmissionRepo.FindByID(tx, submissionID)
		if err != nil {
			return err
		}
		if submission.Terminal() {
			return util.Conflictf("submission %s already reviewed", submissionID)
		}

		ok, err := s.SubmissionRepo.MarkReviewed(tx, submissionID, status, reviewerID, feedback, s.now())
		if err != nil {
			return err
		}
		if !ok {
			// 并发复审输掉竞争，等同已落定
			return util.Conflictf("submission %s already reviewed", submissionID)
		}

		if status == model.SubmissionApproved {
			credited, newlyAwarded, err = s.Award.AwardForApprovedSubmission(tx, submission)
			if err != nil {
				return err
			}
			if err := s.SubmissionRepo.SetEarnedPoints(tx, submissionID, credited); err != nil {
				return err
			}
		}

		reviewed = submission
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterReview(reviewed, status, credited, newlyAwarded)

	return s.SubmissionRepo.FindByID(nil, submissionID)
}

// afterReview 事务提交后的旁路动作：事件投递与榜单缓存失效，
// 二者失败都不影响已提交的业务状态
func (s *SubmissionService) afterReview(submission *model.Submission, status model.SubmissionStatus, credited int, newlyAwarded []model.Achievement) {
	ctx := context.Background()

	if s.Leaderboard != nil && status == model.SubmissionApproved {
		s.Leaderboard.Invalidate(ctx, submission.CampaignID)
	}

	if s.Notifier == nil {
		return
	}

	s.Notifier.Publish(ctx, Event{
		Type:            EventSubmissionReviewed,
		ParticipantKind: submission.ParticipantKind,
		ParticipantID:   submission.ParticipantID,
		Payload: map[string]interface{}{
			"submissionId": submission.ID,
			"taskId":       submission.TaskID,
			"campaignId":   submission.CampaignID,
			"status":       status,
			"earnedPoints": credited,
		},
	})

	for _, a := range newlyAwarded {
		s.Notifier.Publish(ctx, Event{
			Type:            EventAchievementAwarded,
			ParticipantKind: submission.ParticipantKind,
			ParticipantID:   submission.ParticipantID,
			Payload: map[string]interface{}{
				"achievementId": a.ID,
				"name":          a.Name,
				"points":        a.Points,
				"campaignId":    submission.CampaignID,
			},
		})
	}
}

func (s *SubmissionService) ListMine(campaignID uint, kind model.ParticipantKind, participantID uint) ([]model.Submission, error) {
	return s.SubmissionRepo.ListByParticipant(campaignID, kind, participantID)
}

func (s *SubmissionService) PendingQueue(campaignID uint, page, limit int) ([]model.Submission, int64, error) {
	return s.SubmissionRepo.ListPendingByCampaign(campaignID, page, limit)
}

func (s *SubmissionService) validateProof(proofType model.ProofType, proofRef string) error {
	trimmed := strings.TrimSpace(proofRef)
	switch proofType {
	case model.ProofImage, model.ProofAudio:
		if trimmed == "" {
			return util.Validationf("%s proof requires an uploaded file reference", proofType)
		}
	case model.ProofURL:
		u, err := url.Parse(trimmed)
		if err != nil || !u.IsAbs() || u.Host == "" {
			return util.Validationf("URL proof must be a valid absolute URL")
		}
	case model.ProofText:
		minLen := 10
		if s.Cfg != nil && s.Cfg.Proof.TextMinLength > 0 {
			minLen = s.Cfg.Proof.TextMinLength
		}
		if len([]rune(trimmed)) < minLen {
			return util.Validationf("text proof must be at least %d characters", minLen)
		}
	default:
		return util.Validationf("unknown proof type %q", proofType)
	}
	return nil
}

func (s *SubmissionService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
