package service

import (
	"errors"
	"questline_backend/internal/model"
	"questline_backend/internal/repository"
	"questline_backend/internal/util"
	"time"

	"gorm.io/gorm"
)

// EnrollmentService 活动报名与进度查询
type EnrollmentService struct {
	CampaignRepo      *repository.CampaignRepository
	TaskRepo          *repository.TaskRepository
	ParticipationRepo *repository.ParticipationRepository
	TeamRepo          *repository.TeamRepository
	DB                *gorm.DB

	// Now 可注入时钟，窗口判定不直接读系统时间
	Now func() time.Time
}

func NewEnrollmentService(
	campaignRepo *repository.CampaignRepository,
	taskRepo *repository.TaskRepository,
	participationRepo *repository.ParticipationRepository,
	teamRepo *repository.TeamRepository,
	db *gorm.DB,
) *EnrollmentService {
	return &EnrollmentService{
		CampaignRepo:      campaignRepo,
		TaskRepo:          taskRepo,
		ParticipationRepo: participationRepo,
		TeamRepo:          teamRepo,
		DB:                db,
		Now:               time.Now,
	}
}

// Join 报名活动。活动开始后仍可加入，但要求活动开放、未满员、未重复报名。
// 人数上限的检查与插入在同一事务内完成，重复报名由唯一索引兜底。
func (s *EnrollmentService) Join(campaignID uint, kind model.ParticipantKind, participantID uint) (*model.Participation, error) {
	campaign, err := s.CampaignRepo.FindByID(campaignID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCampaignNotFound
		}
		return nil, err
	}

	now := s.Now()
	if !campaign.JoinableAt(now) {
		return nil, util.NotEligiblef("campaign %d is not open for joining", campaignID)
	}

	if kind == model.ParticipantTeam {
		if _, err := s.TeamRepo.FindByID(participantID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, util.ErrTeamNotFound
			}
			return nil, err
		}
	}

	participation := &model.Participation{
		CampaignID:      campaignID,
		ParticipantKind: kind,
		ParticipantID:   participantID,
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if campaign.MaxParticipants != nil {
			count, err := s.ParticipationRepo.CountByCampaign(tx, campaignID)
			if err != nil {
				return err
			}
			if count >= int64(*campaign.MaxParticipants) {
				return util.NotEligiblef("campaign %d is full", campaignID)
			}
		}
		return s.ParticipationRepo.Create(tx, participation)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, util.Conflictf("already joined campaign %d", campaignID)
		}
		return nil, err
	}

	return participation, nil
}

type Progress struct {
	EarnedPoints   int `json:"earnedPoints"`
	TotalPoints    int `json:"totalPoints"`
	CompletedCount int `json:"completedCount"`
	TotalTasks     int `json:"totalTasks"`
}

// GetProgress 参与者在活动内的进度，累计值来自参与记录的计数器
func (s *EnrollmentService) GetProgress(campaignID uint, kind model.ParticipantKind, participantID uint) (*Progress, error) {
	participation, err := s.ParticipationRepo.Find(campaignID, kind, participantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.NotEligiblef("not enrolled in campaign %d", campaignID)
		}
		return nil, err
	}

	taskIDs, err := s.TaskRepo.TaskIDsByCampaign(campaignID)
	if err != nil {
		return nil, err
	}
	totalPoints, err := s.TaskRepo.TotalPointsByCampaign(campaignID)
	if err != nil {
		return nil, err
	}

	return &Progress{
		EarnedPoints:   participation.TotalPoints,
		TotalPoints:    totalPoints,
		CompletedCount: participation.CompletedCount,
		TotalTasks:     len(taskIDs),
	}, nil
}
