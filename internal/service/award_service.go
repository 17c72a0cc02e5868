package service

import (
	"errors"
	"questline_backend/internal/model"
	"questline_backend/internal/repository"

	"gorm.io/gorm"
)

// AwardService 审核通过后的积分发放
//
// 只允许在审核事务内调用：发放明细、提交状态迁移、参与记录的
// 计数器更新要么全部落库要么全部回滚，不存在部分记账的中间态。
type AwardService struct {
	TaskRepo          *repository.TaskRepository
	AwardRepo         *repository.AwardRepository
	ParticipationRepo *repository.ParticipationRepository
	SubmissionRepo    *repository.SubmissionRepository
	TeamRepo          *repository.TeamRepository
}

func NewAwardService(
	taskRepo *repository.TaskRepository,
	awardRepo *repository.AwardRepository,
	participationRepo *repository.ParticipationRepository,
	submissionRepo *repository.SubmissionRepository,
	teamRepo *repository.TeamRepository,
) *AwardService {
	return &AwardService{
		TaskRepo:          taskRepo,
		AwardRepo:         awardRepo,
		ParticipationRepo: participationRepo,
		SubmissionRepo:    submissionRepo,
		TeamRepo:          teamRepo,
	}
}

// AwardForApprovedSubmission 逐个成就尝试插入发放记录，唯一索引
// 冲突的跳过不计分，返回本次真正新增的分值与成就明细。
// 计数器更新顺序固定：先参与者本人，再其所属战队。
func (s *AwardService) AwardForApprovedSubmission(tx *gorm.DB, submission *model.Submission) (int, []model.Achievement, error) {
	achievements, err := s.TaskRepo.AchievementsByTask(tx, submission.TaskID)
	if err != nil {
		return 0, nil, err
	}

	credited := 0
	var newlyAwarded []model.Achievement
	for _, a := range achievements {
		inserted, err := s.AwardRepo.InsertIgnore(tx, &model.AchievementAward{
			AchievementID:   a.ID,
			ParticipantKind: submission.ParticipantKind,
			ParticipantID:   submission.ParticipantID,
			CampaignID:      submission.CampaignID,
			TaskID:          submission.TaskID,
			SubmissionID:    submission.ID,
			Points:          a.Points,
		})
		if err != nil {
			return 0, nil, err
		}
		if inserted {
			credited += a.Points
			newlyAwarded = append(newlyAwarded, a)
		}
	}

	// 首次通过该任务才推进完成数，纠错性复提的再次通过不重复计
	priorApproved, err := s.SubmissionRepo.CountApprovedForTask(
		tx, submission.TaskID, submission.ParticipantKind, submission.ParticipantID, submission.ID)
	if err != nil {
		return 0, nil, err
	}
	completedDelta := 0
	if priorApproved == 0 {
		completedDelta = 1
	}

	if credited == 0 && completedDelta == 0 {
		return 0, newlyAwarded, nil
	}

	err = s.ParticipationRepo.AddPoints(tx,
		submission.CampaignID, submission.ParticipantKind, submission.ParticipantID,
		credited, completedDelta)
	if err != nil {
		return 0, nil, err
	}

	if submission.ParticipantKind == model.ParticipantUser {
		if err := s.creditTeam(tx, submission, credited, completedDelta); err != nil {
			return 0, nil, err
		}
	}

	return credited, newlyAwarded, nil
}

// creditTeam 参与者所属战队也报名了同一活动时，同事务内累计战队聚合
func (s *AwardService) creditTeam(tx *gorm.DB, submission *model.Submission, credited, completedDelta int) error {
	member, err := s.TeamRepo.FindMemberByUser(submission.ParticipantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	var count int64
	err = tx.Model(&model.Participation{}).
		Where("campaign_id = ? AND participant_kind = ? AND participant_id = ?",
			submission.CampaignID, model.ParticipantTeam, member.TeamID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count == 0 {
		return nil
	}

	return s.ParticipationRepo.AddPoints(tx,
		submission.CampaignID, model.ParticipantTeam, member.TeamID,
		credited, completedDelta)
}
