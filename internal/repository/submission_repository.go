package repository

import (
	"questline_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type SubmissionRepository struct {
	DB *gorm.DB
}

func NewSubmissionRepository(db *gorm.DB) *SubmissionRepository {
	return &SubmissionRepository{DB: db}
}

func (r *SubmissionRepository) Create(submission *model.Submission) error {
	return r.DB.Create(submission).Error
}

func (r *SubmissionRepository) FindByID(tx *gorm.DB, id string) (*model.Submission, error) {
	if tx == nil {
		tx = r.DB
	}
	var submission model.Submission
	err := tx.Where("id = ?", id).First(&submission).Error
	if err != nil {
		return nil, err
	}
	return &submission, nil
}

// MarkReviewed 守护式状态迁移：只有仍处于 PENDING 的行可以落定，
// 并发复审竞争时只有一方的 UPDATE 生效，RowsAffected 为 0 表示输掉竞争
func (r *SubmissionRepository) MarkReviewed(tx *gorm.DB, id string, status model.SubmissionStatus, reviewerID uint, feedback string, reviewedAt time.Time) (bool, error) {
	result := tx.Model(&model.Submission{}).
		Where("id = ? AND status = ?", id, model.SubmissionPending).
		Updates(map[string]interface{}{
			"status":            status,
			"active_flag":       nil,
			"reviewer_id":       reviewerID,
			"reviewer_feedback": feedback,
			"reviewed_at":       reviewedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *SubmissionRepository) SetEarnedPoints(tx *gorm.DB, id string, points int) error {
	return tx.Model(&model.Submission{}).
		Where("id = ?", id).
		Update("earned_points", points).Error
}

// ApprovedTaskIDSet 参与者在给定任务集合内已有通过记录的任务
func (r *SubmissionRepository) ApprovedTaskIDSet(kind model.ParticipantKind, participantID uint, taskIDs []uint) (map[uint]bool, error) {
	set := make(map[uint]bool)
	if len(taskIDs) == 0 {
		return set, nil
	}
	var ids []uint
	err := r.DB.Model(&model.Submission{}).
		Where("participant_kind = ? AND participant_id = ? AND status = ? AND task_id IN ?",
			kind, participantID, model.SubmissionApproved, taskIDs).
		Distinct().
		Pluck("task_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

// CountApprovedForTask 参与者在该任务上的通过提交数；在奖励事务内
// 用于判断本次通过是否首次完成该任务
func (r *SubmissionRepository) CountApprovedForTask(tx *gorm.DB, taskID uint, kind model.ParticipantKind, participantID uint, excludeID string) (int64, error) {
	if tx == nil {
		tx = r.DB
	}
	var count int64
	err := tx.Model(&model.Submission{}).
		Where("task_id = ? AND participant_kind = ? AND participant_id = ? AND status = ? AND id <> ?",
			taskID, kind, participantID, model.SubmissionApproved, excludeID).
		Count(&count).Error
	return count, err
}

func (r *SubmissionRepository) ListByParticipant(campaignID uint, kind model.ParticipantKind, participantID uint) ([]model.Submission, error) {
	var submissions []model.Submission
	err := r.DB.Where("campaign_id = ? AND participant_kind = ? AND participant_id = ?",
		campaignID, kind, participantID).
		Order("created_at desc").
		Find(&submissions).Error
	return submissions, err
}

func (r *SubmissionRepository) ListPendingByCampaign(campaignID uint, page, limit int) ([]model.Submission, int64, error) {
	var submissions []model.Submission
	var total int64

	query := r.DB.Model(&model.Submission{}).
		Where("campaign_id = ? AND status = ?", campaignID, model.SubmissionPending)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := query.Order("created_at asc").Offset(offset).Limit(limit).Find(&submissions).Error
	return submissions, total, err
}

// CompletedCounts 活动内各参与者通过的去重任务数，排行榜只读聚合
func (r *SubmissionRepository) CompletedCounts(campaignID uint, kind model.ParticipantKind) (map[uint]int, error) {
	type row struct {
		ParticipantID uint
		Cnt           int
	}
	var rows []row
	err := r.DB.Model(&model.Submission{}).
		Select("participant_id, COUNT(DISTINCT task_id) as cnt").
		Where("campaign_id = ? AND participant_kind = ? AND status = ?",
			campaignID, kind, model.SubmissionApproved).
		Group("participant_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[uint]int, len(rows))
	for _, r := range rows {
		counts[r.ParticipantID] = r.Cnt
	}
	return counts, nil
}
