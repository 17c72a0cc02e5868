package repository

import (
	"questline_backend/internal/model"

	"gorm.io/gorm"
)

type ParticipationRepository struct {
	DB *gorm.DB
}

func NewParticipationRepository(db *gorm.DB) *ParticipationRepository {
	return &ParticipationRepository{DB: db}
}

func (r *ParticipationRepository) Create(tx *gorm.DB, p *model.Participation) error {
	if tx == nil {
		tx = r.DB
	}
	return tx.Create(p).Error
}

func (r *ParticipationRepository) Find(campaignID uint, kind model.ParticipantKind, participantID uint) (*model.Participation, error) {
	var p model.Participation
	err := r.DB.Where("campaign_id = ? AND participant_kind = ? AND participant_id = ?",
		campaignID, kind, participantID).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ParticipationRepository) Exists(campaignID uint, kind model.ParticipantKind, participantID uint) (bool, error) {
	var count int64
	err := r.DB.Model(&model.Participation{}).
		Where("campaign_id = ? AND participant_kind = ? AND participant_id = ?",
			campaignID, kind, participantID).
		Count(&count).Error
	return count > 0, err
}

func (r *ParticipationRepository) CountByCampaign(tx *gorm.DB, campaignID uint) (int64, error) {
	if tx == nil {
		tx = r.DB
	}
	var count int64
	err := tx.Model(&model.Participation{}).
		Where("campaign_id = ?", campaignID).
		Count(&count).Error
	return count, err
}

func (r *ParticipationRepository) ListByCampaign(campaignID uint, kind model.ParticipantKind) ([]model.Participation, error) {
	var list []model.Participation
	err := r.DB.Where("campaign_id = ? AND participant_kind = ?", campaignID, kind).
		Order("participant_id asc").
		Find(&list).Error
	return list, err
}

// AddPoints 累计参与记录的积分与完成数，必须在奖励事务内调用
func (r *ParticipationRepository) AddPoints(tx *gorm.DB, campaignID uint, kind model.ParticipantKind, participantID uint, points, completedDelta int) error {
	result := tx.Model(&model.Participation{}).
		Where("campaign_id = ? AND participant_kind = ? AND participant_id = ?",
			campaignID, kind, participantID).
		Updates(map[string]interface{}{
			"total_points":    gorm.Expr("total_points + ?", points),
			"completed_count": gorm.Expr("completed_count + ?", completedDelta),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
