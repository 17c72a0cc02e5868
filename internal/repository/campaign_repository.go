package repository

import (
	"questline_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type CampaignRepository struct {
	DB *gorm.DB
}

func NewCampaignRepository(db *gorm.DB) *CampaignRepository {
	return &CampaignRepository{DB: db}
}

func (r *CampaignRepository) Create(campaign *model.Campaign) error {
	return r.DB.Create(campaign).Error
}

func (r *CampaignRepository) FindByID(id uint) (*model.Campaign, error) {
	var campaign model.Campaign
	err := r.DB.First(&campaign, id).Error
	if err != nil {
		return nil, err
	}
	return &campaign, nil
}

// Deactivate 软停用：存在参与记录的活动不做物理删除
func (r *CampaignRepository) Deactivate(id uint) error {
	result := r.DB.Model(&model.Campaign{}).
		Where("id = ?", id).
		Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *CampaignRepository) ListOngoing(now time.Time, page, limit int) ([]model.Campaign, int64, error) {
	var campaigns []model.Campaign
	var total int64

	query := r.DB.Model(&model.Campaign{}).
		Where("is_active = ? AND start_at <= ? AND end_at >= ?", true, now, now)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := query.Order("end_at asc").Offset(offset).Limit(limit).Find(&campaigns).Error
	return campaigns, total, err
}

func (r *CampaignRepository) ListAll(page, limit int) ([]model.Campaign, int64, error) {
	var campaigns []model.Campaign
	var total int64

	query := r.DB.Model(&model.Campaign{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := query.Order("start_at desc").Offset(offset).Limit(limit).Find(&campaigns).Error
	return campaigns, total, err
}
