package repository

import (
	"questline_backend/internal/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AwardRepository struct {
	DB *gorm.DB
}

func NewAwardRepository(db *gorm.DB) *AwardRepository {
	return &AwardRepository{DB: db}
}

// InsertIgnore 发放一条成就记录，唯一索引冲突时静默跳过
// 返回是否真正插入，这是"同一成就至多记一次"的单一判定点
func (r *AwardRepository) InsertIgnore(tx *gorm.DB, award *model.AchievementAward) (bool, error) {
	if tx == nil {
		tx = r.DB
	}
	result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(award)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// AwardTotal 排行榜聚合行：累计分值与达到该分值的最后一笔发放时间
type AwardTotal struct {
	ParticipantID uint
	TotalPoints   int
	LastAwardAt   time.Time
}

// TotalsByCampaign 按参与者聚合活动内的发放明细。
// 时间列不走 SQL 聚合函数，表达式列会丢失类型信息，按明细行取回后
// 在内存中归并，单个活动的发放量有限。
func (r *AwardRepository) TotalsByCampaign(campaignID uint, kind model.ParticipantKind) ([]AwardTotal, error) {
	var rows []awardRow
	err := r.DB.Model(&model.AchievementAward{}).
		Select("participant_id as key_id, points, created_at").
		Where("campaign_id = ? AND participant_kind = ?", campaignID, kind).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return mergeTotals(rows), nil
}

// TeamDerivedTotals 由成员个人发放明细推导的战队聚合，
// 战队榜 = 直接以战队身份的发放 + 成员个人发放映射到所属战队
func (r *AwardRepository) TeamDerivedTotals(campaignID uint) ([]AwardTotal, error) {
	var rows []awardRow
	err := r.DB.Model(&model.AchievementAward{}).
		Select("team_members.team_id as key_id, achievement_awards.points as points, achievement_awards.created_at as created_at").
		Joins("JOIN team_members ON team_members.user_id = achievement_awards.participant_id AND team_members.deleted_at IS NULL").
		Where("achievement_awards.campaign_id = ? AND achievement_awards.participant_kind = ?",
			campaignID, model.ParticipantUser).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return mergeTotals(rows), nil
}

type awardRow struct {
	KeyID     uint
	Points    int
	CreatedAt time.Time
}

func mergeTotals(rows []awardRow) []AwardTotal {
	byID := make(map[uint]*AwardTotal)
	order := make([]uint, 0)
	for _, row := range rows {
		t, ok := byID[row.KeyID]
		if !ok {
			t = &AwardTotal{ParticipantID: row.KeyID}
			byID[row.KeyID] = t
			order = append(order, row.KeyID)
		}
		t.TotalPoints += row.Points
		if row.CreatedAt.After(t.LastAwardAt) {
			t.LastAwardAt = row.CreatedAt
		}
	}
	totals := make([]AwardTotal, 0, len(order))
	for _, key := range order {
		totals = append(totals, *byID[key])
	}
	return totals
}

// SumByParticipant 参与者在活动内累计分值，进度查询的推导口径
func (r *AwardRepository) SumByParticipant(campaignID uint, kind model.ParticipantKind, participantID uint) (int, error) {
	var total *int
	err := r.DB.Model(&model.AchievementAward{}).
		Where("campaign_id = ? AND participant_kind = ? AND participant_id = ?",
			campaignID, kind, participantID).
		Select("SUM(points)").
		Scan(&total).Error
	if err != nil || total == nil {
		return 0, err
	}
	return *total, nil
}
