package model

// Participation 活动参与记录，(campaign, kind, participant) 唯一
// TotalPoints / CompletedCount 为跟随奖励事务更新的累计值，
// 排行榜不依赖它们，始终可由奖励明细重新推导
type Participation struct {
	BaseModel
	CampaignID      uint            `gorm:"uniqueIndex:uniq_participation,priority:1" json:"campaignId"`
	ParticipantKind ParticipantKind `gorm:"size:10;uniqueIndex:uniq_participation,priority:2" json:"participantKind"`
	ParticipantID   uint            `gorm:"uniqueIndex:uniq_participation,priority:3" json:"participantId"`
	TotalPoints     int             `gorm:"default:0" json:"totalPoints"`
	CompletedCount  int             `gorm:"default:0" json:"completedCount"`
}

func (Participation) TableName() string {
	return "participations"
}
