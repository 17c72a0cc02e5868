package model

// AchievementAward 成就发放的持久记录，只插入不更新不删除
// uniq_achievement_award 唯一索引是"同一参与者同一成就至多记一次"的
// 最终保证，并发复审竞争到的重复插入在存储层被拒绝
type AchievementAward struct {
	BaseModel
	AchievementID   uint            `gorm:"uniqueIndex:uniq_achievement_award,priority:1" json:"achievementId"`
	ParticipantKind ParticipantKind `gorm:"size:10;uniqueIndex:uniq_achievement_award,priority:2" json:"participantKind"`
	ParticipantID   uint            `gorm:"index;uniqueIndex:uniq_achievement_award,priority:3" json:"participantId"`
	CampaignID      uint            `gorm:"index" json:"campaignId"`
	TaskID          uint            `gorm:"index" json:"taskId"`
	SubmissionID    string          `gorm:"size:36;index" json:"submissionId"`
	// Points 发放时点值快照，排行榜按此聚合，后续改定义不影响已发放记录
	Points int `gorm:"not null" json:"points"`
}

func (AchievementAward) TableName() string {
	return "achievement_awards"
}
