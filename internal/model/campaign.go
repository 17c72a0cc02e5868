package model

import (
	"time"
)

// Campaign 活动：由管理员创建，任务通过 campaign_tasks 关联
// 存在参与记录时只允许软停用，不做物理删除
type Campaign struct {
	BaseModel
	Name            string    `gorm:"size:255;not null" json:"name"`
	Description     string    `gorm:"type:text" json:"description"`
	StartAt         time.Time `gorm:"index" json:"startAt"`
	EndAt           time.Time `gorm:"index" json:"endAt"`
	IsActive        bool      `gorm:"default:true" json:"isActive"`
	MaxParticipants *int      `json:"maxParticipants,omitempty"`
	// RewardSchedule 名次区间 -> 奖励描述，引擎不解释内容，原样存取
	RewardSchedule string `gorm:"type:text" json:"rewardSchedule"`
	// DisqualifyPolicy 违规处理说明，仅供人工评审参考
	DisqualifyPolicy string `gorm:"type:text" json:"disqualifyPolicy"`
}

func (Campaign) TableName() string {
	return "campaigns"
}

// JoinableAt 活动在给定时刻是否可报名/可提交
func (c *Campaign) JoinableAt(now time.Time) bool {
	return c.IsActive && !now.Before(c.StartAt) && !now.After(c.EndAt)
}
