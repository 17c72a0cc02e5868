package model

import (
	"time"
)

type DependencyType string

const (
	DependencyAll DependencyType = "ALL"
	DependencyAny DependencyType = "ANY"
)

// Task 任务定义可在多个活动间复用，归属关系见 CampaignTask
type Task struct {
	BaseModel
	Name        string    `gorm:"size:255;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	StartAt     time.Time `gorm:"index" json:"startAt"`
	EndAt       time.Time `gorm:"index" json:"endAt"`
	IsActive    bool      `gorm:"default:true" json:"isActive"`

	Achievements []Achievement `gorm:"foreignKey:TaskID" json:"achievements,omitempty"`
}

func (Task) TableName() string {
	return "tasks"
}

// ActiveAt 任务自身窗口是否开放；提交还要求所在活动同时开放
func (t *Task) ActiveAt(now time.Time) bool {
	return t.IsActive && !now.Before(t.StartAt) && !now.After(t.EndAt)
}

// CampaignTask 活动-任务关联表
type CampaignTask struct {
	BaseModel
	CampaignID uint `gorm:"uniqueIndex:uniq_campaign_task,priority:1" json:"campaignId"`
	TaskID     uint `gorm:"uniqueIndex:uniq_campaign_task,priority:2;index" json:"taskId"`
	Order      int  `gorm:"default:0" json:"order"`
}

func (CampaignTask) TableName() string {
	return "campaign_tasks"
}

// TaskDependency 解锁依赖边，类型逐边存储
// ALL 边全部满足且 ANY 边至少满足一条时任务解锁
type TaskDependency struct {
	BaseModel
	TaskID          uint           `gorm:"uniqueIndex:uniq_task_dep,priority:1" json:"taskId"`
	DependsOnTaskID uint           `gorm:"uniqueIndex:uniq_task_dep,priority:2" json:"dependsOnTaskId"`
	DependencyType  DependencyType `gorm:"size:10;not null;default:'ALL'" json:"dependencyType"`
}

func (TaskDependency) TableName() string {
	return "task_dependencies"
}

// Achievement 任务下的计分子奖励
type Achievement struct {
	BaseModel
	TaskID uint   `gorm:"index;not null" json:"taskId"`
	Name   string `gorm:"size:100;not null" json:"name"`
	Icon   string `gorm:"size:255" json:"icon"`
	Points int    `gorm:"default:0" json:"points"`
	Order  int    `gorm:"default:0" json:"order"`
}

func (Achievement) TableName() string {
	return "achievements"
}
