package model

import (
	"time"
)

type UserRole string

const (
	Participant UserRole = "participant"
	Reviewer    UserRole = "reviewer"
	Admin       UserRole = "admin"
)

// swagger:model User
type User struct {
	BaseModel
	Name      string    `gorm:"size:100;not null" json:"Name"`
	Email     string    `gorm:"size:100;unique;not null" json:"Email"`
	Password  string    `gorm:"size:100;not null" json:"-"`
	Role      UserRole  `gorm:"size:20;default:'participant'" json:"Role"`
	Avatar    string    `gorm:"size:255" json:"avatar"`
	Disabled  bool      `gorm:"default:false" json:"Disabled"`
	TeamID    *uint     `gorm:"index" json:"teamId,omitempty"`
	LastLogin time.Time `json:"LastLogin"`
}

func (User) TableName() string {
	return "users"
}

// Team 战队：可整体报名活动并累计队伍积分
type Team struct {
	BaseModel
	Name      string `gorm:"size:100;unique;not null" json:"name"`
	CaptainID uint   `gorm:"index" json:"captainId"`
	Avatar    string `gorm:"size:255" json:"avatar"`
}

func (Team) TableName() string {
	return "teams"
}

// TeamMember 战队成员关系，一个用户同一时间只属于一个战队
type TeamMember struct {
	BaseModel
	TeamID uint `gorm:"index" json:"teamId"`
	UserID uint `gorm:"uniqueIndex" json:"userId"`
}

func (TeamMember) TableName() string {
	return "team_members"
}
