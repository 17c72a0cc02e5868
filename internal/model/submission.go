package model

import (
	"time"
)

type ProofType string

const (
	ProofImage ProofType = "IMAGE"
	ProofAudio ProofType = "AUDIO"
	ProofURL   ProofType = "URL"
	ProofText  ProofType = "TEXT"
)

type SubmissionStatus string

const (
	SubmissionPending  SubmissionStatus = "PENDING"
	SubmissionApproved SubmissionStatus = "APPROVED"
	SubmissionRejected SubmissionStatus = "REJECTED"
)

// Submission 任务完成凭证
//
// ActiveFlag 仅在 PENDING 状态下为非空，配合 uniq_pending_submission
// 唯一索引在存储层保证同一 (task, participant) 最多一条待审提交；
// 审核落定后置空，历史记录保留用于审计，驳回后可另起新提交。
type Submission struct {
	UUIDBase
	TaskID          uint            `gorm:"index;uniqueIndex:uniq_pending_submission,priority:1" json:"taskId"`
	CampaignID      uint            `gorm:"index" json:"campaignId"`
	ParticipantKind ParticipantKind `gorm:"size:10;uniqueIndex:uniq_pending_submission,priority:2" json:"participantKind"`
	ParticipantID   uint            `gorm:"index;uniqueIndex:uniq_pending_submission,priority:3" json:"participantId"`
	SubmitterID     uint            `gorm:"index" json:"submitterId"`

	ProofType ProofType `gorm:"size:10;not null" json:"proofType"`
	ProofRef  string    `gorm:"size:2048;not null" json:"proofRef"`
	Notes     string    `gorm:"type:text" json:"notes,omitempty"`

	Status           SubmissionStatus `gorm:"size:10;index;default:'PENDING'" json:"status"`
	ActiveFlag       *bool            `gorm:"uniqueIndex:uniq_pending_submission,priority:4" json:"-"`
	ReviewerID       *uint            `json:"reviewerId,omitempty"`
	ReviewerFeedback string           `gorm:"type:text" json:"reviewerFeedback,omitempty"`
	EarnedPoints     *int             `json:"earnedPoints,omitempty"`
	ReviewedAt       *time.Time       `json:"reviewedAt,omitempty"`
}

func (Submission) TableName() string {
	return "submissions"
}

func (s *Submission) Terminal() bool {
	return s.Status == SubmissionApproved || s.Status == SubmissionRejected
}
