package service

import (
	"errors"
	"questline_backend/internal/model"
	"questline_backend/internal/repository"
	"questline_backend/internal/util"
	"time"

	"gorm.io/gorm"
)

// CatalogService 活动/任务/成就/依赖的管理侧定义维护，
// 引擎只读目录数据，全部变更都经由这里
type CatalogService struct {
	CampaignRepo *repository.CampaignRepository
	TaskRepo     *repository.TaskRepository
}

func NewCatalogService(campaignRepo *repository.CampaignRepository, taskRepo *repository.TaskRepository) *CatalogService {
	return &CatalogService{
		CampaignRepo: campaignRepo,
		TaskRepo:     taskRepo,
	}
}

type CampaignRequest struct {
	Name             string    `json:"name" binding:"required"`
	Description      string    `json:"description"`
	StartAt          time.Time `json:"startAt" binding:"required"`
	EndAt            time.Time `json:"endAt" binding:"required"`
	MaxParticipants  *int      `json:"maxParticipants"`
	RewardSchedule   string    `json:"rewardSchedule"`
	DisqualifyPolicy string    `json:"disqualifyPolicy"`
}

func (s *CatalogService) CreateCampaign(req CampaignRequest) (*model.Campaign, error) {
	if !req.EndAt.After(req.StartAt) {
		return nil, util.Validationf("campaign end must be after start")
	}
	if req.MaxParticipants != nil && *req.MaxParticipants <= 0 {
		return nil, util.Validationf("maxParticipants must be positive")
	}

	campaign := &model.Campaign{
		Name:             req.Name,
		Description:      req.Description,
		StartAt:          req.StartAt,
		EndAt:            req.EndAt,
		IsActive:         true,
		MaxParticipants:  req.MaxParticipants,
		RewardSchedule:   req.RewardSchedule,
		DisqualifyPolicy: req.DisqualifyPolicy,
	}
	if err := s.CampaignRepo.Create(campaign); err != nil {
		return nil, err
	}
	return campaign, nil
}

func (s *CatalogService) DeactivateCampaign(campaignID uint) error {
	return s.CampaignRepo.Deactivate(campaignID)
}

// CampaignDetail 活动详情及其任务清单（含成就定义）
type CampaignDetail struct {
	Campaign *model.Campaign `json:"campaign"`
	Tasks    []model.Task    `json:"tasks"`
}

func (s *CatalogService) GetCampaign(campaignID uint) (*CampaignDetail, error) {
	campaign, err := s.CampaignRepo.FindByID(campaignID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCampaignNotFound
		}
		return nil, err
	}
	tasks, err := s.TaskRepo.ListByCampaign(campaignID)
	if err != nil {
		return nil, err
	}
	return &CampaignDetail{Campaign: campaign, Tasks: tasks}, nil
}

func (s *CatalogService) ListOngoingCampaigns(now time.Time, page, limit int) ([]model.Campaign, int64, error) {
	return s.CampaignRepo.ListOngoing(now, page, limit)
}

func (s *CatalogService) ListAllCampaigns(page, limit int) ([]model.Campaign, int64, error) {
	return s.CampaignRepo.ListAll(page, limit)
}

type TaskRequest struct {
	Name        string    `json:"name" binding:"required"`
	Description string    `json:"description"`
	StartAt     time.Time `json:"startAt" binding:"required"`
	EndAt       time.Time `json:"endAt" binding:"required"`
	CampaignID  uint      `json:"campaignId" binding:"required"`
	Order       int       `json:"order"`
}

// CreateTask 创建任务并挂入活动；任务窗口与活动窗口独立存在，
// 提交时要求两者同时开放
func (s *CatalogService) CreateTask(req TaskRequest) (*model.Task, error) {
	if !req.EndAt.After(req.StartAt) {
		return nil, util.Validationf("task end must be after start")
	}
	if _, err := s.CampaignRepo.FindByID(req.CampaignID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCampaignNotFound
		}
		return nil, err
	}

	task := &model.Task{
		Name:        req.Name,
		Description: req.Description,
		StartAt:     req.StartAt,
		EndAt:       req.EndAt,
		IsActive:    true,
	}
	if err := s.TaskRepo.Create(task); err != nil {
		return nil, err
	}
	if err := s.TaskRepo.AttachToCampaign(req.CampaignID, task.ID, req.Order); err != nil {
		return nil, err
	}
	return task, nil
}

// AttachTask 将既有任务定义复用到另一个活动
func (s *CatalogService) AttachTask(campaignID, taskID uint, order int) error {
	if _, err := s.CampaignRepo.FindByID(campaignID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrCampaignNotFound
		}
		return err
	}
	if _, err := s.TaskRepo.FindByID(taskID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrTaskNotFound
		}
		return err
	}
	if err := s.TaskRepo.AttachToCampaign(campaignID, taskID, order); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return util.Conflictf("task %d already attached to campaign %d", taskID, campaignID)
		}
		return err
	}
	return nil
}

type DependencyRequest struct {
	TaskID          uint                 `json:"taskId" binding:"required"`
	DependsOnTaskID uint                 `json:"dependsOnTaskId" binding:"required"`
	DependencyType  model.DependencyType `json:"dependencyType" binding:"required"`
}

// AddDependency 新增解锁依赖边。图的无环性是管理侧职责，
// 这里拦截自环与直接反向边，解析器本身对残留的环是安全的
func (s *CatalogService) AddDependency(req DependencyRequest) error {
	if req.DependencyType != model.DependencyAll && req.DependencyType != model.DependencyAny {
		return util.Validationf("dependencyType must be ALL or ANY")
	}
	if req.TaskID == req.DependsOnTaskID {
		return util.Validationf("task cannot depend on itself")
	}
	if _, err := s.TaskRepo.FindByID(req.TaskID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrTaskNotFound
		}
		return err
	}
	reverse, err := s.TaskRepo.HasDependency(req.DependsOnTaskID, req.TaskID)
	if err != nil {
		return err
	}
	if reverse {
		return util.Conflictf("reverse dependency already exists between %d and %d",
			req.TaskID, req.DependsOnTaskID)
	}

	err = s.TaskRepo.AddDependency(&model.TaskDependency{
		TaskID:          req.TaskID,
		DependsOnTaskID: req.DependsOnTaskID,
		DependencyType:  req.DependencyType,
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return util.Conflictf("dependency edge already exists")
	}
	return err
}

type AchievementRequest struct {
	TaskID uint   `json:"taskId" binding:"required"`
	Name   string `json:"name" binding:"required"`
	Icon   string `json:"icon"`
	Points int    `json:"points"`
	Order  int    `json:"order"`
}

func (s *CatalogService) AddAchievement(req AchievementRequest) (*model.Achievement, error) {
	if req.Points < 0 {
		return nil, util.Validationf("points must be >= 0")
	}
	if _, err := s.TaskRepo.FindByID(req.TaskID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrTaskNotFound
		}
		return nil, err
	}

	achievement := &model.Achievement{
		TaskID: req.TaskID,
		Name:   req.Name,
		Icon:   req.Icon,
		Points: req.Points,
		Order:  req.Order,
	}
	if err := s.TaskRepo.AddAchievement(achievement); err != nil {
		return nil, err
	}
	return achievement, nil
}
