package repository

import (
	"questline_backend/internal/model"

	"gorm.io/gorm"
)

type TaskRepository struct {
	DB *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{DB: db}
}

func (r *TaskRepository) Create(task *model.Task) error {
	return r.DB.Create(task).Error
}

func (r *TaskRepository) FindByID(id uint) (*model.Task, error) {
	var task model.Task
	err := r.DB.Preload("Achievements", func(db *gorm.DB) *gorm.DB {
		return db.Order("achievements.`order` asc, achievements.id asc")
	}).First(&task, id).Error
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// AttachToCampaign 将任务挂入活动，任务定义可被多个活动复用
func (r *TaskRepository) AttachToCampaign(campaignID, taskID uint, order int) error {
	return r.DB.Create(&model.CampaignTask{
		CampaignID: campaignID,
		TaskID:     taskID,
		Order:      order,
	}).Error
}

func (r *TaskRepository) BelongsToCampaign(campaignID, taskID uint) (bool, error) {
	var count int64
	err := r.DB.Model(&model.CampaignTask{}).
		Where("campaign_id = ? AND task_id = ?", campaignID, taskID).
		Count(&count).Error
	return count > 0, err
}

func (r *TaskRepository) ListByCampaign(campaignID uint) ([]model.Task, error) {
	var tasks []model.Task
	err := r.DB.
		Joins("JOIN campaign_tasks ON campaign_tasks.task_id = tasks.id").
		Where("campaign_tasks.campaign_id = ? AND campaign_tasks.deleted_at IS NULL", campaignID).
		Order("campaign_tasks.`order` asc, tasks.id asc").
		Preload("Achievements").
		Find(&tasks).Error
	return tasks, err
}

func (r *TaskRepository) TaskIDsByCampaign(campaignID uint) ([]uint, error) {
	var ids []uint
	err := r.DB.Model(&model.CampaignTask{}).
		Where("campaign_id = ?", campaignID).
		Pluck("task_id", &ids).Error
	return ids, err
}

// AddDependency 新增解锁依赖边；解析器对环是安全的，这里仅做
// 直接自环/反向边的写入时拦截，作为管理侧的兜底
func (r *TaskRepository) AddDependency(dep *model.TaskDependency) error {
	return r.DB.Create(dep).Error
}

func (r *TaskRepository) FindDependencies(taskID uint) ([]model.TaskDependency, error) {
	var deps []model.TaskDependency
	err := r.DB.Where("task_id = ?", taskID).Find(&deps).Error
	return deps, err
}

func (r *TaskRepository) FindDependenciesForTasks(taskIDs []uint) ([]model.TaskDependency, error) {
	var deps []model.TaskDependency
	if len(taskIDs) == 0 {
		return deps, nil
	}
	err := r.DB.Where("task_id IN ?", taskIDs).Find(&deps).Error
	return deps, err
}

func (r *TaskRepository) HasDependency(taskID, dependsOnTaskID uint) (bool, error) {
	var count int64
	err := r.DB.Model(&model.TaskDependency{}).
		Where("task_id = ? AND depends_on_task_id = ?", taskID, dependsOnTaskID).
		Count(&count).Error
	return count > 0, err
}

func (r *TaskRepository) AddAchievement(achievement *model.Achievement) error {
	return r.DB.Create(achievement).Error
}

func (r *TaskRepository) AchievementsByTask(tx *gorm.DB, taskID uint) ([]model.Achievement, error) {
	if tx == nil {
		tx = r.DB
	}
	var achievements []model.Achievement
	err := tx.Where("task_id = ?", taskID).
		Order("`order` asc, id asc").
		Find(&achievements).Error
	return achievements, err
}

// TotalPointsByCampaign 活动内全部任务成就分值之和
func (r *TaskRepository) TotalPointsByCampaign(campaignID uint) (int, error) {
	var total *int
	err := r.DB.Model(&model.Achievement{}).
		Joins("JOIN campaign_tasks ON campaign_tasks.task_id = achievements.task_id").
		Where("campaign_tasks.campaign_id = ? AND campaign_tasks.deleted_at IS NULL", campaignID).
		Select("SUM(achievements.points)").
		Scan(&total).Error
	if err != nil || total == nil {
		return 0, err
	}
	return *total, nil
}
