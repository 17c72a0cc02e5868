package service

import (
	"questline_backend/internal/model"
	"questline_backend/internal/repository"
)

// UnlockService 任务解锁判定
//
// 只看直接依赖（单层语义，不做传递闭包展开）：ALL 边需全部有
// 通过记录，ANY 边至少一条有通过记录，两组条件相互独立、同时
// 成立才解锁。指向不存在任务的边天然无通过记录，视为不可满足。
// 判定不递归，依赖图即使被管理侧写坏成环也不会在这里死循环。
type UnlockService struct {
	TaskRepo       *repository.TaskRepository
	SubmissionRepo *repository.SubmissionRepository
}

func NewUnlockService(taskRepo *repository.TaskRepository, submissionRepo *repository.SubmissionRepository) *UnlockService {
	return &UnlockService{
		TaskRepo:       taskRepo,
		SubmissionRepo: submissionRepo,
	}
}

func (s *UnlockService) IsUnlocked(kind model.ParticipantKind, participantID, taskID uint) (bool, error) {
	deps, err := s.TaskRepo.FindDependencies(taskID)
	if err != nil {
		return false, err
	}
	if len(deps) == 0 {
		return true, nil
	}

	depIDs := make([]uint, 0, len(deps))
	for _, d := range deps {
		depIDs = append(depIDs, d.DependsOnTaskID)
	}
	approved, err := s.SubmissionRepo.ApprovedTaskIDSet(kind, participantID, depIDs)
	if err != nil {
		return false, err
	}

	return satisfied(deps, approved), nil
}

// ListUnlockedTaskIDs 活动内当前已解锁的任务，批量取依赖避免 N+1
func (s *UnlockService) ListUnlockedTaskIDs(campaignID uint, kind model.ParticipantKind, participantID uint) ([]uint, error) {
	taskIDs, err := s.TaskRepo.TaskIDsByCampaign(campaignID)
	if err != nil {
		return nil, err
	}
	if len(taskIDs) == 0 {
		return nil, nil
	}

	deps, err := s.TaskRepo.FindDependenciesForTasks(taskIDs)
	if err != nil {
		return nil, err
	}

	depsByTask := make(map[uint][]model.TaskDependency)
	referenced := make(map[uint]bool)
	for _, d := range deps {
		depsByTask[d.TaskID] = append(depsByTask[d.TaskID], d)
		referenced[d.DependsOnTaskID] = true
	}

	refIDs := make([]uint, 0, len(referenced))
	for id := range referenced {
		refIDs = append(refIDs, id)
	}
	approved, err := s.SubmissionRepo.ApprovedTaskIDSet(kind, participantID, refIDs)
	if err != nil {
		return nil, err
	}

	unlocked := make([]uint, 0, len(taskIDs))
	for _, taskID := range taskIDs {
		if satisfied(depsByTask[taskID], approved) {
			unlocked = append(unlocked, taskID)
		}
	}
	return unlocked, nil
}

func satisfied(deps []model.TaskDependency, approved map[uint]bool) bool {
	anySeen := false
	anyMet := false
	for _, d := range deps {
		switch d.DependencyType {
		case model.DependencyAny:
			anySeen = true
			if approved[d.DependsOnTaskID] {
				anyMet = true
			}
		default:
			// ALL 边（含历史数据中缺省类型的边）逐条要求满足
			if !approved[d.DependsOnTaskID] {
				return false
			}
		}
	}
	if anySeen && !anyMet {
		return false
	}
	return true
}
