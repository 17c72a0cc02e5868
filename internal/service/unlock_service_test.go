package service

import (
	"questline_backend/internal/model"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnlock_NoDependencies(t *testing.T) {
	env := newTestEnv(t)
	campaign := env.makeCampaign(t, nil)
	task := env.makeTask(t, campaign.ID)

	unlocked, err := env.unlock.IsUnlocked(model.ParticipantUser, 1, task.ID)
	require.NoError(t, err)
	assert.True(t, unlocked)
}

func TestUnlock_AllDependencies(t *testing.T) {
	env := newTestEnv(t)
	campaign := env.makeCampaign(t, nil)
	depA := env.makeTask(t, campaign.ID)
	depB := env.makeTask(t, campaign.ID)
	target := env.makeTask(t, campaign.ID)

	require.NoError(t, env.tasks.AddDependency(&model.TaskDependency{
		TaskID: target.ID, DependsOnTaskID: depA.ID, DependencyType: model.DependencyAll,
	}))
	require.NoError(t, env.tasks.AddDependency(&model.TaskDependency{
		TaskID: target.ID, DependsOnTaskID: depB.ID, DependencyType: model.DependencyAll,
	}))

	unlocked, err := env.unlock.IsUnlocked(model.ParticipantUser, 1, target.ID)
	require.NoError(t, err)
	assert.False(t, unlocked, "no dependency approved yet")

	env.approveTask(t, campaign.ID, depA.ID, model.ParticipantUser, 1)
	unlocked, err = env.unlock.IsUnlocked(model.ParticipantUser, 1, target.ID)
	require.NoError(t, err)
	assert.False(t, unlocked, "one of two ALL dependencies approved")

	env.approveTask(t, campaign.ID, depB.ID, model.ParticipantUser, 1)
	unlocked, err = env.unlock.IsUnlocked(model.ParticipantUser, 1, target.ID)
	require.NoError(t, err)
	assert.True(t, unlocked)
}

func TestUnlock_AnyDependencies(t *testing.T) {
	env := newTestEnv(t)
	campaign := env.makeCampaign(t, nil)
	depA := env.makeTask(t, campaign.ID)
	depB := env.makeTask(t, campaign.ID)
	target := env.makeTask(t, campaign.ID)

	require.NoError(t, env.tasks.AddDependency(&model.TaskDependency{
		TaskID: target.ID, DependsOnTaskID: depA.ID, DependencyType: model.DependencyAny,
	}))
	require.NoError(t, env.tasks.AddDependency(&model.TaskDependency{
		TaskID: target.ID, DependsOnTaskID: depB.ID, DependencyType: model.DependencyAny,
	}))

	unlocked, err := env.unlock.IsUnlocked(model.ParticipantUser, 1, target.ID)
	require.NoError(t, err)
	assert.False(t, unlocked)

	env.approveTask(t, campaign.ID, depB.ID, model.ParticipantUser, 1)
	unlocked, err = env.unlock.IsUnlocked(model.ParticipantUser, 1, target.ID)
	require.NoError(t, err)
	assert.True(t, unlocked, "a single ANY dependency suffices")
}

func TestUnlock_MixedAllAndAny(t *testing.T) {
	env := newTestEnv(t)
	campaign := env.makeCampaign(t, nil)
	must := env.makeTask(t, campaign.ID)
	optA := env.makeTask(t, campaign.ID)
	optB := env.makeTask(t, campaign.ID)
	target := env.makeTask(t, campaign.ID)

	require.NoError(t, env.tasks.AddDependency(&model.TaskDependency{
		TaskID: target.ID, DependsOnTaskID: must.ID, DependencyType: model.DependencyAll,
	}))
	require.NoError(t, env.tasks.AddDependency(&model.TaskDependency{
		TaskID: target.ID, DependsOnTaskID: optA.ID, DependencyType: model.DependencyAny,
	}))
	require.NoError(t, env.tasks.AddDependency(&model.TaskDependency{
		TaskID: target.ID, DependsOnTaskID: optB.ID, DependencyType: model.DependencyAny,
	}))

	// 仅 ANY 满足，ALL 边未满足
	env.approveTask(t, campaign.ID, optA.ID, model.ParticipantUser, 1)
	unlocked, err := env.unlock.IsUnlocked(model.ParticipantUser, 1, target.ID)
	require.NoError(t, err)
	assert.False(t, unlocked)

	// 两组同时成立才解锁
	env.approveTask(t, campaign.ID, must.ID, model.ParticipantUser, 1)
	unlocked, err = env.unlock.IsUnlocked(model.ParticipantUser, 1, target.ID)
	require.NoError(t, err)
	assert.True(t, unlocked)
}

func TestUnlock_MissingDependencyTarget(t *testing.T) {
	env := newTestEnv(t)
	campaign := env.makeCampaign(t, nil)
	target := env.makeTask(t, campaign.ID)

	// 指向不存在任务的边永远没有通过记录
	require.NoError(t, env.db.Create(&model.TaskDependency{
		TaskID: target.ID, DependsOnTaskID: 99999, DependencyType: model.DependencyAll,
	}).Error)

	unlocked, err := env.unlock.IsUnlocked(model.ParticipantUser, 1, target.ID)
	require.NoError(t, err)
	assert.False(t, unlocked)
}

func TestUnlock_PerParticipantIsolation(t *testing.T) {
	env := newTestEnv(t)
	campaign := env.makeCampaign(t, nil)
	dep := env.makeTask(t, campaign.ID)
	target := env.makeTask(t, campaign.ID)

	require.NoError(t, env.tasks.AddDependency(&model.TaskDependency{
		TaskID: target.ID, DependsOnTaskID: dep.ID, DependencyType: model.DependencyAll,
	}))

	env.approveTask(t, campaign.ID, dep.ID, model.ParticipantUser, 1)

	unlocked, err := env.unlock.IsUnlocked(model.ParticipantUser, 1, target.ID)
	require.NoError(t, err)
	assert.True(t, unlocked)

	unlocked, err = env.unlock.IsUnlocked(model.ParticipantUser, 2, target.ID)
	require.NoError(t, err)
	assert.False(t, unlocked, "another participant's approval must not unlock")

	unlocked, err = env.unlock.IsUnlocked(model.ParticipantTeam, 1, target.ID)
	require.NoError(t, err)
	assert.False(t, unlocked, "team with same numeric id is a different participant")
}

func TestListUnlockedTaskIDs(t *testing.T) {
	env := newTestEnv(t)
	campaign := env.makeCampaign(t, nil)
	free := env.makeTask(t, campaign.ID)
	dep := env.makeTask(t, campaign.ID)
	gated := env.makeTask(t, campaign.ID)

	require.NoError(t, env.tasks.AddDependency(&model.TaskDependency{
		TaskID: gated.ID, DependsOnTaskID: dep.ID, DependencyType: model.DependencyAll,
	}))

	ids, err := env.unlock.ListUnlockedTaskIDs(campaign.ID, model.ParticipantUser, 1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{free.ID, dep.ID}, ids)

	env.approveTask(t, campaign.ID, dep.ID, model.ParticipantUser, 1)
	ids, err = env.unlock.ListUnlockedTaskIDs(campaign.ID, model.ParticipantUser, 1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{free.ID, dep.ID, gated.ID}, ids)
}
