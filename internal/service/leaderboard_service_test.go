package service

import (
	"context"
	"questline_backend/internal/model"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// grantAward 以受控时间直插一条发放记录，构造排序场景
func (e *testEnv) grantAward(t *testing.T, campaignID uint, kind model.ParticipantKind, participantID, achievementID uint, points int, at time.Time) {
	t.Helper()
	award := &model.AchievementAward{
		AchievementID:   achievementID,
		ParticipantKind: kind,
		ParticipantID:   participantID,
		CampaignID:      campaignID,
		Points:          points,
	}
	award.CreatedAt = at
	require.NoError(t, e.db.Create(award).Error)
}

func TestLeaderboard_OrderByPoints(t *testing.T) {
	env := newTestEnv(t)
	campaign := env.makeCampaign(t, nil)
	for _, id := range []uint{1, 2, 3} {
		env.enroll(t, campaign.ID, model.ParticipantUser, id)
	}

	env.grantAward(t, campaign.ID, model.ParticipantUser, 1, 101, 50, fixedNow)
	env.grantAward(t, campaign.ID, model.ParticipantUser, 2, 102, 120, fixedNow)
	env.grantAward(t, campaign.ID, model.ParticipantUser, 3, 103, 80, fixedNow)

	entries, err := env.leaderboard.Rank(context.Background(), campaign.ID, model.ParticipantUser)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, uint(2), entries[0].ParticipantID)
	assert.Equal(t, uint(3), entries[1].ParticipantID)
	assert.Equal(t, uint(1), entries[2].ParticipantID)
	assert.Equal(t, []int{1, 2, 3}, []int{entries[0].Rank, entries[1].Rank, entries[2].Rank})
}

func TestLeaderboard_TieBrokenByEarliestToReach(t *testing.T) {
	env := newTestEnv(t)
	campaign := env.makeCampaign(t, nil)
	env.enroll(t, campaign.ID, model.ParticipantUser, 1)
	env.enroll(t, campaign.ID, model.ParticipantUser, 2)

	// 两人同为 120 分，2 号先到达，排在前面
	env.grantAward(t, campaign.ID, model.ParticipantUser, 2, 201, 120, fixedNow.Add(-2*time.Hour))
	env.grantAward(t, campaign.ID, model.ParticipantUser, 1, 202, 120, fixedNow.Add(-1*time.Hour))

	entries, err := env.leaderboard.Rank(context.Background(), campaign.ID, model.ParticipantUser)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, uint(2), entries[0].ParticipantID)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, uint(1), entries[1].ParticipantID)
	assert.Equal(t, 2, entries[1].Rank, "ranks stay contiguous on ties")
}

func TestLeaderboard_FullTieFallsBackToParticipantID(t *testing.T) {
	env := newTestEnv(t)
	campaign := env.makeCampaign(t, nil)
	env.enroll(t, campaign.ID, model.ParticipantUser, 7)
	env.enroll(t, campaign.ID, model.ParticipantUser, 3)

	at := fixedNow.Add(-time.Hour)
	env.grantAward(t, campaign.ID, model.ParticipantUser, 7, 301, 60, at)
	env.grantAward(t, campaign.ID, model.ParticipantUser, 3, 302, 60, at)

	entries, err := env.leaderboard.Rank(context.Background(), campaign.ID, model.ParticipantUser)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, uint(3), entries[0].ParticipantID)
	assert.Equal(t, uint(7), entries[1].ParticipantID)
}

func TestLeaderboard_Deterministic(t *testing.T) {
	env := newTestEnv(t)
	campaign := env.makeCampaign(t, nil)
	for _, id := range []uint{1, 2, 3, 4} {
		env.enroll(t, campaign.ID, model.ParticipantUser, id)
		env.grantAward(t, campaign.ID, model.ParticipantUser, id, 400+id, 40, fixedNow)
	}

	first, err := env.leaderboard.Rank(context.Background(), campaign.ID, model.ParticipantUser)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := env.leaderboard.Rank(context.Background(), campaign.ID, model.ParticipantUser)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestLeaderboard_ZeroPointParticipantsIncluded(t *testing.T) {
	env := newTestEnv(t)
	campaign := env.makeCampaign(t, nil)
	env.enroll(t, campaign.ID, model.ParticipantUser, 1)
	env.enroll(t, campaign.ID, model.ParticipantUser, 2)

	env.grantAward(t, campaign.ID, model.ParticipantUser, 1, 501, 10, fixedNow)

	entries, err := env.leaderboard.Rank(context.Background(), campaign.ID, model.ParticipantUser)
	require.NoError(t, err)
	require.Len(t, entries, 2, "enrolled but scoreless participants still ranked")
	assert.Equal(t, uint(2), entries[1].ParticipantID)
	assert.Zero(t, entries[1].TotalPoints)
}

func TestPodium(t *testing.T) {
	env := newTestEnv(t)
	campaign := env.makeCampaign(t, nil)
	for _, id := range []uint{1, 2, 3, 4, 5} {
		env.enroll(t, campaign.ID, model.ParticipantUser, id)
		env.grantAward(t, campaign.ID, model.ParticipantUser, id, 600+id, int(id)*10, fixedNow)
	}

	podium, err := env.leaderboard.Podium(context.Background(), campaign.ID, model.ParticipantUser)
	require.NoError(t, err)
	require.Len(t, podium, 3)
	assert.Equal(t, uint(5), podium[0].ParticipantID)
	assert.Equal(t, uint(4), podium[1].ParticipantID)
	assert.Equal(t, uint(3), podium[2].ParticipantID)
}

func TestLeaderboard_TeamIncludesMemberDerivedPoints(t *testing.T) {
	env := newTestEnv(t)
	campaign := env.makeCampaign(t, nil)

	member := &model.User{Name: "队员", Email: "member@example.com", Password: "x"}
	require.NoError(t, env.users.Create(member))
	team := &model.Team{Name: "融合测试队", CaptainID: member.ID}
	require.NoError(t, env.teams.Create(team))
	require.NoError(t, env.teams.AddMember(&model.TeamMember{TeamID: team.ID, UserID: member.ID}))

	env.enroll(t, campaign.ID, model.ParticipantTeam, team.ID)

	// 战队名义 30 分 + 成员个人 20 分
	env.grantAward(t, campaign.ID, model.ParticipantTeam, team.ID, 701, 30, fixedNow)
	env.grantAward(t, campaign.ID, model.ParticipantUser, member.ID, 702, 20, fixedNow)

	entries, err := env.leaderboard.Rank(context.Background(), campaign.ID, model.ParticipantTeam)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, team.ID, entries[0].ParticipantID)
	assert.Equal(t, 50, entries[0].TotalPoints)
}

func TestLeaderboard_CompletedCounts(t *testing.T) {
	env := newTestEnv(t)
	campaign := env.makeCampaign(t, nil)
	taskA := env.makeTask(t, campaign.ID)
	taskB := env.makeTask(t, campaign.ID)
	env.enroll(t, campaign.ID, model.ParticipantUser, 1)

	env.approveTask(t, campaign.ID, taskA.ID, model.ParticipantUser, 1)
	env.approveTask(t, campaign.ID, taskB.ID, model.ParticipantUser, 1)
	// 同一任务的重复通过不抬高完成数
	env.approveTask(t, campaign.ID, taskA.ID, model.ParticipantUser, 1)

	entries, err := env.leaderboard.Rank(context.Background(), campaign.ID, model.ParticipantUser)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 2, entries[0].TasksCompleted)
}
