package service

import (
	"questline_backend/internal/model"
	"questline_backend/internal/util"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) makeUser(t *testing.T, email string) *model.User {
	t.Helper()
	user := &model.User{Name: "用户", Email: email, Password: "hashed"}
	require.NoError(t, e.users.Create(user))
	return user
}

func TestCreateTeam_CaptainAutoJoins(t *testing.T) {
	env := newTestEnv(t)
	teamSvc := NewTeamService(env.teams, env.users)
	captain := env.makeUser(t, "captain@example.com")

	team, err := teamSvc.CreateTeam(captain.ID, TeamRequest{Name: "稳赢队"})
	require.NoError(t, err)
	assert.Equal(t, captain.ID, team.CaptainID)

	_, members, err := teamSvc.GetTeam(team.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, captain.ID, members[0].UserID)

	fresh, err := env.users.FindByID(captain.ID)
	require.NoError(t, err)
	require.NotNil(t, fresh.TeamID)
	assert.Equal(t, team.ID, *fresh.TeamID)
}

func TestCreateTeam_AlreadyInTeam(t *testing.T) {
	env := newTestEnv(t)
	teamSvc := NewTeamService(env.teams, env.users)
	captain := env.makeUser(t, "busy@example.com")

	_, err := teamSvc.CreateTeam(captain.ID, TeamRequest{Name: "第一个队"})
	require.NoError(t, err)

	_, err = teamSvc.CreateTeam(captain.ID, TeamRequest{Name: "第二个队"})
	require.Error(t, err)
	assert.True(t, util.IsConflict(err))
}

func TestJoinTeam(t *testing.T) {
	env := newTestEnv(t)
	teamSvc := NewTeamService(env.teams, env.users)
	captain := env.makeUser(t, "lead@example.com")
	member := env.makeUser(t, "member@example.com")

	team, err := teamSvc.CreateTeam(captain.ID, TeamRequest{Name: "招人中"})
	require.NoError(t, err)

	require.NoError(t, teamSvc.JoinTeam(member.ID, team.ID))

	err = teamSvc.JoinTeam(member.ID, team.ID)
	require.Error(t, err)
	assert.True(t, util.IsConflict(err), "one team per user")

	err = teamSvc.JoinTeam(member.ID, 999)
	assert.ErrorIs(t, err, util.ErrTeamNotFound)
}
