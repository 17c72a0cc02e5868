package service

import (
	"questline_backend/internal/config"
	"questline_backend/internal/model"
	"questline_backend/internal/repository"
	"questline_backend/pkg/database"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newTestDB 每个用例独立的内存库。单连接串行化访问，
// 让并发用例也共享同一个内存实例。
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.AutoMigrate(db))
	return db
}

type testEnv struct {
	db          *gorm.DB
	campaigns   *repository.CampaignRepository
	tasks       *repository.TaskRepository
	parts       *repository.ParticipationRepository
	submissions *repository.SubmissionRepository
	awards      *repository.AwardRepository
	teams       *repository.TeamRepository
	users       *repository.UserRepository

	catalog     *CatalogService
	enrollment  *EnrollmentService
	unlock      *UnlockService
	award       *AwardService
	leaderboard *LeaderboardService
	submission  *SubmissionService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := newTestDB(t)
	env := &testEnv{
		db:          db,
		campaigns:   repository.NewCampaignRepository(db),
		tasks:       repository.NewTaskRepository(db),
		parts:       repository.NewParticipationRepository(db),
		submissions: repository.NewSubmissionRepository(db),
		awards:      repository.NewAwardRepository(db),
		teams:       repository.NewTeamRepository(db),
		users:       repository.NewUserRepository(db),
	}

	env.catalog = NewCatalogService(env.campaigns, env.tasks)
	env.enrollment = NewEnrollmentService(env.campaigns, env.tasks, env.parts, env.teams, db)
	env.unlock = NewUnlockService(env.tasks, env.submissions)
	env.award = NewAwardService(env.tasks, env.awards, env.parts, env.submissions, env.teams)
	env.leaderboard = NewLeaderboardService(env.parts, env.awards, env.submissions, nil, 0)

	cfg := &config.Config{}
	cfg.Proof.TextMinLength = 10
	env.submission = NewSubmissionService(
		env.campaigns, env.tasks, env.parts, env.submissions,
		env.unlock, env.award, env.leaderboard, nil, db, cfg,
	)

	// 固定时钟落在所有测试夹具的窗口内
	env.enrollment.Now = func() time.Time { return fixedNow }
	env.submission.Now = func() time.Time { return fixedNow }

	return env
}

var fixedNow = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

func (e *testEnv) makeCampaign(t *testing.T, maxParticipants *int) *model.Campaign {
	t.Helper()
	campaign := &model.Campaign{
		Name:            "夏季挑战赛",
		StartAt:         fixedNow.Add(-24 * time.Hour),
		EndAt:           fixedNow.Add(24 * time.Hour),
		IsActive:        true,
		MaxParticipants: maxParticipants,
	}
	require.NoError(t, e.campaigns.Create(campaign))
	return campaign
}

// makeTask 创建任务、挂入活动并按给定分值附上成就
func (e *testEnv) makeTask(t *testing.T, campaignID uint, points ...int) *model.Task {
	t.Helper()
	task := &model.Task{
		Name:     "任务",
		StartAt:  fixedNow.Add(-24 * time.Hour),
		EndAt:    fixedNow.Add(24 * time.Hour),
		IsActive: true,
	}
	require.NoError(t, e.tasks.Create(task))
	require.NoError(t, e.tasks.AttachToCampaign(campaignID, task.ID, 0))
	for i, p := range points {
		require.NoError(t, e.tasks.AddAchievement(&model.Achievement{
			TaskID: task.ID,
			Name:   "成就",
			Points: p,
			Order:  i,
		}))
	}
	return task
}

func (e *testEnv) enroll(t *testing.T, campaignID uint, kind model.ParticipantKind, participantID uint) {
	t.Helper()
	_, err := e.enrollment.Join(campaignID, kind, participantID)
	require.NoError(t, err)
}

// approveTask 直接落一条已通过的历史提交，绕开审核流程构造前置状态
func (e *testEnv) approveTask(t *testing.T, campaignID, taskID uint, kind model.ParticipantKind, participantID uint) {
	t.Helper()
	sub := &model.Submission{
		TaskID:          taskID,
		CampaignID:      campaignID,
		ParticipantKind: kind,
		ParticipantID:   participantID,
		SubmitterID:     participantID,
		ProofType:       model.ProofText,
		ProofRef:        "historical proof record",
		Status:          model.SubmissionApproved,
	}
	require.NoError(t, e.db.Create(sub).Error)
}

func (e *testEnv) submitText(campaignID, taskID uint, kind model.ParticipantKind, participantID uint) (*model.Submission, error) {
	return e.submission.Create(kind, participantID, participantID, SubmissionRequest{
		CampaignID: campaignID,
		TaskID:     taskID,
		ProofType:  model.ProofText,
		ProofRef:   "I finished this task, evidence attached",
	})
}
