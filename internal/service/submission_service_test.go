package service

import (
	"questline_backend/internal/model"
	"questline_backend/internal/util"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSubmission_Pending(t *testing.T) {
	env := newTestEnv(t)
	campaign := env.makeCampaign(t, nil)
	task := env.makeTask(t, campaign.ID, 10)
	env.enroll(t, campaign.ID, model.ParticipantUser, 1)

	sub, err := env.submitText(campaign.ID, task.ID, model.ParticipantUser, 1)
	require.NoError(t, err)
	assert.Equal(t, model.SubmissionPending, sub.Status)
	assert.NotEmpty(t, sub.ID)
	assert.Nil(t, sub.EarnedPoints)
}

func TestCreateSubmission_NotEnrolled(t *testing.T) {
	env := newTestEnv(t)
	campaign := env.makeCampaign(t, nil)
	task := env.makeTask(t, campaign.ID)

	_, err := env.submitText(campaign.ID, task.ID, model.ParticipantUser, 1)
	require.Error(t, err)
	assert.True(t, util.IsNotEligible(err))
}

func TestCreateSubmission_LockedTask(t *testing.T) {
	env := newTestEnv(t)
	campaign := env.makeCampaign(t, nil)
	dep := env.makeTask(t, campaign.ID)
	gated := env.makeTask(t, campaign.ID)
	require.NoError(t, env.tasks.AddDependency(&model.TaskDependency{
		TaskID: gated.ID, DependsOnTaskID: dep.ID, DependencyType: model.DependencyAll,
	}))
	env.enroll(t, campaign.ID, model.ParticipantUser, 1)

	_, err := env.submitText(campaign.ID, gated.ID, model.ParticipantUser, 1)
	require.Error(t, err)
	assert.True(t, util.IsNotEligible(err))
}

func TestCreateSubmission_TaskNotInCampaign(t *testing.T) {
	env := newTestEnv(t)
	campaign := env.makeCampaign(t, nil)
	other := env.makeCampaign(t, nil)
	task := env.makeTask(t, other.ID)
	env.enroll(t, campaign.ID, model.ParticipantUser, 1)

	_, err := env.submitText(campaign.ID, task.ID, model.ParticipantUser, 1)
	assert.ErrorIs(t, err, util.ErrTaskNotFound)
}

func TestCreateSubmission_TaskWindowClosed(t *testing.T) {
	env := newTestEnv(t)
	campaign := env.makeCampaign(t, nil)
	task := env.makeTask(t, campaign.ID)
	env.enroll(t, campaign.ID, model.ParticipantUser, 1)

	// 活动仍开放但任务自身窗口已过
	require.NoError(t, env.db.Model(&model.Task{}).
		Where("id = ?", task.ID).
		Update("end_at", fixedNow.Add(-time.Hour)).Error)

	_, err := env.submitText(campaign.ID, task.ID, model.ParticipantUser, 1)
	require.Error(t, err)
	assert.True(t, util.IsNotEligible(err))
}

func TestCreateSubmission_DuplicatePending(t *testing.T) {
	env := newTestEnv(t)
	campaign := env.makeCampaign(t, nil)
	task := env.makeTask(t, campaign.ID)
	env.enroll(t, campaign.ID, model.ParticipantUser, 1)

	_, err := env.submitText(campaign.ID, task.ID, model.ParticipantUser, 1)
	require.NoError(t, err)

	_, err = env.submitText(campaign.ID, task.ID, model.ParticipantUser, 1)
	require.Error(t, err)
	assert.True(t, util.IsNotEligible(err), "second pending submission for same task")

	// 其他任务不受影响
	other := env.makeTask(t, campaign.ID)
	_, err = env.submitText(campaign.ID, other.ID, model.ParticipantUser, 1)
	assert.NoError(t, err)
}

func TestValidateProof(t *testing.T) {
	env := newTestEnv(t)
	campaign := env.makeCampaign(t, nil)
	task := env.makeTask(t, campaign.ID)
	env.enroll(t, campaign.ID, model.ParticipantUser, 1)

	cases := []struct {
		name      string
		proofType model.ProofType
		proofRef  string
		wantErr   bool
	}{
		{"文本太短", model.ProofText, "too short", true},
		{"文本达标", model.ProofText, "this proof is long enough", false},
		{"相对URL", model.ProofURL, "/just/a/path", true},
		{"绝对URL", model.ProofURL, "https://example.com/run/42", false},
		{"图片缺引用", model.ProofImage, "   ", true},
		{"未知类型", model.ProofType("VIDEO"), "whatever", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.submission.Create(model.ParticipantUser, 1, 1, SubmissionRequest{
				CampaignID: campaign.ID,
				TaskID:     task.ID,
				ProofType:  tc.proofType,
				ProofRef:   tc.proofRef,
			})
			if tc.wantErr {
				require.Error(t, err)
				assert.True(t, util.IsValidation(err))
			} else {
				require.NoError(t, err)
				// 清掉待审记录，避免影响下一个子用例
				require.NoError(t, env.db.Exec("DELETE FROM submissions").Error)
			}
		})
	}
}

func TestReview_ApproveCreditsPoints(t *testing.T) {
	env := newTestEnv(t)
	campaign := env.makeCampaign(t, nil)
	task := env.makeTask(t, campaign.ID, 50, 30)
	env.enroll(t, campaign.ID, model.ParticipantUser, 1)

	sub, err := env.submitText(campaign.ID, task.ID, model.ParticipantUser, 1)
	require.NoError(t, err)

	reviewed, err := env.submission.Review(9, sub.ID, DecisionApprove, "looks good")
	require.NoError(t, err)
	assert.Equal(t, model.SubmissionApproved, reviewed.Status)
	require.NotNil(t, reviewed.EarnedPoints)
	assert.Equal(t, 80, *reviewed.EarnedPoints)
	require.NotNil(t, reviewed.ReviewerID)
	assert.Equal(t, uint(9), *reviewed.ReviewerID)
	assert.NotNil(t, reviewed.ReviewedAt)

	var awards []model.AchievementAward
	require.NoError(t, env.db.Find(&awards).Error)
	assert.Len(t, awards, 2)

	participation, err := env.parts.Find(campaign.ID, model.ParticipantUser, 1)
	require.NoError(t, err)
	assert.Equal(t, 80, participation.TotalPoints)
	assert.Equal(t, 1, participation.CompletedCount)
}

func TestReview_RejectGrantsNothing(t *testing.T) {
	env := newTestEnv(t)
	campaign := env.makeCampaign(t, nil)
	task := env.makeTask(t, campaign.ID, 50)
	env.enroll(t, campaign.ID, model.ParticipantUser, 1)

	sub, err := env.submitText(campaign.ID, task.ID, model.ParticipantUser, 1)
	require.NoError(t, err)

	reviewed, err := env.submission.Review(9, sub.ID, DecisionReject, "not enough evidence")
	require.NoError(t, err)
	assert.Equal(t, model.SubmissionRejected, reviewed.Status)
	assert.Equal(t, "not enough evidence", reviewed.ReviewerFeedback)

	var count int64
	require.NoError(t, env.db.Model(&model.AchievementAward{}).Count(&count).Error)
	assert.Zero(t, count)

	participation, err := env.parts.Find(campaign.ID, model.ParticipantUser, 1)
	require.NoError(t, err)
	assert.Zero(t, participation.TotalPoints)
}

func TestReview_RejectAllowsResubmit(t *testing.T) {
	env := newTestEnv(t)
	campaign := env.makeCampaign(t, nil)
	task := env.makeTask(t, campaign.ID, 50)
	env.enroll(t, campaign.ID, model.ParticipantUser, 1)

	first, err := env.submitText(campaign.ID, task.ID, model.ParticipantUser, 1)
	require.NoError(t, err)
	_, err = env.submission.Review(9, first.ID, DecisionReject, "")
	require.NoError(t, err)

	second, err := env.submitText(campaign.ID, task.ID, model.ParticipantUser, 1)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	// 被驳回的记录保留
	kept, err := env.submissions.FindByID(nil, first.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SubmissionRejected, kept.Status)
}

func TestReview_DoubleReviewConflict(t *testing.T) {
	env := newTestEnv(t)
	campaign := env.makeCampaign(t, nil)
	task := env.makeTask(t, campaign.ID, 50)
	env.enroll(t, campaign.ID, model.ParticipantUser, 1)

	sub, err := env.submitText(campaign.ID, task.ID, model.ParticipantUser, 1)
	require.NoError(t, err)
	_, err = env.submission.Review(9, sub.ID, DecisionApprove, "")
	require.NoError(t, err)

	_, err = env.submission.Review(10, sub.ID, DecisionReject, "changed my mind")
	require.Error(t, err)
	assert.True(t, util.IsConflict(err))

	// 复审失败不改动已发放的积分
	participation, err := env.parts.Find(campaign.ID, model.ParticipantUser, 1)
	require.NoError(t, err)
	assert.Equal(t, 50, participation.TotalPoints)

	kept, err := env.submissions.FindByID(nil, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SubmissionApproved, kept.Status)
}

func TestReview_ConcurrentReviewersSingleWinner(t *testing.T) {
	env := newTestEnv(t)
	campaign := env.makeCampaign(t, nil)
	task := env.makeTask(t, campaign.ID, 50)
	env.enroll(t, campaign.ID, model.ParticipantUser, 1)

	sub, err := env.submitText(campaign.ID, task.ID, model.ParticipantUser, 1)
	require.NoError(t, err)

	const reviewers = 8
	var wg sync.WaitGroup
	errs := make([]error, reviewers)
	for i := 0; i < reviewers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.submission.Review(uint(100+i), sub.ID, DecisionApprove, "")
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			assert.True(t, util.IsConflict(err))
		}
	}
	assert.Equal(t, 1, wins, "exactly one reviewer lands the decision")

	var count int64
	require.NoError(t, env.db.Model(&model.AchievementAward{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	participation, err := env.parts.Find(campaign.ID, model.ParticipantUser, 1)
	require.NoError(t, err)
	assert.Equal(t, 50, participation.TotalPoints)
}

func TestReview_InvalidDecision(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.submission.Review(9, "some-id", ReviewDecision("MAYBE"), "")
	require.Error(t, err)
	assert.True(t, util.IsValidation(err))
}

func TestReview_ReapprovalAfterRejectDoesNotDoubleCredit(t *testing.T) {
	env := newTestEnv(t)
	campaign := env.makeCampaign(t, nil)
	task := env.makeTask(t, campaign.ID, 50)
	env.enroll(t, campaign.ID, model.ParticipantUser, 1)

	first, err := env.submitText(campaign.ID, task.ID, model.ParticipantUser, 1)
	require.NoError(t, err)
	_, err = env.submission.Review(9, first.ID, DecisionApprove, "")
	require.NoError(t, err)

	// 奇怪但允许的序列：通过之后参与者又提了一次，再次通过
	second, err := env.submitText(campaign.ID, task.ID, model.ParticipantUser, 1)
	require.NoError(t, err)
	reviewed, err := env.submission.Review(9, second.ID, DecisionApprove, "")
	require.NoError(t, err)

	// 成就唯一索引挡住重复发放，二次通过记 0 分
	require.NotNil(t, reviewed.EarnedPoints)
	assert.Zero(t, *reviewed.EarnedPoints)

	participation, err := env.parts.Find(campaign.ID, model.ParticipantUser, 1)
	require.NoError(t, err)
	assert.Equal(t, 50, participation.TotalPoints)
	assert.Equal(t, 1, participation.CompletedCount, "re-approval does not advance completion")
}
