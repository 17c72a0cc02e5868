package service

import (
	"context"
	"encoding/json"
	"fmt"
	"questline_backend/internal/model"
	"questline_backend/internal/repository"
	"questline_backend/pkg/logger"
	"sort"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// LeaderboardService 活动榜单
//
// 榜单是发放明细与参与记录的纯函数，不落任何名次列，随时可以
// 重算。redis 缓存只是读路径的短 TTL 旁路（秒级过期，发放时主动
// 失效），缓存不可用时直接回源计算。
type LeaderboardService struct {
	ParticipationRepo *repository.ParticipationRepository
	AwardRepo         *repository.AwardRepository
	SubmissionRepo    *repository.SubmissionRepository
	Redis             *redis.Client
	CacheTTL          time.Duration
}

func NewLeaderboardService(
	participationRepo *repository.ParticipationRepository,
	awardRepo *repository.AwardRepository,
	submissionRepo *repository.SubmissionRepository,
	rdb *redis.Client,
	cacheTTL time.Duration,
) *LeaderboardService {
	return &LeaderboardService{
		ParticipationRepo: participationRepo,
		AwardRepo:         awardRepo,
		SubmissionRepo:    submissionRepo,
		Redis:             rdb,
		CacheTTL:          cacheTTL,
	}
}

type LeaderboardEntry struct {
	Rank           int                   `json:"rank"`
	ParticipantID  uint                  `json:"participantId"`
	TotalPoints    int                   `json:"totalPoints"`
	TasksCompleted int                   `json:"tasksCompleted"`
	Kind           model.ParticipantKind `json:"kind"`
}

func leaderboardCacheKey(campaignID uint, kind model.ParticipantKind) string {
	return fmt.Sprintf("leaderboard:%d:%s", campaignID, kind)
}

// Rank 计算活动榜单。排序是全序的：积分降序，积分相同者按达到
// 该积分的最后一笔发放时间升序（先到先排），仍相同按参与者 ID
// 升序。名次从 1 起连续编号，并列分值不会产生空档。
func (s *LeaderboardService) Rank(ctx context.Context, campaignID uint, kind model.ParticipantKind) ([]LeaderboardEntry, error) {
	if cached, ok := s.fromCache(ctx, campaignID, kind); ok {
		return cached, nil
	}

	roster, err := s.ParticipationRepo.ListByCampaign(campaignID, kind)
	if err != nil {
		return nil, err
	}

	totals, err := s.AwardRepo.TotalsByCampaign(campaignID, kind)
	if err != nil {
		return nil, err
	}
	totalByID := make(map[uint]repository.AwardTotal, len(totals))
	for _, t := range totals {
		totalByID[t.ParticipantID] = t
	}

	if kind == model.ParticipantTeam {
		// 战队总分 = 战队名义的发放 + 成员个人发放映射到所属战队
		derived, err := s.AwardRepo.TeamDerivedTotals(campaignID)
		if err != nil {
			return nil, err
		}
		for _, d := range derived {
			merged := totalByID[d.ParticipantID]
			merged.ParticipantID = d.ParticipantID
			merged.TotalPoints += d.TotalPoints
			if d.LastAwardAt.After(merged.LastAwardAt) {
				merged.LastAwardAt = d.LastAwardAt
			}
			totalByID[d.ParticipantID] = merged
		}
	}

	completed, err := s.SubmissionRepo.CompletedCounts(campaignID, kind)
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0, len(roster))
	lastAward := make(map[uint]time.Time, len(roster))
	for _, p := range roster {
		t := totalByID[p.ParticipantID]
		entries = append(entries, LeaderboardEntry{
			ParticipantID:  p.ParticipantID,
			TotalPoints:    t.TotalPoints,
			TasksCompleted: completed[p.ParticipantID],
			Kind:           kind,
		})
		lastAward[p.ParticipantID] = t.LastAwardAt
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].TotalPoints != entries[j].TotalPoints {
			return entries[i].TotalPoints > entries[j].TotalPoints
		}
		ti, tj := lastAward[entries[i].ParticipantID], lastAward[entries[j].ParticipantID]
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return entries[i].ParticipantID < entries[j].ParticipantID
	})

	for i := range entries {
		entries[i].Rank = i + 1
	}

	s.toCache(ctx, campaignID, kind, entries)
	return entries, nil
}

// Podium 前三名即榜单头部，无独立计算口径
func (s *LeaderboardService) Podium(ctx context.Context, campaignID uint, kind model.ParticipantKind) ([]LeaderboardEntry, error) {
	entries, err := s.Rank(ctx, campaignID, kind)
	if err != nil {
		return nil, err
	}
	if len(entries) > 3 {
		entries = entries[:3]
	}
	return entries, nil
}

// Invalidate 发放落库后清掉两个口径的缓存条目
func (s *LeaderboardService) Invalidate(ctx context.Context, campaignID uint) {
	if s.Redis == nil {
		return
	}
	err := s.Redis.Del(ctx,
		leaderboardCacheKey(campaignID, model.ParticipantUser),
		leaderboardCacheKey(campaignID, model.ParticipantTeam),
	).Err()
	if err != nil {
		logger.Log.Warn("invalidate leaderboard cache", zap.Uint("campaign", campaignID), zap.Error(err))
	}
}

func (s *LeaderboardService) fromCache(ctx context.Context, campaignID uint, kind model.ParticipantKind) ([]LeaderboardEntry, bool) {
	if s.Redis == nil {
		return nil, false
	}
	raw, err := s.Redis.Get(ctx, leaderboardCacheKey(campaignID, kind)).Result()
	if err != nil {
		if err != redis.Nil {
			logger.Log.Warn("read leaderboard cache", zap.Error(err))
		}
		return nil, false
	}
	var entries []LeaderboardEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, false
	}
	return entries, true
}

func (s *LeaderboardService) toCache(ctx context.Context, campaignID uint, kind model.ParticipantKind, entries []LeaderboardEntry) {
	if s.Redis == nil {
		return
	}
	body, err := json.Marshal(entries)
	if err != nil {
		return
	}
	ttl := s.CacheTTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if err := s.Redis.Set(ctx, leaderboardCacheKey(campaignID, kind), body, ttl).Err(); err != nil {
		logger.Log.Warn("write leaderboard cache", zap.Error(err))
	}
}
