package service

import (
	"errors"
	"questline_backend/internal/model"
	"questline_backend/internal/repository"
	"questline_backend/internal/util"

	"gorm.io/gorm"
)

type TeamService struct {
	TeamRepo *repository.TeamRepository
	UserRepo *repository.UserRepository
}

func NewTeamService(teamRepo *repository.TeamRepository, userRepo *repository.UserRepository) *TeamService {
	return &TeamService{
		TeamRepo: teamRepo,
		UserRepo: userRepo,
	}
}

type TeamRequest struct {
	Name   string `json:"name" binding:"required"`
	Avatar string `json:"avatar"`
}

// CreateTeam 创建战队，创建者为队长并自动入队
func (s *TeamService) CreateTeam(captainID uint, req TeamRequest) (*model.Team, error) {
	if existing, err := s.TeamRepo.FindMemberByUser(captainID); err == nil && existing != nil {
		return nil, util.Conflictf("already a member of team %d", existing.TeamID)
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	team := &model.Team{
		Name:      req.Name,
		CaptainID: captainID,
		Avatar:    req.Avatar,
	}
	if err := s.TeamRepo.Create(team); err != nil {
		return nil, err
	}

	if err := s.TeamRepo.AddMember(&model.TeamMember{TeamID: team.ID, UserID: captainID}); err != nil {
		return nil, err
	}
	if err := s.UserRepo.SetTeam(captainID, &team.ID); err != nil {
		return nil, err
	}

	return team, nil
}

// JoinTeam 加入战队，一个用户同一时间只属于一个战队
func (s *TeamService) JoinTeam(userID, teamID uint) error {
	if _, err := s.TeamRepo.FindByID(teamID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrTeamNotFound
		}
		return err
	}

	if err := s.TeamRepo.AddMember(&model.TeamMember{TeamID: teamID, UserID: userID}); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return util.Conflictf("user %d already belongs to a team", userID)
		}
		return err
	}

	return s.UserRepo.SetTeam(userID, &teamID)
}

func (s *TeamService) GetTeam(teamID uint) (*model.Team, []model.TeamMember, error) {
	team, err := s.TeamRepo.FindByID(teamID)
	if err != nil {
		return nil, nil, err
	}
	members, err := s.TeamRepo.FindMembers(teamID)
	if err != nil {
		return nil, nil, err
	}
	return team, members, nil
}
