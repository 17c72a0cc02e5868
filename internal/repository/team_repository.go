package repository

import (
	"questline_backend/internal/model"

	"gorm.io/gorm"
)

type TeamRepository struct {
	DB *gorm.DB
}

func NewTeamRepository(db *gorm.DB) *TeamRepository {
	return &TeamRepository{DB: db}
}

func (r *TeamRepository) Create(team *model.Team) error {
	return r.DB.Create(team).Error
}

func (r *TeamRepository) FindByID(id uint) (*model.Team, error) {
	var team model.Team
	err := r.DB.First(&team, id).Error
	return &team, err
}

func (r *TeamRepository) AddMember(member *model.TeamMember) error {
	return r.DB.Create(member).Error
}

func (r *TeamRepository) FindMembers(teamID uint) ([]model.TeamMember, error) {
	var members []model.TeamMember
	err := r.DB.Where("team_id = ?", teamID).Find(&members).Error
	return members, err
}

func (r *TeamRepository) FindMemberByUser(userID uint) (*model.TeamMember, error) {
	var member model.TeamMember
	err := r.DB.Where("user_id = ?", userID).First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}
