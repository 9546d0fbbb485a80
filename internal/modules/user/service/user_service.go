package service

import (
	"context"
	"errors"
	"time"

	"anoa.com/datingapp/internal/entity"
	search "anoa.com/datingapp/internal/modules/search/service"
	"anoa.com/datingapp/internal/modules/user/dto"
	userRepo "anoa.com/datingapp/internal/modules/user/repository"
	"anoa.com/datingapp/pkg/apperror"
	"anoa.com/datingapp/pkg/logger"
	"anoa.com/datingapp/pkg/pagination"
	"anoa.com/datingapp/pkg/sanitize"
	"gorm.io/gorm"
)

type UserService interface {
	GetUser(ctx context.Context, requesterID, id uint) (*dto.MemberDetailResponse, error)
	GetUsers(ctx context.Context, filter dto.UserFilter) (pagination.Page[dto.MemberResponse], error)
	UpdateUser(ctx context.Context, id uint, req dto.UpdateUserRequest) error
	TouchLastActive(ctx context.Context, id uint) error
	SearchMembers(ctx context.Context, req dto.SearchRequest) (pagination.Page[dto.MemberResponse], error)
	ReindexMembers(ctx context.Context) (int, error)
}

type userService struct {
	repo  userRepo.UserRepository
	meili search.MemberIndex
	now   func() time.Time
}

func NewUserService(repo userRepo.UserRepository, meili search.MemberIndex) UserService {
	return &userService{
		repo:  repo,
		meili: meili,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// GetUser returns the member profile. Pending photos are only visible to the owner.
func (s *userService) GetUser(ctx context.Context, requesterID, id uint) (*dto.MemberDetailResponse, error) {
	user, err := s.repo.FindByID(ctx, id, requesterID == id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("user not found")
		}
		return nil, apperror.Database("failed to load user", err)
	}

	resp := dto.ToMemberDetailResponse(user, s.now())
	return &resp, nil
}

func (s *userService) GetUsers(ctx context.Context, filter dto.UserFilter) (pagination.Page[dto.MemberResponse], error) {
	if !filter.Likers && !filter.Likees && filter.Gender == "" {
		requester, err := s.repo.FindByID(ctx, filter.RequesterID, false)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pagination.Page[dto.MemberResponse]{}, apperror.NotFound("user not found")
			}
			return pagination.Page[dto.MemberResponse]{}, apperror.Database("failed to load user", err)
		}
		filter.Gender = entity.OppositeGender(requester.Gender)
	}

	minAge, maxAge := filter.Ages()
	if minAge > maxAge {
		return pagination.Page[dto.MemberResponse]{}, apperror.Generic("minAge cannot be greater than maxAge")
	}

	now := s.now()
	page, err := s.repo.Query(ctx, filter, now)
	if err != nil {
		return pagination.Page[dto.MemberResponse]{}, apperror.Database("failed to query users", err)
	}

	return pagination.Page[dto.MemberResponse]{
		Items: dto.ToMemberResponses(page.Items, now),
		Meta:  page.Meta,
	}, nil
}

func (s *userService) UpdateUser(ctx context.Context, id uint, req dto.UpdateUserRequest) error {
	user, err := s.repo.FindByID(ctx, id, true)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound("user not found")
		}
		return apperror.Database("failed to load user", err)
	}

	user.Introduction = sanitize.Optional(req.Introduction)
	user.LookingFor = sanitize.Optional(req.LookingFor)
	user.Interests = sanitize.Optional(req.Interests)
	user.City = sanitize.Text(req.City)
	user.Country = sanitize.Text(req.Country)

	if err := s.repo.UpdateProfile(ctx, user); err != nil {
		return apperror.Database("failed to update user", err)
	}

	if s.meili != nil {
		if err := s.meili.IndexMember(ctx, user); err != nil {
			logger.Warn("failed to reindex member", "user_id", user.ID, "error", err)
		}
	}
	return nil
}

func (s *userService) TouchLastActive(ctx context.Context, id uint) error {
	if err := s.repo.TouchLastActive(ctx, id, s.now()); err != nil {
		return apperror.Database("failed to update last active", err)
	}
	return nil
}

// SearchMembers runs the full text search and hydrates hits from the database,
// keeping the relevance order. Hits deleted since indexing are skipped.
func (s *userService) SearchMembers(ctx context.Context, req dto.SearchRequest) (pagination.Page[dto.MemberResponse], error) {
	if s.meili == nil {
		return pagination.Page[dto.MemberResponse]{}, apperror.Generic("member search is not available")
	}

	params := req.Params.Normalize()
	ids, total, err := s.meili.SearchMembers(ctx, sanitize.Text(req.Query), params)
	if err != nil {
		return pagination.Page[dto.MemberResponse]{}, err
	}

	users, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return pagination.Page[dto.MemberResponse]{}, apperror.Database("failed to load users", err)
	}

	byID := make(map[uint]*entity.User, len(users))
	for i := range users {
		byID[users[i].ID] = &users[i]
	}

	now := s.now()
	items := make([]dto.MemberResponse, 0, len(ids))
	for _, id := range ids {
		if u, ok := byID[id]; ok {
			items = append(items, dto.ToMemberResponse(u, now))
		}
	}

	return pagination.Page[dto.MemberResponse]{
		Items: items,
		Meta:  pagination.NewMeta(params, total),
	}, nil
}

// ReindexMembers pushes every member to the search index. Indexing on register and
// update is best-effort, so this repairs any drift.
func (s *userService) ReindexMembers(ctx context.Context) (int, error) {
	if s.meili == nil {
		return 0, apperror.Generic("member search is not available")
	}

	users, err := s.repo.FindAllWithRoles(ctx)
	if err != nil {
		return 0, apperror.Database("failed to load users", err)
	}
	if err := s.meili.IndexMembers(ctx, users); err != nil {
		return 0, err
	}
	return len(users), nil
}
