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
	"anoa.com/datingapp/pkg/sanitize"
	"anoa.com/datingapp/pkg/token"
	"gorm.io/gorm"
)

const minimumAge = 18

type AuthService interface {
	Register(ctx context.Context, req dto.RegisterRequest) (*dto.MemberDetailResponse, error)
	Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error)
}

type authService struct {
	repo     userRepo.UserRepository
	identity userRepo.IdentityStore
	tokens   *token.Manager
	meili    search.MemberIndex
	now      func() time.Time
}

func NewAuthService(repo userRepo.UserRepository, identity userRepo.IdentityStore, tokens *token.Manager, meili search.MemberIndex) AuthService {
	return &authService{
		repo:     repo,
		identity: identity,
		tokens:   tokens,
		meili:    meili,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *authService) Register(ctx context.Context, req dto.RegisterRequest) (*dto.MemberDetailResponse, error) {
	_, err := s.identity.FindUserByName(ctx, req.Username)
	if err == nil {
		return nil, apperror.Generic("username is already taken")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.Database("failed to check username", err)
	}

	dob, err := time.Parse("2006-01-02", req.DateOfBirth)
	if err != nil {
		return nil, apperror.Generic("date_of_birth must be formatted as YYYY-MM-DD")
	}
	now := s.now()
	candidate := entity.User{DateOfBirth: dob}
	if candidate.Age(now) < minimumAge {
		return nil, apperror.Generic("members must be at least 18 years old")
	}

	hash, err := s.identity.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	member, err := s.repo.FindRoleByName(ctx, entity.RoleMember)
	if err != nil {
		return nil, apperror.Database("member role is not seeded", err)
	}

	user := &entity.User{
		Username:     req.Username,
		PasswordHash: hash,
		Gender:       req.Gender,
		DateOfBirth:  dob,
		KnownAs:      sanitize.Text(req.KnownAs),
		City:         sanitize.Text(req.City),
		Country:      sanitize.Text(req.Country),
		CreatedAt:    now,
		LastActive:   now,
		Roles:        []entity.Role{*member},
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.Generic("username is already taken")
		}
		return nil, apperror.Database("failed to create user", err)
	}

	if s.meili != nil {
		if err := s.meili.IndexMember(ctx, user); err != nil {
			logger.Warn("failed to index member", "user_id", user.ID, "error", err)
		}
	}

	resp := dto.ToMemberDetailResponse(user, now)
	return &resp, nil
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.identity.FindUserByName(ctx, req.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Unauthorized("invalid username or password")
		}
		return nil, apperror.Database("failed to load user", err)
	}

	if !s.identity.VerifyPassword(user, req.Password) {
		return nil, apperror.Unauthorized("invalid username or password")
	}

	roles, err := s.identity.GetRoles(ctx, user.ID)
	if err != nil {
		return nil, apperror.Database("failed to load roles", err)
	}

	signed, expiresAt, err := s.tokens.Generate(user.ID, user.Username, roles)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.repo.TouchLastActive(ctx, user.ID, now); err != nil {
		logger.Warn("failed to update last active", "user_id", user.ID, "error", err)
	} else {
		user.LastActive = now
	}

	return &dto.AuthResponse{
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresIn:   expiresAt.Unix(),
		User:        dto.ToMemberResponse(user, now),
		Roles:       roles,
	}, nil
}
